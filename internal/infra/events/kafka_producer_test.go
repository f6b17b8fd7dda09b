package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

// blockingWriter holds every write until release is closed.
type blockingWriter struct {
	release chan struct{}
	mu      sync.Mutex
	written []kafka.Message
}

func (w *blockingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	<-w.release
	w.mu.Lock()
	defer w.mu.Unlock()
	w.written = append(w.written, msgs...)
	return nil
}

func (w *blockingWriter) Close() error { return nil }

func (w *blockingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func TestNewProducer(t *testing.T) {
	producer := NewProducer([]string{"localhost:9092"}, "jobflow.events", zaptest.NewLogger(t))
	defer close(producer.closeChan)

	assert.NotNil(t, producer.writer)
	assert.NotNil(t, producer.events)
	assert.Equal(t, "kafka_producer", producer.logger.Check(zap.InfoLevel, "").LoggerName)
}

func TestProducer_PublishDropsWhenFull(t *testing.T) {
	core, recorded := observer.New(zap.WarnLevel)
	w := &blockingWriter{release: make(chan struct{})}
	producer := newProducer(w, zap.New(core), 1)

	event := domain.Event{Type: domain.EventApplicationSubmitted, Key: "job-1"}
	// first one is picked up by the loop and blocks in the writer, second fills the buffer
	producer.Publish(context.Background(), event)
	require.Eventually(t, func() bool { return len(producer.events) == 0 }, time.Second, 5*time.Millisecond)
	producer.Publish(context.Background(), event)
	producer.Publish(context.Background(), event)

	assert.Equal(t, 1, recorded.FilterMessage("Kafka producer queue full, dropping event").Len())

	close(w.release)
	producer.Close()
	assert.Equal(t, 2, w.count())
}

func TestProducer_SendEvent(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &Producer{writer: mockWriter, logger: zaptest.NewLogger(t)}
	event := domain.Event{
		Type:       domain.EventJobPublished,
		Key:        "job-42",
		Attributes: map[string]string{"company": "Acme"},
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("successful send", func(t *testing.T) {
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

		producer.sendEvent(context.Background(), event)

		value, err := json.Marshal(event)
		require.NoError(t, err)
		mockWriter.AssertCalled(t, "WriteMessages", mock.Anything, []kafka.Message{
			{
				Key:     []byte("job-42"),
				Value:   value,
				Headers: []kafka.Header{{Key: "event_type", Value: []byte("job_published")}},
			},
		})
	})

	t.Run("serialization error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)

		oldMarshal := jsonMarshal
		jsonMarshal = func(_ interface{}) ([]byte, error) {
			return nil, errors.New("mock marshal error")
		}
		defer func() { jsonMarshal = oldMarshal }()

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to serialize event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.String("key", "job-42")).Len())
	})

	t.Run("write error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)
		mockWriter.ExpectedCalls = nil
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("kafka error"))

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to produce event").Len())
	})
}

func TestProducer_CloseFlushesQueue(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)
	mockWriter.On("Close").Return(nil)

	producer := newProducer(mockWriter, zaptest.NewLogger(t), 10)
	for i := 0; i < 3; i++ {
		producer.Publish(context.Background(), domain.Event{Type: domain.EventVideoCompleted, Key: "c1"})
	}
	producer.Close()

	mockWriter.AssertNumberOfCalls(t, "WriteMessages", 3)
	mockWriter.AssertCalled(t, "Close")
}

func TestProducer_CloseLogsWriterError(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	mockWriter := new(MockKafkaWriter)
	mockWriter.On("Close").Return(errors.New("close error"))

	producer := newProducer(mockWriter, zap.New(core), 1)
	producer.Close()

	assert.Equal(t, 1, recorded.FilterMessage("Failed to close Kafka writer").Len())
}

func TestLogPublisher(t *testing.T) {
	core, recorded := observer.New(zap.DebugLevel)
	p := NewLogPublisher(zap.New(core))

	p.Publish(context.Background(), domain.Event{Type: domain.EventCourseEnrolled, Key: "u1"})

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "events", recorded.All()[0].LoggerName)
}
