// Package store is the single owner of JobFlow's persisted state. It exposes
// typed read/write operations per entity on top of a key-value accessor,
// keeps raw values in a TTL cache invalidated on every write, and serialises
// read-modify-write cycles per key. Read-modify-write always reads the
// key-value store, never the cache.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
	"github.com/boddenberg/jobflow-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("store")

// Persisted key names.
const (
	KeyRegisteredUsers     = "registeredUsers"
	KeyRegisteredCompanies = "registeredCompanies"
	KeyJobs                = "jobs"
	KeyCoursesData         = "coursesData"

	KeyCurrentUser       = "currentUser"
	KeyIsUserLoggedIn    = "isUserLoggedIn"
	KeyCompanyUser       = "companyUser"
	KeyIsCompanyLoggedIn = "isCompanyLoggedIn"
	KeyCurrentCourse     = "currentCourse"
	KeySearchTerm        = "searchTerm"
	KeyExpiresAt         = "expiresAt"

	KeyApplications     = "applications"
	KeyUserApplications = "userApplications"
	KeyJobApplicants    = "jobApplicants"
)

// schemaVersion is written into every envelope.
const schemaVersion = 1

func sessionKey(sessionID, name string) string { return "session/" + sessionID + "/" + name }
func userKey(userID, name string) string       { return "user/" + userID + "/" + name }
func jobKey(jobID, name string) string         { return "job/" + jobID + "/" + name }

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

// Store implements the persistence ports over a port.KeyValueStore.
type Store struct {
	kv      port.KeyValueStore
	cache   port.Cache[string]
	locks   *keyedMutex
	metrics *observability.Metrics

	// fillMu guards gen. A cache fill only lands if no write finished
	// since the filling reader went to the key-value store.
	fillMu sync.Mutex
	gen    uint64

	logger  *zap.Logger
}

// New creates a store. cache and metrics may be nil.
func New(kv port.KeyValueStore, cache port.Cache[string], metrics *observability.Metrics, logger *zap.Logger) *Store {
	return &Store{
		kv:      kv,
		cache:   cache,
		locks:   newKeyedMutex(),
		metrics: metrics,
		logger:  logger.Named("store"),
	}
}

// Ping checks the underlying key-value store.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// raw reads the stored text of key through the cache.
func (s *Store) raw(ctx context.Context, key string) (string, bool, error) {
	if s.cache == nil {
		return s.fresh(ctx, key)
	}
	if v, ok := s.cache.Get(key); ok {
		s.cacheHit()
		return v, true, nil
	}
	s.cacheMiss()

	gen := s.generation()
	v, ok, err := s.fresh(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	s.fill(key, v, gen)
	return v, true, nil
}

// fresh reads key from the key-value store, bypassing the cache.
func (s *Store) fresh(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return v, ok, nil
}

func (s *Store) generation() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gen
}

// fill caches v unless a write completed after gen was taken.
func (s *Store) fill(key, v string, gen uint64) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.gen == gen {
		s.cache.Set(key, v)
	}
}

// written must follow every successful write to the key-value store.
func (s *Store) written(key string) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen++
	if s.cache != nil {
		s.cache.Delete(key)
	}
}

func (s *Store) cacheHit() {
	if s.metrics != nil {
		s.metrics.IncrCacheHit("store")
	}
}

func (s *Store) cacheMiss() {
	if s.metrics != nil {
		s.metrics.IncrCacheMiss("store")
	}
}

// decodeValue unwraps the envelope, migrates older payloads and decodes into out.
func decodeValue(key, raw string, out any) error {
	version, data, err := unwrap(raw)
	if err != nil {
		return &domain.ErrCorruptRecord{Key: key, Err: err}
	}
	if version < schemaVersion {
		data, err = migrate(key, version, data)
		if err != nil {
			return &domain.ErrCorruptRecord{Key: key, Err: err}
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.ErrCorruptRecord{Key: key, Err: err}
	}
	return nil
}

// unwrap splits a stored value into its schema version and payload. Values
// that are valid JSON but not an envelope are version 0.
func unwrap(raw string) (int, json.RawMessage, error) {
	b := bytes.TrimSpace([]byte(raw))
	if !json.Valid(b) {
		return 0, nil, fmt.Errorf("value is not valid JSON")
	}
	if len(b) > 0 && b[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err == nil && len(fields) == 2 {
			v, hasV := fields["v"]
			data, hasData := fields["data"]
			var version int
			if hasV && hasData && json.Unmarshal(v, &version) == nil {
				return version, data, nil
			}
		}
	}
	return 0, b, nil
}

func encodeValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(envelope{V: schemaVersion, Data: data})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// load decodes key into a T; a missing key yields the zero T and ok=false.
func load[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	raw, ok, err := s.raw(ctx, key)
	return decodeAs[T](s, key, raw, ok, err)
}

// loadFresh is load without the cache. Callers holding the key lock use it.
func loadFresh[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	raw, ok, err := s.fresh(ctx, key)
	return decodeAs[T](s, key, raw, ok, err)
}

func decodeAs[T any](s *Store, key, raw string, ok bool, err error) (T, bool, error) {
	var out T
	if err != nil || !ok {
		return out, false, err
	}
	if err := decodeValue(key, raw, &out); err != nil {
		s.logger.Warn("corrupt record", zap.String("key", key), zap.Error(err))
		return out, false, err
	}
	return out, true, nil
}

func save[T any](ctx context.Context, s *Store, key string, v T) error {
	raw, err := encodeValue(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.put(ctx, key, raw)
}

// put writes an already encoded value.
func (s *Store) put(ctx context.Context, key, raw string) error {
	err := s.kv.Set(ctx, key, raw)
	s.written(key)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// putMany writes encoded values in one batch, holding every key lock.
func (s *Store) putMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		unlock := s.locks.Lock(k)
		defer unlock()
	}

	err := s.kv.SetMany(ctx, values)
	for _, k := range keys {
		s.written(k)
	}
	if err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	s.written(key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// update runs a locked read-modify-write of key. fn receives the current
// value (zero when missing); returning an error aborts without writing.
func update[T any](ctx context.Context, s *Store, key string, fn func(*T) error) (T, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	v, _, err := loadFresh[T](ctx, s, key)
	if err != nil {
		return v, err
	}
	if err := fn(&v); err != nil {
		return v, err
	}
	if err := save(ctx, s, key, v); err != nil {
		return v, err
	}
	return v, nil
}

// keyedMutex hands out one mutex per key, dropping it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
