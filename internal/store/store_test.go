package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/cache"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/kvstore"
	"github.com/boddenberg/jobflow-bfa-go/internal/infra/observability"
)

func init() {
	migrationBcryptCost = bcrypt.MinCost
}

type testEnv struct {
	store   *Store
	kv      *kvstore.Store
	metrics *observability.Metrics
}

func setupStore(t *testing.T) testEnv {
	t.Helper()
	kv, err := kvstore.Open(kvstore.Config{Driver: kvstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	c := cache.New[string](time.Minute)
	t.Cleanup(c.Close)

	m := observability.NewMetrics()
	return testEnv{store: New(kv, c, m, zap.NewNop()), kv: kv, metrics: m}
}

func TestUsers_CreateFindUpdate(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	u := &domain.User{ID: "u1", Email: "ana@example.com", Name: "Ana", Role: domain.RoleCandidate}
	require.NoError(t, env.store.CreateUser(ctx, u))

	err := env.store.CreateUser(ctx, &domain.User{ID: "u2", Email: "ANA@example.com"})
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	found, err := env.store.FindUserByEmail(ctx, "Ana@Example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.ID)

	missing, err := env.store.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := env.store.UpdateUser(ctx, "u1", func(u *domain.User) error {
		u.Bio = "Go developer"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Go developer", updated.Bio)

	got, err := env.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Go developer", got.Bio)

	_, err = env.store.GetUser(ctx, "nope")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateUser_ErrorAbortsWrite(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()
	require.NoError(t, env.store.CreateUser(ctx, &domain.User{ID: "u1", Email: "a@b.com", Name: "A"}))

	boom := errors.New("boom")
	_, err := env.store.UpdateUser(ctx, "u1", func(u *domain.User) error {
		u.Name = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := env.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestValuesAreEnveloped(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()
	require.NoError(t, env.store.AddJob(ctx, &domain.Job{ID: "j1", Title: "Go", Company: "Acme", Status: domain.JobStatusOpen}))

	raw, ok, err := env.kv.Get(ctx, KeyJobs)
	require.NoError(t, err)
	require.True(t, ok)

	var env1 struct {
		V    int               `json:"v"`
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &env1))
	assert.Equal(t, 1, env1.V)
	assert.Len(t, env1.Data, 1)
}

func TestJobs_NewestFirstAndDelete(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	require.NoError(t, env.store.AddJob(ctx, &domain.Job{ID: "j1", CompanyID: "c1", Company: "Acme"}))
	require.NoError(t, env.store.AddJob(ctx, &domain.Job{ID: "j2", CompanyID: "c2", Company: "Other"}))

	jobs, err := env.store.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "j2", jobs[0].ID)

	var conflict *domain.ErrConflict
	assert.ErrorAs(t, env.store.AddJob(ctx, &domain.Job{ID: "j1"}), &conflict)

	require.NoError(t, env.store.AddApplicant(ctx, "j1", domain.Applicant{UserID: "u1"}))

	denied := &domain.ErrForbidden{Action: "delete job"}
	err = env.store.DeleteJob(ctx, "j1", func(j *domain.Job) error {
		if j.CompanyID != "c2" {
			return denied
		}
		return nil
	})
	require.ErrorIs(t, err, denied)

	require.NoError(t, env.store.DeleteJob(ctx, "j1", nil))
	job, err := env.store.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Nil(t, job)

	applicants, err := env.store.Applicants(ctx, "j1")
	require.NoError(t, err)
	assert.Empty(t, applicants)

	var nf *domain.ErrNotFound
	assert.ErrorAs(t, env.store.DeleteJob(ctx, "j1", nil), &nf)
}

func TestCompanies_Conflicts(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	require.NoError(t, env.store.CreateCompany(ctx, &domain.Company{ID: "c1", CNPJ: "11222333000181", Email: "rh@acme.com"}))
	require.NoError(t, env.store.CreateCompany(ctx, &domain.Company{ID: "c2", CNPJ: "99888777000166", Email: "rh@other.com"}))

	var conflict *domain.ErrConflict
	assert.ErrorAs(t, env.store.CreateCompany(ctx, &domain.Company{ID: "c3", CNPJ: "11222333000181", Email: "x@y.com"}), &conflict)

	byCNPJ, err := env.store.FindCompanyByCNPJ(ctx, "11.222.333/0001-81")
	require.NoError(t, err)
	require.NotNil(t, byCNPJ)
	assert.Equal(t, "c1", byCNPJ.ID)

	_, err = env.store.UpdateCompany(ctx, "c2", func(c *domain.Company) error {
		c.Email = "RH@acme.com"
		return nil
	})
	assert.ErrorAs(t, err, &conflict)

	updated, err := env.store.UpdateCompany(ctx, "c2", func(c *domain.Company) error {
		c.Segment = "Tecnologia"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Tecnologia", updated.Segment)
}

func TestSessions_Markers(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	ok, err := env.store.IsUserLoggedIn(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.store.SetUserSession(ctx, "s1", "u1"))
	ok, err = env.store.IsUserLoggedIn(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.store.IsUserLoggedIn(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, ok, "sessions must not leak into each other")

	ok, err = env.store.IsCompanyLoggedIn(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.store.ClearUserSession(ctx, "s1"))
	id, err := env.store.SessionUserID(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, env.store.SetCompanySession(ctx, "s1", "c1"))
	id, err = env.store.SessionCompanyID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
}

func TestSearchTerm_ConsumedOnce(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	require.NoError(t, env.store.SetSearchTerm(ctx, "s1", "  react "))

	term, err := env.store.TakeSearchTerm(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "react", term)

	term, err = env.store.TakeSearchTerm(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, term)
}

func TestCurrentCourse(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	ref, err := env.store.CurrentCourse(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, ref)

	require.NoError(t, env.store.SetCurrentCourse(ctx, "s1", domain.CourseRef{Source: domain.SourceJob, ID: "2"}))
	ref, err = env.store.CurrentCourse(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, domain.CourseRef{Source: domain.SourceJob, ID: "2"}, *ref)
}

func TestRecordApplication_Dedup(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	apply := func(jobID, company string) bool {
		already, err := env.store.RecordApplication(ctx, "u1", domain.AppliedJob{
			Job:       domain.Job{ID: jobID, Company: company},
			AppliedAt: time.Now(),
		})
		require.NoError(t, err)
		return already
	}

	assert.False(t, apply("1", "Magazine Center"))
	assert.True(t, apply("1", "Magazine Center"))
	assert.False(t, apply("11", "Magazine Center"))

	names, err := env.store.Applications(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Magazine Center"}, names)

	jobs, err := env.store.AppliedJobs(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	other, err := env.store.Applications(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestAddApplicant_ReplacesSameUser(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	require.NoError(t, env.store.AddApplicant(ctx, "j1", domain.Applicant{UserID: "u1", Name: "Ana"}))
	require.NoError(t, env.store.AddApplicant(ctx, "j1", domain.Applicant{UserID: "u1", Name: "Ana Souza"}))
	require.NoError(t, env.store.AddApplicant(ctx, "j1", domain.Applicant{UserID: "u2", Name: "Bia"}))

	applicants, err := env.store.Applicants(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, applicants, 2)
	assert.Equal(t, "Ana Souza", applicants[0].Name)
}

func TestCorruptRecord(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()
	require.NoError(t, env.kv.Set(ctx, KeyJobs, "{not json"))

	_, err := env.store.ListJobs(ctx)
	var corrupt *domain.ErrCorruptRecord
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, KeyJobs, corrupt.Key)
}

func TestCache_HitsAfterFirstRead(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()
	require.NoError(t, env.store.AddCourse(ctx, &domain.Course{ID: "c1", Title: "Go"}))

	_, err := env.store.ListCourses(ctx)
	require.NoError(t, err)
	_, err = env.store.ListCourses(ctx)
	require.NoError(t, err)

	assert.Greater(t, env.metrics.Summary().CacheHitRate, 0.0)
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := env.store.AddCourse(ctx, &domain.Course{ID: string(rune('a' + i)), Title: "course"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	courses, err := env.store.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 20, "no update may be lost")
}

// stallingKV pauses the first Get of key after it has read the value, until
// resume is closed.
type stallingKV struct {
	*kvstore.Store
	key    string
	once   sync.Once
	read   chan struct{}
	resume chan struct{}
}

func (k *stallingKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := k.Store.Get(ctx, key)
	if key == k.key {
		k.once.Do(func() {
			close(k.read)
			<-k.resume
		})
	}
	return v, ok, err
}

func TestStaleReadCannotRevertALockedWrite(t *testing.T) {
	kv, err := kvstore.Open(kvstore.Config{Driver: kvstore.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	c := cache.New[string](time.Minute)
	t.Cleanup(c.Close)

	ctx := context.Background()
	seed := New(kv, nil, nil, zap.NewNop())
	require.NoError(t, seed.CreateUser(ctx, &domain.User{ID: "z", Email: "z@example.com"}))

	slow := &stallingKV{Store: kv, key: KeyRegisteredUsers, read: make(chan struct{}), resume: make(chan struct{})}
	st := New(slow, c, nil, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		users, err := st.ListUsers(ctx)
		assert.NoError(t, err)
		assert.Len(t, users, 1, "the reader saw the value before the write")
	}()

	<-slow.read
	require.NoError(t, st.CreateUser(ctx, &domain.User{ID: "a", Email: "a@example.com"}))
	close(slow.resume)
	<-done

	require.NoError(t, st.CreateUser(ctx, &domain.User{ID: "b", Email: "b@example.com"}))

	persisted, _, err := loadFresh[[]domain.User](ctx, st, KeyRegisteredUsers)
	require.NoError(t, err)
	ids := make([]string, 0, len(persisted))
	for _, u := range persisted {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{"z", "a", "b"}, ids)

	cached, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 3)
}

func TestSweepSessions(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, env.store.OpenSession(ctx, "live", now.Add(time.Hour)))
	require.NoError(t, env.store.SetSearchTerm(ctx, "live", "go"))
	require.NoError(t, env.store.OpenSession(ctx, "gone", now.Add(-time.Second)))
	require.NoError(t, env.store.SetCompanySession(ctx, "gone", "c1"))
	require.NoError(t, env.store.SetSearchTerm(ctx, "orphan", "react"))
	require.NoError(t, env.kv.Set(ctx, sessionKey("corrupt", KeyExpiresAt), "{not json"))

	n, err := env.store.SweepSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	keys, err := env.kv.Keys(ctx, "session/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		sessionKey("live", KeyExpiresAt),
		sessionKey("live", KeySearchTerm),
	}, keys)

	logged, err := env.store.IsCompanyLoggedIn(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, logged)
}
