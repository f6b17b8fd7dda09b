package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

func TestImport_LegacyLocalStorageDump(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	dump := map[string]string{
		KeyJobs:             legacyJobs,
		KeyRegisteredUsers:  `[{"id": "42", "name": "Ana", "email": "ana@example.com", "password": "segredo1"}]`,
		KeyCurrentUser:      `{"id": "42", "name": "Ana"}`,
		KeyIsUserLoggedIn:   `true`,
		KeyApplications:     `["Digital Innovation Corp"]`,
		KeyUserApplications: `[{"id": "2", "title": "Desenvolvedor Frontend", "company": "Digital Innovation Corp", "cidade": "Rio de Janeiro"}]`,
		"theme":             `"dark"`,
	}

	result, err := env.store.Import(ctx, dump)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		KeyJobs,
		KeyRegisteredUsers,
		userKey("42", KeyApplications),
		userKey("42", KeyUserApplications),
	}, result.Imported)
	assert.Contains(t, result.Skipped, KeyCurrentUser)
	assert.Contains(t, result.Skipped, KeyIsUserLoggedIn)
	assert.Contains(t, result.Skipped, "theme")

	// imported values are rewritten in the current schema
	raw, ok, err := env.kv.Get(ctx, KeyRegisteredUsers)
	require.NoError(t, err)
	require.True(t, ok)
	version, _, err := unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, version)
	assert.NotContains(t, raw, "segredo1")

	applied, err := env.store.AppliedJobs(ctx, "42")
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "Rio de Janeiro", applied[0].Job.City)

	logged, err := env.store.IsUserLoggedIn(ctx, "any")
	require.NoError(t, err)
	assert.False(t, logged)
}

func TestImport_ApplicationsWithoutUserAreSkipped(t *testing.T) {
	env := setupStore(t)

	result, err := env.store.Import(context.Background(), map[string]string{
		KeyApplications: `["Acme"]`,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	assert.Contains(t, result.Skipped, KeyApplications)
}

func TestImport_CorruptValueFails(t *testing.T) {
	env := setupStore(t)

	_, err := env.store.Import(context.Background(), map[string]string{KeyJobs: `{"broken"`})
	var corrupt *domain.ErrCorruptRecord
	require.ErrorAs(t, err, &corrupt)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := setupStore(t)
	ctx := context.Background()

	require.NoError(t, src.store.AddJob(ctx, &domain.Job{ID: "j1", Title: "Go", Company: "Acme", Status: domain.JobStatusOpen}))
	require.NoError(t, src.store.AddApplicant(ctx, "j1", domain.Applicant{UserID: "u1", Name: "Ana"}))
	_, err := src.store.RecordApplication(ctx, "u1", domain.AppliedJob{Job: domain.Job{ID: "j1", Company: "Acme"}})
	require.NoError(t, err)
	require.NoError(t, src.store.SetUserSession(ctx, "s1", "u1"))

	dump, err := src.store.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, dump, sessionKey("s1", KeyCurrentUser))

	dst := setupStore(t)
	result, err := dst.store.Import(ctx, dump)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		KeyJobs,
		jobKey("j1", KeyJobApplicants),
		userKey("u1", KeyApplications),
		userKey("u1", KeyUserApplications),
	}, result.Imported)

	applicants, err := dst.store.Applicants(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, applicants, 1)
	assert.Equal(t, "Ana", applicants[0].Name)
}

func TestImport_BadValueLeavesStoreUntouched(t *testing.T) {
	env := setupStore(t)
	ctx := context.Background()

	_, err := env.store.Import(ctx, map[string]string{
		KeyJobs:            legacyJobs,
		KeyRegisteredUsers: `[{"id": "42", "email": `,
	})
	var corrupt *domain.ErrCorruptRecord
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, KeyRegisteredUsers, corrupt.Key)

	keys, err := env.kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys, "no key may be written when one value is bad")
}
