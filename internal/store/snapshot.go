package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// Export returns every stored value keyed by its storage key, session keys included.
func (s *Store) Export(ctx context.Context) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "Store.Export")
	defer span.End()

	keys, err := s.kv.Keys(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, ok, err := s.raw(ctx, k)
		if err != nil {
			return nil, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// importer decodes and migrates one dump value and re-encodes it in the
// current schema.
type importer func(key, raw string) (string, error)

func importAs[T any](key, raw string) (string, error) {
	var v T
	if err := decodeValue(key, raw, &v); err != nil {
		return "", err
	}
	out, err := encodeValue(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return out, nil
}

var importers = map[string]importer{
	KeyRegisteredUsers:     importAs[[]domain.User],
	KeyRegisteredCompanies: importAs[[]domain.Company],
	KeyJobs:                importAs[[]domain.Job],
	KeyCoursesData:         importAs[[]domain.Course],
	KeyApplications:        importAs[[]string],
	KeyUserApplications:    importAs[[]domain.AppliedJob],
	KeyJobApplicants:       importAs[[]domain.Applicant],
}

// Import writes a dump produced by Export or taken from a browser's
// localStorage. Values are migrated and rewritten in the current schema.
// Every value is converted before anything is written, and the writes land
// in one batch: a bad value leaves the store untouched.
// Legacy top-level applications lists are attached to the dump's currentUser.
// Session keys are never imported.
func (s *Store) Import(ctx context.Context, values map[string]string) (*domain.ImportResult, error) {
	ctx, span := tracer.Start(ctx, "Store.Import")
	defer span.End()

	result := &domain.ImportResult{Imported: []string{}, Skipped: map[string]string{}}

	legacyUser := ""
	if raw, ok := values[KeyCurrentUser]; ok {
		if err := decodeValue(KeyCurrentUser, raw, &legacyUser); err != nil {
			result.Skipped[KeyCurrentUser] = err.Error()
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := make(map[string]string)
	var imported []string
	for _, key := range keys {
		target, reason := s.importTarget(key, legacyUser)
		if target == "" {
			if _, noted := result.Skipped[key]; !noted {
				result.Skipped[key] = reason
			}
			continue
		}
		raw, err := importers[baseName(target)](target, values[key])
		if err != nil {
			return result, err
		}
		batch[target] = raw
		imported = append(imported, target)
	}

	if err := s.putMany(ctx, batch); err != nil {
		return result, err
	}
	result.Imported = append(result.Imported, imported...)

	s.logger.Info("import finished",
		zap.Int("imported", len(result.Imported)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// importTarget maps a dump key to the storage key it is written to.
func (s *Store) importTarget(key, legacyUser string) (string, string) {
	if strings.HasPrefix(key, "session/") {
		return "", "session state is not imported"
	}
	name := baseName(key)
	switch name {
	case KeyCurrentUser, KeyIsUserLoggedIn, KeyCompanyUser, KeyIsCompanyLoggedIn, KeyCurrentCourse, KeySearchTerm, KeyExpiresAt:
		return "", "session state is not imported"
	}
	if _, known := importers[name]; !known {
		return "", "unknown key"
	}

	switch {
	case key == KeyApplications || key == KeyUserApplications:
		if legacyUser == "" {
			return "", "no currentUser in dump to attach applications to"
		}
		return userKey(legacyUser, name), ""
	case strings.Contains(key, "/"):
		parts := strings.Split(key, "/")
		if len(parts) != 3 || parts[1] == "" {
			return "", "malformed key"
		}
		switch {
		case parts[0] == "user" && (name == KeyApplications || name == KeyUserApplications):
		case parts[0] == "job" && name == KeyJobApplicants:
		default:
			return "", "unknown key"
		}
		return key, ""
	case name == KeyJobApplicants:
		return "", "malformed key"
	}
	return key, ""
}
