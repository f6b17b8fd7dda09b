package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
)

// SetUserSession records userID as the session's candidate and raises isUserLoggedIn.
func (s *Store) SetUserSession(ctx context.Context, sessionID, userID string) error {
	if err := save(ctx, s, sessionKey(sessionID, KeyCurrentUser), userID); err != nil {
		return err
	}
	return save(ctx, s, sessionKey(sessionID, KeyIsUserLoggedIn), true)
}

func (s *Store) ClearUserSession(ctx context.Context, sessionID string) error {
	if err := s.remove(ctx, sessionKey(sessionID, KeyCurrentUser)); err != nil {
		return err
	}
	return s.remove(ctx, sessionKey(sessionID, KeyIsUserLoggedIn))
}

// SessionUserID returns "" unless both the marker and the user id are present.
func (s *Store) SessionUserID(ctx context.Context, sessionID string) (string, error) {
	return s.sessionIdentity(ctx, sessionID, KeyIsUserLoggedIn, KeyCurrentUser)
}

func (s *Store) IsUserLoggedIn(ctx context.Context, sessionID string) (bool, error) {
	id, err := s.SessionUserID(ctx, sessionID)
	return id != "", err
}

func (s *Store) SetCompanySession(ctx context.Context, sessionID, companyID string) error {
	if err := save(ctx, s, sessionKey(sessionID, KeyCompanyUser), companyID); err != nil {
		return err
	}
	return save(ctx, s, sessionKey(sessionID, KeyIsCompanyLoggedIn), true)
}

func (s *Store) ClearCompanySession(ctx context.Context, sessionID string) error {
	if err := s.remove(ctx, sessionKey(sessionID, KeyCompanyUser)); err != nil {
		return err
	}
	return s.remove(ctx, sessionKey(sessionID, KeyIsCompanyLoggedIn))
}

func (s *Store) SessionCompanyID(ctx context.Context, sessionID string) (string, error) {
	return s.sessionIdentity(ctx, sessionID, KeyIsCompanyLoggedIn, KeyCompanyUser)
}

func (s *Store) IsCompanyLoggedIn(ctx context.Context, sessionID string) (bool, error) {
	id, err := s.SessionCompanyID(ctx, sessionID)
	return id != "", err
}

func (s *Store) sessionIdentity(ctx context.Context, sessionID, flagKey, idKey string) (string, error) {
	flag, _, err := load[bool](ctx, s, sessionKey(sessionID, flagKey))
	if err != nil || !flag {
		return "", err
	}
	id, _, err := load[string](ctx, s, sessionKey(sessionID, idKey))
	return id, err
}

func (s *Store) SetCurrentCourse(ctx context.Context, sessionID string, ref domain.CourseRef) error {
	return save(ctx, s, sessionKey(sessionID, KeyCurrentCourse), ref)
}

// CurrentCourse returns nil when the session has not opened a course.
func (s *Store) CurrentCourse(ctx context.Context, sessionID string) (*domain.CourseRef, error) {
	ref, ok, err := load[domain.CourseRef](ctx, s, sessionKey(sessionID, KeyCurrentCourse))
	if err != nil || !ok || ref.ID == "" {
		return nil, err
	}
	return &ref, nil
}

// SetSearchTerm stores a trimmed term; an empty term clears it.
func (s *Store) SetSearchTerm(ctx context.Context, sessionID, term string) error {
	term = strings.TrimSpace(term)
	key := sessionKey(sessionID, KeySearchTerm)
	if term == "" {
		return s.remove(ctx, key)
	}
	return save(ctx, s, key, term)
}

func (s *Store) TakeSearchTerm(ctx context.Context, sessionID string) (string, error) {
	key := sessionKey(sessionID, KeySearchTerm)
	unlock := s.locks.Lock(key)
	defer unlock()

	term, ok, err := loadFresh[string](ctx, s, key)
	if err != nil || !ok {
		return "", err
	}
	if err := s.remove(ctx, key); err != nil {
		return "", err
	}
	return term, nil
}

// OpenSession records when the session's keys may be swept.
func (s *Store) OpenSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	return save(ctx, s, sessionKey(sessionID, KeyExpiresAt), expiresAt.UTC())
}

// SweepSessions deletes every key of the sessions that expired before now.
// A session without a readable expiry is treated as expired.
func (s *Store) SweepSessions(ctx context.Context, now time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "Store.SweepSessions")
	defer span.End()

	keys, err := s.kv.Keys(ctx, "session/")
	if err != nil {
		return 0, fmt.Errorf("list session keys: %w", err)
	}
	bySession := make(map[string][]string)
	for _, k := range keys {
		parts := strings.SplitN(k, "/", 3)
		if len(parts) != 3 || parts[1] == "" {
			continue
		}
		bySession[parts[1]] = append(bySession[parts[1]], k)
	}

	swept := 0
	for sid, sessionKeys := range bySession {
		expiresAt, ok, err := load[time.Time](ctx, s, sessionKey(sid, KeyExpiresAt))
		var corrupt *domain.ErrCorruptRecord
		if err != nil && !errors.As(err, &corrupt) {
			return swept, err
		}
		if err == nil && ok && expiresAt.After(now) {
			continue
		}
		for _, k := range sessionKeys {
			if err := s.remove(ctx, k); err != nil {
				return swept, err
			}
		}
		swept++
	}
	return swept, nil
}
