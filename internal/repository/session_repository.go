package repository

import (
	"context"
	"time"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/pkg/kvstore"
)

// SessionRepository stores authenticated sessions keyed by session id.
type SessionRepository struct {
	sessions *collection[map[string]models.Session]
	now      func() time.Time
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(store kvstore.Store) *SessionRepository {
	return &SessionRepository{
		sessions: newCollection(store, KeySessions, func() map[string]models.Session { return map[string]models.Session{} }),
		now:      time.Now,
	}
}

// Create stores the session and drops expired ones.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	now := r.now()
	return r.sessions.update(ctx, func(all *map[string]models.Session, _ bool) (bool, error) {
		for id, s := range *all {
			if s.Expired(now) {
				delete(*all, id)
			}
		}
		(*all)[session.ID] = *session
		return true, nil
	})
}

// FindByID returns a live session. Expired sessions are reported as ErrNotFound.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	all, err := r.sessions.read(ctx)
	if err != nil {
		return nil, err
	}
	s, ok := all[id]
	if !ok || s.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Delete removes a session, returning ErrNotFound when absent.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.sessions.update(ctx, func(all *map[string]models.Session, _ bool) (bool, error) {
		if _, ok := (*all)[id]; !ok {
			return false, ErrNotFound
		}
		delete(*all, id)
		return true, nil
	})
}

// RefreshUser rewrites the cached user snapshot in every session of that user.
func (r *SessionRepository) RefreshUser(ctx context.Context, user models.SessionUser) error {
	return r.sessions.update(ctx, func(all *map[string]models.Session, _ bool) (bool, error) {
		changed := false
		for id, s := range *all {
			if s.UserID == user.ID {
				s.User = user
				(*all)[id] = s
				changed = true
			}
		}
		return changed, nil
	})
}

// DeleteByUser removes every session of the user.
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) error {
	return r.sessions.update(ctx, func(all *map[string]models.Session, _ bool) (bool, error) {
		changed := false
		for id, s := range *all {
			if s.UserID == userID {
				delete(*all, id)
				changed = true
			}
		}
		return changed, nil
	})
}
