// Package session owns the per-session interview state. The repository
// hands out snapshots; a turn is assembled against its snapshot and
// committed with Put, under the per-session lock, so concurrent requests
// for one session id cannot interleave a read-modify-write.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/voxhire/backend/internal/models"
)

type Repository interface {
	// Get returns a snapshot of the session, or found=false.
	Get(ctx context.Context, sessionID string) (s *models.InterviewSession, found bool, err error)

	// GetOrDefault returns a snapshot, synthesizing a fresh default
	// session when the id is unknown. Unknown ids are tolerated on
	// purpose: an interview must survive losing its server-side state
	// (e.g. a restart) mid-conversation. The synthesized session is not
	// stored until the caller commits it.
	GetOrDefault(ctx context.Context, sessionID string) (*models.InterviewSession, error)

	// Put replaces the stored session with the given snapshot.
	Put(ctx context.Context, s *models.InterviewSession) error

	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes sessions idle longer than the repository's
	// TTL. Implementations with native expiry may make this a no-op.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// Lock acquires the per-session mutex and returns its release func.
	Lock(sessionID string) (unlock func())
}

// DefaultSession is the context used for an unknown session id.
func DefaultSession(sessionID string, now time.Time) *models.InterviewSession {
	return &models.InterviewSession{
		SessionID: sessionID,
		Config: models.InterviewConfig{
			Field:            "general",
			Difficulty:       "intermediate",
			QuestionCount:    5,
			TimeLimitMinutes: 10,
			InterviewType:    "technical",
		},
		History:        []models.Turn{},
		Phase:          models.PhaseGreeting,
		QuestionNumber: 0,
		StartTime:      now,
		LastActive:     now,
	}
}

// keyedMutex hands out one mutex per session id. Entries are reference
// counted and removed once the last holder releases, so the lock map
// does not outlive the sessions it guards.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sessionLock)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sessionLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
