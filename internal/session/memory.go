package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voxhire/backend/internal/models"
)

// DefaultIdleTTL bounds how long an abandoned session survives. The end
// call is the normal cleanup path; the janitor only catches sessions
// whose end call never arrived.
const DefaultIdleTTL = 2 * time.Hour

// MemoryRepository is the default, process-local session store.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.InterviewSession
	locks    *keyedMutex
	idleTTL  time.Duration
}

func NewMemoryRepository(idleTTL time.Duration) *MemoryRepository {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &MemoryRepository{
		sessions: make(map[string]*models.InterviewSession),
		locks:    newKeyedMutex(),
		idleTTL:  idleTTL,
	}
}

func (r *MemoryRepository) Get(_ context.Context, sessionID string) (*models.InterviewSession, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (r *MemoryRepository) GetOrDefault(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	s, ok, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return DefaultSession(sessionID, time.Now().UTC()), nil
	}
	return s, nil
}

func (r *MemoryRepository) Put(_ context.Context, s *models.InterviewSession) error {
	cp := s.Clone()
	cp.LastActive = time.Now().UTC()

	r.mu.Lock()
	r.sessions[s.SessionID] = cp
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.LastActive) > r.idleTTL {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepository) Lock(sessionID string) func() {
	return r.locks.Lock(sessionID)
}

// StartJanitor sweeps idle sessions until ctx is cancelled.
func (r *MemoryRepository) StartJanitor(ctx context.Context, interval time.Duration, log *logrus.Logger) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, _ := r.DeleteExpired(ctx, now)
				if n > 0 && log != nil {
					log.WithField("expired", n).Info("swept idle interview sessions")
				}
			}
		}
	}()
}
