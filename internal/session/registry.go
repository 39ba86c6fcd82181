package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Factory builds a session for an operator, wired to the given notifier.
type Factory func(operator string, notifier Notifier) (*Session, error)

// Entry is a registered session with the inbox its notifications go to.
type Entry struct {
	ID       string
	Session  *Session
	Inbox    *Inbox
	lastSeen time.Time
}

// Registry keeps one session per browser, keyed by an opaque id.
type Registry struct {
	factory     Factory
	idleTimeout time.Duration
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewRegistry creates a new registry. Entries idle for longer than
// idleTimeout are evicted; zero disables eviction.
func NewRegistry(factory Factory, idleTimeout time.Duration, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factory:     factory,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		entries:     make(map[string]*Entry),
	}
}

// Get returns the entry with the given id and marks it as used.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = now
	return e, true
}

// Create builds, registers and initializes a new session. A failed
// initialization is reported through the entry's inbox, not as an error.
func (r *Registry) Create(ctx context.Context, operator string) (*Entry, error) {
	inbox := &Inbox{}
	sess, err := r.factory(operator, inbox)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		ID:      uuid.New().String(),
		Session: sess,
		Inbox:   inbox,
	}

	r.mu.Lock()
	now := r.now()
	r.sweepLocked(now)
	e.lastSeen = now
	r.entries[e.ID] = e
	r.mu.Unlock()

	r.logger.Debug("session created", zap.String("session", e.ID), zap.String("operator", operator))

	if err := sess.Initialize(ctx); err != nil {
		r.logger.Warn("session initialization failed", zap.String("session", e.ID), zap.Error(err))
	}
	return e, nil
}

// Remove drops the entry with the given id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked(r.now())
	return len(r.entries)
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.idleTimeout <= 0 {
		return
	}
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idleTimeout {
			delete(r.entries, id)
			r.logger.Debug("session expired", zap.String("session", id))
		}
	}
}
