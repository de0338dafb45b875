package checkout

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pharmapos/m/domain"
)

// DefaultIdleTimeout is how long an untouched cart stays open.
const DefaultIdleTimeout = 8 * time.Hour

type session struct {
	mu       sync.Mutex
	ownerID  int64
	cart     *Cart
	lastUsed time.Time
}

// Registry keeps the open carts of the till sessions. A cart belongs to the
// user who opened it and is never visible to another user. Carts idle for
// longer than the idle timeout are discarded.
type Registry struct {
	mu       sync.Mutex
	inv      Inventory
	logger   *slog.Logger
	idle     time.Duration
	now      func() time.Time
	sessions map[string]*session
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout sets how long an unused cart is kept. Non-positive values
// keep the default.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idle = d
		}
	}
}

// WithRegistryClock overrides the clock used for idle expiry.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry constructs an empty Registry.
func NewRegistry(inv Inventory, logger *slog.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		inv:      inv,
		logger:   logger,
		idle:     DefaultIdleTimeout,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open starts a new cart for ownerID and returns its id.
func (r *Registry) Open(ownerID int64) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	r.sessions[id] = &session{ownerID: ownerID, cart: NewCart(r.inv, r.logger), lastUsed: now}
	return id
}

// With runs fn on the cart while holding that cart's lock.
func (r *Registry) With(id string, ownerID int64, fn func(*Cart) error) error {
	sess, err := r.lookup(id, ownerID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.cart)
}

// Close discards the cart.
func (r *Registry) Close(id string, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok || sess.ownerID != ownerID {
		return fmt.Errorf("checkout: cart %s: %w", id, domain.ErrNotFound)
	}
	delete(r.sessions, id)
	return nil
}

// Sweep discards every cart idle for longer than the idle timeout and
// returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

// Len returns the number of open carts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) lookup(id string, ownerID int64) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sweepLocked(now)
	sess, ok := r.sessions[id]
	if !ok || sess.ownerID != ownerID {
		return nil, fmt.Errorf("checkout: cart %s: %w", id, domain.ErrNotFound)
	}
	sess.lastUsed = now
	return sess, nil
}

func (r *Registry) sweepLocked(now time.Time) int {
	dropped := 0
	for id, sess := range r.sessions {
		if now.Sub(sess.lastUsed) > r.idle {
			delete(r.sessions, id)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Info("discarded idle carts", slog.Int("count", dropped), slog.Duration("idle", r.idle))
	}
	return dropped
}
