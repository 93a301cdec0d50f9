package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/notify"
)

var (
	ErrInvalidID = errors.New("invalid session id")
	// ErrCartUnavailable means the saved cart could not be read. The session
	// is not kept, so the next request tries again instead of overwriting
	// the saved cart with an empty one.
	ErrCartUnavailable = errors.New("saved cart unavailable")
)

// SlotKey is where the cart of session id is persisted.
func SlotKey(id string) string {
	return cart.DefaultKey + ":" + id
}

// Session is the state of one visitor: their cart, where they are in
// checkout and the notifications not yet shown.
type Session struct {
	ID            string
	Cart          *cart.Store
	Checkout      *checkout.Flow
	Notifications *notify.Recorder

	notifier notify.Notifier
	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) Notify(ctx context.Context, n notify.Notification) {
	s.notifier.Notify(ctx, n)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	slot        cart.Slot
	steps       []checkout.Step
	notifyLimit int
	now         func() time.Time
	logger      *zap.Logger
}

type Option func(*Registry)

func WithSteps(steps []checkout.Step) Option {
	return func(r *Registry) {
		if len(steps) > 0 {
			r.steps = steps
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithNotificationLimit(n int) Option {
	return func(r *Registry) {
		r.notifyLimit = n
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry returns an empty registry whose carts persist to slot. A nil
// slot keeps carts in memory only.
func NewRegistry(slot cart.Slot, opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		slot:     slot,
		steps:    checkout.DefaultSteps(),
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session for id, building it on first use with the cart
// restored from the slot. A slot read error yields ErrCartUnavailable and
// nothing is cached.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.touch(r.now())
		return s, nil
	}

	logger := r.logger.With(zap.String("session_id", id))

	store := cart.NewStore(r.slot, cart.WithKey(SlotKey(id)), cart.WithLogger(logger))
	if err := store.Load(ctx); err != nil {
		logger.Warn("restore cart", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrCartUnavailable, err)
	}

	flow, err := checkout.NewFlow(r.steps, store, checkout.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("new checkout: %w", err)
	}

	recorder := notify.NewRecorder(r.notifyLimit)
	s := &Session{
		ID:            id,
		Cart:          store,
		Checkout:      flow,
		Notifications: recorder,
		notifier:      notify.Multi{recorder, notify.NewLogNotifier(logger)},
		lastSeen:      r.now(),
	}
	r.sessions[id] = s

	logger.Debug("session opened", zap.Int("cart_items", store.Len()))
	return s, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep forgets sessions idle for longer than maxIdle. Their carts stay in
// the slot and are restored on the next visit.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Debug("sessions swept", zap.Int("removed", removed), zap.Int("remaining", len(r.sessions)))
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}
