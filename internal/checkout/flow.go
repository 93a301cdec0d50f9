package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// Cart is the part of the cart store the flow needs when an order is placed.
// Checkout returns the entries with their totals and empties the cart
// atomically; an empty cart yields no entries.
type Cart interface {
	Checkout(ctx context.Context) ([]cart.LineItem, cart.Totals)
}

// Confirmation is what the caller shows once an order went through.
type Confirmation struct {
	OrderNumber string          `json:"orderNumber"`
	OrderID     string          `json:"orderId"`
	Items       []cart.LineItem `json:"items"`
	Totals      cart.Totals     `json:"totals"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// Flow walks the user through an ordered list of steps. Moving forward
// requires the current step's fields; moving back never does.
type Flow struct {
	mu      sync.Mutex
	steps   []Step
	current int

	cart   Cart
	refs   ReferenceGenerator
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Flow)

func WithReferenceGenerator(g ReferenceGenerator) Option {
	return func(f *Flow) {
		if g != nil {
			f.refs = g
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFlow(steps []Step, c Cart, opts ...Option) (*Flow, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	if c == nil {
		return nil, errors.New("checkout needs a cart")
	}

	f := &Flow{
		steps:   append([]Step(nil), steps...),
		current: 1,
		cart:    c,
		refs:    NewSessionReferences(),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Flow) Current() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Flow) Len() int {
	return len(f.steps)
}

func (f *Flow) Steps() []Step {
	return append([]Step(nil), f.steps...)
}

// ValidateStep checks step n against fields without touching flow state.
func (f *Flow) ValidateStep(n int, fields Fields) error {
	if n < 1 || n > len(f.steps) {
		return fmt.Errorf("%w: %d not in 1..%d", ErrStepOutOfRange, n, len(f.steps))
	}

	step := f.steps[n-1]
	missing := MissingFields(step.RequiredFields(fields), fields)
	if len(missing) > 0 {
		return &ValidationError{Step: n, Key: step.Key, Missing: missing}
	}
	return nil
}

// Advance moves to the next step when the current one validates. On any
// error the current step is unchanged.
func (f *Flow) Advance(fields Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.ValidateStep(f.current, fields); err != nil {
		f.logger.Debug("checkout step rejected", zap.Int("step", f.current), zap.Error(err))
		return err
	}
	if f.current >= len(f.steps) {
		return ErrLastStep
	}

	f.current++
	f.logger.Debug("checkout advanced", zap.Int("step", f.current))
	return nil
}

// Retreat moves one step back, never below the first.
func (f *Flow) Retreat() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current > 1 {
		f.current--
	}
	return f.current
}

// Finalize places the order: the last step must validate and the cart must
// hold something. On success the cart is cleared and the flow restarts at
// step 1.
func (f *Flow) Finalize(ctx context.Context, fields Fields) (Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	last := len(f.steps)
	if f.current != last {
		return Confirmation{}, fmt.Errorf("%w: at step %d of %d", ErrNotAtFinalStep, f.current, last)
	}
	if err := f.ValidateStep(last, fields); err != nil {
		return Confirmation{}, err
	}

	items, totals := f.cart.Checkout(ctx)
	if len(items) == 0 {
		return Confirmation{}, ErrCartEmpty
	}

	conf := Confirmation{
		OrderNumber: f.refs.Next(),
		OrderID:     uuid.NewString(),
		Items:       items,
		Totals:      totals,
		PlacedAt:    f.now(),
	}
	f.current = 1

	f.logger.Info("order finalized",
		zap.String("order_number", conf.OrderNumber),
		zap.String("order_id", conf.OrderID),
		zap.Int("items", conf.Totals.ItemCount),
		zap.String("total", conf.Totals.Amount.StringFixed(2)),
	)
	return conf, nil
}
