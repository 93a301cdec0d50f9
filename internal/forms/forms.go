package forms

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
)

type Kind string

const (
	KindService         Kind = "service"
	KindPlan            Kind = "plan"
	KindPetBox          Kind = "petbox"
	KindCommunity       Kind = "community"
	KindPetRegistration Kind = "pet-registration"
)

// DefaultDelay is how long a submission takes to be acknowledged.
const DefaultDelay = 2 * time.Second

var ErrUnknownForm = errors.New("unknown form")

// Definition is the required fields of a form and the message shown once it
// went through.
type Definition struct {
	Kind     Kind
	Required []string
	Message  string
}

func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Kind:     KindService,
			Required: []string{"ownerName", "email", "phone", "petName", "date"},
			Message:  "Agendamento realizado com sucesso! Entraremos em contato em breve.",
		},
		{
			Kind:     KindPlan,
			Required: []string{"ownerName", "email", "phone", "petName"},
			Message:  "Plano contratado com sucesso! Você receberá um e-mail com os detalhes.",
		},
		{
			Kind:     KindPetBox,
			Required: []string{"ownerName", "email", "phone", "address"},
			Message:  "PetBox assinado com sucesso! Sua primeira caixa chegará em breve.",
		},
		{
			Kind:     KindCommunity,
			Required: []string{"name", "email"},
			Message:  "Bem-vindo à comunidade ConectaPet! Você receberá um e-mail de confirmação.",
		},
		{
			Kind:     KindPetRegistration,
			Required: []string{"ownerName", "ownerCpf", "petName", "petType"},
			Message:  "Pet cadastrado com sucesso!",
		},
	}
}

type Receipt struct {
	Kind        Kind            `json:"kind"`
	Message     string          `json:"message"`
	Code        string          `json:"code,omitempty"`
	Fields      checkout.Fields `json:"fields"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// Result is what SubmitAsync delivers.
type Result struct {
	Receipt Receipt
	Err     error
}

type Submitter struct {
	defs    map[Kind]Definition
	delay   time.Duration
	now     func() time.Time
	petCode func() string
	logger  *zap.Logger
}

type Option func(*Submitter)

func WithDelay(d time.Duration) Option {
	return func(s *Submitter) {
		if d >= 0 {
			s.delay = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithDefinitions(defs []Definition) Option {
	return func(s *Submitter) {
		s.defs = make(map[Kind]Definition, len(defs))
		for _, d := range defs {
			s.defs[d.Kind] = d
		}
	}
}

func NewSubmitter(opts ...Option) *Submitter {
	s := &Submitter{
		delay:   DefaultDelay,
		now:     func() time.Time { return time.Now().UTC() },
		petCode: randomPetCode,
		logger:  zap.NewNop(),
	}
	WithDefinitions(DefaultDefinitions())(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Submitter) Definition(kind Kind) (Definition, bool) {
	d, ok := s.defs[kind]
	return d, ok
}

// Submit validates fields, waits the acknowledgement delay and returns the
// receipt. Blank required fields yield a *checkout.ValidationError without
// waiting; a cancelled ctx aborts the wait.
func (s *Submitter) Submit(ctx context.Context, kind Kind, fields checkout.Fields) (Receipt, error) {
	def, ok := s.defs[kind]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownForm, kind)
	}

	if missing := checkout.MissingFields(def.Required, fields); len(missing) > 0 {
		return Receipt{}, &checkout.ValidationError{Key: string(kind), Missing: missing}
	}

	if err := Delay(ctx, s.delay); err != nil {
		return Receipt{}, fmt.Errorf("submit %s: %w", kind, err)
	}

	r := Receipt{
		Kind:        kind,
		Message:     def.Message,
		Fields:      maps.Clone(fields),
		SubmittedAt: s.now(),
	}
	if kind == KindPetRegistration {
		r.Code = s.petCode()
	}

	s.logger.Info("form submitted", zap.String("kind", string(kind)), zap.String("code", r.Code))
	return r, nil
}

// SubmitAsync runs Submit in its own goroutine. The channel receives exactly
// one Result and is then closed.
func (s *Submitter) SubmitAsync(ctx context.Context, kind Kind, fields checkout.Fields) <-chan Result {
	out := make(chan Result, 1)
	fields = maps.Clone(fields)
	go func() {
		defer close(out)
		r, err := s.Submit(ctx, kind, fields)
		out <- Result{Receipt: r, Err: err}
	}()
	return out
}

// Delay waits for d or until ctx is done.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomPetCode() string {
	id := uuid.New()
	return fmt.Sprintf("#PET%03d", binary.BigEndian.Uint32(id[:4])%1000)
}
