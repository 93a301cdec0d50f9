package httpapi

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

const (
	msgAddedToCart     = "Produto adicionado ao carrinho!"
	msgRequiredFields  = "Por favor, preencha todos os campos obrigatórios."
	msgOrderPlaced     = "Pedido realizado com sucesso!"
	msgProductNotFound = "produto não encontrado"
)

type Deps struct {
	Sessions      *session.Registry
	Catalog       *catalog.Catalog
	Forms         *forms.Submitter
	Publisher     events.Publisher
	FinalizeDelay time.Duration
	Logger        *zap.Logger

	CORSAllowOrigins []string
	SecureCookies    bool
}

type Handler struct {
	sessions      *session.Registry
	catalog       *catalog.Catalog
	forms         *forms.Submitter
	publisher     events.Publisher
	finalizeDelay time.Duration
	logger        *zap.Logger
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		sessions:      d.Sessions,
		catalog:       d.Catalog,
		forms:         d.Forms,
		publisher:     d.Publisher,
		finalizeDelay: d.FinalizeDelay,
		logger:        d.Logger,
	}
	if h.publisher == nil {
		h.publisher = events.NopPublisher{}
	}
	if h.forms == nil {
		h.forms = forms.NewSubmitter()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.Context(), GetSessionID(r.Context()))
	if err != nil {
		h.logger.Error("load session", zap.Error(err))
		if errors.Is(err, session.ErrCartUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "cart temporarily unavailable")
			return nil, false
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return s, true
}

func (h *Handler) eventMeta(r *http.Request, s *session.Session) events.EventMeta {
	return events.EventMeta{
		CorrelationID: GetCorrelationID(r.Context()),
		PartitionKey:  s.ID,
	}
}
