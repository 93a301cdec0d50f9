package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutResponse(s.Checkout))
}

type validateRequest struct {
	Step   int             `json:"step"`
	Fields checkout.Fields `json:"fields"`
}

// ValidateStep checks a step without moving the flow.
func (h *Handler) ValidateStep(w http.ResponseWriter, r *http.Request) {
	var body validateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	step := body.Step
	if step == 0 {
		step = s.Checkout.Current()
	}
	if err := s.Checkout.ValidateStep(step, body.Fields); err != nil {
		h.writeCheckoutError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "step": step})
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	var body fieldsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.Checkout.Advance(body.Fields); err != nil {
		h.writeCheckoutError(w, r, s, err)
		return
	}
	writeJSON(w, http.StatusOK, newCheckoutResponse(s.Checkout))
}

func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Checkout.Retreat()
	writeJSON(w, http.StatusOK, newCheckoutResponse(s.Checkout))
}

// Finalize waits the processing delay, then places the order. A client that
// goes away during the wait leaves the cart untouched.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	var body fieldsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := forms.Delay(r.Context(), h.finalizeDelay); err != nil {
		h.logger.Info("finalize abandoned", zap.String("session_id", s.ID), zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
		return
	}

	conf, err := s.Checkout.Finalize(r.Context(), body.Fields)
	if err != nil {
		h.writeCheckoutError(w, r, s, err)
		return
	}

	if err := h.publisher.PublishOrderPlaced(r.Context(), h.eventMeta(r, s), events.NewOrderPlacedPayload(s.ID, conf)); err != nil {
		h.logger.Error("publish OrderPlaced",
			zap.String("session_id", s.ID),
			zap.String("order_id", conf.OrderID),
			zap.Error(err),
		)
	}

	notify.Success(r.Context(), s, msgOrderPlaced)
	writeJSON(w, http.StatusOK, newConfirmationResponse(conf))
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, s *session.Session, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		notify.Error(r.Context(), s, msgRequiredFields)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:         msgRequiredFields,
			Step:          verr.Step,
			Missing:       verr.Missing,
			CorrelationID: GetCorrelationID(r.Context()),
		})
	case errors.Is(err, checkout.ErrStepOutOfRange):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrLastStep),
		errors.Is(err, checkout.ErrNotAtFinalStep),
		errors.Is(err, checkout.ErrCartEmpty):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		h.logger.Error("checkout", zap.String("session_id", s.ID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "checkout failed")
	}
}
