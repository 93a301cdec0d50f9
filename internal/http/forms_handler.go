package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/forms"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/notify"
)

func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var body fieldsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	kind := forms.Kind(chi.URLParam(r, "kind"))
	res := <-h.forms.SubmitAsync(r.Context(), kind, body.Fields)
	receipt, err := res.Receipt, res.Err
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.Is(err, forms.ErrUnknownForm):
			writeError(w, r, http.StatusNotFound, err.Error())
		case errors.As(err, &verr):
			notify.Error(r.Context(), s, msgRequiredFields)
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error:         msgRequiredFields,
				Missing:       verr.Missing,
				CorrelationID: GetCorrelationID(r.Context()),
			})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
		default:
			h.logger.Error("submit form", zap.String("kind", string(kind)), zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "failed to submit form")
		}
		return
	}

	if err := h.publisher.PublishFormSubmitted(r.Context(), h.eventMeta(r, s), events.NewFormSubmittedPayload(s.ID, receipt)); err != nil {
		h.logger.Error("publish FormSubmitted", zap.String("session_id", s.ID), zap.Error(err))
	}

	notify.Success(r.Context(), s, receipt.Message)
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": s.Notifications.Drain()})
}
