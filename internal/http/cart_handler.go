package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/session"
)

func (h *Handler) writeCart(w http.ResponseWriter, status int, s *session.Session) {
	writeJSON(w, status, newCartResponse(s.Cart.Items(), s.Cart.Totals()))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, s)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// AddItem puts one unit of a catalog product in the cart. Name and price
// come from the catalog, never from the client.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	body.ProductID = strings.TrimSpace(body.ProductID)
	if body.ProductID == "" {
		writeError(w, r, http.StatusBadRequest, "missing productId")
		return
	}

	product, err := h.catalog.Lookup(body.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, msgProductNotFound)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load product")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	item := s.Cart.AddItem(r.Context(), product.ID, product.Name, product.Price)
	notify.Success(r.Context(), s, msgAddedToCart)
	h.logger.Debug("cart item added",
		zap.String("session_id", s.ID),
		zap.String("product_id", item.ID),
		zap.Int("quantity", item.Quantity),
	)

	h.writeCart(w, http.StatusOK, s)
}

type setQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var body setQuantityRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Quantity == nil {
		writeError(w, r, http.StatusBadRequest, "missing quantity")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Cart.SetQuantity(r.Context(), chi.URLParam(r, "id"), *body.Quantity)
	h.writeCart(w, http.StatusOK, s)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.Cart.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	h.writeCart(w, http.StatusOK, s)
}
