package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// ListCatalog supports ?kind=&category=&type=&type=&maxPrice=&sort=.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := catalog.Filter{
		Kind:     catalog.Kind(strings.TrimSpace(q.Get("kind"))),
		Category: strings.TrimSpace(q.Get("category")),
	}
	for _, t := range q["type"] {
		if t = strings.TrimSpace(t); t != "" {
			filter.Types = append(filter.Types, t)
		}
	}
	if v := strings.TrimSpace(q.Get("maxPrice")); v != "" {
		limit, err := decimal.NewFromString(v)
		if err != nil || limit.IsNegative() {
			writeError(w, r, http.StatusBadRequest, "invalid maxPrice")
			return
		}
		filter.MaxPrice = &limit
	}

	products := h.catalog.Query(filter, catalog.ParseSortKey(q.Get("sort")))
	writeJSON(w, http.StatusOK, newCatalogResponse(products))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, msgProductNotFound)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load product")
		return
	}
	writeJSON(w, http.StatusOK, newProductResponse(p))
}
