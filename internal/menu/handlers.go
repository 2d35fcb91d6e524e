package menu

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodgrid/backend-pos/internal/common"
)

// Handler exposes read-only catalog endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler builds the catalog HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// GetOutlet handles GET /outlets/{outletId}.
func (h *Handler) GetOutlet(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletId")
	out, err := h.Svc.GetOutlet(r.Context(), outletID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, out)
}

// ListMenu handles GET /outlets/{outletId}/menu.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletId")
	if _, err := h.Svc.GetOutlet(r.Context(), outletID); err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Svc.ListMenu(r.Context(), outletID)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"outletId": outletID,
		"items":    items,
	})
}

// GetItem handles GET /outlets/{outletId}/menu/items/{itemId}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	outletID := chi.URLParam(r, "outletId")
	itemID := chi.URLParam(r, "itemId")
	item, err := h.Svc.GetItem(r.Context(), outletID, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, item)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "outlet or menu item not found", nil)
	case errors.Is(err, ErrUnavailable):
		common.JSONError(w, http.StatusConflict, "ITEM_UNAVAILABLE", "menu item is not available", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
