package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodgrid/backend-pos/internal/common"
)

// Handler exposes order placement and lookup.
type Handler struct {
	Svc *Service
}

// NewHandler builds the order HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// Place handles POST /orders. The cart is the request; there is no
// body beyond the session header.
func (h *Handler) Place(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	o, err := h.Svc.Place(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, o)
}

// Get handles GET /orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// List handles GET /orders for the current session.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	_, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	orders, err := h.Svc.ListBySession(r.Context(), sessionID, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	common.JSONData(w, http.StatusOK, orders)
}

type updateStatusPayload struct {
	Status Status `json:"status"`
}

// UpdateStatus handles PATCH /admin/orders/{orderId}/status for
// registered counter and kitchen display devices.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload updateStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return
	}
	orderID := chi.URLParam(r, "orderId")
	if err := h.Svc.UpdateStatus(r.Context(), orderID, payload.Status); err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Svc.Get(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "CART_EMPTY", "cart has no items", nil)
	case errors.Is(err, ErrOutletRequired):
		common.JSONError(w, http.StatusConflict, "OUTLET_REQUIRED", "select an outlet before placing an order", nil)
	case errors.Is(err, ErrTableRequired):
		common.JSONError(w, http.StatusConflict, "TABLE_REQUIRED", "dine-in orders need a table", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrInvalidStatus):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "unknown order status", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
