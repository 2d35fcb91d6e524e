package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/foodgrid/backend-pos/internal/common"
	"github.com/foodgrid/backend-pos/internal/menu"
	"github.com/foodgrid/backend-pos/internal/pricing"
)

// MenuResolver looks up outlets and sellable menu items. The menu
// service implements it.
type MenuResolver interface {
	Resolve(ctx context.Context, outletID, menuItemID string) (menu.Item, error)
	GetOutlet(ctx context.Context, outletID string) (menu.Outlet, error)
}

// Handler exposes the cart HTTP surface. Prices are always resolved
// server-side from the catalog; client-supplied prices are ignored.
type Handler struct {
	Svc      *Service
	Menu     MenuResolver
	Validate *validator.Validate

	TaxBps     int
	ServiceBps int
	Currency   string
}

// NewHandler builds the cart HTTP handler.
func NewHandler(svc *Service, resolver MenuResolver, taxBps, serviceBps int, currency string) *Handler {
	return &Handler{
		Svc:        svc,
		Menu:       resolver,
		Validate:   validator.New(),
		TaxBps:     taxBps,
		ServiceBps: serviceBps,
		Currency:   currency,
	}
}

// view is the cart representation returned by every cart endpoint, so
// clients can re-render from any response.
type view struct {
	SessionID string          `json:"sessionId"`
	OutletID  string          `json:"outletId"`
	OrderType OrderType       `json:"orderType"`
	TableID   string          `json:"tableId,omitempty"`
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  pricing.Money   `json:"subtotal"`
	Pricing   pricing.Summary `json:"pricing"`
	Currency  string          `json:"currency"`
}

func (h *Handler) viewOf(sessionID string, snap Snapshot) view {
	items := snap.Items
	if items == nil {
		items = []LineItem{}
	}
	lines := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Item{Qty: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return view{
		SessionID: sessionID,
		OutletID:  snap.OutletID,
		OrderType: snap.OrderType,
		TableID:   snap.TableID,
		Items:     items,
		ItemCount: snap.ItemCount,
		Subtotal:  snap.Subtotal,
		Pricing:   pricing.Compute(lines, 0, h.TaxBps, h.ServiceBps),
		Currency:  h.Currency,
	}
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, sessionID string) {
	snap := h.Svc.View(r.Context(), sessionID)
	common.JSONData(w, status, h.viewOf(sessionID, snap))
}

// CreateSession handles POST /cart/session. It issues an opaque
// session id; clients present it on every cart call via X-Cart-Session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	snap := h.Svc.Init(r.Context(), sessionID)
	common.JSONData(w, http.StatusCreated, h.viewOf(sessionID, snap))
}

// Get handles GET /cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	h.respond(w, r, http.StatusOK, sessionID)
}

type setOutletPayload struct {
	OutletID string `json:"outletId" validate:"required"`
}

// SetOutlet handles PUT /cart/outlet. Switching outlets empties the
// cart since menus and prices are outlet-scoped.
func (h *Handler) SetOutlet(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	var payload setOutletPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if _, err := h.Menu.GetOutlet(r.Context(), payload.OutletID); err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.Svc.SetOutlet(r.Context(), sessionID, payload.OutletID); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID)
}

type setOrderTypePayload struct {
	OrderType OrderType `json:"orderType" validate:"required,oneof=DINE_IN TAKEAWAY DELIVERY"`
}

// SetOrderType handles PUT /cart/order-type.
func (h *Handler) SetOrderType(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	var payload setOrderTypePayload
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.Svc.SetOrderType(r.Context(), sessionID, payload.OrderType); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID)
}

type setTablePayload struct {
	TableID string `json:"tableId"`
}

// SetTable handles PUT /cart/table. An empty table id clears the
// assignment.
func (h *Handler) SetTable(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	var payload setTablePayload
	if !h.decode(w, r, &payload) {
		return
	}
	h.Svc.SetTableID(r.Context(), sessionID, payload.TableID)
	h.respond(w, r, http.StatusOK, sessionID)
}

type selectionPayload struct {
	CustomizationID string `json:"customizationId" validate:"required"`
	OptionID        string `json:"optionId" validate:"required"`
}

type addonPayload struct {
	AddonID  string `json:"addonId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type addItemPayload struct {
	MenuItemID          string             `json:"menuItemId" validate:"required"`
	Quantity            int                `json:"quantity" validate:"required,gt=0"`
	Customizations      []selectionPayload `json:"customizations" validate:"dive"`
	Addons              []addonPayload     `json:"addons" validate:"dive"`
	SpecialInstructions string             `json:"specialInstructions" validate:"max=500"`
}

// AddItem handles POST /cart/items. The item and every selected
// option is re-resolved against the catalog so prices cannot be
// tampered with.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	var payload addItemPayload
	if !h.decode(w, r, &payload) {
		return
	}

	snap := h.Svc.View(r.Context(), sessionID)
	if snap.OutletID == "" {
		common.JSONError(w, http.StatusConflict, "OUTLET_REQUIRED", "select an outlet before adding items", nil)
		return
	}

	item, err := h.Menu.Resolve(r.Context(), snap.OutletID, payload.MenuItemID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	customizations, addons, err := buildSelections(item, payload.Customizations, payload.Addons)
	if err != nil {
		h.writeError(w, err)
		return
	}

	menuSnap := MenuItemSnapshot{
		ID:        item.ID,
		Name:      item.Name,
		BasePrice: item.BasePrice,
		IsVeg:     item.IsVeg,
		ImageURL:  item.ImageURL,
	}
	if _, err := h.Svc.AddItem(r.Context(), sessionID, menuSnap, payload.Quantity, customizations, addons, payload.SpecialInstructions); err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, sessionID)
}

type updateQuantityPayload struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// UpdateItem handles PATCH /cart/items/{itemId}. A quantity of zero
// removes the line; unknown line ids are a no-op.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	lineID := chi.URLParam(r, "itemId")
	var payload updateQuantityPayload
	if !h.decode(w, r, &payload) {
		return
	}
	h.Svc.UpdateQuantity(r.Context(), sessionID, lineID, payload.Quantity)
	h.respond(w, r, http.StatusOK, sessionID)
}

type updateInstructionsPayload struct {
	SpecialInstructions string `json:"specialInstructions" validate:"max=500"`
}

// UpdateInstructions handles PATCH /cart/items/{itemId}/instructions.
func (h *Handler) UpdateInstructions(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	lineID := chi.URLParam(r, "itemId")
	var payload updateInstructionsPayload
	if !h.decode(w, r, &payload) {
		return
	}
	h.Svc.UpdateSpecialInstructions(r.Context(), sessionID, lineID, payload.SpecialInstructions)
	h.respond(w, r, http.StatusOK, sessionID)
}

// RemoveItem handles DELETE /cart/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	h.Svc.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "itemId"))
	h.respond(w, r, http.StatusOK, sessionID)
}

// Clear handles DELETE /cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	h.Svc.Clear(r.Context(), sessionID)
	h.respond(w, r, http.StatusOK, sessionID)
}

// ItemQuantity handles GET /cart/item-quantity?menuItemId=... for the
// storefront quantity steppers.
func (h *Handler) ItemQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := common.SessionID(r.Context())
	menuItemID := r.URL.Query().Get("menuItemId")
	if menuItemID == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "menuItemId query parameter is required", nil)
		return
	}
	qty := h.Svc.ItemQuantity(r.Context(), sessionID, menuItemID)
	common.JSONData(w, http.StatusOK, map[string]any{
		"menuItemId": menuItemID,
		"quantity":   qty,
	})
}

// buildSelections maps client-chosen customization and addon ids onto
// the catalog item, pulling names and prices from the catalog side.
func buildSelections(item menu.Item, selections []selectionPayload, addons []addonPayload) ([]SelectedCustomization, []SelectedAddon, error) {
	var customizations []SelectedCustomization
	for _, sel := range selections {
		group, option, ok := findOption(item, sel.CustomizationID, sel.OptionID)
		if !ok {
			return nil, nil, common.NewAppError("VALIDATION_ERROR", "unknown customization option "+sel.OptionID, http.StatusBadRequest, nil)
		}
		customizations = append(customizations, SelectedCustomization{
			CustomizationID:   group.ID,
			CustomizationName: group.Name,
			OptionID:          option.ID,
			OptionName:        option.Name,
			Price:             option.Price,
		})
	}
	var selected []SelectedAddon
	for _, a := range addons {
		addon, ok := findAddon(item, a.AddonID)
		if !ok {
			return nil, nil, common.NewAppError("VALIDATION_ERROR", "unknown addon "+a.AddonID, http.StatusBadRequest, nil)
		}
		if !addon.Available {
			return nil, nil, common.NewAppError("ADDON_UNAVAILABLE", "addon "+addon.Name+" is not available", http.StatusConflict, nil)
		}
		selected = append(selected, SelectedAddon{
			AddonID:   addon.ID,
			AddonName: addon.Name,
			Price:     addon.Price,
			Quantity:  a.Quantity,
		})
	}
	return customizations, selected, nil
}

func findOption(item menu.Item, customizationID, optionID string) (menu.Customization, menu.Option, bool) {
	for _, group := range item.Customizations {
		if group.ID != customizationID {
			continue
		}
		for _, opt := range group.Options {
			if opt.ID == optionID {
				return group, opt, true
			}
		}
	}
	return menu.Customization{}, menu.Option{}, false
}

func findAddon(item menu.Item, addonID string) (menu.Addon, bool) {
	for _, a := range item.Addons {
		if a.ID == addonID {
			return a, true
		}
	}
	return menu.Addon{}, false
}

// decode parses and validates a JSON body, writing the error response
// itself when the payload is unusable.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body", nil)
		return false
	}
	if err := h.Validate.Struct(dest); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request payload", validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	switch {
	case errors.As(err, &appErr):
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "INVALID_QUANTITY", "quantity must be positive", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request payload", nil)
	case errors.Is(err, menu.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "outlet or menu item not found", nil)
	case errors.Is(err, menu.ErrUnavailable):
		common.JSONError(w, http.StatusConflict, "ITEM_UNAVAILABLE", "menu item is not available", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "something went wrong", nil)
	}
}
