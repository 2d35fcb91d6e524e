package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/foodgrid/backend-pos/internal/menu"
)

type fakeResolver struct {
	outlets map[string]menu.Outlet
	items   map[string]menu.Item
}

func (f *fakeResolver) GetOutlet(_ context.Context, outletID string) (menu.Outlet, error) {
	out, ok := f.outlets[outletID]
	if !ok {
		return menu.Outlet{}, menu.ErrNotFound
	}
	return out, nil
}

func (f *fakeResolver) Resolve(_ context.Context, outletID, menuItemID string) (menu.Item, error) {
	item, ok := f.items[menuItemID]
	if !ok || item.OutletID != outletID {
		return menu.Item{}, menu.ErrNotFound
	}
	if !item.Available {
		return menu.Item{}, menu.ErrUnavailable
	}
	return item, nil
}

func testResolver() *fakeResolver {
	return &fakeResolver{
		outlets: map[string]menu.Outlet{
			"outlet-1": {ID: "outlet-1", Name: "Koramangala", Open: true},
			"outlet-2": {ID: "outlet-2", Name: "Indiranagar", Open: true},
		},
		items: map[string]menu.Item{
			"item-paneer": {
				ID:        "item-paneer",
				OutletID:  "outlet-1",
				Name:      "Paneer Tikka",
				BasePrice: 1264,
				IsVeg:     true,
				Available: true,
				Customizations: []menu.Customization{
					{
						ID:   "size",
						Name: "Size",
						Options: []menu.Option{
							{ID: "opt-regular", Name: "Regular", Price: 0},
							{ID: "opt-large", Name: "Large", Price: 300},
						},
					},
				},
				Addons: []menu.Addon{
					{ID: "cheese", Name: "Extra Cheese", Price: 50, Available: true},
					{ID: "truffle", Name: "Truffle Shavings", Price: 900, Available: false},
				},
			},
			"item-sold-out": {
				ID:        "item-sold-out",
				OutletID:  "outlet-1",
				Name:      "Seasonal Special",
				BasePrice: 2000,
			},
		},
	}
}

func newTestRouter(t *testing.T) (*chi.Mux, *Handler) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(NewRedisSnapshotStore(client, time.Hour), zerolog.Nop(), nil)
	h := NewHandler(svc, testResolver(), 500, 0, "INR")

	r := chi.NewRouter()
	r.Use(SessionMiddleware)
	r.Post("/cart/session", h.CreateSession)
	r.Group(func(r chi.Router) {
		r.Use(RequireSession)
		r.Get("/cart", h.Get)
		r.Put("/cart/outlet", h.SetOutlet)
		r.Put("/cart/order-type", h.SetOrderType)
		r.Put("/cart/table", h.SetTable)
		r.Post("/cart/items", h.AddItem)
		r.Patch("/cart/items/{itemId}", h.UpdateItem)
		r.Patch("/cart/items/{itemId}/instructions", h.UpdateInstructions)
		r.Delete("/cart/items/{itemId}", h.RemoveItem)
		r.Delete("/cart", h.Clear)
		r.Get("/cart/item-quantity", h.ItemQuantity)
	})
	return r, h
}

type cartEnvelope struct {
	Data view `json:"data"`
}

func do(t *testing.T, router http.Handler, method, path, sessionID string, body any) (*httptest.ResponseRecorder, cartEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env cartEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func newSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec, env := do(t, router, http.MethodPost, "/cart/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, env.Data.SessionID)
	return env.Data.SessionID
}

func TestCreateSessionReturnsEmptyCart(t *testing.T) {
	router, _ := newTestRouter(t)
	rec, env := do(t, router, http.MethodPost, "/cart/session", "", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Empty(t, env.Data.Items)
	require.Equal(t, 0, env.Data.ItemCount)
	require.Equal(t, DefaultOrderType, env.Data.OrderType)
	require.Equal(t, "INR", env.Data.Currency)
}

func TestCartRequiresSessionHeader(t *testing.T) {
	router, _ := newTestRouter(t)
	rec, _ := do(t, router, http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItemRequiresOutlet(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)

	rec, _ := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId": "item-paneer",
		"quantity":   1,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "OUTLET_REQUIRED")
}

func TestAddItemFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)

	rec, _ := do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId":     "item-paneer",
		"quantity":       2,
		"customizations": []map[string]any{{"customizationId": "size", "optionId": "opt-large"}},
		"addons":         []map[string]any{{"addonId": "cheese", "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.Data.Items, 1)

	line := env.Data.Items[0]
	// prices come from the catalog, not the client
	require.EqualValues(t, 1614, line.UnitPrice)
	require.EqualValues(t, 3228, line.TotalPrice)
	require.Equal(t, "Large", line.Customizations[0].OptionName)
	require.EqualValues(t, 3228, env.Data.Subtotal)
	require.EqualValues(t, 3228, env.Data.Pricing.Subtotal)
	// 5% tax on the subtotal
	require.EqualValues(t, 161, env.Data.Pricing.Tax)
}

func TestAddItemUnknownOption(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})

	rec, _ := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId":     "item-paneer",
		"quantity":       1,
		"customizations": []map[string]any{{"customizationId": "size", "optionId": "opt-bogus"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestAddItemUnavailableAddon(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})

	rec, _ := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId": "item-paneer",
		"quantity":   1,
		"addons":     []map[string]any{{"addonId": "truffle", "quantity": 1}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "ADDON_UNAVAILABLE")
}

func TestAddItemUnavailableItem(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})

	rec, _ := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId": "item-sold-out",
		"quantity":   1,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "ITEM_UNAVAILABLE")
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})

	rec, _ := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId": "item-paneer",
		"quantity":   0,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwitchingOutletClearsCartOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})
	do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{"menuItemId": "item-paneer", "quantity": 2})

	rec, env := do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.Data.Items)
	require.Equal(t, "outlet-2", env.Data.OutletID)
}

func TestSetOutletUnknownOutlet(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	rec, _ := do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-404"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndRemoveItemOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})
	_, env := do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{"menuItemId": "item-paneer", "quantity": 1})
	lineID := env.Data.Items[0].ID

	rec, env := do(t, router, http.MethodPatch, "/cart/items/"+lineID, sess, map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 4, env.Data.ItemCount)

	rec, env = do(t, router, http.MethodPatch, "/cart/items/"+lineID+"/instructions", sess, map[string]any{"specialInstructions": "no onions"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no onions", env.Data.Items[0].SpecialInstructions)

	rec, env = do(t, router, http.MethodDelete, "/cart/items/"+lineID, sess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.Data.Items)
}

func TestSetOrderTypeAndTableOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)

	rec, _ := do(t, router, http.MethodPut, "/cart/order-type", sess, map[string]any{"orderType": "DRIVE_THRU"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(t, router, http.MethodPut, "/cart/order-type", sess, map[string]any{"orderType": "DINE_IN"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, OrderTypeDineIn, env.Data.OrderType)

	rec, env = do(t, router, http.MethodPut, "/cart/table", sess, map[string]any{"tableId": "T12"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "T12", env.Data.TableID)
}

func TestItemQuantityEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})
	do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{"menuItemId": "item-paneer", "quantity": 2})
	do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{
		"menuItemId":     "item-paneer",
		"quantity":       1,
		"customizations": []map[string]any{{"customizationId": "size", "optionId": "opt-large"}},
	})

	rec, _ := do(t, router, http.MethodGet, "/cart/item-quantity?menuItemId=item-paneer", sess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"quantity":3`)

	rec, _ = do(t, router, http.MethodGet, "/cart/item-quantity", sess, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearCartOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t)
	sess := newSession(t, router)
	do(t, router, http.MethodPut, "/cart/outlet", sess, map[string]any{"outletId": "outlet-1"})
	do(t, router, http.MethodPost, "/cart/items", sess, map[string]any{"menuItemId": "item-paneer", "quantity": 2})

	rec, env := do(t, router, http.MethodDelete, "/cart", sess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, env.Data.Items)
	require.Equal(t, "outlet-1", env.Data.OutletID)
}
