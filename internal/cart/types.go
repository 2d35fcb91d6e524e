package cart

import (
	"github.com/foodgrid/backend-pos/internal/pricing"
)

// OrderType is how the guest wants the order fulfilled.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeaway OrderType = "TAKEAWAY"
	OrderTypeDelivery OrderType = "DELIVERY"
)

// DefaultOrderType is applied to fresh carts.
const DefaultOrderType = OrderTypeTakeaway

// Valid reports whether t is one of the supported order types.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

// MenuItemSnapshot captures the menu item as it was when added to the
// cart, so later catalog edits do not change lines already in a cart.
type MenuItemSnapshot struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	BasePrice pricing.Money `json:"basePrice"`
	IsVeg     bool          `json:"isVeg"`
	ImageURL  string        `json:"imageUrl,omitempty"`
}

// SelectedCustomization is one chosen option within a customization
// group (e.g. group "Size", option "Large").
type SelectedCustomization struct {
	CustomizationID   string        `json:"customizationId"`
	CustomizationName string        `json:"customizationName"`
	OptionID          string        `json:"optionId"`
	OptionName        string        `json:"optionName"`
	Price             pricing.Money `json:"price"`
}

// SelectedAddon is an optional extra with its own quantity.
type SelectedAddon struct {
	AddonID   string        `json:"addonId"`
	AddonName string        `json:"addonName"`
	Price     pricing.Money `json:"price"`
	Quantity  int           `json:"quantity"`
}

// LineItem is one entry in the cart. UnitPrice and TotalPrice are
// derived and maintained by the store, never set by callers.
type LineItem struct {
	ID                  string                  `json:"id"`
	MenuItemID          string                  `json:"menuItemId"`
	MenuItem            MenuItemSnapshot        `json:"menuItem"`
	Quantity            int                     `json:"quantity"`
	Customizations      []SelectedCustomization `json:"customizations"`
	Addons              []SelectedAddon         `json:"addons"`
	SpecialInstructions string                  `json:"specialInstructions"`
	UnitPrice           pricing.Money           `json:"unitPrice"`
	TotalPrice          pricing.Money           `json:"totalPrice"`
}

// SnapshotVersion tags persisted snapshots. Loads with a different
// version are discarded and the cart starts fresh.
const SnapshotVersion = 1

// SnapshotKeyPrefix is the storage key prefix for persisted carts.
const SnapshotKeyPrefix = "foodgrid-cart"

// Snapshot is the persisted form of a cart. ItemCount and Subtotal are
// recomputed on load; they are stored only for observability.
type Snapshot struct {
	Version   int           `json:"version"`
	OutletID  string        `json:"outletId"`
	Items     []LineItem    `json:"items"`
	OrderType OrderType     `json:"orderType"`
	TableID   string        `json:"tableId"`
	ItemCount int           `json:"itemCount"`
	Subtotal  pricing.Money `json:"subtotal"`
}

// UnitPrice computes the per-unit price of a configured line: base
// price plus every chosen option plus each addon times its quantity.
func UnitPrice(base pricing.Money, customizations []SelectedCustomization, addons []SelectedAddon) pricing.Money {
	total := base
	for _, c := range customizations {
		total += c.Price
	}
	for _, a := range addons {
		total += a.Price * pricing.Money(a.Quantity)
	}
	return total
}
