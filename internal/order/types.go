package order

import (
	"errors"
	"time"

	"github.com/foodgrid/backend-pos/internal/cart"
	"github.com/foodgrid/backend-pos/internal/pricing"
)

// Status is the kitchen-facing lifecycle state of an order.
type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaced, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order: not found")
	// ErrEmptyCart is returned when placing an order from an empty cart.
	ErrEmptyCart = errors.New("order: cart is empty")
	// ErrOutletRequired is returned when the cart has no outlet bound.
	ErrOutletRequired = errors.New("order: outlet not selected")
	// ErrTableRequired is returned when a dine-in order has no table.
	ErrTableRequired = errors.New("order: table required for dine-in")
	// ErrInvalidStatus is returned for unknown status transitions.
	ErrInvalidStatus = errors.New("order: invalid status")
)

// Item is one line of a placed order, frozen from the cart at
// placement time.
type Item struct {
	ID                  string                       `json:"id"`
	MenuItemID          string                       `json:"menuItemId"`
	Name                string                       `json:"name"`
	Quantity            int                          `json:"quantity"`
	UnitPrice           pricing.Money                `json:"unitPrice"`
	TotalPrice          pricing.Money                `json:"totalPrice"`
	Customizations      []cart.SelectedCustomization `json:"customizations,omitempty"`
	Addons              []cart.SelectedAddon         `json:"addons,omitempty"`
	SpecialInstructions string                       `json:"specialInstructions,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenantId,omitempty"`
	OutletID  string          `json:"outletId"`
	SessionID string          `json:"sessionId"`
	OrderType cart.OrderType  `json:"orderType"`
	TableID   string          `json:"tableId,omitempty"`
	Items     []Item          `json:"items"`
	Pricing   pricing.Summary `json:"pricing"`
	Status    Status          `json:"status"`
	PlacedAt  time.Time       `json:"placedAt"`
}
