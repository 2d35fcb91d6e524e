package menu

import (
	"errors"

	"github.com/foodgrid/backend-pos/internal/pricing"
)

// ErrNotFound is returned when an outlet or menu item does not exist.
var ErrNotFound = errors.New("menu: not found")

// Option is one selectable choice inside a customization group.
type Option struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Price pricing.Money `json:"price"`
}

// Customization is a group of options on a menu item, e.g. "Size" or
// "Spice level".
type Customization struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Required      bool     `json:"required"`
	MaxSelections int      `json:"maxSelections"`
	Options       []Option `json:"options"`
}

// Addon is an optional extra that can be added in multiples.
type Addon struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Price     pricing.Money `json:"price"`
	Available bool          `json:"available"`
}

// Item is a sellable menu entry scoped to an outlet.
type Item struct {
	ID             string          `json:"id"`
	OutletID       string          `json:"outletId"`
	CategoryID     string          `json:"categoryId"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	BasePrice      pricing.Money   `json:"basePrice"`
	IsVeg          bool            `json:"isVeg"`
	Available      bool            `json:"available"`
	ImageURL       string          `json:"imageUrl,omitempty"`
	Customizations []Customization `json:"customizations"`
	Addons         []Addon         `json:"addons"`
}

// Outlet is a restaurant location.
type Outlet struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Open    bool   `json:"open"`
}
