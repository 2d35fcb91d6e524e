package cart

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/foodgrid/backend-pos/internal/pricing"
)

var (
	// ErrInvalidQuantity is returned when an add carries a quantity
	// of zero or less.
	ErrInvalidQuantity = errors.New("cart: quantity must be positive")
	// ErrInvalidInput is returned for empty identifiers and unknown
	// order types.
	ErrInvalidInput = errors.New("cart: invalid input")
)

// Store holds one guest's cart. It is safe for concurrent use; every
// mutation recomputes the derived aggregates before returning, so
// readers always observe item count and subtotal consistent with the
// line items.
type Store struct {
	mu sync.Mutex

	outletID  string
	orderType OrderType
	tableID   string
	items     []LineItem

	itemCount int
	subtotal  pricing.Money
}

// NewStore returns an empty cart with the default order type.
func NewStore() *Store {
	return &Store{orderType: DefaultOrderType}
}

// FromSnapshot rebuilds a cart from a persisted snapshot. Aggregates
// and per-line totals are recomputed rather than trusted; lines with a
// non-positive quantity are dropped.
func FromSnapshot(snap Snapshot) *Store {
	s := NewStore()
	if snap.OrderType.Valid() {
		s.orderType = snap.OrderType
	}
	s.outletID = snap.OutletID
	s.tableID = snap.TableID
	for _, it := range snap.Items {
		if it.Quantity <= 0 {
			continue
		}
		it.UnitPrice = UnitPrice(it.MenuItem.BasePrice, it.Customizations, it.Addons)
		it.TotalPrice = it.UnitPrice * pricing.Money(it.Quantity)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		s.items = append(s.items, it)
	}
	s.recalc()
	return s
}

// recalc rebuilds the aggregates from the full line list. Callers must
// hold mu.
func (s *Store) recalc() {
	count := 0
	var subtotal pricing.Money
	for _, it := range s.items {
		count += it.Quantity
		subtotal += it.TotalPrice
	}
	s.itemCount = count
	s.subtotal = subtotal
}

// SetOutlet switches the cart to another outlet. Switching away from a
// previously chosen outlet empties the cart, since menus and prices
// are outlet-scoped. It reports whether items were cleared.
func (s *Store) SetOutlet(outletID string) (bool, error) {
	outletID = strings.TrimSpace(outletID)
	if outletID == "" {
		return false, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := false
	if s.outletID != "" && s.outletID != outletID && len(s.items) > 0 {
		s.items = nil
		cleared = true
	}
	s.outletID = outletID
	s.recalc()
	return cleared, nil
}

// SetOrderType changes how the order will be fulfilled.
func (s *Store) SetOrderType(t OrderType) error {
	if !t.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderType = t
	return nil
}

// SetTableID records the dine-in table. An empty value clears it.
func (s *Store) SetTableID(tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tableID = strings.TrimSpace(tableID)
}

// AddItem adds a configured menu item. If a line with the same menu
// item, the same customization set, and the same addon set already
// exists and neither line carries special instructions, the quantities
// merge into the existing line instead of creating a new one.
func (s *Store) AddItem(item MenuItemSnapshot, qty int, customizations []SelectedCustomization, addons []SelectedAddon, instructions string) (LineItem, error) {
	if qty <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	if item.ID == "" {
		return LineItem{}, ErrInvalidInput
	}
	instructions = strings.TrimSpace(instructions)

	s.mu.Lock()
	defer s.mu.Unlock()

	if instructions == "" {
		if idx := s.mergeTarget(item.ID, customizations, addons); idx >= 0 {
			s.items[idx].Quantity += qty
			s.items[idx].TotalPrice = s.items[idx].UnitPrice * pricing.Money(s.items[idx].Quantity)
			s.recalc()
			return s.items[idx], nil
		}
	}

	unit := UnitPrice(item.BasePrice, customizations, addons)
	line := LineItem{
		ID:                  uuid.NewString(),
		MenuItemID:          item.ID,
		MenuItem:            item,
		Quantity:            qty,
		Customizations:      customizations,
		Addons:              addons,
		SpecialInstructions: instructions,
		UnitPrice:           unit,
		TotalPrice:          unit * pricing.Money(qty),
	}
	s.items = append(s.items, line)
	s.recalc()
	return line, nil
}

// UpdateQuantity sets the quantity of a cart line. A quantity of zero
// or less removes the line. Unknown line ids are a no-op; the boolean
// reports whether a line was found.
func (s *Store) UpdateQuantity(lineID string, qty int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != lineID {
			continue
		}
		if qty <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = qty
			s.items[i].TotalPrice = s.items[i].UnitPrice * pricing.Money(qty)
		}
		s.recalc()
		return true
	}
	return false
}

// UpdateSpecialInstructions replaces the note on a cart line. Unknown
// line ids are a no-op.
func (s *Store) UpdateSpecialInstructions(lineID, instructions string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == lineID {
			s.items[i].SpecialInstructions = strings.TrimSpace(instructions)
			return true
		}
	}
	return false
}

// RemoveItem deletes a cart line. Unknown line ids are a no-op.
func (s *Store) RemoveItem(lineID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == lineID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.recalc()
			return true
		}
	}
	return false
}

// Clear empties the cart. Outlet, order type and table survive so the
// guest can keep ordering.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.recalc()
}

// ItemQuantity returns the summed quantity of a menu item across all
// cart lines, whatever their configuration.
func (s *Store) ItemQuantity(menuItemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.items {
		if it.MenuItemID == menuItemID {
			total += it.Quantity
		}
	}
	return total
}

// FindExisting returns the cart line that an add with the given
// configuration would merge into, if one exists.
func (s *Store) FindExisting(menuItemID string, customizations []SelectedCustomization, addons []SelectedAddon) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.findExisting(menuItemID, customizations, addons); idx >= 0 {
		return s.items[idx], true
	}
	return LineItem{}, false
}

// mergeTarget locates the line an instruction-free add merges into:
// same menu item, equal sets, and no note on the line. A config-equal
// line that carries a note is skipped rather than blocking the merge,
// so two note-free lines with the same configuration never coexist.
// Callers must hold mu.
func (s *Store) mergeTarget(menuItemID string, customizations []SelectedCustomization, addons []SelectedAddon) int {
	for i := range s.items {
		if s.items[i].MenuItemID != menuItemID || s.items[i].SpecialInstructions != "" {
			continue
		}
		if CustomizationSetsEqual(s.items[i].Customizations, customizations) && AddonSetsEqual(s.items[i].Addons, addons) {
			return i
		}
	}
	return -1
}

// findExisting locates a line with the same menu item and equal
// customization and addon sets. Callers must hold mu.
func (s *Store) findExisting(menuItemID string, customizations []SelectedCustomization, addons []SelectedAddon) int {
	for i := range s.items {
		if s.items[i].MenuItemID != menuItemID {
			continue
		}
		if CustomizationSetsEqual(s.items[i].Customizations, customizations) && AddonSetsEqual(s.items[i].Addons, addons) {
			return i
		}
	}
	return -1
}

// OutletID returns the outlet the cart is bound to, if any.
func (s *Store) OutletID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outletID
}

// Items returns a copy of the cart lines.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemCount returns the total quantity across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCount
}

// Subtotal returns the sum of all line totals.
func (s *Store) Subtotal() pricing.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotal
}

// Snapshot returns the persistable form of the cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Version:   SnapshotVersion,
		OutletID:  s.outletID,
		Items:     items,
		OrderType: s.orderType,
		TableID:   s.tableID,
		ItemCount: s.itemCount,
		Subtotal:  s.subtotal,
	}
}
