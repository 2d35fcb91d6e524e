package cart

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foodgrid/backend-pos/internal/pricing"
)

var (
	paneerTikka = MenuItemSnapshot{ID: "item-paneer", Name: "Paneer Tikka", BasePrice: 1264, IsVeg: true}
	biryani     = MenuItemSnapshot{ID: "item-biryani", Name: "Chicken Biryani", BasePrice: 4200}
)

func TestAddItemComputesUnitAndTotalPrice(t *testing.T) {
	s := NewStore()
	customizations := []SelectedCustomization{
		{CustomizationID: "size", OptionID: "opt-large", OptionName: "Large", Price: 300},
	}
	addons := []SelectedAddon{
		{AddonID: "cheese", AddonName: "Extra Cheese", Price: 50, Quantity: 2},
	}

	line, err := s.AddItem(paneerTikka, 3, customizations, addons, "")
	require.NoError(t, err)

	// 1264 + 300 + 50*2 per unit
	require.Equal(t, pricing.Money(1664), line.UnitPrice)
	require.Equal(t, pricing.Money(4992), line.TotalPrice)
	require.Equal(t, 3, s.ItemCount())
	require.Equal(t, pricing.Money(4992), s.Subtotal())
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 0, nil, nil, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = s.AddItem(paneerTikka, -2, nil, nil, "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	require.Empty(t, s.Items())
}

func TestAddItemMergesEqualConfiguration(t *testing.T) {
	s := NewStore()
	first := []SelectedCustomization{
		{CustomizationID: "size", OptionID: "opt-large", Price: 300},
		{CustomizationID: "spice", OptionID: "opt-hot"},
	}
	// same selections, different order
	second := []SelectedCustomization{
		{CustomizationID: "spice", OptionID: "opt-hot"},
		{CustomizationID: "size", OptionID: "opt-large", Price: 300},
	}

	a, err := s.AddItem(paneerTikka, 1, first, nil, "")
	require.NoError(t, err)
	b, err := s.AddItem(paneerTikka, 2, second, nil, "")
	require.NoError(t, err)

	require.Equal(t, a.ID, b.ID)
	require.Len(t, s.Items(), 1)
	require.Equal(t, 3, b.Quantity)
	require.Equal(t, b.UnitPrice*3, b.TotalPrice)
	require.Equal(t, 3, s.ItemCount())
}

func TestAddItemDistinctConfigurationCreatesNewLine(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 1, []SelectedCustomization{{OptionID: "opt-large", Price: 300}}, nil, "")
	require.NoError(t, err)
	_, err = s.AddItem(paneerTikka, 1, []SelectedCustomization{{OptionID: "opt-small"}}, nil, "")
	require.NoError(t, err)
	require.Len(t, s.Items(), 2)
}

func TestAddItemAddonQuantityPreventsMerge(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 1, nil, []SelectedAddon{{AddonID: "cheese", Quantity: 1, Price: 50}}, "")
	require.NoError(t, err)
	_, err = s.AddItem(paneerTikka, 1, nil, []SelectedAddon{{AddonID: "cheese", Quantity: 2, Price: 50}}, "")
	require.NoError(t, err)
	require.Len(t, s.Items(), 2)
}

func TestAddItemSpecialInstructionsPreventMerge(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 1, nil, nil, "extra crispy")
	require.NoError(t, err)
	line, err := s.AddItem(paneerTikka, 1, nil, nil, "")
	require.NoError(t, err)

	// the existing line carries a note, so the new add stays separate
	require.Len(t, s.Items(), 2)
	require.Empty(t, line.SpecialInstructions)
}

func TestAddItemMergesPastNotedLineWithSameConfiguration(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 1, nil, nil, "no onions")
	require.NoError(t, err)
	first, err := s.AddItem(paneerTikka, 1, nil, nil, "")
	require.NoError(t, err)
	second, err := s.AddItem(paneerTikka, 1, nil, nil, "")
	require.NoError(t, err)

	// the noted line must not block merging into the note-free one
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 2, second.Quantity)
	require.Len(t, s.Items(), 2)

	noteFree := 0
	for _, it := range s.Items() {
		if it.SpecialInstructions == "" {
			noteFree++
		}
	}
	require.Equal(t, 1, noteFree)
}

func TestUpdateQuantityRecomputesTotals(t *testing.T) {
	s := NewStore()
	line, err := s.AddItem(biryani, 1, nil, nil, "")
	require.NoError(t, err)

	require.True(t, s.UpdateQuantity(line.ID, 3))
	require.Equal(t, 3, s.ItemCount())
	require.Equal(t, pricing.Money(12600), s.Subtotal())
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	s := NewStore()
	line, err := s.AddItem(biryani, 2, nil, nil, "")
	require.NoError(t, err)

	require.True(t, s.UpdateQuantity(line.ID, 0))
	require.Empty(t, s.Items())
	require.Equal(t, 0, s.ItemCount())
	require.Equal(t, pricing.Money(0), s.Subtotal())
}

func TestUpdateQuantityUnknownLineIsNoOp(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(biryani, 2, nil, nil, "")
	require.NoError(t, err)

	require.False(t, s.UpdateQuantity("missing", 5))
	require.Equal(t, 2, s.ItemCount())
}

func TestUpdateSpecialInstructions(t *testing.T) {
	s := NewStore()
	line, err := s.AddItem(biryani, 1, nil, nil, "")
	require.NoError(t, err)

	require.True(t, s.UpdateSpecialInstructions(line.ID, "  no onions  "))
	require.Equal(t, "no onions", s.Items()[0].SpecialInstructions)
	require.False(t, s.UpdateSpecialInstructions("missing", "x"))
}

func TestRemoveItemUpdatesAggregates(t *testing.T) {
	s := NewStore()
	a, err := s.AddItem(paneerTikka, 2, nil, nil, "")
	require.NoError(t, err)
	_, err = s.AddItem(biryani, 3, nil, nil, "")
	require.NoError(t, err)

	require.True(t, s.RemoveItem(a.ID))
	require.Len(t, s.Items(), 1)
	require.Equal(t, 3, s.ItemCount())
	require.Equal(t, pricing.Money(12600), s.Subtotal())
	require.False(t, s.RemoveItem(a.ID))
}

func TestClearKeepsOutletAndOrderType(t *testing.T) {
	s := NewStore()
	_, err := s.SetOutlet("outlet-1")
	require.NoError(t, err)
	require.NoError(t, s.SetOrderType(OrderTypeDineIn))
	s.SetTableID("T7")
	_, err = s.AddItem(paneerTikka, 2, nil, nil, "")
	require.NoError(t, err)

	s.Clear()

	snap := s.Snapshot()
	require.Empty(t, snap.Items)
	require.Equal(t, 0, snap.ItemCount)
	require.Equal(t, "outlet-1", snap.OutletID)
	require.Equal(t, OrderTypeDineIn, snap.OrderType)
	require.Equal(t, "T7", snap.TableID)
}

func TestSetOutletSwitchClearsItems(t *testing.T) {
	s := NewStore()
	cleared, err := s.SetOutlet("outlet-1")
	require.NoError(t, err)
	require.False(t, cleared)

	_, err = s.AddItem(paneerTikka, 2, nil, nil, "")
	require.NoError(t, err)

	// same outlet again keeps the cart
	cleared, err = s.SetOutlet("outlet-1")
	require.NoError(t, err)
	require.False(t, cleared)
	require.Equal(t, 2, s.ItemCount())

	cleared, err = s.SetOutlet("outlet-2")
	require.NoError(t, err)
	require.True(t, cleared)
	require.Empty(t, s.Items())
	require.Equal(t, "outlet-2", s.OutletID())
}

func TestSetOutletRejectsEmpty(t *testing.T) {
	s := NewStore()
	_, err := s.SetOutlet("   ")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetOrderTypeRejectsUnknown(t *testing.T) {
	s := NewStore()
	require.ErrorIs(t, s.SetOrderType("DRIVE_THRU"), ErrInvalidInput)
	require.NoError(t, s.SetOrderType(OrderTypeDelivery))
}

func TestItemQuantitySumsAcrossLines(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 2, nil, nil, "")
	require.NoError(t, err)
	_, err = s.AddItem(paneerTikka, 1, []SelectedCustomization{{OptionID: "opt-large"}}, nil, "")
	require.NoError(t, err)
	_, err = s.AddItem(biryani, 3, nil, nil, "")
	require.NoError(t, err)

	require.Equal(t, 3, s.ItemQuantity(paneerTikka.ID))
	require.Equal(t, 3, s.ItemQuantity(biryani.ID))
	require.Equal(t, 0, s.ItemQuantity("missing"))
}

func TestFindExisting(t *testing.T) {
	s := NewStore()
	customizations := []SelectedCustomization{{OptionID: "opt-large", Price: 300}}
	added, err := s.AddItem(paneerTikka, 1, customizations, nil, "")
	require.NoError(t, err)

	found, ok := s.FindExisting(paneerTikka.ID, customizations, nil)
	require.True(t, ok)
	require.Equal(t, added.ID, found.ID)

	_, ok = s.FindExisting(paneerTikka.ID, nil, nil)
	require.False(t, ok)
}

func TestAggregatesAcrossMixedCart(t *testing.T) {
	s := NewStore()
	_, err := s.AddItem(paneerTikka, 1, nil, nil, "")
	require.NoError(t, err)
	_, err = s.AddItem(paneerTikka, 1, nil, nil, "")
	require.NoError(t, err)
	_, err = s.AddItem(biryani, 3, nil, nil, "")
	require.NoError(t, err)

	require.Len(t, s.Items(), 2)
	require.Equal(t, 5, s.ItemCount())
	// 2*1264 + 3*4200
	require.Equal(t, pricing.Money(15128), s.Subtotal())
}

func TestFromSnapshotRecomputesDerivedState(t *testing.T) {
	snap := Snapshot{
		Version:   SnapshotVersion,
		OutletID:  "outlet-1",
		OrderType: OrderTypeDineIn,
		TableID:   "T2",
		// stored aggregates are stale on purpose
		ItemCount: 99,
		Subtotal:  1,
		Items: []LineItem{
			{
				ID:         "line-1",
				MenuItemID: biryani.ID,
				MenuItem:   biryani,
				Quantity:   2,
				TotalPrice: 7,
			},
			{MenuItemID: paneerTikka.ID, MenuItem: paneerTikka, Quantity: 0},
		},
	}

	s := FromSnapshot(snap)

	require.Len(t, s.Items(), 1)
	require.Equal(t, 2, s.ItemCount())
	require.Equal(t, pricing.Money(8400), s.Subtotal())
	require.Equal(t, pricing.Money(4200), s.Items()[0].UnitPrice)
	require.Equal(t, "outlet-1", s.OutletID())

	out := s.Snapshot()
	require.Equal(t, OrderTypeDineIn, out.OrderType)
	require.Equal(t, "T2", out.TableID)
}

func TestFromSnapshotInvalidOrderTypeFallsBack(t *testing.T) {
	s := FromSnapshot(Snapshot{Version: SnapshotVersion, OrderType: "BOGUS"})
	require.Equal(t, DefaultOrderType, s.Snapshot().OrderType)
}
