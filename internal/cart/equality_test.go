package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCustomizationSetsEqualIgnoresOrder(t *testing.T) {
	a := []SelectedCustomization{
		{CustomizationID: "size", OptionID: "opt-large", Price: 200},
		{CustomizationID: "spice", OptionID: "opt-hot", Price: 0},
	}
	b := []SelectedCustomization{
		{CustomizationID: "spice", OptionID: "opt-hot", Price: 0},
		{CustomizationID: "size", OptionID: "opt-large", Price: 200},
	}
	require.True(t, CustomizationSetsEqual(a, b))
}

func TestCustomizationSetsEqualDifferentOption(t *testing.T) {
	a := []SelectedCustomization{{OptionID: "opt-large"}}
	b := []SelectedCustomization{{OptionID: "opt-small"}}
	require.False(t, CustomizationSetsEqual(a, b))
}

func TestCustomizationSetsEqualLengthMismatch(t *testing.T) {
	a := []SelectedCustomization{{OptionID: "opt-large"}}
	require.False(t, CustomizationSetsEqual(a, nil))
	require.True(t, CustomizationSetsEqual(nil, nil))
}

func TestAddonSetsEqualIgnoresOrder(t *testing.T) {
	a := []SelectedAddon{
		{AddonID: "cheese", Quantity: 2, Price: 50},
		{AddonID: "fries", Quantity: 1, Price: 120},
	}
	b := []SelectedAddon{
		{AddonID: "fries", Quantity: 1, Price: 120},
		{AddonID: "cheese", Quantity: 2, Price: 50},
	}
	require.True(t, AddonSetsEqual(a, b))
}

func TestAddonSetsEqualQuantityMatters(t *testing.T) {
	a := []SelectedAddon{{AddonID: "cheese", Quantity: 1}}
	b := []SelectedAddon{{AddonID: "cheese", Quantity: 2}}
	require.False(t, AddonSetsEqual(a, b))
}

func TestAddonSetsEqualDifferentAddon(t *testing.T) {
	a := []SelectedAddon{{AddonID: "cheese", Quantity: 1}}
	b := []SelectedAddon{{AddonID: "fries", Quantity: 1}}
	require.False(t, AddonSetsEqual(a, b))
}
