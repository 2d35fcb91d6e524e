package cart

import "sort"

// CustomizationSetsEqual reports whether two customization selections
// pick the same options, regardless of order. Only the option identity
// matters; display names and prices ride along with the option.
func CustomizationSetsEqual(a, b []SelectedCustomization) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]SelectedCustomization, len(a))
	bs := make([]SelectedCustomization, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Slice(as, func(i, j int) bool { return as[i].OptionID < as[j].OptionID })
	sort.Slice(bs, func(i, j int) bool { return bs[i].OptionID < bs[j].OptionID })
	for i := range as {
		if as[i].OptionID != bs[i].OptionID {
			return false
		}
	}
	return true
}

// AddonSetsEqual reports whether two addon selections are the same
// addons at the same quantities, regardless of order.
func AddonSetsEqual(a, b []SelectedAddon) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]SelectedAddon, len(a))
	bs := make([]SelectedAddon, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Slice(as, func(i, j int) bool { return as[i].AddonID < as[j].AddonID })
	sort.Slice(bs, func(i, j int) bool { return bs[i].AddonID < bs[j].AddonID })
	for i := range as {
		if as[i].AddonID != bs[i].AddonID || as[i].Quantity != bs[i].Quantity {
			return false
		}
	}
	return true
}
