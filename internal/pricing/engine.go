package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components for an order.
type Summary struct {
	Subtotal      Money `json:"subtotal"`
	Discount      Money `json:"discount"`
	Tax           Money `json:"tax"`
	ServiceCharge Money `json:"serviceCharge"`
	Total         Money `json:"total"`
}

// Compute calculates order totals. Tax and service charge are expressed in
// basis points and applied to the post-discount subtotal.
func Compute(items []Item, discount Money, taxBps, serviceBps int) Summary {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	taxable := subtotal - discount
	tax := (taxable * Money(taxBps)) / 10000
	service := (taxable * Money(serviceBps)) / 10000
	return Summary{
		Subtotal:      subtotal,
		Discount:      discount,
		Tax:           tax,
		ServiceCharge: service,
		Total:         taxable + tax + service,
	}
}
