package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderPlaced   = "order.placed"
	TopicCartCleared   = "cart.cleared"
	TopicOutletChanged = "cart.outlet_changed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicCartCleared,
		TopicOutletChanged,
	}
}
