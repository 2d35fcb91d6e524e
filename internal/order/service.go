package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foodgrid/backend-pos/internal/cart"
	"github.com/foodgrid/backend-pos/internal/events"
	"github.com/foodgrid/backend-pos/internal/lock"
	"github.com/foodgrid/backend-pos/internal/obs"
	"github.com/foodgrid/backend-pos/internal/pricing"
	"github.com/foodgrid/backend-pos/internal/tenant"
)

// Service turns carts into orders. Placement is serialised per session
// with a redis lock so a double-tapped pay button cannot place the
// same cart twice.
type Service struct {
	Cart    *cart.Service
	Orders  Repo
	Locks   lock.Locker
	Bus     *events.Bus
	Tickets *Enqueuer
	Logger  zerolog.Logger

	TaxBps     int
	ServiceBps int
	LockTTL    time.Duration

	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Place creates an order from the session's cart and clears the cart.
func (s *Service) Place(ctx context.Context, sessionID string) (Order, error) {
	var placed Order
	key := tenant.KeyFromContext(ctx, "order:place:"+sessionID)
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	err := s.Locks.WithLock(ctx, key, ttl, func(ctx context.Context) error {
		o, err := s.place(ctx, sessionID)
		if err != nil {
			return err
		}
		placed = o
		return nil
	})
	return placed, err
}

func (s *Service) place(ctx context.Context, sessionID string) (Order, error) {
	snap := s.Cart.View(ctx, sessionID)
	if len(snap.Items) == 0 {
		return Order{}, ErrEmptyCart
	}
	if snap.OutletID == "" {
		return Order{}, ErrOutletRequired
	}
	if snap.OrderType == cart.OrderTypeDineIn && snap.TableID == "" {
		return Order{}, ErrTableRequired
	}

	lines := make([]pricing.Item, 0, len(snap.Items))
	items := make([]Item, 0, len(snap.Items))
	for _, it := range snap.Items {
		lines = append(lines, pricing.Item{Qty: it.Quantity, UnitPrice: it.UnitPrice})
		items = append(items, Item{
			ID:                  uuid.NewString(),
			MenuItemID:          it.MenuItemID,
			Name:                it.MenuItem.Name,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			TotalPrice:          it.TotalPrice,
			Customizations:      it.Customizations,
			Addons:              it.Addons,
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	tenantID, _ := tenant.From(ctx)
	o := Order{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		OutletID:  snap.OutletID,
		SessionID: sessionID,
		OrderType: snap.OrderType,
		TableID:   snap.TableID,
		Items:     items,
		Pricing:   pricing.Compute(lines, 0, s.TaxBps, s.ServiceBps),
		Status:    StatusPlaced,
		PlacedAt:  s.now(),
	}

	if err := s.Orders.Insert(ctx, o); err != nil {
		return Order{}, err
	}

	s.Cart.Clear(ctx, sessionID)

	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.WithLabelValues(string(o.OrderType)).Inc()
	}
	if obs.OrderValue != nil {
		obs.OrderValue.Observe(float64(o.Pricing.Total))
	}

	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderPlaced, o.ID, map[string]any{
			"orderId":   o.ID,
			"outletId":  o.OutletID,
			"sessionId": o.SessionID,
			"orderType": o.OrderType,
			"total":     o.Pricing.Total,
		}); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("order event emit failed")
		}
	}

	// ticket fan-out is best-effort; the order is already durable
	if s.Tickets != nil {
		ticket := TicketPayload{
			OrderID:   o.ID,
			TenantID:  o.TenantID,
			OutletID:  o.OutletID,
			OrderType: string(o.OrderType),
			TableID:   o.TableID,
			ItemCount: itemCount(o.Items),
			PlacedAt:  o.PlacedAt,
		}
		if err := s.Tickets.EnqueueTicket(ctx, ticket); err != nil {
			s.Logger.Error().Err(err).Str("order_id", o.ID).Msg("kitchen ticket enqueue failed")
			if obs.KitchenTicketsTotal != nil {
				obs.KitchenTicketsTotal.WithLabelValues("enqueue_failed").Inc()
			}
		}
	}

	return o, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, orderID string) (Order, error) {
	return s.Orders.Get(ctx, orderID)
}

// ListBySession returns the session's order history, newest first.
func (s *Service) ListBySession(ctx context.Context, sessionID string, limit int) ([]Order, error) {
	return s.Orders.ListBySession(ctx, sessionID, limit)
}

// UpdateStatus moves an order along its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return s.Orders.UpdateStatus(ctx, orderID, status)
}

func itemCount(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}
