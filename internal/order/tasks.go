package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/foodgrid/backend-pos/internal/obs"
)

// TypeKitchenTicket is the asynq task type for kitchen ticket fan-out.
const TypeKitchenTicket = "order:ticket"

// TicketPayload is the message the kitchen worker consumes.
type TicketPayload struct {
	OrderID   string    `json:"orderId"`
	TenantID  string    `json:"tenantId,omitempty"`
	OutletID  string    `json:"outletId"`
	OrderType string    `json:"orderType"`
	TableID   string    `json:"tableId,omitempty"`
	ItemCount int       `json:"itemCount"`
	PlacedAt  time.Time `json:"placedAt"`
}

// NewKitchenTicketTask builds the asynq task for a placed order.
func NewKitchenTicketTask(p TicketPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode kitchen ticket: %w", err)
	}
	return asynq.NewTask(TypeKitchenTicket, raw, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// Enqueuer hands kitchen tickets to the task queue.
type Enqueuer struct {
	Client *asynq.Client
	Queue  string
}

// EnqueueTicket queues a kitchen ticket for the order.
func (e *Enqueuer) EnqueueTicket(ctx context.Context, p TicketPayload) error {
	if e == nil || e.Client == nil {
		return errors.New("order: task queue not configured")
	}
	task, err := NewKitchenTicketTask(p)
	if err != nil {
		return err
	}
	queue := e.Queue
	if queue == "" {
		queue = "kitchen"
	}
	if _, err := e.Client.EnqueueContext(ctx, task, asynq.Queue(queue)); err != nil {
		return fmt.Errorf("enqueue kitchen ticket: %w", err)
	}
	return nil
}

// TicketDispatcher handles kitchen ticket tasks on the worker side.
// Today it logs the ticket; printer integrations attach here.
type TicketDispatcher struct {
	Logger zerolog.Logger
	Orders Repo
}

// HandleKitchenTicket processes one kitchen ticket task.
func (d *TicketDispatcher) HandleKitchenTicket(ctx context.Context, task *asynq.Task) error {
	var p TicketPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// malformed payloads never become processable; drop them
		return fmt.Errorf("decode kitchen ticket: %w", asynq.SkipRetry)
	}

	if d.Orders != nil {
		if err := d.Orders.UpdateStatus(ctx, p.OrderID, StatusPreparing); err != nil {
			if errors.Is(err, ErrNotFound) {
				return fmt.Errorf("order %s missing: %w", p.OrderID, asynq.SkipRetry)
			}
			if obs.KitchenTicketsTotal != nil {
				obs.KitchenTicketsTotal.WithLabelValues("retry").Inc()
			}
			return err
		}
	}

	d.Logger.Info().
		Str("order_id", p.OrderID).
		Str("outlet_id", p.OutletID).
		Str("order_type", p.OrderType).
		Str("table_id", p.TableID).
		Int("item_count", p.ItemCount).
		Msg("kitchen ticket dispatched")
	if obs.KitchenTicketsTotal != nil {
		obs.KitchenTicketsTotal.WithLabelValues("ok").Inc()
	}
	return nil
}
