package order

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestKitchenTicketTaskRoundTrip(t *testing.T) {
	payload := TicketPayload{
		OrderID:   "ord-1",
		OutletID:  "outlet-1",
		OrderType: "DINE_IN",
		TableID:   "T3",
		ItemCount: 4,
		PlacedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	task, err := NewKitchenTicketTask(payload)
	require.NoError(t, err)
	require.Equal(t, TypeKitchenTicket, task.Type())

	var decoded TicketPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, payload, decoded)
}

func TestHandleKitchenTicketMarksOrderPreparing(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, repo.Insert(context.Background(), Order{ID: "ord-1", SessionID: "s", Status: StatusPlaced}))

	d := &TicketDispatcher{Logger: zerolog.Nop(), Orders: repo}
	task, err := NewKitchenTicketTask(TicketPayload{OrderID: "ord-1", OutletID: "outlet-1"})
	require.NoError(t, err)

	require.NoError(t, d.HandleKitchenTicket(context.Background(), task))
	o, err := repo.Get(context.Background(), "ord-1")
	require.NoError(t, err)
	require.Equal(t, StatusPreparing, o.Status)
}

func TestHandleKitchenTicketMalformedPayloadSkipsRetry(t *testing.T) {
	d := &TicketDispatcher{Logger: zerolog.Nop()}
	err := d.HandleKitchenTicket(context.Background(), asynq.NewTask(TypeKitchenTicket, []byte("{broken")))
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleKitchenTicketMissingOrderSkipsRetry(t *testing.T) {
	d := &TicketDispatcher{Logger: zerolog.Nop(), Orders: newMemRepo()}
	task, err := NewKitchenTicketTask(TicketPayload{OrderID: "ghost"})
	require.NoError(t, err)

	err = d.HandleKitchenTicket(context.Background(), task)
	require.Error(t, err)
	require.True(t, errors.Is(err, asynq.SkipRetry))
}
