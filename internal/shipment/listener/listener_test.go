package listener

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	lotuc "github.com/clearpath/warehouse-flow/internal/lot/usecase"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
	shipuc "github.com/clearpath/warehouse-flow/internal/shipment/usecase"
	"github.com/clearpath/warehouse-flow/internal/testutil"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueReader hands out queued messages, then cancels the listener.
type queueReader struct {
	msgs   []kafka.Message
	cancel context.CancelFunc
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func message(t *testing.T, v any) kafka.Message {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return kafka.Message{Value: data}
}

func requested(eventID string, qty int) dto.ShipmentRequestedEvent {
	return dto.ShipmentRequestedEvent{
		EventID:   eventID,
		EventType: eventShipmentRequested,
		Payload: dto.ShipmentRequestPayload{
			CompanyID:   "acme",
			Destination: "Dock 7",
			RequestedBy: "orders",
			Items:       []dto.ShipmentItemInput{{ProductID: "p1", Quantity: qty}},
		},
	}
}

func TestShipmentListener(t *testing.T) {
	ctx := context.Background()
	received := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	store := testutil.NewStore()
	require.NoError(t, store.Products().Create(ctx, &model.Product{
		BaseModel: model.BaseModel{ID: "p1", CreatedAt: received, UpdatedAt: received},
		CompanyID: "acme",
		Name:      "Widget",
		Quantity:  10,
	}))
	store.Lots().Put(model.InventoryLot{
		ID:           "l1",
		ProductID:    "p1",
		CompanyID:    "acme",
		Quantity:     10,
		ReceivedDate: received,
		CreatedAt:    received,
		UpdatedAt:    received,
	})

	locker := cache.NewMemoryLocker()
	uc := shipuc.NewShipmentUseCase(shipuc.Deps{
		Repo:     store.Shipments(),
		Products: store.Products(),
		Lots:     lotuc.NewLotUseCase(store.Lots(), store, locker, logger.NewNop()),
		Tx:       store,
		Locker:   locker,
		Logger:   logger.NewNop(),
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	reader := &queueReader{cancel: cancel, msgs: []kafka.Message{
		{Value: []byte("{not json")},
		message(t, map[string]string{"event_id": "evt-0", "event_type": "ShipmentCancelled"}),
		message(t, requested("evt-1", 3)),
		message(t, requested("evt-1", 3)),
		message(t, requested("evt-2", 2)),
	}}

	NewShipmentListener(reader, uc, logger.NewNop()).Start(runCtx)

	shipments, total, err := uc.ListShipments(ctx, &dto.ShipmentFilters{CompanyID: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, s := range shipments {
		require.NotNil(t, s.CreatedBy)
		assert.Equal(t, "orders", *s.CreatedBy)
	}

	lots, err := store.Lots().ListByProduct(ctx, "acme", "p1")
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, 5, lots[0].Quantity)

	p, err := store.Products().FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Quantity)
}
