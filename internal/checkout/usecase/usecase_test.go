package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearpath/warehouse-flow/internal/checkout"
	"github.com/clearpath/warehouse-flow/internal/checkout/dto"
	checkoutuc "github.com/clearpath/warehouse-flow/internal/checkout/usecase"
	lotuc "github.com/clearpath/warehouse-flow/internal/lot/usecase"
	"github.com/clearpath/warehouse-flow/internal/model"
	shipuc "github.com/clearpath/warehouse-flow/internal/shipment/usecase"
	"github.com/clearpath/warehouse-flow/internal/testutil"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func setup(t *testing.T) (*testutil.Store, checkout.UseCase) {
	t.Helper()
	store := testutil.NewStore()
	locker := cache.NewMemoryLocker()
	lots := lotuc.NewLotUseCase(store.Lots(), store, locker, logger.NewNop())
	shipments := shipuc.NewShipmentUseCase(shipuc.Deps{
		Repo:     store.Shipments(),
		Products: store.Products(),
		Lots:     lots,
		Tx:       store,
		Locker:   locker,
		Logger:   logger.NewNop(),
	})
	uc := checkoutuc.NewCheckOutUseCase(store.CheckOuts(), store.Products(), shipments, locker, logger.NewNop())

	received := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Products().Create(context.Background(), &model.Product{
		BaseModel: model.BaseModel{ID: "widget", CreatedAt: received, UpdatedAt: received},
		CompanyID: "acme",
		Name:      "Widget",
		Variants: variant.Tree{{Attribute: "Size", Values: []variant.Value{
			variant.NewLeaf("Large", 10),
			variant.NewLeaf("Small", 5),
		}}},
	}))
	store.Lots().Put(model.InventoryLot{
		ID:           "lot-1",
		ProductID:    "widget",
		CompanyID:    "acme",
		Quantity:     15,
		ReceivedDate: received,
		CreatedAt:    received,
		UpdatedAt:    received,
	})
	return store, uc
}

func TestSubmit_Validation(t *testing.T) {
	_, uc := setup(t)

	tests := []struct {
		name  string
		item  model.RequestedItem
		field string
	}{
		{"blank name", model.RequestedItem{ProductName: " ", Quantity: 1}, "items[0].product_name"},
		{"zero quantity", model.RequestedItem{ProductName: "Widget"}, "items[0].quantity"},
		{"attribute without value", model.RequestedItem{ProductName: "Widget", Quantity: 1, VariantAttribute: strPtr("Size"), VariantValue: strPtr(" ")}, "items[0].variant_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Submit(context.Background(), &dto.SubmitInput{CompanyID: "acme", Items: []model.RequestedItem{tt.item}})
			var verr *model.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestApprove_DeductsPerItem(t *testing.T) {
	ctx := context.Background()
	store, uc := setup(t)

	req, err := uc.Submit(ctx, &dto.SubmitInput{
		CompanyID: "acme",
		Items: []model.RequestedItem{
			{ProductName: "Widget", VariantAttribute: strPtr("Size"), VariantValue: strPtr("Large"), Quantity: 3},
			{ProductName: "Ghost", Quantity: 1},
		},
	})
	require.NoError(t, err)

	res, err := uc.Approve(ctx, &dto.ApproveInput{ID: req.ID, ReviewerID: "staff-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "widget", res.Items[0].ProductID)
	assert.Equal(t, "Size: Large", res.Items[0].Variant)
	assert.Equal(t, 3, res.Items[0].Consumed)
	assert.Contains(t, res.Items[1].Error, "not found")
	assert.Equal(t, model.StatusApproved, res.Request.Status)
	assert.NotNil(t, res.Request.ReviewedAt)

	p, err := store.Products().FindByID(ctx, "widget")
	require.NoError(t, err)
	assert.Equal(t, 7, variant.FlattenToMap(p.Variants)["Size: Large"])

	lots, err := store.Lots().ListByProduct(ctx, "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, 12, lots[0].Quantity)

	_, err = uc.Reject(ctx, &dto.RejectInput{ID: req.ID, Reason: "late"})
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	store, uc := setup(t)

	req, err := uc.Submit(ctx, &dto.SubmitInput{CompanyID: "acme", Items: []model.RequestedItem{{ProductName: "Widget", Quantity: 2}}})
	require.NoError(t, err)

	_, err = uc.Reject(ctx, &dto.RejectInput{ID: req.ID})
	assert.True(t, model.IsValidation(err))

	got, err := uc.Reject(ctx, &dto.RejectInput{ID: req.ID, Reason: "client cancelled"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)

	lots, err := store.Lots().ListByProduct(ctx, "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, 15, lots[0].Quantity)

	pending, total, err := uc.List(ctx, &dto.CheckOutFilters{CompanyID: "acme", Status: model.StatusPending})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, pending)
}
