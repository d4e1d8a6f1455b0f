package usecase_test

import (
	"context"
	"testing"
	"time"

	lotuc "github.com/clearpath/warehouse-flow/internal/lot/usecase"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/shipment"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
	shipuc "github.com/clearpath/warehouse-flow/internal/shipment/usecase"
	"github.com/clearpath/warehouse-flow/internal/testutil"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *testutil.Store
	notifier *testutil.Notifier
	uc       shipment.UseCase
}

func newFixture() *fixture {
	store := testutil.NewStore()
	locker := cache.NewMemoryLocker()
	notifier := &testutil.Notifier{}
	lots := lotuc.NewLotUseCase(store.Lots(), store, locker, logger.NewNop())

	return &fixture{
		store:    store,
		notifier: notifier,
		uc: shipuc.NewShipmentUseCase(shipuc.Deps{
			Repo:     store.Shipments(),
			Products: store.Products(),
			Lots:     lots,
			Tx:       store,
			Locker:   locker,
			Notifier: notifier,
			Logger:   logger.NewNop(),
		}),
	}
}

func jan(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) product(t *testing.T, id string, qty int, tree variant.Tree) {
	t.Helper()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: id, CreatedAt: jan(1), UpdatedAt: jan(1)},
		CompanyID: "acme",
		Name:      "Widget " + id,
		Quantity:  qty,
		Variants:  tree,
	}
	require.NoError(t, f.store.Products().Create(context.Background(), p))
}

func (f *fixture) lot(id, productID string, received time.Time, qty int, attr, value string) {
	l := model.InventoryLot{
		ID:           id,
		ProductID:    productID,
		CompanyID:    "acme",
		Quantity:     qty,
		ReceivedDate: received,
		CreatedAt:    received,
		UpdatedAt:    received,
	}
	if value != "" {
		l.VariantAttribute, l.VariantValue = &attr, &value
	}
	f.store.Lots().Put(l)
}

func (f *fixture) lots(t *testing.T, productID string) []model.InventoryLot {
	t.Helper()
	lots, err := f.store.Lots().ListByProduct(context.Background(), "acme", productID)
	require.NoError(t, err)
	return lots
}

func (f *fixture) stored(t *testing.T, productID string) *model.Product {
	t.Helper()
	p, err := f.store.Products().FindByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func sizes(large, small int) variant.Tree {
	return variant.Tree{{Attribute: "Size", Values: []variant.Value{
		variant.NewLeaf("Large", large),
		variant.NewLeaf("Small", small),
	}}}
}

func TestCreateShipment_DepletesLotsAndLeaf(t *testing.T) {
	tests := []struct {
		name      string
		leaf      int
		wantLeaf  int
		wantTotal int
	}{
		{"leaf above shipped amount", 9, 5, 8},
		{"leaf clamped at zero", 3, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.product(t, "p1", 0, sizes(tt.leaf, 3))
			f.lot("jan1", "p1", jan(1), 2, "Size", "Large")
			f.lot("jan5", "p1", jan(5), 5, "Size", "Large")

			res, err := f.uc.CreateShipment(context.Background(), &dto.CreateShipmentInput{
				CompanyID:   "acme",
				Destination: "Dock 4",
				Items:       []dto.ShipmentItemInput{{ProductID: "p1", Variant: "Size: Large", Quantity: 4}},
			})
			require.NoError(t, err)

			lots := f.lots(t, "p1")
			require.Len(t, lots, 1)
			assert.Equal(t, "jan5", lots[0].ID)
			assert.Equal(t, 3, lots[0].Quantity)

			p := f.stored(t, "p1")
			paths := variant.FlattenToMap(p.Variants)
			assert.Equal(t, tt.wantLeaf, paths["Size: Large"])
			assert.Equal(t, 3, paths["Size: Small"])
			assert.Equal(t, tt.wantTotal, p.Quantity)

			require.Len(t, res.Items, 1)
			assert.Equal(t, 4, res.Items[0].Consumed)
			assert.True(t, res.Items[0].LeafUpdated)
			assert.Equal(t, []string{"p1"}, f.notifier.Changed)

			saved, err := f.uc.GetShipment(context.Background(), res.Shipment.ID)
			require.NoError(t, err)
			require.Len(t, saved.Items, 1)
			assert.Equal(t, "Size: Large", *saved.Items[0].Variant)
			assert.Equal(t, 4, saved.Items[0].Consumed)
		})
	}
}

func TestCreateShipment_UsesFirstSegmentOnly(t *testing.T) {
	f := newFixture()
	tree := variant.Tree{{Attribute: "Size", Values: []variant.Value{
		variant.NewBranch("Large", variant.Node{Attribute: "Color", Values: []variant.Value{
			variant.NewLeaf("Red", 5),
		}}),
	}}}
	f.product(t, "p1", 0, tree)
	f.lot("l1", "p1", jan(1), 5, "Size", "Large")

	res, err := f.uc.CreateShipment(context.Background(), &dto.CreateShipmentInput{
		CompanyID:   "acme",
		Destination: "Dock 1",
		Items:       []dto.ShipmentItemInput{{ProductID: "p1", Variant: "Size: Large → Color: Red", Quantity: 2}},
	})
	require.NoError(t, err)

	// The lots are keyed by the first segment; the tree's first match for it
	// is a branch, so the catalog is left alone.
	assert.Equal(t, "Size: Large", res.Items[0].Variant)
	assert.Equal(t, 2, res.Items[0].Consumed)
	assert.False(t, res.Items[0].LeafUpdated)
	assert.Equal(t, 3, f.lots(t, "p1")[0].Quantity)
	assert.Equal(t, 5, variant.TotalQuantity(f.stored(t, "p1").Variants))
	assert.Empty(t, f.notifier.Changed)
}

func TestCreateShipment_SameSourceEventAppliesOnce(t *testing.T) {
	f := newFixture()
	f.product(t, "p1", 0, sizes(9, 3))
	f.lot("l1", "p1", jan(1), 5, "Size", "Large")

	input := &dto.CreateShipmentInput{
		CompanyID:     "acme",
		Destination:   "Dock 3",
		Items:         []dto.ShipmentItemInput{{ProductID: "p1", Variant: "Size: Large", Quantity: 2}},
		SourceEventID: "evt-42",
	}
	first, err := f.uc.CreateShipment(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.Shipment.SourceEventID)
	assert.Equal(t, "evt-42", *first.Shipment.SourceEventID)

	second, err := f.uc.CreateShipment(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Shipment.ID, second.Shipment.ID)
	assert.Empty(t, second.Items)

	assert.Equal(t, 3, f.lots(t, "p1")[0].Quantity)
	assert.Equal(t, 7, variant.FlattenToMap(f.stored(t, "p1").Variants)["Size: Large"])

	_, total, err := f.uc.ListShipments(context.Background(), &dto.ShipmentFilters{CompanyID: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCreateShipment_ScalarProduct(t *testing.T) {
	f := newFixture()
	f.product(t, "p1", 3, nil)
	f.lot("l1", "p1", jan(1), 3, "", "")

	res, err := f.uc.CreateShipment(context.Background(), &dto.CreateShipmentInput{
		CompanyID:   "acme",
		Destination: "Dock 2",
		Items:       []dto.ShipmentItemInput{{ProductID: "p1", Quantity: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Items[0].Consumed)
	assert.Equal(t, 2, res.Items[0].Shortfall)
	assert.Equal(t, 0, f.stored(t, "p1").Quantity)
	assert.Empty(t, f.lots(t, "p1"))
}

func TestCreateShipment_RejectOnShortfallRollsBack(t *testing.T) {
	f := newFixture()
	f.product(t, "p1", 0, sizes(9, 3))
	f.product(t, "p2", 1, nil)
	f.lot("l1", "p1", jan(1), 7, "Size", "Large")
	f.lot("l2", "p2", jan(1), 1, "", "")

	_, err := f.uc.CreateShipment(context.Background(), &dto.CreateShipmentInput{
		CompanyID:   "acme",
		Destination: "Dock 3",
		Items: []dto.ShipmentItemInput{
			{ProductID: "p1", Variant: "Large", Quantity: 4},
			{ProductID: "p2", Quantity: 2},
		},
		RejectOnShortfall: true,
	})
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	assert.Equal(t, 7, f.lots(t, "p1")[0].Quantity)
	assert.Equal(t, 1, f.lots(t, "p2")[0].Quantity)
	assert.Equal(t, 9, variant.FlattenToMap(f.stored(t, "p1").Variants)["Size: Large"])
	assert.Equal(t, 1, f.stored(t, "p2").Quantity)

	list, total, err := f.uc.ListShipments(context.Background(), &dto.ShipmentFilters{CompanyID: "acme"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
	assert.Empty(t, f.notifier.Changed)
}

func TestCreateShipment_UnknownProductRollsBack(t *testing.T) {
	f := newFixture()
	f.product(t, "p1", 4, nil)
	f.lot("l1", "p1", jan(1), 4, "", "")

	_, err := f.uc.CreateShipment(context.Background(), &dto.CreateShipmentInput{
		CompanyID:   "acme",
		Destination: "Dock 3",
		Items: []dto.ShipmentItemInput{
			{ProductID: "p1", Quantity: 2},
			{ProductID: "missing", Quantity: 1},
		},
	})
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 4, f.lots(t, "p1")[0].Quantity)
	assert.Equal(t, 4, f.stored(t, "p1").Quantity)
}

func TestCreateShipment_Validation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name  string
		input *dto.CreateShipmentInput
	}{
		{"no items", &dto.CreateShipmentInput{CompanyID: "acme", Destination: "Dock"}},
		{"blank destination", &dto.CreateShipmentInput{CompanyID: "acme", Destination: "  ", Items: []dto.ShipmentItemInput{{ProductID: "p1", Quantity: 1}}}},
		{"zero quantity", &dto.CreateShipmentInput{CompanyID: "acme", Destination: "Dock", Items: []dto.ShipmentItemInput{{ProductID: "p1", Quantity: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.CreateShipment(context.Background(), tt.input)
			assert.True(t, model.IsValidation(err), "got %v", err)
		})
	}
}

func TestDeductItem_NoMatchingLeafIsTolerated(t *testing.T) {
	f := newFixture()
	f.product(t, "p1", 0, sizes(4, 4))
	f.lot("l1", "p1", jan(1), 6, "", "")

	out, err := f.uc.DeductItem(context.Background(), &dto.DeductInput{
		CompanyID: "acme",
		ProductID: "p1",
		Variant:   "Size: XL",
		Quantity:  2,
	})
	require.NoError(t, err)

	assert.False(t, out.LeafUpdated)
	assert.Equal(t, 2, out.Consumed)
	require.Len(t, out.Allocations, 1)
	assert.True(t, out.Allocations[0].Fallback)
	assert.Equal(t, 8, variant.TotalQuantity(f.stored(t, "p1").Variants))
}

func TestDeductItem_WrongCompany(t *testing.T) {
	f := newFixture()
	f.product(t, "p1", 4, nil)

	_, err := f.uc.DeductItem(context.Background(), &dto.DeductInput{CompanyID: "other", ProductID: "p1", Quantity: 1})
	assert.ErrorIs(t, err, model.ErrNotFound)
}
