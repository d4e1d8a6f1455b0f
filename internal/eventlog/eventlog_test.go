package eventlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/clearpath/warehouse-flow/internal/eventlog"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/testutil"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestLinesFromCheckIn(t *testing.T) {
	req := &model.CheckInRequest{
		RequestedProducts: model.RequestedProducts{{Name: "Widget", Quantity: 99}},
		AmendedProducts: model.RequestedProducts{
			{
				ProductID: "p1",
				Name:      "Widget",
				Variants: variant.Tree{{Attribute: "Size", Values: []variant.Value{
					variant.NewLeaf("Large", 10),
					variant.NewLeaf("Medium", 0),
					variant.NewBranch("Small", variant.Node{Attribute: "Color", Values: []variant.Value{
						variant.NewLeaf("Red", 5),
					}}),
				}}},
			},
			{Name: "Bolt", Quantity: 4},
			{Name: "Empty", Quantity: 0},
		},
		WasAmended: true,
	}

	lines := eventlog.LinesFromCheckIn(req)
	require.Len(t, lines, 3)

	assert.Equal(t, "p1", *lines[0].ProductID)
	assert.Equal(t, "Large", *lines[0].VariantValue)
	assert.Equal(t, 10, lines[0].Quantity)
	assert.Equal(t, "Small → Red", *lines[1].VariantValue)
	assert.Equal(t, 5, lines[1].Quantity)
	assert.Equal(t, "Bolt", lines[2].ProductName)
	assert.Nil(t, lines[2].VariantValue)
	assert.Nil(t, lines[2].ProductID)
}

func TestLinesFromCheckIn_NotAmendedUsesRequest(t *testing.T) {
	req := &model.CheckInRequest{
		RequestedProducts: model.RequestedProducts{{Name: "Widget", Quantity: 3}},
		AmendedProducts:   model.RequestedProducts{{Name: "Widget", Quantity: 1}},
	}
	lines := eventlog.LinesFromCheckIn(req)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestReader_ListApproved(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	noon := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

	checkIns := []model.CheckInRequest{
		{BaseModel: model.BaseModel{ID: "ci-b"}, CompanyID: "acme", Status: model.StatusApproved, ReviewedAt: timePtr(noon),
			RequestedProducts: model.RequestedProducts{{Name: "Bolt", Quantity: 1}}},
		{BaseModel: model.BaseModel{ID: "ci-a"}, CompanyID: "acme", Status: model.StatusApproved, ReviewedAt: timePtr(noon.Add(-time.Hour)),
			RequestedProducts: model.RequestedProducts{{Name: "Bolt", Quantity: 2}}},
		{BaseModel: model.BaseModel{ID: "ci-pending"}, CompanyID: "acme", Status: model.StatusPending,
			RequestedProducts: model.RequestedProducts{{Name: "Bolt", Quantity: 50}}},
		{BaseModel: model.BaseModel{ID: "ci-late"}, CompanyID: "acme", Status: model.StatusApproved, ReviewedAt: timePtr(noon.Add(48 * time.Hour)),
			RequestedProducts: model.RequestedProducts{{Name: "Bolt", Quantity: 50}}},
		{BaseModel: model.BaseModel{ID: "ci-other"}, CompanyID: "other", Status: model.StatusApproved, ReviewedAt: timePtr(noon),
			RequestedProducts: model.RequestedProducts{{Name: "Bolt", Quantity: 8}}},
	}
	for i := range checkIns {
		require.NoError(t, store.CheckIns().Create(ctx, &checkIns[i]))
	}
	require.NoError(t, store.CheckOuts().Create(ctx, &model.CheckOutRequest{
		BaseModel:      model.BaseModel{ID: "co-a"},
		CompanyID:      "acme",
		Status:         model.StatusApproved,
		ReviewedAt:     timePtr(noon),
		RequestedItems: model.RequestedItems{{ProductName: "Bolt", VariantValue: strPtr("M8"), Quantity: 1}},
	}))

	reader := eventlog.NewReader(store.CheckIns(), store.CheckOuts())
	events, err := reader.ListApproved(ctx, eventlog.Filter{CompanyID: strPtr("acme"), Until: noon.Add(24 * time.Hour)})
	require.NoError(t, err)

	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"ci-a", "ci-b", "co-a"}, ids)
	assert.Equal(t, model.EventCheckOut, events[2].Kind)
	assert.Equal(t, "M8", *events[2].Lines[0].VariantValue)

	all, err := reader.ListApproved(ctx, eventlog.Filter{Until: noon.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
