package shipment

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
)

type UseCase interface {
	CreateShipment(ctx context.Context, input *dto.CreateShipmentInput) (*dto.ShipmentResult, error)
	GetShipment(ctx context.Context, id string) (*model.Shipment, error)
	ListShipments(ctx context.Context, filters *dto.ShipmentFilters) ([]model.Shipment, int, error)

	Deductor
}

// Deductor removes one item's stock from both the lots and the catalog
// tree. Check-out approval goes through it.
type Deductor interface {
	DeductItem(ctx context.Context, input *dto.DeductInput) (*dto.ItemOutcome, error)
}
