package shipment

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
)

type Repository interface {
	// Create inserts the shipment row and its items.
	Create(ctx context.Context, s *model.Shipment) error
	FindByID(ctx context.Context, id string) (*model.Shipment, error)
	// FindBySourceEvent returns nil when no shipment was created from the
	// event yet.
	FindBySourceEvent(ctx context.Context, companyID, eventID string) (*model.Shipment, error)
	FindAll(ctx context.Context, filters *dto.ShipmentFilters) ([]model.Shipment, int, error)
}
