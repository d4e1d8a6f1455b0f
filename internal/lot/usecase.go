package lot

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/lot/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
)

type UseCase interface {
	Deplete(ctx context.Context, input *dto.DepleteInput) (*dto.DepletionResult, error)
	Receive(ctx context.Context, input *dto.ReceiveInput) (*model.InventoryLot, error)
	Available(ctx context.Context, companyID, productID string, key *model.VariantKey) (int, error)
	ListLots(ctx context.Context, companyID, productID string) ([]model.InventoryLot, error)
}
