package lot

import (
	"context"
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
)

type Repository interface {
	// ListAvailable returns lots with quantity > 0 for the key, oldest
	// received first. A nil key selects base lots. Inside a transaction the
	// rows are locked until commit.
	ListAvailable(ctx context.Context, companyID, productID string, key *model.VariantKey) ([]model.InventoryLot, error)
	ListByProduct(ctx context.Context, companyID, productID string) ([]model.InventoryLot, error)

	Create(ctx context.Context, lot *model.InventoryLot) error
	UpdateQuantity(ctx context.Context, id string, quantity int, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error

	// IncrementBase adds to the base lot received on the same day, creating
	// it when absent. lot.ID and lot.Quantity reflect the stored row after.
	IncrementBase(ctx context.Context, lot *model.InventoryLot) error
}
