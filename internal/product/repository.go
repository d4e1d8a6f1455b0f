package product

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindByIDForUpdate locks the row when called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error)
	// FindByName returns the oldest product of the company with exactly this
	// name, or nil.
	FindByName(ctx context.Context, companyID, name string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	// UpdateStock writes quantity and variants only.
	UpdateStock(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error

	IsSKUUnique(ctx context.Context, companyID, sku, excludeID string) (bool, error)
}
