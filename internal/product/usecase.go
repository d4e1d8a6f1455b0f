package product

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product/dto"
	"github.com/clearpath/warehouse-flow/internal/variant"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// Variant views
	VariantPaths(ctx context.Context, id string) ([]variant.PathQuantity, error)
	CheckInDraft(ctx context.Context, id string) (*model.RequestedProduct, error)

	// StockChanged refreshes caches and the search index after a stock write
	// made outside this use case.
	StockChanged(ctx context.Context, p *model.Product)
}

// StockNotifier is the part of UseCase other modules call after writing
// stock through the repository.
type StockNotifier interface {
	StockChanged(ctx context.Context, p *model.Product)
}
