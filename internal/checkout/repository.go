package checkout

import (
	"context"
	"time"

	"github.com/clearpath/warehouse-flow/internal/checkout/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
)

type Repository interface {
	Create(ctx context.Context, req *model.CheckOutRequest) error
	FindByID(ctx context.Context, id string) (*model.CheckOutRequest, error)
	FindAll(ctx context.Context, filters *dto.CheckOutFilters) ([]model.CheckOutRequest, int, error)
	UpdateReview(ctx context.Context, req *model.CheckOutRequest) error

	ListApproved(ctx context.Context, companyID *string, until time.Time) ([]model.CheckOutRequest, error)
}
