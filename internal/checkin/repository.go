package checkin

import (
	"context"
	"time"

	"github.com/clearpath/warehouse-flow/internal/checkin/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
)

type Repository interface {
	Create(ctx context.Context, req *model.CheckInRequest) error
	FindByID(ctx context.Context, id string) (*model.CheckInRequest, error)
	FindAll(ctx context.Context, filters *dto.CheckInFilters) ([]model.CheckInRequest, int, error)
	// UpdateReview writes status, amendment and review fields.
	UpdateReview(ctx context.Context, req *model.CheckInRequest) error

	// ListApproved returns approved requests reviewed at or before until,
	// for one company or all when companyID is nil.
	ListApproved(ctx context.Context, companyID *string, until time.Time) ([]model.CheckInRequest, error)
}
