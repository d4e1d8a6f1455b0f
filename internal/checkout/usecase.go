package checkout

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/checkout/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
)

type UseCase interface {
	Submit(ctx context.Context, input *dto.SubmitInput) (*model.CheckOutRequest, error)
	Get(ctx context.Context, id string) (*model.CheckOutRequest, error)
	List(ctx context.Context, filters *dto.CheckOutFilters) ([]model.CheckOutRequest, int, error)
	Approve(ctx context.Context, input *dto.ApproveInput) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, input *dto.RejectInput) (*model.CheckOutRequest, error)
}
