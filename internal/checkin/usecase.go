package checkin

import (
	"context"
	"errors"

	"github.com/clearpath/warehouse-flow/internal/checkin/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
)

// ErrNothingReceived is returned when every line of an approval failed. The
// request stays pending.
var ErrNothingReceived = errors.New("no product of the request could be received")

type UseCase interface {
	Submit(ctx context.Context, input *dto.SubmitInput) (*model.CheckInRequest, error)
	Get(ctx context.Context, id string) (*model.CheckInRequest, error)
	List(ctx context.Context, filters *dto.CheckInFilters) ([]model.CheckInRequest, int, error)

	Approve(ctx context.Context, input *dto.ApproveInput) (*dto.ApprovalResult, error)
	AmendAndApprove(ctx context.Context, input *dto.AmendInput) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, input *dto.RejectInput) (*model.CheckInRequest, error)
}
