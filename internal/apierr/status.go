// Package apierr turns use case errors into gRPC statuses.
package apierr

import (
	"context"
	"errors"

	"github.com/clearpath/warehouse-flow/internal/checkin"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case model.IsValidation(err):
		return codes.InvalidArgument
	case errors.Is(err, model.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInsufficientStock),
		errors.Is(err, checkin.ErrNothingReceived):
		return codes.FailedPrecondition
	case errors.Is(err, cache.ErrLockBusy):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// ToStatus keeps the message for client errors and hides it for Internal.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	c := Code(err)
	if c == codes.Internal {
		return status.Error(c, "internal error")
	}
	return status.Error(c, err.Error())
}
