package apierr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/clearpath/warehouse-flow/internal/checkin"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"validation", model.NewValidationError("reason", "is required"), codes.InvalidArgument, "reason: is required"},
		{"not found", fmt.Errorf("product p-1: %w", model.ErrNotFound), codes.NotFound, "product p-1: not found"},
		{"transition", model.ErrInvalidTransition, codes.FailedPrecondition, "request is no longer pending"},
		{"shortfall", &model.ShortfallError{ProductID: "p-1", Requested: 4, Shortfall: 1}, codes.FailedPrecondition, ""},
		{"nothing received", fmt.Errorf("check-in c-1: %w", checkin.ErrNothingReceived), codes.FailedPrecondition, ""},
		{"lock busy", cache.ErrLockBusy, codes.Unavailable, ""},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, ""},
		{"internal hides message", errors.New("pq: connection refused"), codes.Internal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(ToStatus(tt.err))
			assert.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, st.Message())
			}
		})
	}
}

func TestToStatusPassesThrough(t *testing.T) {
	assert.NoError(t, ToStatus(nil))

	in := status.Error(codes.Unauthenticated, "missing x-company-id")
	assert.Equal(t, in, ToStatus(in))
}
