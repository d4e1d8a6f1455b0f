package reconciliation

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/reconciliation/dto"
)

type UseCase interface {
	// Generate replays the ledger for a date range. It never writes.
	Generate(ctx context.Context, input *dto.GenerateInput) (*dto.Report, error)
}
