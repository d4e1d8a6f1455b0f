package usecase

import (
	"context"
	"time"

	"github.com/clearpath/warehouse-flow/internal/eventlog"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/reconciliation"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/dto"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/jarde"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
)

type reconciliationUseCase struct {
	events         eventlog.Reader
	loc            *time.Location
	minorThreshold int
	logger         logger.ZapLogger
	now            func() time.Time
}

// NewReconciliationUseCase reads dates in loc. A minorThreshold of 0 uses
// the default.
func NewReconciliationUseCase(events eventlog.Reader, loc *time.Location, minorThreshold int, log logger.ZapLogger) reconciliation.UseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &reconciliationUseCase{
		events:         events,
		loc:            loc,
		minorThreshold: minorThreshold,
		logger:         log,
		now:            time.Now,
	}
}

func (uc *reconciliationUseCase) Generate(ctx context.Context, input *dto.GenerateInput) (*dto.Report, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	w, err := jarde.NewWindow(input.Start, input.End, uc.loc)
	if err != nil {
		return nil, err
	}

	opts := jarde.Options{Match: input.Match, MinorThreshold: uc.minorThreshold}
	if opts.Match == "" {
		opts.Match = jarde.MatchByName
	}

	events, err := uc.events.ListApproved(ctx, eventlog.Filter{CompanyID: input.CompanyID, Until: w.End})
	if err != nil {
		return nil, err
	}

	companies := jarde.Compute(events, w, opts)
	if len(input.Actuals) > 0 {
		companies = jarde.ApplyActuals(companies, input.Actuals, opts)
	}

	uc.logger.Info("reconciliation generated",
		zap.String("start", input.Start),
		zap.String("end", input.End),
		zap.String("match", string(opts.Match)),
		zap.Int("events", len(events)),
		zap.Int("companies", len(companies)),
	)

	return &dto.Report{
		Start:       w.Start,
		End:         w.End,
		Match:       opts.Match,
		GeneratedAt: uc.now(),
		Companies:   companies,
	}, nil
}
