package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/lot"
	"github.com/clearpath/warehouse-flow/internal/lot/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type lotUseCase struct {
	repo   lot.Repository
	tx     postgres.TxManager
	locker cache.Locker
	logger logger.ZapLogger
	now    func() time.Time
}

func NewLotUseCase(repo lot.Repository, tx postgres.TxManager, locker cache.Locker, log logger.ZapLogger) lot.UseCase {
	return &lotUseCase{
		repo:   repo,
		tx:     tx,
		locker: locker,
		logger: log,
		now:    time.Now,
	}
}

// LockKey is the lock serializing depletion of one product/variant.
func LockKey(companyID, productID string, key *model.VariantKey) string {
	k := "base"
	if key != nil {
		k = strings.ToLower(strings.TrimSpace(key.Attribute)) + "=" + strings.ToLower(strings.TrimSpace(key.Value))
	}
	return fmt.Sprintf("lock:lots:%s:%s:%s", companyID, productID, k)
}

// Deplete consumes stock oldest lot first. When a variant key is given and
// its lots run out, the rest is taken from base lots of the same product.
// Running short is not an error: the result carries the shortfall and
// callers decide whether to warn or block.
func (uc *lotUseCase) Deplete(ctx context.Context, input *dto.DepleteInput) (*dto.DepletionResult, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	// Inside a caller's transaction the caller holds the key lock and the
	// lot rows are locked FOR UPDATE. Locking again would not be reentrant.
	if !postgres.InTx(ctx) {
		unlock, err := uc.locker.Lock(ctx, LockKey(input.CompanyID, input.ProductID, input.Key))
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	result := &dto.DepletionResult{
		ProductID:   input.ProductID,
		Key:         input.Key,
		Requested:   input.Amount,
		Allocations: []dto.Allocation{},
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		consumed, err := uc.drain(ctx, input.CompanyID, input.ProductID, input.Key, input.Amount, false, result)
		if err != nil {
			return err
		}

		remaining := input.Amount - consumed
		if remaining > 0 && input.Key != nil {
			if _, err := uc.drain(ctx, input.CompanyID, input.ProductID, nil, remaining, true, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deplete lots: %w", err)
	}

	result.Shortfall = result.Requested - result.Consumed
	if result.Shortfall > 0 {
		uc.logger.Warn("lot depletion short",
			zap.String("company_id", input.CompanyID),
			zap.String("product_id", input.ProductID),
			zap.String("variant", input.Key.String()),
			zap.Int("requested", result.Requested),
			zap.Int("shortfall", result.Shortfall),
		)
	}

	return result, nil
}

func (uc *lotUseCase) drain(ctx context.Context, companyID, productID string, key *model.VariantKey, amount int, fallback bool, result *dto.DepletionResult) (int, error) {
	lots, err := uc.repo.ListAvailable(ctx, companyID, productID, key)
	if err != nil {
		return 0, err
	}

	changes, consumed := planDepletion(lots, amount)
	now := uc.now()

	for _, c := range changes {
		if c.deleted() {
			err = uc.repo.Delete(ctx, c.lot.ID)
		} else {
			err = uc.repo.UpdateQuantity(ctx, c.lot.ID, c.remaining, now)
		}
		if err != nil {
			return 0, fmt.Errorf("lot %s: %w", c.lot.ID, err)
		}

		result.Allocations = append(result.Allocations, dto.Allocation{
			LotID:     c.lot.ID,
			Key:       c.lot.Key(),
			Taken:     c.taken,
			Remaining: c.remaining,
			Deleted:   c.deleted(),
			Fallback:  fallback,
		})
	}

	result.Consumed += consumed
	return consumed, nil
}

func (uc *lotUseCase) Receive(ctx context.Context, input *dto.ReceiveInput) (*model.InventoryLot, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	if input.Key != nil && strings.TrimSpace(input.Key.Value) == "" {
		return nil, model.NewValidationError("variant_value", "is required when a variant is given")
	}

	now := uc.now()
	received := input.ReceivedDate
	if received.IsZero() {
		received = now
	}

	l := &model.InventoryLot{
		ID:           uuid.New().String(),
		ProductID:    input.ProductID,
		CompanyID:    input.CompanyID,
		Quantity:     input.Quantity,
		ReceivedDate: received,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Key != nil {
		value := strings.TrimSpace(input.Key.Value)
		l.VariantValue = &value
		if attr := strings.TrimSpace(input.Key.Attribute); attr != "" {
			l.VariantAttribute = &attr
		}
	}

	var err error
	if input.MergeBase && input.Key == nil {
		err = uc.repo.IncrementBase(ctx, l)
	} else {
		err = uc.repo.Create(ctx, l)
	}
	if err != nil {
		return nil, fmt.Errorf("receive lot: %w", err)
	}

	uc.logger.Debug("lot received",
		zap.String("lot_id", l.ID),
		zap.String("product_id", l.ProductID),
		zap.String("variant", l.Key().String()),
		zap.Int("quantity", l.Quantity),
	)
	return l, nil
}

func (uc *lotUseCase) Available(ctx context.Context, companyID, productID string, key *model.VariantKey) (int, error) {
	lots, err := uc.repo.ListAvailable(ctx, companyID, productID, key)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, l := range lots {
		total += l.Quantity
	}
	return total, nil
}

func (uc *lotUseCase) ListLots(ctx context.Context, companyID, productID string) ([]model.InventoryLot, error) {
	return uc.repo.ListByProduct(ctx, companyID, productID)
}
