package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/checkin"
	"github.com/clearpath/warehouse-flow/internal/checkin/dto"
	"github.com/clearpath/warehouse-flow/internal/lot"
	lotdto "github.com/clearpath/warehouse-flow/internal/lot/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/broker"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventCheckInApproved = "CheckInApproved"

type checkInUseCase struct {
	repo     checkin.Repository
	products product.Repository
	lots     lot.UseCase
	tx       postgres.TxManager
	locker   cache.Locker
	notifier product.StockNotifier
	events   broker.Publisher
	logger   logger.ZapLogger
	now      func() time.Time
}

type Deps struct {
	Repo     checkin.Repository
	Products product.Repository
	Lots     lot.UseCase
	Tx       postgres.TxManager
	Locker   cache.Locker
	// Notifier and Events are optional.
	Notifier product.StockNotifier
	Events   broker.Publisher
	Logger   logger.ZapLogger
}

func NewCheckInUseCase(d Deps) checkin.UseCase {
	return &checkInUseCase{
		repo:     d.Repo,
		products: d.Products,
		lots:     d.Lots,
		tx:       d.Tx,
		locker:   d.Locker,
		notifier: d.Notifier,
		events:   d.Events,
		logger:   d.Logger,
		now:      time.Now,
	}
}

func (uc *checkInUseCase) Submit(ctx context.Context, input *dto.SubmitInput) (*model.CheckInRequest, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	products, err := normalizeProducts(input.Products, false)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	req := &model.CheckInRequest{
		BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CompanyID:         input.CompanyID,
		Status:            model.StatusPending,
		RequestedProducts: products,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		req.Notes = &notes
	}

	if err := uc.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	uc.logger.Info("check-in submitted",
		zap.String("request_id", req.ID),
		zap.String("company_id", req.CompanyID),
		zap.Int("products", len(products)),
	)
	return req, nil
}

func (uc *checkInUseCase) Get(ctx context.Context, id string) (*model.CheckInRequest, error) {
	req, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("check-in %s: %w", id, model.ErrNotFound)
	}
	return req, nil
}

func (uc *checkInUseCase) List(ctx context.Context, filters *dto.CheckInFilters) ([]model.CheckInRequest, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *checkInUseCase) Approve(ctx context.Context, input *dto.ApproveInput) (*dto.ApprovalResult, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	return uc.approve(ctx, input.ID, input.ReviewerID, nil)
}

func (uc *checkInUseCase) AmendAndApprove(ctx context.Context, input *dto.AmendInput) (*dto.ApprovalResult, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	amended, err := normalizeProducts(input.Products, true)
	if err != nil {
		return nil, err
	}
	return uc.approve(ctx, input.ID, input.ReviewerID, amended)
}

// approve receives every product line of a pending request. Lines succeed or
// fail on their own; the request is approved when at least one line was
// received. amended is nil for a plain approval.
func (uc *checkInUseCase) approve(ctx context.Context, id, reviewerID string, amended model.RequestedProducts) (*dto.ApprovalResult, error) {
	unlock, err := uc.locker.Lock(ctx, "lock:checkin:"+id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	req, err := uc.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	lines := req.RequestedProducts
	if amended != nil {
		lines = amended
	}
	lines = append(model.RequestedProducts(nil), lines...)

	reviewedAt := uc.now()
	result := &dto.ApprovalResult{Items: make([]dto.ItemOutcome, 0, len(lines))}

	var received []*model.Product
	for i := range lines {
		outcome, p := uc.receiveLine(ctx, req.CompanyID, i, &lines[i], reviewedAt)
		result.Items = append(result.Items, outcome)
		switch {
		case outcome.Skipped:
		case outcome.OK():
			result.Succeeded++
			received = append(received, p)
		default:
			result.Failed++
		}
	}

	if result.Succeeded == 0 {
		uc.logger.Warn("check-in approval received nothing",
			zap.String("request_id", req.ID),
			zap.Int("failed", result.Failed),
		)
		result.Request = req
		return result, fmt.Errorf("check-in %s: %w", req.ID, checkin.ErrNothingReceived)
	}

	if amended != nil {
		req.AmendedProducts = lines
		req.WasAmended = true
	} else {
		req.RequestedProducts = lines
	}
	req.Status = model.StatusApproved
	req.ReviewedAt = &reviewedAt
	if reviewerID != "" {
		req.ReviewedBy = &reviewerID
	}
	req.UpdatedAt = reviewedAt

	if err := uc.repo.UpdateReview(ctx, req); err != nil {
		return nil, fmt.Errorf("mark check-in approved: %w", err)
	}
	result.Request = req

	uc.logger.Info("check-in approved",
		zap.String("request_id", req.ID),
		zap.Bool("amended", req.WasAmended),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)

	for _, p := range received {
		if uc.notifier != nil {
			uc.notifier.StockChanged(ctx, p)
		}
	}
	uc.publishApproved(ctx, req, received)

	return result, nil
}

// receiveLine creates the catalog row and the base lot for one line in its
// own transaction. On success the line's ProductID is set.
func (uc *checkInUseCase) receiveLine(ctx context.Context, companyID string, index int, line *model.RequestedProduct, reviewedAt time.Time) (dto.ItemOutcome, *model.Product) {
	qty := line.TotalQuantity()
	outcome := dto.ItemOutcome{Index: index, Name: line.Name, Quantity: qty}
	if qty <= 0 {
		outcome.Skipped = true
		return outcome, nil
	}

	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: reviewedAt, UpdatedAt: reviewedAt},
		CompanyID: companyID,
		Name:      line.Name,
		Quantity:  qty,
		Variants:  variant.Clone(line.Variants),
	}
	if line.SKU != "" {
		sku := line.SKU
		p.SKU = &sku
	}
	if p.Variants == nil {
		p.Variants = variant.Tree{}
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		l, err := uc.lots.Receive(ctx, &lotdto.ReceiveInput{
			CompanyID:    companyID,
			ProductID:    p.ID,
			Quantity:     qty,
			ReceivedDate: reviewedAt,
			MergeBase:    true,
		})
		if err != nil {
			return err
		}
		outcome.LotID = l.ID
		return nil
	})
	if err != nil {
		uc.logger.Error("failed to receive check-in line",
			zap.Int("index", index),
			zap.String("name", line.Name),
			zap.Error(err),
		)
		outcome.Error = err.Error()
		outcome.LotID = ""
		return outcome, nil
	}

	line.ProductID = p.ID
	outcome.ProductID = p.ID
	return outcome, p
}

func (uc *checkInUseCase) Reject(ctx context.Context, input *dto.RejectInput) (*model.CheckInRequest, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, model.NewValidationError("reason", "is required")
	}

	unlock, err := uc.locker.Lock(ctx, "lock:checkin:"+input.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	req, err := uc.pending(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	req.Status = model.StatusRejected
	req.RejectionReason = &reason
	req.ReviewedAt = &now
	if input.ReviewerID != "" {
		req.ReviewedBy = &input.ReviewerID
	}
	req.UpdatedAt = now

	if err := uc.repo.UpdateReview(ctx, req); err != nil {
		return nil, err
	}

	uc.logger.Info("check-in rejected", zap.String("request_id", req.ID), zap.String("reason", reason))
	return req, nil
}

func (uc *checkInUseCase) pending(ctx context.Context, id string) (*model.CheckInRequest, error) {
	req, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusPending {
		return nil, fmt.Errorf("check-in %s is %s: %w", id, req.Status, model.ErrInvalidTransition)
	}
	return req, nil
}

func (uc *checkInUseCase) publishApproved(ctx context.Context, req *model.CheckInRequest, received []*model.Product) {
	if uc.events == nil {
		return
	}

	event := dto.ApprovedEvent{
		EventType:  eventCheckInApproved,
		RequestID:  req.ID,
		CompanyID:  req.CompanyID,
		WasAmended: req.WasAmended,
		ProductIDs: make([]string, 0, len(received)),
		ReviewedAt: req.ReviewedAt.Format(time.RFC3339),
	}
	for _, p := range received {
		event.ProductIDs = append(event.ProductIDs, p.ID)
	}

	if err := uc.events.PublishJSON(ctx, req.CompanyID, event); err != nil {
		uc.logger.Error("failed to publish check-in approval",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
	}
}

// normalizeProducts trims names and checks every line. Amended sets may
// carry zero-quantity lines, which approval skips, but not only those.
func normalizeProducts(in []model.RequestedProduct, allowZero bool) (model.RequestedProducts, error) {
	out := make(model.RequestedProducts, 0, len(in))
	total := 0
	for i, p := range in {
		field := fmt.Sprintf("products[%d]", i)

		p.Name = strings.TrimSpace(p.Name)
		p.SKU = strings.TrimSpace(p.SKU)
		p.ProductID = ""
		if p.Name == "" {
			return nil, model.NewValidationError(field+".name", "is required")
		}
		if p.Quantity < 0 {
			return nil, model.NewValidationError(field+".quantity", "must be at least 0")
		}
		if err := variant.Validate(p.Variants); err != nil {
			return nil, model.NewValidationError(field+".variants", err.Error())
		}

		qty := p.TotalQuantity()
		if qty == 0 && !allowZero {
			return nil, model.NewValidationError(field, "total quantity must be greater than 0")
		}
		total += qty

		p.Variants = variant.Clone(p.Variants)
		out = append(out, p)
	}
	if total == 0 {
		return nil, model.NewValidationError("products", "total quantity must be greater than 0")
	}
	return out, nil
}
