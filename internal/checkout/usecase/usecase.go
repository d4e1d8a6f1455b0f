package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/checkout"
	"github.com/clearpath/warehouse-flow/internal/checkout/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product"
	"github.com/clearpath/warehouse-flow/internal/shipment"
	shipdto "github.com/clearpath/warehouse-flow/internal/shipment/dto"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type checkOutUseCase struct {
	repo     checkout.Repository
	products product.Repository
	deductor shipment.Deductor
	locker   cache.Locker
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewCheckOutUseCase(repo checkout.Repository, products product.Repository, deductor shipment.Deductor, locker cache.Locker, log logger.ZapLogger) checkout.UseCase {
	return &checkOutUseCase{
		repo:     repo,
		products: products,
		deductor: deductor,
		locker:   locker,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *checkOutUseCase) Submit(ctx context.Context, input *dto.SubmitInput) (*model.CheckOutRequest, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	items := make(model.RequestedItems, 0, len(input.Items))
	for i, item := range input.Items {
		field := fmt.Sprintf("items[%d]", i)

		item.ProductName = strings.TrimSpace(item.ProductName)
		if item.ProductName == "" {
			return nil, model.NewValidationError(field+".product_name", "is required")
		}
		if item.Quantity <= 0 {
			return nil, model.NewValidationError(field+".quantity", "must be greater than 0")
		}
		item.ProductID = trimmedOrNil(item.ProductID)
		item.VariantAttribute = trimmedOrNil(item.VariantAttribute)
		item.VariantValue = trimmedOrNil(item.VariantValue)
		if item.VariantAttribute != nil && item.VariantValue == nil {
			return nil, model.NewValidationError(field+".variant_value", "is required when a variant attribute is given")
		}
		items = append(items, item)
	}

	now := uc.now()
	req := &model.CheckOutRequest{
		BaseModel:      model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CompanyID:      input.CompanyID,
		Status:         model.StatusPending,
		RequestedItems: items,
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		req.Notes = &notes
	}

	if err := uc.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	uc.logger.Info("check-out submitted",
		zap.String("request_id", req.ID),
		zap.String("company_id", req.CompanyID),
		zap.Int("items", len(items)),
	)
	return req, nil
}

func (uc *checkOutUseCase) Get(ctx context.Context, id string) (*model.CheckOutRequest, error) {
	req, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("check-out %s: %w", id, model.ErrNotFound)
	}
	return req, nil
}

func (uc *checkOutUseCase) List(ctx context.Context, filters *dto.CheckOutFilters) ([]model.CheckOutRequest, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// Approve deducts every item independently and then marks the request
// approved, whatever the per-item outcomes. The ledger records what was
// requested; shortfalls and failures are reported, not blocking.
func (uc *checkOutUseCase) Approve(ctx context.Context, input *dto.ApproveInput) (*dto.ApprovalResult, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	unlock, err := uc.locker.Lock(ctx, "lock:checkout:"+input.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	req, err := uc.pending(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	result := &dto.ApprovalResult{Items: make([]dto.ItemOutcome, 0, len(req.RequestedItems))}
	for i, item := range req.RequestedItems {
		out := uc.deductItem(ctx, req.CompanyID, i, item)
		if out.Error == "" {
			result.Succeeded++
		} else {
			result.Failed++
		}
		result.Items = append(result.Items, out)
	}

	now := uc.now()
	req.Status = model.StatusApproved
	req.ReviewedAt = &now
	if input.ReviewerID != "" {
		req.ReviewedBy = &input.ReviewerID
	}
	req.UpdatedAt = now

	if err := uc.repo.UpdateReview(ctx, req); err != nil {
		return nil, fmt.Errorf("mark check-out approved: %w", err)
	}
	result.Request = req

	uc.logger.Info("check-out approved",
		zap.String("request_id", req.ID),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (uc *checkOutUseCase) deductItem(ctx context.Context, companyID string, index int, item model.RequestedItem) dto.ItemOutcome {
	out := dto.ItemOutcome{
		Index:       index,
		ProductName: item.ProductName,
		Variant:     selection(item),
		Quantity:    item.Quantity,
	}

	productID, err := uc.resolveProduct(ctx, companyID, item)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.ProductID = productID

	res, err := uc.deductor.DeductItem(ctx, &shipdto.DeductInput{
		CompanyID: companyID,
		ProductID: productID,
		Variant:   out.Variant,
		Quantity:  item.Quantity,
	})
	if err != nil {
		uc.logger.Error("failed to deduct check-out item",
			zap.Int("index", index),
			zap.String("product_id", productID),
			zap.Error(err),
		)
		out.Error = err.Error()
		return out
	}

	out.Consumed = res.Consumed
	out.Shortfall = res.Shortfall
	return out
}

// resolveProduct prefers the recorded id and falls back to the oldest
// product of the company carrying the item's name.
func (uc *checkOutUseCase) resolveProduct(ctx context.Context, companyID string, item model.RequestedItem) (string, error) {
	if item.ProductID != nil {
		return *item.ProductID, nil
	}
	p, err := uc.products.FindByName(ctx, companyID, item.ProductName)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", fmt.Errorf("product %q: %w", item.ProductName, model.ErrNotFound)
	}
	return p.ID, nil
}

func (uc *checkOutUseCase) Reject(ctx context.Context, input *dto.RejectInput) (*model.CheckOutRequest, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, model.NewValidationError("reason", "is required")
	}

	unlock, err := uc.locker.Lock(ctx, "lock:checkout:"+input.ID)
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
	uc.logger.Info("check-out rejected", zap.String("request_id", req.ID), zap.String("reason", reason))
	return req, nil
}

func (uc *checkOutUseCase) pending(ctx context.Context, id string) (*model.CheckOutRequest, error) {
	req, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != model.StatusPending {
		return nil, fmt.Errorf("check-out %s is %s: %w", id, req.Status, model.ErrInvalidTransition)
	}
	return req, nil
}

// selection renders the item's variant as a single "Attribute: Value"
// segment, or the bare value when no attribute was recorded.
func selection(item model.RequestedItem) string {
	if item.VariantValue == nil {
		return ""
	}
	if item.VariantAttribute == nil {
		return *item.VariantValue
	}
	return *item.VariantAttribute + ": " + *item.VariantValue
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
