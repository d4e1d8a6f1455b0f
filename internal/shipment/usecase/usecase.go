package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/lot"
	lotdto "github.com/clearpath/warehouse-flow/internal/lot/dto"
	lotuc "github.com/clearpath/warehouse-flow/internal/lot/usecase"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product"
	"github.com/clearpath/warehouse-flow/internal/shipment"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type shipmentUseCase struct {
	repo     shipment.Repository
	products product.Repository
	lots     lot.UseCase
	tx       postgres.TxManager
	locker   cache.Locker
	notifier product.StockNotifier
	logger   logger.ZapLogger
	now      func() time.Time
}

type Deps struct {
	Repo     shipment.Repository
	Products product.Repository
	Lots     lot.UseCase
	Tx       postgres.TxManager
	Locker   cache.Locker
	Notifier product.StockNotifier // optional
	Logger   logger.ZapLogger
}

func NewShipmentUseCase(d Deps) shipment.UseCase {
	return &shipmentUseCase{
		repo:     d.Repo,
		products: d.Products,
		lots:     d.Lots,
		tx:       d.Tx,
		locker:   d.Locker,
		notifier: d.Notifier,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// CreateShipment deducts every item from the lots and the catalog tree and
// records the shipment, all in one transaction.
func (uc *shipmentUseCase) CreateShipment(ctx context.Context, input *dto.CreateShipmentInput) (*dto.ShipmentResult, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	destination := strings.TrimSpace(input.Destination)
	if destination == "" {
		return nil, model.NewValidationError("destination", "is required")
	}

	keys := make([]string, 0, len(input.Items))
	for _, item := range input.Items {
		keys = append(keys, lotuc.LockKey(input.CompanyID, item.ProductID, selectionKey(item.Variant)))
	}
	unlock, err := uc.lockAll(ctx, keys)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if input.SourceEventID != "" {
		existing, err := uc.repo.FindBySourceEvent(ctx, input.CompanyID, input.SourceEventID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			uc.logger.Info("shipment already created from event",
				zap.String("shipment_id", existing.ID),
				zap.String("event_id", input.SourceEventID),
			)
			return &dto.ShipmentResult{Shipment: existing, Duplicate: true}, nil
		}
	}

	now := uc.now()
	s := &model.Shipment{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CompanyID:   input.CompanyID,
		Destination: destination,
		Items:       make([]model.ShipmentItem, 0, len(input.Items)),
	}
	if input.CreatedBy != "" {
		createdBy := input.CreatedBy
		s.CreatedBy = &createdBy
	}
	if input.SourceEventID != "" {
		eventID := input.SourceEventID
		s.SourceEventID = &eventID
	}

	var outcomes []dto.ItemOutcome
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		outcomes = outcomes[:0]
		for i, item := range input.Items {
			out, err := uc.deduct(ctx, input.CompanyID, item.ProductID, item.Variant, item.Quantity)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			if input.RejectOnShortfall && out.Shortfall > 0 {
				return fmt.Errorf("item %d: %w", i, shortfallErr(out))
			}
			outcomes = append(outcomes, *out)

			si := model.ShipmentItem{
				ID:         uuid.New().String(),
				ShipmentID: s.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				Consumed:   out.Consumed,
				CreatedAt:  now,
			}
			if v := strings.TrimSpace(item.Variant); v != "" {
				si.Variant = &v
			}
			s.Items = append(s.Items, si)
		}
		return uc.repo.Create(ctx, s)
	})
	if err != nil {
		uc.logger.Error("shipment rolled back",
			zap.String("company_id", input.CompanyID),
			zap.String("destination", destination),
			zap.Error(err),
		)
		return nil, err
	}

	uc.notify(ctx, outcomes)
	uc.logger.Info("shipment created",
		zap.String("shipment_id", s.ID),
		zap.String("company_id", s.CompanyID),
		zap.Int("items", len(s.Items)),
	)
	return &dto.ShipmentResult{Shipment: s, Items: outcomes}, nil
}

// DeductItem runs the single-item path in its own transaction.
func (uc *shipmentUseCase) DeductItem(ctx context.Context, input *dto.DeductInput) (*dto.ItemOutcome, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	unlock, err := uc.lockAll(ctx, []string{lotuc.LockKey(input.CompanyID, input.ProductID, selectionKey(input.Variant))})
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *dto.ItemOutcome
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = uc.deduct(ctx, input.CompanyID, input.ProductID, input.Variant, input.Quantity)
		if err != nil {
			return err
		}
		if input.RejectOnShortfall && out.Shortfall > 0 {
			return shortfallErr(out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, []dto.ItemOutcome{*out})
	return out, nil
}

// deduct is the per-item synchronization. Only the first segment of the
// variant selection is used for both the lot key and the leaf lookup. Must
// run inside a transaction.
func (uc *shipmentUseCase) deduct(ctx context.Context, companyID, productID, selection string, qty int) (*dto.ItemOutcome, error) {
	p, err := uc.products.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.CompanyID != companyID {
		return nil, fmt.Errorf("product %s: %w", productID, model.ErrNotFound)
	}

	seg, hasVariant := variant.FirstSegment(selection)
	key := selectionKey(selection)

	depletion, err := uc.lots.Deplete(ctx, &lotdto.DepleteInput{
		CompanyID: companyID,
		ProductID: productID,
		Key:       key,
		Amount:    qty,
	})
	if err != nil {
		return nil, err
	}

	out := &dto.ItemOutcome{
		ProductID:   productID,
		Requested:   qty,
		Consumed:    depletion.Consumed,
		Shortfall:   depletion.Shortfall,
		Allocations: depletion.Allocations,
	}
	if hasVariant {
		out.Variant = seg.String()
	}

	switch {
	case p.HasVariants() && hasVariant:
		tree, ok := variant.DecrementLeafQuantity(p.Variants, seg.Attribute, seg.Value, qty)
		if ok {
			p.Variants = tree
			p.Quantity = variant.TotalQuantity(tree)
			out.LeafUpdated = true
		} else {
			uc.logger.Warn("variant selection matched no catalog leaf",
				zap.String("product_id", productID),
				zap.String("variant", seg.String()),
			)
		}
	case p.HasVariants():
		uc.logger.Warn("variant product shipped without a variant selection",
			zap.String("product_id", productID),
			zap.Int("quantity", qty),
		)
	default:
		p.Quantity = max(p.Quantity-qty, 0)
		out.LeafUpdated = true
	}

	if out.LeafUpdated {
		p.UpdatedAt = uc.now()
		if err := uc.products.UpdateStock(ctx, p); err != nil {
			return nil, fmt.Errorf("update product stock: %w", err)
		}
	}

	out.OnHand = p.OnHand()
	out.Product = p
	return out, nil
}

func (uc *shipmentUseCase) GetShipment(ctx context.Context, id string) (*model.Shipment, error) {
	s, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("shipment %s: %w", id, model.ErrNotFound)
	}
	return s, nil
}

func (uc *shipmentUseCase) ListShipments(ctx context.Context, filters *dto.ShipmentFilters) ([]model.Shipment, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// lockAll takes the depletion locks in sorted order so two shipments sharing
// keys cannot deadlock.
func (uc *shipmentUseCase) lockAll(ctx context.Context, keys []string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		unlock, err := uc.locker.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

func (uc *shipmentUseCase) notify(ctx context.Context, outcomes []dto.ItemOutcome) {
	if uc.notifier == nil {
		return
	}
	for _, out := range outcomes {
		if out.Product != nil && out.LeafUpdated {
			uc.notifier.StockChanged(ctx, out.Product)
		}
	}
}

func selectionKey(selection string) *model.VariantKey {
	seg, ok := variant.FirstSegment(selection)
	if !ok {
		return nil
	}
	return &model.VariantKey{Attribute: seg.Attribute, Value: seg.Value}
}

func shortfallErr(out *dto.ItemOutcome) error {
	e := &model.ShortfallError{
		ProductID: out.ProductID,
		Requested: out.Requested,
		Shortfall: out.Shortfall,
	}
	if out.Variant != "" {
		seg, _ := variant.FirstSegment(out.Variant)
		e.Key = &model.VariantKey{Attribute: seg.Attribute, Value: seg.Value}
	}
	return e
}
