// Package eventlog reads approved check-ins and check-outs as one ordered
// stream of ledger events.
package eventlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/variant"
)

type CheckInSource interface {
	ListApproved(ctx context.Context, companyID *string, until time.Time) ([]model.CheckInRequest, error)
}

type CheckOutSource interface {
	ListApproved(ctx context.Context, companyID *string, until time.Time) ([]model.CheckOutRequest, error)
}

// Filter selects events reviewed at or before Until. A nil CompanyID means
// every company.
type Filter struct {
	CompanyID *string
	Until     time.Time
}

type Reader interface {
	ListApproved(ctx context.Context, filter Filter) ([]model.LedgerEvent, error)
}

type reader struct {
	checkIns  CheckInSource
	checkOuts CheckOutSource
}

func NewReader(checkIns CheckInSource, checkOuts CheckOutSource) Reader {
	return &reader{checkIns: checkIns, checkOuts: checkOuts}
}

// ListApproved returns events ordered by review time, then kind, then id.
func (r *reader) ListApproved(ctx context.Context, filter Filter) ([]model.LedgerEvent, error) {
	ins, err := r.checkIns.ListApproved(ctx, filter.CompanyID, filter.Until)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	outs, err := r.checkOuts.ListApproved(ctx, filter.CompanyID, filter.Until)
	if err != nil {
		return nil, fmt.Errorf("list check-outs: %w", err)
	}

	events := make([]model.LedgerEvent, 0, len(ins)+len(outs))
	for i := range ins {
		req := &ins[i]
		if req.Status != model.StatusApproved || req.ReviewedAt == nil || req.ReviewedAt.After(filter.Until) {
			continue
		}
		events = append(events, model.LedgerEvent{
			ID:         req.ID,
			Kind:       model.EventCheckIn,
			CompanyID:  req.CompanyID,
			ReviewedAt: *req.ReviewedAt,
			Lines:      LinesFromCheckIn(req),
		})
	}
	for i := range outs {
		req := &outs[i]
		if req.Status != model.StatusApproved || req.ReviewedAt == nil || req.ReviewedAt.After(filter.Until) {
			continue
		}
		events = append(events, model.LedgerEvent{
			ID:         req.ID,
			Kind:       model.EventCheckOut,
			CompanyID:  req.CompanyID,
			ReviewedAt: *req.ReviewedAt,
			Lines:      LinesFromCheckOut(req),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.ReviewedAt.Equal(b.ReviewedAt) {
			return a.ReviewedAt.Before(b.ReviewedAt)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	return events, nil
}

// LinesFromCheckIn extracts what an approved check-in received: the amended
// set when the request was amended. Products with variants yield one line
// per leaf keyed by the leaf's value path; others one base line.
func LinesFromCheckIn(req *model.CheckInRequest) []model.LedgerLine {
	var lines []model.LedgerLine
	for _, p := range req.EffectiveProducts() {
		var productID *string
		if p.ProductID != "" {
			id := p.ProductID
			productID = &id
		}

		if p.Variants.IsEmpty() {
			if p.Quantity > 0 {
				lines = append(lines, model.LedgerLine{ProductID: productID, ProductName: p.Name, Quantity: p.Quantity})
			}
			continue
		}

		for _, leaf := range variant.FlattenToPaths(p.Variants) {
			if leaf.Quantity == 0 {
				continue
			}
			key := leaf.Path.LeafKey()
			lines = append(lines, model.LedgerLine{
				ProductID:    productID,
				ProductName:  p.Name,
				VariantValue: &key,
				Quantity:     leaf.Quantity,
			})
		}
	}
	return lines
}

// LinesFromCheckOut copies the recorded names and variant values verbatim.
func LinesFromCheckOut(req *model.CheckOutRequest) []model.LedgerLine {
	var lines []model.LedgerLine
	for _, item := range req.RequestedItems {
		if item.Quantity <= 0 {
			continue
		}
		lines = append(lines, model.LedgerLine{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			VariantValue: item.VariantValue,
			Quantity:     item.Quantity,
		})
	}
	return lines
}
