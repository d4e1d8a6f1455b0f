// Package testutil holds in-memory stand-ins for the Postgres repositories.
// A Store is one database: its WithinTx serializes transactions and rolls
// every table back when fn fails.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	checkindto "github.com/clearpath/warehouse-flow/internal/checkin/dto"
	checkoutdto "github.com/clearpath/warehouse-flow/internal/checkout/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	productdto "github.com/clearpath/warehouse-flow/internal/product/dto"
	shipmentdto "github.com/clearpath/warehouse-flow/internal/shipment/dto"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/database/postgres"
)

type tables struct {
	products  map[string]model.Product
	lots      map[string]model.InventoryLot
	checkIns  map[string]model.CheckInRequest
	checkOuts map[string]model.CheckOutRequest
	shipments map[string]model.Shipment
}

func (t tables) copy() tables {
	return tables{
		products:  copyMap(t.products),
		lots:      copyMap(t.lots),
		checkIns:  copyMap(t.checkIns),
		checkOuts: copyMap(t.checkOuts),
		shipments: copyMap(t.shipments),
	}
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	t    tables

	// BeforeProductCreate, when set, runs before every product insert and
	// aborts it with the returned error.
	BeforeProductCreate func(p *model.Product) error
}

func NewStore() *Store {
	return &Store{t: tables{
		products:  map[string]model.Product{},
		lots:      map[string]model.InventoryLot{},
		checkIns:  map[string]model.CheckInRequest{},
		checkOuts: map[string]model.CheckOutRequest{},
		shipments: map[string]model.Shipment{},
	}}
}

// WithinTx implements postgres.TxManager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if postgres.InTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.t.copy()
	s.mu.Unlock()

	if err := fn(postgres.WithActiveTx(ctx)); err != nil {
		s.mu.Lock()
		s.t = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Products() *ProductRepo   { return &ProductRepo{s: s} }
func (s *Store) Lots() *LotRepo           { return &LotRepo{s: s} }
func (s *Store) CheckIns() *CheckInRepo   { return &CheckInRepo{s: s} }
func (s *Store) CheckOuts() *CheckOutRepo { return &CheckOutRepo{s: s} }
func (s *Store) Shipments() *ShipmentRepo { return &ShipmentRepo{s: s} }

// Products

type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(_ context.Context, p *model.Product) error {
	if hook := r.s.BeforeProductCreate; hook != nil {
		if err := hook(p); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *ProductRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.t.products[id]
	if !ok {
		return nil, nil
	}
	out := cloneProduct(p)
	return &out, nil
}

func (r *ProductRepo) FindByIDForUpdate(ctx context.Context, id string) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *ProductRepo) FindByName(_ context.Context, companyID, name string) (*model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *model.Product
	for _, p := range r.s.t.products {
		if p.CompanyID != companyID || p.Name != name {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) || (p.CreatedAt.Equal(found.CreatedAt) && p.ID < found.ID) {
			c := cloneProduct(p)
			found = &c
		}
	}
	return found, nil
}

func (r *ProductRepo) FindAll(_ context.Context, f *productdto.ProductFilters) ([]model.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, p := range r.s.t.products {
		if f.CompanyID != "" && p.CompanyID != f.CompanyID {
			continue
		}
		if f.SearchQuery != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.SearchQuery)) {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID) })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *ProductRepo) Update(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.t.products[p.ID]
	if !ok {
		return nil
	}
	cur.Name, cur.SKU, cur.UpdatedAt = p.Name, p.SKU, p.UpdatedAt
	r.s.t.products[p.ID] = cur
	return nil
}

func (r *ProductRepo) UpdateStock(_ context.Context, p *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.t.products[p.ID]
	if !ok {
		return model.ErrNotFound
	}
	cur.Quantity, cur.Variants, cur.UpdatedAt = p.Quantity, variant.Clone(p.Variants), p.UpdatedAt
	r.s.t.products[p.ID] = cur
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.t.products, id)
	return nil
}

func (r *ProductRepo) IsSKUUnique(_ context.Context, companyID, sku, excludeID string) (bool, error) {
	if sku == "" {
		return true, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.t.products {
		if p.CompanyID == companyID && p.SKU != nil && *p.SKU == sku && p.ID != excludeID {
			return false, nil
		}
	}
	return true, nil
}

// Lots

type LotRepo struct{ s *Store }

func (r *LotRepo) ListAvailable(_ context.Context, companyID, productID string, key *model.VariantKey) ([]model.InventoryLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.InventoryLot
	for _, l := range r.s.t.lots {
		if l.CompanyID == companyID && l.ProductID == productID && l.Quantity > 0 && key.Matches(l.VariantAttribute, l.VariantValue) {
			out = append(out, l)
		}
	}
	sortLots(out)
	return out, nil
}

func (r *LotRepo) ListByProduct(_ context.Context, companyID, productID string) ([]model.InventoryLot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.InventoryLot
	for _, l := range r.s.t.lots {
		if l.CompanyID == companyID && l.ProductID == productID {
			out = append(out, l)
		}
	}
	sortLots(out)
	return out, nil
}

func (r *LotRepo) Create(_ context.Context, l *model.InventoryLot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.lots[l.ID] = *l
	return nil
}

func (r *LotRepo) UpdateQuantity(_ context.Context, id string, quantity int, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.t.lots[id]
	if !ok {
		return model.ErrNotFound
	}
	l.Quantity, l.UpdatedAt = quantity, updatedAt
	r.s.t.lots[id] = l
	return nil
}

func (r *LotRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.t.lots[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.s.t.lots, id)
	return nil
}

func (r *LotRepo) IncrementBase(_ context.Context, l *model.InventoryLot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var match *model.InventoryLot
	for _, cur := range r.s.t.lots {
		if cur.CompanyID != l.CompanyID || cur.ProductID != l.ProductID || cur.VariantValue != nil || !sameDay(cur.ReceivedDate, l.ReceivedDate) {
			continue
		}
		if match == nil || cur.CreatedAt.Before(match.CreatedAt) {
			c := cur
			match = &c
		}
	}
	if match == nil {
		r.s.t.lots[l.ID] = *l
		return nil
	}

	match.Quantity += l.Quantity
	match.UpdatedAt = l.UpdatedAt
	r.s.t.lots[match.ID] = *match
	*l = *match
	return nil
}

// Put inserts a lot directly, for arranging fixtures.
func (r *LotRepo) Put(l model.InventoryLot) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.lots[l.ID] = l
}

// Check-ins

type CheckInRepo struct{ s *Store }

func (r *CheckInRepo) Create(_ context.Context, req *model.CheckInRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.checkIns[req.ID] = cloneCheckIn(*req)
	return nil
}

func (r *CheckInRepo) FindByID(_ context.Context, id string) (*model.CheckInRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.t.checkIns[id]
	if !ok {
		return nil, nil
	}
	out := cloneCheckIn(req)
	return &out, nil
}

func (r *CheckInRepo) FindAll(_ context.Context, f *checkindto.CheckInFilters) ([]model.CheckInRequest, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CheckInRequest
	for _, req := range r.s.t.checkIns {
		if (f.CompanyID == "" || req.CompanyID == f.CompanyID) && (f.Status == "" || req.Status == f.Status) {
			out = append(out, cloneCheckIn(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID) })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *CheckInRepo) UpdateReview(_ context.Context, req *model.CheckInRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.t.checkIns[req.ID]
	if !ok || cur.Status != model.StatusPending {
		return model.ErrInvalidTransition
	}
	r.s.t.checkIns[req.ID] = cloneCheckIn(*req)
	return nil
}

func (r *CheckInRepo) ListApproved(_ context.Context, companyID *string, until time.Time) ([]model.CheckInRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CheckInRequest
	for _, req := range r.s.t.checkIns {
		if approvedBy(req.Status, req.ReviewedAt, req.CompanyID, companyID, until) {
			out = append(out, cloneCheckIn(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(*out[i].ReviewedAt, *out[j].ReviewedAt, out[i].ID, out[j].ID) })
	return out, nil
}

// Check-outs

type CheckOutRepo struct{ s *Store }

func (r *CheckOutRepo) Create(_ context.Context, req *model.CheckOutRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.checkOuts[req.ID] = cloneCheckOut(*req)
	return nil
}

func (r *CheckOutRepo) FindByID(_ context.Context, id string) (*model.CheckOutRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.t.checkOuts[id]
	if !ok {
		return nil, nil
	}
	out := cloneCheckOut(req)
	return &out, nil
}

func (r *CheckOutRepo) FindAll(_ context.Context, f *checkoutdto.CheckOutFilters) ([]model.CheckOutRequest, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CheckOutRequest
	for _, req := range r.s.t.checkOuts {
		if (f.CompanyID == "" || req.CompanyID == f.CompanyID) && (f.Status == "" || req.Status == f.Status) {
			out = append(out, cloneCheckOut(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID) })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (r *CheckOutRepo) UpdateReview(_ context.Context, req *model.CheckOutRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.t.checkOuts[req.ID]
	if !ok || cur.Status != model.StatusPending {
		return model.ErrInvalidTransition
	}
	r.s.t.checkOuts[req.ID] = cloneCheckOut(*req)
	return nil
}

func (r *CheckOutRepo) ListApproved(_ context.Context, companyID *string, until time.Time) ([]model.CheckOutRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CheckOutRequest
	for _, req := range r.s.t.checkOuts {
		if approvedBy(req.Status, req.ReviewedAt, req.CompanyID, companyID, until) {
			out = append(out, cloneCheckOut(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(*out[i].ReviewedAt, *out[j].ReviewedAt, out[i].ID, out[j].ID) })
	return out, nil
}

// Shipments

type ShipmentRepo struct{ s *Store }

func (r *ShipmentRepo) Create(_ context.Context, sh *model.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.t.shipments[sh.ID] = cloneShipment(*sh)
	return nil
}

func (r *ShipmentRepo) FindByID(_ context.Context, id string) (*model.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.t.shipments[id]
	if !ok {
		return nil, nil
	}
	out := cloneShipment(sh)
	return &out, nil
}

func (r *ShipmentRepo) FindBySourceEvent(_ context.Context, companyID, eventID string) (*model.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sh := range r.s.t.shipments {
		if sh.CompanyID == companyID && sh.SourceEventID != nil && *sh.SourceEventID == eventID {
			out := cloneShipment(sh)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *ShipmentRepo) FindAll(_ context.Context, f *shipmentdto.ShipmentFilters) ([]model.Shipment, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Shipment
	for _, sh := range r.s.t.shipments {
		if f.CompanyID == "" || sh.CompanyID == f.CompanyID {
			out = append(out, cloneShipment(sh))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[j].CreatedAt, out[i].CreatedAt, out[j].ID, out[i].ID) })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func approvedBy(status model.Status, reviewedAt *time.Time, company string, filter *string, until time.Time) bool {
	if status != model.StatusApproved || reviewedAt == nil || reviewedAt.After(until) {
		return false
	}
	return filter == nil || *filter == company
}

func sortLots(lots []model.InventoryLot) {
	sort.Slice(lots, func(i, j int) bool {
		a, b := lots[i], lots[j]
		if !a.ReceivedDate.Equal(b.ReceivedDate) {
			return a.ReceivedDate.Before(b.ReceivedDate)
		}
		return less(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func less(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID < bID
}

func page[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	start := (max(page, 1) - 1) * size
	if start >= len(items) {
		return []T{}
	}
	return items[start:min(start+size, len(items))]
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneProduct(p model.Product) model.Product {
	p.Variants = variant.Clone(p.Variants)
	return p
}

func cloneProducts(in model.RequestedProducts) model.RequestedProducts {
	if in == nil {
		return nil
	}
	out := make(model.RequestedProducts, len(in))
	for i, p := range in {
		p.Variants = variant.Clone(p.Variants)
		out[i] = p
	}
	return out
}

func cloneCheckIn(r model.CheckInRequest) model.CheckInRequest {
	r.RequestedProducts = cloneProducts(r.RequestedProducts)
	r.AmendedProducts = cloneProducts(r.AmendedProducts)
	return r
}

func cloneCheckOut(r model.CheckOutRequest) model.CheckOutRequest {
	r.RequestedItems = append(model.RequestedItems(nil), r.RequestedItems...)
	return r
}

func cloneShipment(s model.Shipment) model.Shipment {
	s.Items = append([]model.ShipmentItem(nil), s.Items...)
	return s
}
