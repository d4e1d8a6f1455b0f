package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product"
	"github.com/clearpath/warehouse-flow/internal/product/dto"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/cache"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"github.com/clearpath/warehouse-flow/pkg/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const indexName = "products"

type productUseCase struct {
	repo   product.Repository
	cache  *cache.RedisClient
	es     *search.Client
	logger logger.ZapLogger
}

// NewProductUseCase wires the catalog. cache and es are optional.
func NewProductUseCase(repo product.Repository, cache *cache.RedisClient, es *search.Client, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		cache:  cache,
		es:     es,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	if err := variant.Validate(input.Variants); err != nil {
		return nil, model.NewValidationError("variants", err.Error())
	}

	unique, err := uc.repo.IsSKUUnique(ctx, input.CompanyID, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, model.NewValidationError("sku", "already exists")
	}

	now := time.Now()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CompanyID: input.CompanyID,
		Name:      strings.TrimSpace(input.Name),
		Quantity:  input.Quantity,
		Variants:  variant.Clone(input.Variants),
	}
	if input.SKU != "" {
		sku := input.SKU
		p.SKU = &sku
	}
	if p.HasVariants() {
		p.Quantity = variant.TotalQuantity(p.Variants)
	}
	if p.Variants == nil {
		p.Variants = variant.Tree{}
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.StockChanged(ctx, p)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %s: %w", id, model.ErrNotFound)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	// 1. Cache
	cacheKey, err := uc.generateCacheKey(filters)
	if err == nil && uc.cache != nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey).Result()
		if err == nil {
			var result struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &result); err == nil {
				return result.Products, result.Count, nil
			}
		}
	}

	// 2. Search via Elastic when a query is present
	if filters.SearchQuery != "" && uc.es != nil {
		products, total, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	// 3. DB
	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if cacheKey != "" && uc.cache != nil {
		cacheData := struct {
			Products []model.Product
			Count    int
		}{
			Products: products,
			Count:    count,
		}
		if data, err := json.Marshal(cacheData); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}

	p, err := uc.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if p.CompanyID != input.CompanyID {
		return nil, fmt.Errorf("product %s: %w", input.ID, model.ErrNotFound)
	}

	currentSKU := ""
	if p.SKU != nil {
		currentSKU = *p.SKU
	}
	if currentSKU != input.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, input.CompanyID, input.SKU, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, model.NewValidationError("sku", "already exists")
		}
	}

	// Renames are allowed but reconciliation matches check-outs by name, so
	// leave a trace.
	if p.Name != name {
		uc.logger.Info("product renamed",
			zap.String("product_id", p.ID),
			zap.String("from", p.Name),
			zap.String("to", name),
		)
	}

	p.Name = name
	if input.SKU != "" {
		sku := input.SKU
		p.SKU = &sku
	} else {
		p.SKU = nil
	}
	p.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	uc.StockChanged(ctx, p)
	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return nil // Already deleted
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	go uc.invalidateProductCache(context.Background(), p.CompanyID)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), indexName, id); err != nil {
				uc.logger.Error("failed to delete product from ES", zap.Error(err))
			}
		}()
	}

	return nil
}

func (uc *productUseCase) VariantPaths(ctx context.Context, id string) ([]variant.PathQuantity, error) {
	p, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return variant.FlattenToPaths(p.Variants), nil
}

// CheckInDraft seeds a check-in line from the catalog shape with every
// quantity zeroed, so stale counts are never resubmitted.
func (uc *productUseCase) CheckInDraft(ctx context.Context, id string) (*model.RequestedProduct, error) {
	p, err := uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	draft := &model.RequestedProduct{
		Name:     p.Name,
		Variants: variant.CloneWithZeroedQuantities(p.Variants),
	}
	if p.SKU != nil {
		draft.SKU = *p.SKU
	}
	return draft, nil
}

func (uc *productUseCase) StockChanged(ctx context.Context, p *model.Product) {
	snapshot := *p
	snapshot.Variants = variant.Clone(p.Variants)

	go uc.invalidateProductCache(context.Background(), p.CompanyID)
	go uc.syncToElastic(context.Background(), &snapshot)
}

func (uc *productUseCase) generateCacheKey(filters *dto.ProductFilters) (string, error) {
	data, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:list:%s:%x", filters.CompanyID, md5.Sum(data)), nil
}

func (uc *productUseCase) invalidateProductCache(ctx context.Context, companyID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("products:list:%s:*", companyID)
	keys, err := uc.cache.Client.Keys(ctx, pattern).Result()
	if err == nil && len(keys) > 0 {
		uc.cache.Client.Del(ctx, keys...)
	}
}

// searchDoc is the indexed form of a product: variant leaves are flattened to
// their display paths so "Large" or "Color: Red" finds the product.
type searchDoc struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"company_id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	Quantity     int       `json:"quantity"`
	VariantPaths []string  `json:"variant_paths"`
	CreatedAt    time.Time `json:"created_at"`
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"company_id": { "type": "keyword" },
				"name": { "type": "text" },
				"sku": { "type": "keyword" },
				"quantity": { "type": "integer" },
				"variant_paths": { "type": "text" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, indexName, mapping)

	doc := searchDoc{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		Quantity:  p.OnHand(),
		CreatedAt: p.CreatedAt,
	}
	if p.SKU != nil {
		doc.SKU = *p.SKU
	}
	for _, leaf := range variant.FlattenToPaths(p.Variants) {
		doc.VariantPaths = append(doc.VariantPaths, leaf.Path.String())
	}

	if err := uc.es.Index(ctx, indexName, p.ID, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) searchElastic(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"query_string": map[string]interface{}{
							"query":  fmt.Sprintf("*%s*", filters.SearchQuery),
							"fields": []string{"name^3", "sku", "variant_paths"},
						},
					},
					{
						"term": map[string]interface{}{
							"company_id": filters.CompanyID,
						},
					},
				},
			},
		},
	}
	if filters.PageSize > 0 {
		q["from"] = (max(filters.Page, 1) - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, 0, err
	}

	// The index is only a locator; load the rows so variants are current.
	products := make([]model.Product, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc searchDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		p, err := uc.repo.FindByID(ctx, doc.ID)
		if err != nil {
			return nil, 0, err
		}
		if p != nil {
			products = append(products, *p)
		}
	}
	if len(products) == 0 && res.Hits.Total.Value > 0 {
		return nil, 0, errors.New("search index out of sync")
	}
	return products, res.Hits.Total.Value, nil
}
