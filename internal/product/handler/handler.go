package handler

import (
	"context"
	"fmt"

	"github.com/clearpath/warehouse-flow/internal/apierr"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/product"
	"github.com/clearpath/warehouse-flow/internal/product/dto"
	"github.com/clearpath/warehouse-flow/internal/variant"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const serviceName = "warehouse.v1.ProductService"

type CreateProductRequest struct {
	Name     string       `json:"name"`
	SKU      string       `json:"sku"`
	Quantity int          `json:"quantity"`
	Variants variant.Tree `json:"variants"`
}

type UpdateProductRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SKU  string `json:"sku"`
}

type ProductIDRequest struct {
	ID string `json:"id"`
}

type ListProductsRequest struct {
	Search    string `json:"search"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

type ProductResponse struct {
	Product *model.Product `json:"product"`
	OnHand  int            `json:"on_hand"`
}

type ListProductsResponse struct {
	Products []model.Product `json:"products"`
	Total    int             `json:"total"`
}

type VariantPath struct {
	Path     string `json:"path"`
	Quantity int    `json:"quantity"`
}

type VariantPathsResponse struct {
	ProductID string        `json:"product_id"`
	Paths     []VariantPath `json:"paths"`
}

type CheckInDraftResponse struct {
	Draft *model.RequestedProduct `json:"draft"`
}

type Empty struct{}

// ProductServer is the method set registered under ProductService.
type ProductServer interface {
	CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error)
	GetProduct(ctx context.Context, req *ProductIDRequest) (*ProductResponse, error)
	ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error)
	UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, req *ProductIDRequest) (*Empty, error)
	GetVariantPaths(ctx context.Context, req *ProductIDRequest) (*VariantPathsResponse, error)
	GetCheckInDraft(ctx context.Context, req *ProductIDRequest) (*CheckInDraftResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProductServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(serviceName, "CreateProduct", ProductServer.CreateProduct),
		grpcjson.Unary(serviceName, "GetProduct", ProductServer.GetProduct),
		grpcjson.Unary(serviceName, "ListProducts", ProductServer.ListProducts),
		grpcjson.Unary(serviceName, "UpdateProduct", ProductServer.UpdateProduct),
		grpcjson.Unary(serviceName, "DeleteProduct", ProductServer.DeleteProduct),
		grpcjson.Unary(serviceName, "GetVariantPaths", ProductServer.GetVariantPaths),
		grpcjson.Unary(serviceName, "GetCheckInDraft", ProductServer.GetCheckInDraft),
	},
}

func Register(s grpc.ServiceRegistrar, h ProductServer) {
	s.RegisterService(&ServiceDesc, h)
}

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductResponse, error) {
	p, err := h.uc.CreateProduct(ctx, &dto.CreateProductInput{
		CompanyID: auth.GetCompanyID(ctx),
		Name:      req.Name,
		SKU:       req.SKU,
		Quantity:  req.Quantity,
		Variants:  req.Variants,
	})
	if err != nil {
		return nil, h.fail("CreateProduct", err)
	}
	return &ProductResponse{Product: p, OnHand: p.OnHand()}, nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *ProductIDRequest) (*ProductResponse, error) {
	p, err := h.owned(ctx, req.ID)
	if err != nil {
		return nil, h.fail("GetProduct", err)
	}
	return &ProductResponse{Product: p, OnHand: p.OnHand()}, nil
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *ListProductsRequest) (*ListProductsResponse, error) {
	products, total, err := h.uc.ListProducts(ctx, &dto.ProductFilters{
		CompanyID:   auth.GetCompanyID(ctx),
		SearchQuery: req.Search,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		return nil, h.fail("ListProducts", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return &ListProductsResponse{Products: products, Total: total}, nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*ProductResponse, error) {
	p, err := h.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:        req.ID,
		CompanyID: auth.GetCompanyID(ctx),
		Name:      req.Name,
		SKU:       req.SKU,
	})
	if err != nil {
		return nil, h.fail("UpdateProduct", err)
	}
	return &ProductResponse{Product: p, OnHand: p.OnHand()}, nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, req *ProductIDRequest) (*Empty, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("DeleteProduct", err)
	}
	if err := h.uc.DeleteProduct(ctx, req.ID); err != nil {
		return nil, h.fail("DeleteProduct", err)
	}
	return &Empty{}, nil
}

func (h *ProductHandler) GetVariantPaths(ctx context.Context, req *ProductIDRequest) (*VariantPathsResponse, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("GetVariantPaths", err)
	}
	leaves, err := h.uc.VariantPaths(ctx, req.ID)
	if err != nil {
		return nil, h.fail("GetVariantPaths", err)
	}

	resp := &VariantPathsResponse{ProductID: req.ID, Paths: make([]VariantPath, len(leaves))}
	for i, l := range leaves {
		resp.Paths[i] = VariantPath{Path: l.Path.String(), Quantity: l.Quantity}
	}
	return resp, nil
}

func (h *ProductHandler) GetCheckInDraft(ctx context.Context, req *ProductIDRequest) (*CheckInDraftResponse, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("GetCheckInDraft", err)
	}
	draft, err := h.uc.CheckInDraft(ctx, req.ID)
	if err != nil {
		return nil, h.fail("GetCheckInDraft", err)
	}
	return &CheckInDraftResponse{Draft: draft}, nil
}

// owned hides other companies' products behind NotFound.
func (h *ProductHandler) owned(ctx context.Context, id string) (*model.Product, error) {
	p, err := h.uc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CompanyID != auth.GetCompanyID(ctx) {
		return nil, fmt.Errorf("product %s: %w", id, model.ErrNotFound)
	}
	return p, nil
}

func (h *ProductHandler) fail(method string, err error) error {
	if apierr.Code(err) == codes.Internal {
		h.logger.Error("product handler failed", zap.String("method", method), zap.Error(err))
	}
	return apierr.ToStatus(err)
}
