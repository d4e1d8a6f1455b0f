package handler

import (
	"context"
	"strings"

	"github.com/clearpath/warehouse-flow/internal/apierr"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/lot"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const serviceName = "warehouse.v1.InventoryService"

type ListLotsRequest struct {
	ProductID string `json:"product_id"`
}

type ListLotsResponse struct {
	Lots  []model.InventoryLot `json:"lots"`
	Total int                  `json:"total"`
}

// GetAvailableRequest leaves VariantValue empty to ask for base stock.
type GetAvailableRequest struct {
	ProductID        string `json:"product_id"`
	VariantAttribute string `json:"variant_attribute"`
	VariantValue     string `json:"variant_value"`
}

type GetAvailableResponse struct {
	ProductID string            `json:"product_id"`
	Key       *model.VariantKey `json:"key"`
	Available int               `json:"available"`
}

type InventoryServer interface {
	ListLots(ctx context.Context, req *ListLotsRequest) (*ListLotsResponse, error)
	GetAvailable(ctx context.Context, req *GetAvailableRequest) (*GetAvailableResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(serviceName, "ListLots", InventoryServer.ListLots),
		grpcjson.Unary(serviceName, "GetAvailable", InventoryServer.GetAvailable),
	},
}

func Register(s grpc.ServiceRegistrar, h InventoryServer) {
	s.RegisterService(&ServiceDesc, h)
}

type InventoryHandler struct {
	uc     lot.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc lot.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) ListLots(ctx context.Context, req *ListLotsRequest) (*ListLotsResponse, error) {
	lots, err := h.uc.ListLots(ctx, auth.GetCompanyID(ctx), req.ProductID)
	if err != nil {
		return nil, h.fail("ListLots", err)
	}
	if lots == nil {
		lots = []model.InventoryLot{}
	}

	total := 0
	for _, l := range lots {
		total += l.Quantity
	}
	return &ListLotsResponse{Lots: lots, Total: total}, nil
}

func (h *InventoryHandler) GetAvailable(ctx context.Context, req *GetAvailableRequest) (*GetAvailableResponse, error) {
	var key *model.VariantKey
	if v := strings.TrimSpace(req.VariantValue); v != "" {
		key = &model.VariantKey{Attribute: strings.TrimSpace(req.VariantAttribute), Value: v}
	}

	n, err := h.uc.Available(ctx, auth.GetCompanyID(ctx), req.ProductID, key)
	if err != nil {
		return nil, h.fail("GetAvailable", err)
	}
	return &GetAvailableResponse{ProductID: req.ProductID, Key: key, Available: n}, nil
}

func (h *InventoryHandler) fail(method string, err error) error {
	if apierr.Code(err) == codes.Internal {
		h.logger.Error("inventory handler failed", zap.String("method", method), zap.Error(err))
	}
	return apierr.ToStatus(err)
}
