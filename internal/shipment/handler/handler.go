package handler

import (
	"context"
	"fmt"

	"github.com/clearpath/warehouse-flow/internal/apierr"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/internal/shipment"
	"github.com/clearpath/warehouse-flow/internal/shipment/dto"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const serviceName = "warehouse.v1.ShipmentService"

type CreateShipmentRequest struct {
	Destination       string                  `json:"destination"`
	Items             []dto.ShipmentItemInput `json:"items"`
	RejectOnShortfall bool                    `json:"reject_on_shortfall"`
}

type ShipmentIDRequest struct {
	ID string `json:"id"`
}

type ListShipmentsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ShipmentResponse struct {
	Shipment *model.Shipment `json:"shipment"`
}

type ListShipmentsResponse struct {
	Shipments []model.Shipment `json:"shipments"`
	Total     int              `json:"total"`
}

type ShipmentServer interface {
	CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*dto.ShipmentResult, error)
	GetShipment(ctx context.Context, req *ShipmentIDRequest) (*ShipmentResponse, error)
	ListShipments(ctx context.Context, req *ListShipmentsRequest) (*ListShipmentsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ShipmentServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(serviceName, "CreateShipment", ShipmentServer.CreateShipment),
		grpcjson.Unary(serviceName, "GetShipment", ShipmentServer.GetShipment),
		grpcjson.Unary(serviceName, "ListShipments", ShipmentServer.ListShipments),
	},
}

func Register(s grpc.ServiceRegistrar, h ShipmentServer) {
	s.RegisterService(&ServiceDesc, h)
}

type ShipmentHandler struct {
	uc     shipment.UseCase
	logger logger.ZapLogger
}

func NewShipmentHandler(uc shipment.UseCase, log logger.ZapLogger) *ShipmentHandler {
	return &ShipmentHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ShipmentHandler) CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*dto.ShipmentResult, error) {
	res, err := h.uc.CreateShipment(ctx, &dto.CreateShipmentInput{
		CompanyID:         auth.GetCompanyID(ctx),
		Destination:       req.Destination,
		Items:             req.Items,
		CreatedBy:         auth.GetUserID(ctx),
		RejectOnShortfall: req.RejectOnShortfall,
	})
	if err != nil {
		return nil, h.fail("CreateShipment", err)
	}
	return res, nil
}

func (h *ShipmentHandler) GetShipment(ctx context.Context, req *ShipmentIDRequest) (*ShipmentResponse, error) {
	s, err := h.uc.GetShipment(ctx, req.ID)
	if err != nil {
		return nil, h.fail("GetShipment", err)
	}
	if s.CompanyID != auth.GetCompanyID(ctx) {
		return nil, h.fail("GetShipment", fmt.Errorf("shipment %s: %w", req.ID, model.ErrNotFound))
	}
	return &ShipmentResponse{Shipment: s}, nil
}

func (h *ShipmentHandler) ListShipments(ctx context.Context, req *ListShipmentsRequest) (*ListShipmentsResponse, error) {
	items, total, err := h.uc.ListShipments(ctx, &dto.ShipmentFilters{
		CompanyID: auth.GetCompanyID(ctx),
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, h.fail("ListShipments", err)
	}
	if items == nil {
		items = []model.Shipment{}
	}
	return &ListShipmentsResponse{Shipments: items, Total: total}, nil
}

func (h *ShipmentHandler) fail(method string, err error) error {
	if apierr.Code(err) == codes.Internal {
		h.logger.Error("shipment handler failed", zap.String("method", method), zap.Error(err))
	}
	return apierr.ToStatus(err)
}
