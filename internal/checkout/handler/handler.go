package handler

import (
	"context"
	"fmt"

	"github.com/clearpath/warehouse-flow/internal/apierr"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/checkout"
	"github.com/clearpath/warehouse-flow/internal/checkout/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const serviceName = "warehouse.v1.CheckOutService"

type SubmitRequest struct {
	Items []model.RequestedItem `json:"items"`
	Notes string                `json:"notes"`
}

type RequestIDRequest struct {
	ID string `json:"id"`
}

type ListRequest struct {
	Status   model.Status `json:"status"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type RejectRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type CheckOutResponse struct {
	Request *model.CheckOutRequest `json:"request"`
}

type ListResponse struct {
	Requests []model.CheckOutRequest `json:"requests"`
	Total    int                     `json:"total"`
}

type CheckOutServer interface {
	Submit(ctx context.Context, req *SubmitRequest) (*CheckOutResponse, error)
	Get(ctx context.Context, req *RequestIDRequest) (*CheckOutResponse, error)
	List(ctx context.Context, req *ListRequest) (*ListResponse, error)
	Approve(ctx context.Context, req *RequestIDRequest) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, req *RejectRequest) (*CheckOutResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CheckOutServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(serviceName, "Submit", CheckOutServer.Submit),
		grpcjson.Unary(serviceName, "Get", CheckOutServer.Get),
		grpcjson.Unary(serviceName, "List", CheckOutServer.List),
		grpcjson.Unary(serviceName, "Approve", CheckOutServer.Approve),
		grpcjson.Unary(serviceName, "Reject", CheckOutServer.Reject),
	},
}

func Register(s grpc.ServiceRegistrar, h CheckOutServer) {
	s.RegisterService(&ServiceDesc, h)
}

type CheckOutHandler struct {
	uc     checkout.UseCase
	logger logger.ZapLogger
}

func NewCheckOutHandler(uc checkout.UseCase, log logger.ZapLogger) *CheckOutHandler {
	return &CheckOutHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CheckOutHandler) Submit(ctx context.Context, req *SubmitRequest) (*CheckOutResponse, error) {
	r, err := h.uc.Submit(ctx, &dto.SubmitInput{
		CompanyID: auth.GetCompanyID(ctx),
		Items:     req.Items,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, h.fail("Submit", err)
	}
	return &CheckOutResponse{Request: r}, nil
}

func (h *CheckOutHandler) Get(ctx context.Context, req *RequestIDRequest) (*CheckOutResponse, error) {
	r, err := h.owned(ctx, req.ID)
	if err != nil {
		return nil, h.fail("Get", err)
	}
	return &CheckOutResponse{Request: r}, nil
}

func (h *CheckOutHandler) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	items, total, err := h.uc.List(ctx, &dto.CheckOutFilters{
		CompanyID: auth.GetCompanyID(ctx),
		Status:    req.Status,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, h.fail("List", err)
	}
	if items == nil {
		items = []model.CheckOutRequest{}
	}
	return &ListResponse{Requests: items, Total: total}, nil
}

func (h *CheckOutHandler) Approve(ctx context.Context, req *RequestIDRequest) (*dto.ApprovalResult, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("Approve", err)
	}
	res, err := h.uc.Approve(ctx, &dto.ApproveInput{ID: req.ID, ReviewerID: auth.GetUserID(ctx)})
	if err != nil {
		return nil, h.fail("Approve", err)
	}
	return res, nil
}

func (h *CheckOutHandler) Reject(ctx context.Context, req *RejectRequest) (*CheckOutResponse, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("Reject", err)
	}
	r, err := h.uc.Reject(ctx, &dto.RejectInput{
		ID:         req.ID,
		ReviewerID: auth.GetUserID(ctx),
		Reason:     req.Reason,
	})
	if err != nil {
		return nil, h.fail("Reject", err)
	}
	return &CheckOutResponse{Request: r}, nil
}

func (h *CheckOutHandler) owned(ctx context.Context, id string) (*model.CheckOutRequest, error) {
	r, err := h.uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.CompanyID != auth.GetCompanyID(ctx) {
		return nil, fmt.Errorf("check-out %s: %w", id, model.ErrNotFound)
	}
	return r, nil
}

func (h *CheckOutHandler) fail(method string, err error) error {
	if apierr.Code(err) == codes.Internal {
		h.logger.Error("check-out handler failed", zap.String("method", method), zap.Error(err))
	}
	return apierr.ToStatus(err)
}
