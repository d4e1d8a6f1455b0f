package handler

import (
	"context"
	"fmt"

	"github.com/clearpath/warehouse-flow/internal/apierr"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/checkin"
	"github.com/clearpath/warehouse-flow/internal/checkin/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const serviceName = "warehouse.v1.CheckInService"

type SubmitRequest struct {
	Products []model.RequestedProduct `json:"products"`
	Notes    string                   `json:"notes"`
}

type RequestIDRequest struct {
	ID string `json:"id"`
}

type ListRequest struct {
	Status   model.Status `json:"status"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type AmendRequest struct {
	ID       string                   `json:"id"`
	Products []model.RequestedProduct `json:"products"`
}

type RejectRequest struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type CheckInResponse struct {
	Request *model.CheckInRequest `json:"request"`
}

type ListResponse struct {
	Requests []model.CheckInRequest `json:"requests"`
	Total    int                    `json:"total"`
}

type CheckInServer interface {
	Submit(ctx context.Context, req *SubmitRequest) (*CheckInResponse, error)
	Get(ctx context.Context, req *RequestIDRequest) (*CheckInResponse, error)
	List(ctx context.Context, req *ListRequest) (*ListResponse, error)
	Approve(ctx context.Context, req *RequestIDRequest) (*dto.ApprovalResult, error)
	AmendAndApprove(ctx context.Context, req *AmendRequest) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, req *RejectRequest) (*CheckInResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CheckInServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(serviceName, "Submit", CheckInServer.Submit),
		grpcjson.Unary(serviceName, "Get", CheckInServer.Get),
		grpcjson.Unary(serviceName, "List", CheckInServer.List),
		grpcjson.Unary(serviceName, "Approve", CheckInServer.Approve),
		grpcjson.Unary(serviceName, "AmendAndApprove", CheckInServer.AmendAndApprove),
		grpcjson.Unary(serviceName, "Reject", CheckInServer.Reject),
	},
}

func Register(s grpc.ServiceRegistrar, h CheckInServer) {
	s.RegisterService(&ServiceDesc, h)
}

type CheckInHandler struct {
	uc     checkin.UseCase
	logger logger.ZapLogger
}

func NewCheckInHandler(uc checkin.UseCase, log logger.ZapLogger) *CheckInHandler {
	return &CheckInHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CheckInHandler) Submit(ctx context.Context, req *SubmitRequest) (*CheckInResponse, error) {
	r, err := h.uc.Submit(ctx, &dto.SubmitInput{
		CompanyID: auth.GetCompanyID(ctx),
		Products:  req.Products,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, h.fail("Submit", err)
	}
	return &CheckInResponse{Request: r}, nil
}

func (h *CheckInHandler) Get(ctx context.Context, req *RequestIDRequest) (*CheckInResponse, error) {
	r, err := h.owned(ctx, req.ID)
	if err != nil {
		return nil, h.fail("Get", err)
	}
	return &CheckInResponse{Request: r}, nil
}

func (h *CheckInHandler) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	items, total, err := h.uc.List(ctx, &dto.CheckInFilters{
		CompanyID: auth.GetCompanyID(ctx),
		Status:    req.Status,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, h.fail("List", err)
	}
	if items == nil {
		items = []model.CheckInRequest{}
	}
	return &ListResponse{Requests: items, Total: total}, nil
}

func (h *CheckInHandler) Approve(ctx context.Context, req *RequestIDRequest) (*dto.ApprovalResult, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("Approve", err)
	}
	res, err := h.uc.Approve(ctx, &dto.ApproveInput{ID: req.ID, ReviewerID: auth.GetUserID(ctx)})
	if err != nil {
		return nil, h.fail("Approve", err)
	}
	return res, nil
}

func (h *CheckInHandler) AmendAndApprove(ctx context.Context, req *AmendRequest) (*dto.ApprovalResult, error) {
	if _, err := h.owned(ctx, req.ID); err != nil {
		return nil, h.fail("AmendAndApprove", err)
	}
	res, err := h.uc.AmendAndApprove(ctx, &dto.AmendInput{
		ID:         req.ID,
		ReviewerID: auth.GetUserID(ctx),
		Products:   req.Products,
	})
	if err != nil {
		return nil, h.fail("AmendAndApprove", err)
	}
	return res, nil
}

func (h *CheckInHandler) Reject(ctx context.Context, req *RejectRequest) (*CheckInResponse, error) {
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
	return &CheckInResponse{Request: r}, nil
}

func (h *CheckInHandler) owned(ctx context.Context, id string) (*model.CheckInRequest, error) {
	r, err := h.uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.CompanyID != auth.GetCompanyID(ctx) {
		return nil, fmt.Errorf("check-in %s: %w", id, model.ErrNotFound)
	}
	return r, nil
}

func (h *CheckInHandler) fail(method string, err error) error {
	if apierr.Code(err) == codes.Internal {
		h.logger.Error("check-in handler failed", zap.String("method", method), zap.Error(err))
	}
	return apierr.ToStatus(err)
}
