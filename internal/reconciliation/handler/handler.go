package handler

import (
	"context"

	"github.com/clearpath/warehouse-flow/internal/apierr"
	"github.com/clearpath/warehouse-flow/internal/auth"
	"github.com/clearpath/warehouse-flow/internal/reconciliation"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/dto"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/jarde"
	"github.com/clearpath/warehouse-flow/pkg/grpcjson"
	"github.com/clearpath/warehouse-flow/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

const serviceName = "warehouse.v1.ReconciliationService"

// MethodPrefix matches every method of the service. Calls without a company
// header reconcile all companies.
const MethodPrefix = "/" + serviceName + "/"

type GenerateRequest struct {
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Match   jarde.MatchMode     `json:"match"`
	Actuals []jarde.ActualCount `json:"actuals"`
}

type ReconciliationServer interface {
	GenerateReport(ctx context.Context, req *GenerateRequest) (*dto.Report, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ReconciliationServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Unary(serviceName, "GenerateReport", ReconciliationServer.GenerateReport),
	},
}

func Register(s grpc.ServiceRegistrar, h ReconciliationServer) {
	s.RegisterService(&ServiceDesc, h)
}

type ReconciliationHandler struct {
	uc     reconciliation.UseCase
	logger logger.ZapLogger
}

func NewReconciliationHandler(uc reconciliation.UseCase, log logger.ZapLogger) *ReconciliationHandler {
	return &ReconciliationHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ReconciliationHandler) GenerateReport(ctx context.Context, req *GenerateRequest) (*dto.Report, error) {
	input := &dto.GenerateInput{
		Start:   req.Start,
		End:     req.End,
		Match:   req.Match,
		Actuals: req.Actuals,
	}
	if companyID := auth.GetCompanyID(ctx); companyID != "" {
		input.CompanyID = &companyID
	}

	report, err := h.uc.Generate(ctx, input)
	if err != nil {
		if apierr.Code(err) == codes.Internal {
			h.logger.Error("reconciliation failed", zap.Error(err))
		}
		return nil, apierr.ToStatus(err)
	}
	return report, nil
}
