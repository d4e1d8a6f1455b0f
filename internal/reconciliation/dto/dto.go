package dto

import (
	"time"

	"github.com/clearpath/warehouse-flow/internal/reconciliation/jarde"
)

type GenerateInput struct {
	// CompanyID nil reconciles every company.
	CompanyID *string
	Start     string          `validate:"required,datetime=2006-01-02"`
	End       string          `validate:"required,datetime=2006-01-02"`
	Match     jarde.MatchMode `validate:"omitempty,oneof=name id"`
	Actuals   []jarde.ActualCount
}

type Report struct {
	Start       time.Time             `json:"start"`
	End         time.Time             `json:"end"`
	Match       jarde.MatchMode       `json:"match"`
	GeneratedAt time.Time             `json:"generated_at"`
	Companies   []jarde.CompanyReport `json:"companies"`
}
