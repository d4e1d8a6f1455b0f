package dto

import "github.com/clearpath/warehouse-flow/internal/model"

type SubmitInput struct {
	CompanyID string                `validate:"required"`
	Items     []model.RequestedItem `validate:"min=1"`
	Notes     string
}

type ApproveInput struct {
	ID         string `validate:"required"`
	ReviewerID string
}

type RejectInput struct {
	ID         string `validate:"required"`
	ReviewerID string
	Reason     string
}
