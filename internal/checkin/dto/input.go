package dto

import "github.com/clearpath/warehouse-flow/internal/model"

type SubmitInput struct {
	CompanyID string                   `validate:"required"`
	Products  []model.RequestedProduct `validate:"min=1"`
	Notes     string
}

type ApproveInput struct {
	ID         string `validate:"required"`
	ReviewerID string
}

// AmendInput approves with a staff-edited copy of the request. The original
// request is kept on the record next to it.
type AmendInput struct {
	ID         string                   `validate:"required"`
	ReviewerID string
	Products   []model.RequestedProduct `validate:"min=1"`
}

type RejectInput struct {
	ID         string `validate:"required"`
	ReviewerID string
	Reason     string
}
