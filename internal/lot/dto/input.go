package dto

import (
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
)

type DepleteInput struct {
	CompanyID string `validate:"required"`
	ProductID string `validate:"required"`
	Key       *model.VariantKey
	Amount    int `validate:"gt=0"`
}

type ReceiveInput struct {
	CompanyID    string `validate:"required"`
	ProductID    string `validate:"required"`
	Key          *model.VariantKey
	Quantity     int `validate:"gt=0"`
	ReceivedDate time.Time
	// MergeBase adds to today's base lot instead of creating a new one.
	MergeBase bool
}
