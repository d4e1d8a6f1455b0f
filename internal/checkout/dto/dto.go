package dto

import "github.com/clearpath/warehouse-flow/internal/model"

type CheckOutFilters struct {
	CompanyID string
	Status    model.Status
	Page      int
	PageSize  int
}

type ItemOutcome struct {
	Index       int    `json:"index"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name"`
	Variant     string `json:"variant,omitempty"`
	Quantity    int    `json:"quantity"`
	Consumed    int    `json:"consumed"`
	Shortfall   int    `json:"shortfall"`
	Error       string `json:"error,omitempty"`
}

type ApprovalResult struct {
	Request   *model.CheckOutRequest `json:"request"`
	Items     []ItemOutcome          `json:"items"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}
