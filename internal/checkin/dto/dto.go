package dto

import "github.com/clearpath/warehouse-flow/internal/model"

type CheckInFilters struct {
	CompanyID string
	Status    model.Status
	Page      int
	PageSize  int
}

// ItemOutcome is the result of approving one product line.
type ItemOutcome struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	ProductID string `json:"product_id,omitempty"`
	LotID     string `json:"lot_id,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (o ItemOutcome) OK() bool {
	return o.Error == ""
}

type ApprovalResult struct {
	Request   *model.CheckInRequest `json:"request"`
	Items     []ItemOutcome         `json:"items"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// ApprovedEvent is published after a check-in is approved.
type ApprovedEvent struct {
	EventType  string   `json:"event_type"`
	RequestID  string   `json:"request_id"`
	CompanyID  string   `json:"company_id"`
	WasAmended bool     `json:"was_amended"`
	ProductIDs []string `json:"product_ids"`
	ReviewedAt string   `json:"reviewed_at"`
}
