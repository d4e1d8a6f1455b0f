package model

import "time"

type EventKind string

const (
	EventCheckIn  EventKind = "check_in"
	EventCheckOut EventKind = "check_out"
)

// LedgerEvent is an approved check-in or check-out flattened to the lines
// that moved stock, stamped with its review time.
type LedgerEvent struct {
	ID         string       `json:"id"`
	Kind       EventKind    `json:"kind"`
	CompanyID  string       `json:"company_id"`
	ReviewedAt time.Time    `json:"reviewed_at"`
	Lines      []LedgerLine `json:"lines"`
}

// LedgerLine is one product/variant quantity. VariantValue is nil for base
// stock.
type LedgerLine struct {
	ProductID    *string `json:"product_id,omitempty"`
	ProductName  string  `json:"product_name"`
	VariantValue *string `json:"variant_value,omitempty"`
	Quantity     int     `json:"quantity"`
}
