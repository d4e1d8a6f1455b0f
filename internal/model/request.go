package model

import (
	"database/sql/driver"
	"time"

	"github.com/clearpath/warehouse-flow/internal/variant"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// CheckInRequest asks the warehouse to take products into storage. Once
// reviewed, ReviewedAt is the instant the request affects the ledger.
type CheckInRequest struct {
	BaseModel
	CompanyID         string            `db:"company_id" json:"company_id"`
	Status            Status            `db:"status" json:"status"`
	RequestedProducts RequestedProducts `db:"requested_products" json:"requested_products"`
	AmendedProducts   RequestedProducts `db:"amended_products" json:"amended_products"`
	WasAmended        bool              `db:"was_amended" json:"was_amended"`
	RejectionReason   *string           `db:"rejection_reason" json:"rejection_reason"`
	ReviewedAt        *time.Time        `db:"reviewed_at" json:"reviewed_at"`
	ReviewedBy        *string           `db:"reviewed_by" json:"reviewed_by"`
	Notes             *string           `db:"notes" json:"notes"`
}

// EffectiveProducts is what was actually received: the amended set when the
// request was amended, the original request otherwise.
func (r *CheckInRequest) EffectiveProducts() RequestedProducts {
	if r.WasAmended && r.AmendedProducts != nil {
		return r.AmendedProducts
	}
	return r.RequestedProducts
}

// RequestedProduct is one product line of a check-in. Products without
// variants carry their count in Quantity.
type RequestedProduct struct {
	// ProductID is filled in on approval with the catalog row created for
	// this line.
	ProductID string       `json:"product_id,omitempty"`
	Name      string       `json:"name"`
	SKU       string       `json:"sku,omitempty"`
	Quantity  int          `json:"quantity"`
	Variants  variant.Tree `json:"variants"`
}

func (p RequestedProduct) TotalQuantity() int {
	if !p.Variants.IsEmpty() {
		return variant.TotalQuantity(p.Variants)
	}
	return p.Quantity
}

type RequestedProducts []RequestedProduct

func (p RequestedProducts) Value() (driver.Value, error) { return jsonValue(p, p == nil) }
func (p *RequestedProducts) Scan(src any) error        { return jsonScan(src, p) }

// CheckOutRequest asks for stock to be released back to the client. Items
// record product names and variant values as strings, not foreign keys.
type CheckOutRequest struct {
	BaseModel
	CompanyID       string         `db:"company_id" json:"company_id"`
	Status          Status         `db:"status" json:"status"`
	RequestedItems  RequestedItems `db:"requested_items" json:"requested_items"`
	RejectionReason *string        `db:"rejection_reason" json:"rejection_reason"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewed_at"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewed_by"`
	Notes           *string        `db:"notes" json:"notes"`
}

type RequestedItem struct {
	ProductID        *string `json:"product_id,omitempty"`
	ProductName      string  `json:"product_name"`
	VariantAttribute *string `json:"variant_attribute,omitempty"`
	VariantValue     *string `json:"variant_value,omitempty"`
	Quantity         int     `json:"quantity"`
}

type RequestedItems []RequestedItem

func (i RequestedItems) Value() (driver.Value, error) { return jsonValue(i, i == nil) }
func (i *RequestedItems) Scan(src any) error        { return jsonScan(src, i) }
