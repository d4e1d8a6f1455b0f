package model

import "time"

type Shipment struct {
	BaseModel
	CompanyID   string         `db:"company_id" json:"company_id"`
	Destination string         `db:"destination" json:"destination"`
	CreatedBy   *string        `db:"created_by" json:"created_by"`
	// SourceEventID is the broker event the shipment was created from.
	SourceEventID *string        `db:"source_event_id" json:"source_event_id,omitempty"`
	Items         []ShipmentItem `db:"-" json:"items"`
}

// ShipmentItem records what was asked for at creation time. Variant holds
// the selection as entered, possibly a compound path.
type ShipmentItem struct {
	ID         string    `db:"id" json:"id"`
	ShipmentID string    `db:"shipment_id" json:"shipment_id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	Variant    *string   `db:"variant" json:"variant"`
	Quantity   int       `db:"quantity" json:"quantity"`
	Consumed   int       `db:"consumed" json:"consumed"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
