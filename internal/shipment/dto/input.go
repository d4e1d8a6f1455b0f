package dto

type CreateShipmentInput struct {
	CompanyID   string              `validate:"required"`
	Destination string              `validate:"required"`
	Items       []ShipmentItemInput `validate:"min=1,dive"`
	CreatedBy   string
	// RejectOnShortfall rolls the whole shipment back when any item cannot
	// be covered by lots.
	RejectOnShortfall bool
	// SourceEventID makes creation idempotent per broker event. A second
	// call with the same id returns the first shipment untouched.
	SourceEventID string
}

type ShipmentItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	// Variant is the selection as entered, e.g. "Size: Large" or a deeper
	// path. Empty ships base stock.
	Variant  string `json:"variant"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type DeductInput struct {
	CompanyID         string `validate:"required"`
	ProductID         string `validate:"required"`
	Variant           string
	Quantity          int `validate:"gt=0"`
	RejectOnShortfall bool
}
