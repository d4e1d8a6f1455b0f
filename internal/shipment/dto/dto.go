package dto

import (
	lotdto "github.com/clearpath/warehouse-flow/internal/lot/dto"
	"github.com/clearpath/warehouse-flow/internal/model"
)

type ShipmentFilters struct {
	CompanyID string
	Page      int
	PageSize  int
}

// ItemOutcome reports what one item took from each store.
type ItemOutcome struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Requested int    `json:"requested"`
	Consumed  int    `json:"consumed"`
	Shortfall int    `json:"shortfall"`
	// LeafUpdated is false when the variant selection matched no leaf of the
	// catalog tree and only the lots moved.
	LeafUpdated bool                `json:"leaf_updated"`
	OnHand      int                 `json:"on_hand"`
	Allocations []lotdto.Allocation `json:"allocations"`

	Product *model.Product `json:"-"`
}

type ShipmentResult struct {
	Shipment *model.Shipment `json:"shipment"`
	Items    []ItemOutcome   `json:"items"`
	// Duplicate is set when the source event was already applied. Items is
	// empty then.
	Duplicate bool `json:"duplicate,omitempty"`
}

// ShipmentRequestedEvent is consumed from the shipments topic.
type ShipmentRequestedEvent struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Payload   ShipmentRequestPayload `json:"payload"`
}

type ShipmentRequestPayload struct {
	CompanyID         string              `json:"company_id"`
	Destination       string              `json:"destination"`
	RequestedBy       string              `json:"requested_by"`
	RejectOnShortfall bool                `json:"reject_on_shortfall"`
	Items             []ShipmentItemInput `json:"items"`
}
