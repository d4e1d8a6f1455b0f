package dto

import "github.com/clearpath/warehouse-flow/internal/model"

// Allocation is what one lot contributed to a depletion.
type Allocation struct {
	LotID     string            `json:"lot_id"`
	Key       *model.VariantKey `json:"key"`
	Taken     int               `json:"taken"`
	Remaining int               `json:"remaining"`
	Deleted   bool              `json:"deleted"`
	// Fallback is set when the lot is base stock drawn for a variant request.
	Fallback bool `json:"fallback"`
}

type DepletionResult struct {
	ProductID   string            `json:"product_id"`
	Key         *model.VariantKey `json:"key"`
	Requested   int               `json:"requested"`
	Consumed    int               `json:"consumed"`
	Shortfall   int               `json:"shortfall"`
	Allocations []Allocation      `json:"allocations"`
}

// Err returns a *model.ShortfallError when stock ran out, nil otherwise.
func (r *DepletionResult) Err() error {
	if r.Shortfall == 0 {
		return nil
	}
	return &model.ShortfallError{
		ProductID: r.ProductID,
		Key:       r.Key,
		Requested: r.Requested,
		Shortfall: r.Shortfall,
	}
}
