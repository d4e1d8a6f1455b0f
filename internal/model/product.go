package model

import "github.com/clearpath/warehouse-flow/internal/variant"

// Product is a catalog row owned by a company. Variants is the canonical
// on-hand quantity shown to clients; products without variants keep their
// stock in Quantity.
type Product struct {
	BaseModel
	CompanyID string       `db:"company_id" json:"company_id"`
	Name      string       `db:"name" json:"name"`
	SKU       *string      `db:"sku" json:"sku"`
	Quantity  int          `db:"quantity" json:"quantity"`
	Variants  variant.Tree `db:"variants" json:"variants"`
}

func (p *Product) HasVariants() bool {
	return !p.Variants.IsEmpty()
}

// OnHand is the client-visible available quantity.
func (p *Product) OnHand() int {
	if p.HasVariants() {
		return variant.TotalQuantity(p.Variants)
	}
	return p.Quantity
}
