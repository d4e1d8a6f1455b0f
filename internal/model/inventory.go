package model

import (
	"strings"
	"time"
)

// InventoryLot is stock received at one time. Lots are drawn down oldest
// ReceivedDate first. A nil variant pair marks base (untagged) stock.
type InventoryLot struct {
	ID               string    `db:"id" json:"id"`
	ProductID        string    `db:"product_id" json:"product_id"`
	CompanyID        string    `db:"company_id" json:"company_id"`
	VariantAttribute *string   `db:"variant_attribute" json:"variant_attribute"`
	VariantValue     *string   `db:"variant_value" json:"variant_value"`
	Quantity         int       `db:"quantity" json:"quantity"`
	ReceivedDate     time.Time `db:"received_date" json:"received_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (l *InventoryLot) Key() *VariantKey {
	if l.VariantValue == nil {
		return nil
	}
	k := &VariantKey{Value: *l.VariantValue}
	if l.VariantAttribute != nil {
		k.Attribute = *l.VariantAttribute
	}
	return k
}

// VariantKey identifies the variant leaf a lot backs. A nil *VariantKey
// means base stock.
type VariantKey struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

func (k *VariantKey) String() string {
	if k == nil {
		return "base"
	}
	if k.Attribute == "" {
		return k.Value
	}
	return k.Attribute + ": " + k.Value
}

// Matches compares a lot's stored pair against the key. Comparison ignores
// case and surrounding whitespace; an empty key attribute matches any.
func (k *VariantKey) Matches(attribute *string, value *string) bool {
	if k == nil {
		return value == nil
	}
	if value == nil || !sameLabel(*value, k.Value) {
		return false
	}
	if strings.TrimSpace(k.Attribute) == "" {
		return true
	}
	return attribute != nil && sameLabel(*attribute, k.Attribute)
}

func sameLabel(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
