package dto

import "github.com/clearpath/warehouse-flow/internal/variant"

type CreateProductInput struct {
	CompanyID string `validate:"required"`
	Name      string `validate:"required"`
	SKU       string
	Quantity  int `validate:"gte=0"`
	Variants  variant.Tree
}

type UpdateProductInput struct {
	ID        string `validate:"required"`
	CompanyID string `validate:"required"`
	Name      string `validate:"required"`
	SKU       string
}
