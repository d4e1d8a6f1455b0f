package dto

type ProductFilters struct {
	CompanyID   string
	SearchQuery string // name or sku
	SortBy      string // name, quantity, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
