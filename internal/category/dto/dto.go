package dto

type CategoryFilters struct {
	VendorID string
	// IncludeEmpty adds known categories that have no products yet.
	IncludeEmpty bool
}

type CategoryCount struct {
	Name         string `db:"category" json:"name"`
	ProductCount int    `db:"product_count" json:"product_count"`
}
