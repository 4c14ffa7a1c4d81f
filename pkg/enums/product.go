package enums

// ProductStatus maps to the product_status enum in Postgres.
type ProductStatus string

const (
	ProductStatusAvailable  ProductStatus = "available"
	ProductStatusSoldOut    ProductStatus = "sold_out"
	ProductStatusComingSoon ProductStatus = "coming_soon"
)

var validProductStatuses = []ProductStatus{
	ProductStatusAvailable,
	ProductStatusSoldOut,
	ProductStatusComingSoon,
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value matches the canonical product_status enum.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}
