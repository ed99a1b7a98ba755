package model

// Known catalog categories. Category is an open string; these are the ones
// the storefront renders sections for.
const (
	CategoryElectronics = "Electronicos"
	CategoryGames       = "Juegos"
)

type Product struct {
	BaseModel
	Name           string  `db:"name" json:"name"`
	Slug           string  `db:"slug" json:"slug"`
	Image          string  `db:"image" json:"image"`
	Description    *string `db:"description" json:"description"`
	Price          Fixed   `db:"price" json:"price"`
	Category       *string `db:"category" json:"category"`
	VendorID       *string `db:"vendor_id" json:"vendor_id"` // Nullable, platform-owned if nil
	CommissionRate Fixed   `db:"commission_rate" json:"commission_rate"`
}

func (p *Product) PlatformOwned() bool {
	return p.VendorID == nil || *p.VendorID == ""
}
