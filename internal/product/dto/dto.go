package dto

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/fekuna/omnipos-marketplace-service/internal/apperror"
	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

const (
	MaxNameLength     = 100
	MaxCategoryLength = 15
)

type ProductFilters struct {
	Category    string `json:"category,omitempty"`
	VendorID    string `json:"vendor_id,omitempty"`
	SearchQuery string `json:"q,omitempty"` // Name search, served by the index when available
}

type CreateProductInput struct {
	Name           string       `json:"name"`
	Image          string       `json:"image"`
	Description    *string      `json:"description"`
	Price          model.Fixed  `json:"price"`
	Category       *string      `json:"category"`
	VendorID       *string      `json:"vendor_id"`
	CommissionRate *model.Fixed `json:"commission_rate"` // Platform default when nil
}

func (in *CreateProductInput) Validate() error {
	if err := ValidateListing(in.Name, in.Image, in.Price, in.Category); err != nil {
		return err
	}
	if in.CommissionRate != nil {
		r := *in.CommissionRate
		if r.IsNegative() || r.Decimal().GreaterThan(model.MustFixed("100").Decimal()) {
			return apperror.Validation("commission_rate must be between 0 and 100")
		}
	}
	return nil
}

// ValidateListing checks the fields shared by products and seller requests.
func ValidateListing(name, image string, price model.Fixed, category *string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return apperror.Validation("name must be 1 to %d characters", MaxNameLength)
	}
	if err := validateImage(image); err != nil {
		return err
	}
	if price.IsNegative() {
		return apperror.Validation("price must not be negative")
	}
	if category != nil && utf8.RuneCountInString(*category) > MaxCategoryLength {
		return apperror.Validation("category must be at most %d characters", MaxCategoryLength)
	}
	return nil
}

// Image is an opaque reference produced by the media store: an absolute
// http(s) URL or a storage path.
func validateImage(image string) error {
	image = strings.TrimSpace(image)
	if image == "" {
		return apperror.Validation("image is required")
	}
	if strings.ContainsAny(image, " \t\n") {
		return apperror.Validation("image must not contain whitespace")
	}
	u, err := url.Parse(image)
	if err != nil {
		return apperror.Validation("image is not a valid reference")
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return apperror.Validation("image scheme %q is not allowed", u.Scheme)
	}
	return nil
}
