package types

import "fmt"

// OfferType represents the kind of retention offer
type OfferType string

const (
	OfferTypeCredits  OfferType = "CREDITS"
	OfferTypeDiscount OfferType = "DISCOUNT"
	OfferTypeTerms    OfferType = "TERMS"
	OfferTypeCustom   OfferType = "CUSTOM"
)

// AllOfferTypes returns all valid offer types in form display order
func AllOfferTypes() []OfferType {
	return []OfferType{
		OfferTypeCredits,
		OfferTypeDiscount,
		OfferTypeTerms,
		OfferTypeCustom,
	}
}

// IsValid checks if the offer type is valid
func (t OfferType) IsValid() bool {
	switch t {
	case OfferTypeCredits, OfferTypeDiscount, OfferTypeTerms, OfferTypeCustom:
		return true
	default:
		return false
	}
}

// Label returns the human readable name used in the offer form
func (t OfferType) Label() string {
	switch t {
	case OfferTypeCredits:
		return "Free credits"
	case OfferTypeDiscount:
		return "Discount"
	case OfferTypeTerms:
		return "Reduced terms"
	case OfferTypeCustom:
		return "Custom"
	default:
		return string(t)
	}
}

func (t OfferType) String() string {
	return string(t)
}

// ParseOfferType parses a string into an OfferType
func ParseOfferType(s string) (OfferType, error) {
	t := OfferType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid offer type: %s", s)
	}
	return t, nil
}
