package domain

import "strings"

// Brand identifies the card network inferred from the issuer prefix.
type Brand string

const (
	BrandVisa       Brand = "Visa"
	BrandMastercard Brand = "Mastercard"
	BrandAmex       Brand = "AmEx"
	BrandDiscover   Brand = "Discover"
	// BrandGeneric is the fallback when no known prefix matches.
	BrandGeneric Brand = "Card"
)

// minCardDigits is the minimum digit count accepted by the Luhn check.
const minCardDigits = 12

// digitsOnly strips every non-digit rune from the input.
func digitsOnly(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LuhnValid reports whether the input passes the Luhn checksum after
// stripping non-digits. Inputs with fewer than 12 digits are always invalid.
func LuhnValid(raw string) bool {
	s := digitsOnly(raw)
	if len(s) < minCardDigits {
		return false
	}

	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// BrandFromIIN classifies a card number by its issuer prefix and length.
// The result is display metadata only, not a validity guarantee.
func BrandFromIIN(raw string) Brand {
	s := digitsOnly(raw)
	n := len(s)

	switch {
	case strings.HasPrefix(s, "4") && n >= 13 && n <= 19:
		return BrandVisa
	case isMastercardPrefix(s) && n == 16:
		return BrandMastercard
	case (strings.HasPrefix(s, "34") || strings.HasPrefix(s, "37")) && n == 15:
		return BrandAmex
	case isDiscoverPrefix(s) && n >= 14 && n <= 19:
		return BrandDiscover
	default:
		return BrandGeneric
	}
}

// isMastercardPrefix matches the 51-55 range and the 2221-2720 BIN range.
func isMastercardPrefix(s string) bool {
	if len(s) >= 2 && s[0] == '5' && s[1] >= '1' && s[1] <= '5' {
		return true
	}
	if len(s) < 4 {
		return false
	}
	bin := int(s[0]-'0')*1000 + int(s[1]-'0')*100 + int(s[2]-'0')*10 + int(s[3]-'0')
	return bin >= 2221 && bin <= 2720
}

// isDiscoverPrefix matches 6011, 65, and 644-649.
func isDiscoverPrefix(s string) bool {
	if strings.HasPrefix(s, "6011") || strings.HasPrefix(s, "65") {
		return true
	}
	return len(s) >= 3 && s[0] == '6' && s[1] == '4' && s[2] >= '4' && s[2] <= '9'
}

// Last4 returns the last four digits of the stripped input, or the whole
// stripped input when shorter than four digits.
func Last4(raw string) string {
	s := digitsOnly(raw)
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

// MaskCard renders the standard masked display form of a card number.
func MaskCard(raw string) string {
	return "•••• •••• •••• " + Last4(raw)
}
