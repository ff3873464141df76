package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	poNoRegex    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._/#-]*$`)
)

// MaxPoNoLength is the longest PO number accepted
const MaxPoNoLength = 50

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidatePoNo checks a purchase order number
func ValidatePoNo(poNo string) error {
	if poNo == "" {
		return fmt.Errorf("po number is required")
	}
	if utf8.RuneCountInString(poNo) > MaxPoNoLength {
		return fmt.Errorf("po number exceeds %d characters", MaxPoNoLength)
	}
	if !poNoRegex.MatchString(poNo) {
		return fmt.Errorf("po number contains invalid characters: %q", poNo)
	}
	return nil
}

// ValidateQuantity rejects negative item quantities
func ValidateQuantity(q decimal.Decimal) error {
	if q.IsNegative() {
		return fmt.Errorf("quantity must not be negative: %s", q.String())
	}
	return nil
}

// SanitizeString strips control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
