package payment

import (
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-storefront-service/internal/apperr"
)

// NormalizeNumber strips the spaces and dashes customers type between digit groups.
func NormalizeNumber(number string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(number)
}

// ValidateCard checks card fields before they are submitted to the processor.
func ValidateCard(card Card, now time.Time) error {
	fields := map[string]string{}

	if strings.TrimSpace(card.HolderName) == "" {
		fields["name"] = "required"
	}

	number := NormalizeNumber(card.Number)
	switch {
	case number == "":
		fields["cardNumber"] = "required"
	case !isDigits(number) || len(number) < 15 || len(number) > 16:
		fields["cardNumber"] = "must be 15 or 16 digits"
	}

	if reason := checkExpiry(card.Expiry, now); reason != "" {
		fields["expiry"] = reason
	}

	cvc := strings.TrimSpace(card.CVC)
	switch {
	case cvc == "":
		fields["cvc"] = "required"
	case !isDigits(cvc) || len(cvc) < 3 || len(cvc) > 4:
		fields["cvc"] = "must be 3 or 4 digits"
	}

	if len(fields) > 0 {
		return apperr.NewValidation("card_invalid", fields)
	}
	return nil
}

func checkExpiry(expiry string, now time.Time) string {
	expiry = strings.TrimSpace(expiry)
	if expiry == "" {
		return "required"
	}
	mm, yy, ok := strings.Cut(expiry, "/")
	if !ok || len(mm) != 2 || len(yy) != 2 || !isDigits(mm) || !isDigits(yy) {
		return "must be MM/YY"
	}
	month, _ := strconv.Atoi(mm)
	year, _ := strconv.Atoi(yy)
	if month < 1 || month > 12 {
		return "must be MM/YY"
	}

	curYear := now.Year() % 100
	curMonth := int(now.Month())
	if year < curYear || (year == curYear && month < curMonth) {
		return "card has expired"
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
