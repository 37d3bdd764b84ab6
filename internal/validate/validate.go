package validate

import (
	"regexp"
	"strings"
)

var (
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone  = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
	reCoupon = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
	rePay    = regexp.MustCompile(`^(cash|card|online|bank_transfer)$`)
	reKind   = regexp.MustCompile(`^(product|material)$`)
)

// ID validates a simple resource identifier (product/material/zone ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 60 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || rePhone.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}

func CouponCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || reCoupon.MatchString(s)
}

func PaymentMethod(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, rePay.MatchString(s)
}

func ItemKind(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reKind.MatchString(s)
}

// Qty clamps an order line quantity into a sane window.
func Qty(n int) bool { return n >= 1 && n <= 1000 }
