package secrets

import (
	"strings"
	"unicode"
)

// Kind selects the display mask for a sensitive value.
type Kind int

const (
	KindGeneric Kind = iota
	KindNationalID
	KindBankAccount
	KindPhone
)

const (
	placeholder    = "XXXX"
	altPlaceholder = "****"
)

// Mask hides all but a short suffix of plaintext. It is pure and does not
// depend on any key; the result never contains the full input.
//
//	national id (12 digits)  123456789012 -> XXXX-XXXX-9012
//	bank account             001234567890 -> XXXXX7890
//	phone                    9876543210   -> 987XXXXX10
//	anything of <= 4 chars   1234         -> XXXX
func Mask(kind Kind, plaintext string) string {
	s := strings.TrimSpace(plaintext)
	if s == "" {
		return ""
	}
	out := mask(kind, []rune(s))
	if !strings.Contains(out, s) {
		return out
	}
	// Inputs made of placeholder characters would survive the mask.
	if strings.Contains(placeholder, s) {
		return altPlaceholder
	}
	return placeholder
}

func mask(kind Kind, r []rune) string {
	if len(r) <= 4 {
		return placeholder
	}

	switch kind {
	case KindNationalID:
		if len(r) == 12 && allDigits(r) {
			return "XXXX-XXXX-" + string(r[8:])
		}
	case KindBankAccount:
		return "XXXXX" + string(r[len(r)-4:])
	case KindPhone:
		if len(r) >= 8 {
			return string(r[:3]) + "XXXXX" + string(r[len(r)-2:])
		}
	case KindGeneric:
	}

	return placeholder + string(r[len(r)-4:])
}

func allDigits(r []rune) bool {
	for _, c := range r {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}
