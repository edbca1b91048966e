package domain

import "strings"

// Brazilian tax document lengths after normalization.
const (
	cpfLength  = 11 // natural person (CPF)
	cnpjLength = 14 // legal entity (CNPJ)
)

// NormalizeTaxID strips formatting from a CPF or CNPJ and validates its shape.
// Accepts punctuated input ("123.456.789-00", "12.345.678/0001-90") and
// returns the bare digit string. Shape validation happens locally so malformed
// documents never reach the payment gateway.
func NormalizeTaxID(raw string) (string, error) {
	var b strings.Builder
	b.Grow(cnpjLength)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) != cpfLength && len(digits) != cnpjLength {
		return "", Errorf(EINVALID, "taxid.normalize", "tax document must have %d or %d digits, got %d", cpfLength, cnpjLength, len(digits))
	}

	return digits, nil
}

// IsCompanyTaxID reports whether a normalized tax document identifies a
// legal entity (CNPJ) rather than a natural person (CPF).
func IsCompanyTaxID(normalized string) bool {
	return len(normalized) == cnpjLength
}
