package security

import (
	"fmt"
	"strings"
)

// CleanTaxID strips everything but digits from a CPF string.
func CleanTaxID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateTaxID checks the CPF check digits. Input may be formatted or raw.
func ValidateTaxID(raw string) error {
	digits := CleanTaxID(raw)
	if len(digits) != 11 {
		return fmt.Errorf("cpf must have 11 digits, got %d", len(digits))
	}

	// all-equal sequences pass the checksum but are not valid documents
	allEqual := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			allEqual = false
			break
		}
	}
	if allEqual {
		return fmt.Errorf("cpf %s is a repeated sequence", digits)
	}

	if checkDigit(digits, 9) != int(digits[9]-'0') {
		return fmt.Errorf("cpf first check digit mismatch")
	}
	if checkDigit(digits, 10) != int(digits[10]-'0') {
		return fmt.Errorf("cpf second check digit mismatch")
	}
	return nil
}

// FormatTaxID renders cleaned CPF digits as 000.000.000-00. Inputs that are
// not 11 digits long are returned unchanged.
func FormatTaxID(raw string) string {
	digits := CleanTaxID(raw)
	if len(digits) != 11 {
		return raw
	}
	return fmt.Sprintf("%s.%s.%s-%s", digits[0:3], digits[3:6], digits[6:9], digits[9:11])
}

func checkDigit(digits string, length int) int {
	sum := 0
	for i := 0; i < length; i++ {
		sum += int(digits[i]-'0') * (length + 1 - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}
