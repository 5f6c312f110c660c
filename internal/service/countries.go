package service

import (
	"fmt"
	"regexp"
	"strings"
)

// EU VAT jurisdiction codes. "EL" is Greece (not GR) and "XI" is Northern
// Ireland, which stays inside the EU VAT area for goods.
var euCountryCodes = map[string]bool{
	"AT": true, "BE": true, "BG": true, "CY": true, "CZ": true, "DE": true,
	"DK": true, "EE": true, "EL": true, "ES": true, "FI": true, "FR": true,
	"HR": true, "HU": true, "IE": true, "IT": true, "LT": true, "LU": true,
	"LV": true, "MT": true, "NL": true, "PL": true, "PT": true, "RO": true,
	"SE": true, "SI": true, "SK": true, "XI": true,
}

// IsEUCountry reports whether code is a participating EU VAT jurisdiction.
func IsEUCountry(code string) bool {
	return euCountryCodes[strings.ToUpper(code)]
}

var (
	nonAlnumRe     = regexp.MustCompile(`[^A-Za-z0-9]`)
	countryCodeRe  = regexp.MustCompile(`^[A-Z]{2}$`)
	vatNumberBody  = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// ValidateCountryCode checks the ISO-3166-1 alpha-2 shape (two uppercase letters).
func ValidateCountryCode(code string) error {
	if !countryCodeRe.MatchString(code) {
		return fmt.Errorf("%w: country code must be two uppercase letters, got %q", ErrInvalidInput, code)
	}
	return nil
}

// NormalizeVatInputs accepts either a full VAT identifier ("DE123456789") or a
// separate country code plus number, strips separators and whitespace, and
// splits into (countryCode, number). The country prefix must be an EU VAT
// jurisdiction code.
func NormalizeVatInputs(vatNumber, countryCode, number string) (string, string, error) {
	var cc, num string

	if vatNumber != "" {
		raw := strings.ToUpper(nonAlnumRe.ReplaceAllLiteralString(vatNumber, ""))
		if len(raw) < 3 {
			return "", "", fmt.Errorf("%w: VAT number too short", ErrInvalidInput)
		}
		cc = raw[:2]
		num = raw[2:]
	} else {
		if countryCode == "" || number == "" {
			return "", "", fmt.Errorf("%w: provide either 'vat_number' or both 'country_code' and 'number'", ErrInvalidInput)
		}
		cc = strings.ToUpper(nonAlnumRe.ReplaceAllLiteralString(countryCode, ""))
		num = nonAlnumRe.ReplaceAllLiteralString(number, "")
	}

	if !IsEUCountry(cc) {
		return "", "", fmt.Errorf("%w: not an EU VAT country code: %s", ErrInvalidInput, cc)
	}
	if num == "" || !vatNumberBody.MatchString(num) {
		return "", "", fmt.Errorf("%w: VAT number missing or contains invalid characters", ErrInvalidInput)
	}

	return cc, num, nil
}
