package service

import (
	"context"
	"strings"
)

// Transaction class constants
const (
	TransactionB2C = "B2C"
	TransactionB2B = "B2B"
)

// Party is one side of a transaction.
type Party struct {
	CountryCode string `json:"country_code" binding:"required,len=2"`
	VatNumber   string `json:"vat_number"`
}

// Decision is the reverse-charge outcome with the registry check status and
// any explanatory notes for the invoice.
type Decision struct {
	Applies     bool
	CheckStatus string // validated, unavailable, not_applicable
	Notes       []string
}

// ReverseChargeResolver decides whether intra-EU reverse charge applies.
// Reverse charge is a legal exception that needs a positively validated
// foreign business counterparty; any uncertainty resolves toward charging
// tax normally, never toward exempting.
type ReverseChargeResolver struct {
	validator VatNumberValidator
}

func NewReverseChargeResolver(validator VatNumberValidator) *ReverseChargeResolver {
	return &ReverseChargeResolver{validator: validator}
}

// Resolve evaluates the rules in order; the first matching rule wins.
func (r *ReverseChargeResolver) Resolve(ctx context.Context, supplier, customer Party, transactionClass string) Decision {
	if transactionClass != TransactionB2B {
		return Decision{CheckStatus: CheckStatusNotApplicable}
	}

	supplierCC := strings.ToUpper(supplier.CountryCode)
	customerCC := strings.ToUpper(customer.CountryCode)

	if supplierCC == customerCC {
		// Domestic supply.
		return Decision{CheckStatus: CheckStatusNotApplicable}
	}

	if !IsEUCountry(supplierCC) || !IsEUCountry(customerCC) {
		return Decision{
			CheckStatus: CheckStatusNotApplicable,
			Notes:       []string{"no EU intra-community supply → no reverse charge."},
		}
	}

	if strings.TrimSpace(customer.VatNumber) == "" {
		// Nothing to check against the registry, so no positive validation.
		return Decision{
			CheckStatus: CheckStatusUnavailable,
			Notes:       []string{"customer VAT number invalid or unavailable → reverse charge not applied."},
		}
	}

	number := strings.ToUpper(nonAlnumRe.ReplaceAllLiteralString(customer.VatNumber, ""))
	number = strings.TrimPrefix(number, customerCC)

	result := r.validator.Validate(ctx, customerCC, number)
	if result.Valid {
		return Decision{Applies: true, CheckStatus: CheckStatusValidated}
	}

	return Decision{
		CheckStatus: result.Status,
		Notes:       []string{"customer VAT number invalid or unavailable → reverse charge not applied."},
	}
}
