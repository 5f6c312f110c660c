package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

// Basis constants: whether the input amount is pre-tax or tax-inclusive.
const (
	BasisNet   = "net"
	BasisGross = "gross"
)

// Supply type constants
const (
	SupplyGoods    = "goods"
	SupplyServices = "services"
)

// Mechanism constants
const (
	MechanismNormal        = "normal"
	MechanismReverseCharge = "reverse_charge"
	MechanismZeroRated     = "zero_rated"
	MechanismOutOfScope    = "out_of_scope"
)

type CalcRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Basis            string          `json:"basis" binding:"omitempty,oneof=net gross"`
	RateType         string          `json:"rate_type" binding:"omitempty,oneof=standard reduced super_reduced parking zero"`
	SupplyDate       string          `json:"supply_date"` // YYYY-MM-DD, defaults to today
	Supplier         Party           `json:"supplier" binding:"required"`
	Customer         Party           `json:"customer" binding:"required"`
	SupplyType       string          `json:"supply_type" binding:"omitempty,oneof=goods services"`
	TransactionClass string          `json:"b2x" binding:"omitempty,oneof=B2C B2B"`
	CategoryHint     string          `json:"category_hint"`
}

type CalcResult struct {
	CountryCode    string   `json:"country_code"`
	AppliedRate    string   `json:"applied_rate"` // percentage, e.g. "19.0"
	Net            string   `json:"net"`
	Vat            string   `json:"vat"`
	Gross          string   `json:"gross"`
	Mechanism      string   `json:"mechanism"` // normal, reverse_charge, zero_rated, out_of_scope
	Messages       []string `json:"messages"`
	VatCheckStatus string   `json:"vat_check_status,omitempty"` // validated, unavailable; omitted when not applicable
}

// --- Interface ---

type CalcService interface {
	Calculate(ctx context.Context, req CalcRequest) (CalcResult, error)
}

// EventBroadcaster pushes calculation events to connected dashboard clients.
// A nil broadcaster disables events.
type EventBroadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

type calcService struct {
	rates    *RateTable
	resolver *ReverseChargeResolver
	events   EventBroadcaster
}

func NewCalcService(rates *RateTable, resolver *ReverseChargeResolver, events EventBroadcaster) CalcService {
	return &calcService{rates: rates, resolver: resolver, events: events}
}

// --- Implementation ---

var hundred = decimal.NewFromInt(100)

// Calculate resolves the tax treatment for one transaction. Registry trouble
// never fails a calculation; only bad input or an unresolvable rate does.
func (s *calcService) Calculate(ctx context.Context, req CalcRequest) (CalcResult, error) {
	if !req.Amount.IsPositive() {
		return CalcResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	req.Supplier.CountryCode = strings.ToUpper(req.Supplier.CountryCode)
	req.Customer.CountryCode = strings.ToUpper(req.Customer.CountryCode)
	if err := ValidateCountryCode(req.Supplier.CountryCode); err != nil {
		return CalcResult{}, fmt.Errorf("supplier: %w", err)
	}
	if err := ValidateCountryCode(req.Customer.CountryCode); err != nil {
		return CalcResult{}, fmt.Errorf("customer: %w", err)
	}

	if req.Basis == "" {
		req.Basis = BasisNet
	}
	if req.RateType == "" {
		req.RateType = RateTypeStandard
	}
	if req.TransactionClass == "" {
		req.TransactionClass = TransactionB2C
	}

	supplyDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.SupplyDate != "" {
		parsed, err := time.Parse("2006-01-02", req.SupplyDate)
		if err != nil {
			return CalcResult{}, fmt.Errorf("%w: invalid supply_date (expected YYYY-MM-DD): %v", ErrInvalidInput, err)
		}
		supplyDate = parsed
	}

	decision := s.resolver.Resolve(ctx, req.Supplier, req.Customer, req.TransactionClass)

	if decision.Applies {
		// No domestic VAT component to separate: the basis is ignored and
		// liability shifts to the customer.
		amount := req.Amount.Round(2)
		result := CalcResult{
			CountryCode:    req.Customer.CountryCode,
			AppliedRate:    decimal.Zero.StringFixed(1),
			Net:            amount.StringFixed(2),
			Vat:            decimal.Zero.StringFixed(2),
			Gross:          amount.StringFixed(2),
			Mechanism:      MechanismReverseCharge,
			Messages:       append([]string{}, decision.Notes...),
			VatCheckStatus: decision.CheckStatus,
		}
		s.broadcast(result)
		return result, nil
	}

	rate, err := s.rates.Lookup(req.Customer.CountryCode, req.RateType, supplyDate, req.CategoryHint)
	if err != nil {
		return CalcResult{}, err
	}

	// Fixed rounding order: each derived field is rounded exactly once.
	// Deferring rounding changes cent-level outputs.
	var net, vat, gross decimal.Decimal
	if req.Basis == BasisGross {
		gross = req.Amount.Round(2)
		net = gross.Mul(hundred).Div(hundred.Add(rate)).Round(2)
		vat = gross.Sub(net).Round(2)
	} else {
		net = req.Amount.Round(2)
		vat = net.Mul(rate).Div(hundred).Round(2)
		gross = net.Add(vat).Round(2)
	}

	mechanism := MechanismNormal
	if rate.IsZero() {
		mechanism = MechanismZeroRated
	}

	messages := append([]string{}, decision.Notes...)
	if req.TransactionClass == TransactionB2B && req.Supplier.CountryCode != req.Customer.CountryCode {
		messages = append(messages, "no reverse charge applied; VAT charged normally")
	}

	result := CalcResult{
		CountryCode: req.Customer.CountryCode,
		AppliedRate: rate.StringFixed(1),
		Net:         net.StringFixed(2),
		Vat:         vat.StringFixed(2),
		Gross:       gross.StringFixed(2),
		Mechanism:   mechanism,
		Messages:    messages,
	}
	if decision.CheckStatus != CheckStatusNotApplicable {
		result.VatCheckStatus = decision.CheckStatus
	}

	s.broadcast(result)
	return result, nil
}

func (s *calcService) broadcast(result CalcResult) {
	if s.events == nil {
		return
	}
	s.events.BroadcastEvent("calculation", map[string]interface{}{
		"country_code": result.CountryCode,
		"mechanism":    result.Mechanism,
		"gross":        result.Gross,
	})
}
