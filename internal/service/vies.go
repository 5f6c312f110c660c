package service

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// VAT check status values. The registry check is tri-state: a completed check
// (validated) may still say the number is not valid; unavailable means the
// registry could not be consulted at all.
const (
	CheckStatusValidated     = "validated"
	CheckStatusUnavailable   = "unavailable"
	CheckStatusNotApplicable = "not_applicable"
)

// CheckResult is the outcome of one registry consultation.
type CheckResult struct {
	Valid            bool
	Status           string // validated, unavailable
	Name             string
	Address          string
	RequestDateRaw   string     // VIES free-text date, verbatim
	ConsultationDate *time.Time // parsed from RequestDateRaw, nil if unparsable
	CheckedAt        time.Time
}

// VatNumberValidator consults the EU VIES registry. Implementations must fail
// softly: transport errors, faults and timeouts degrade to
// Status=unavailable, never to a hard error.
type VatNumberValidator interface {
	Validate(ctx context.Context, countryCode, number string) CheckResult
}

const (
	defaultViesEndpoint = "https://ec.europa.eu/taxation_customs/vies/services/checkVatService"
	viesTimeout         = 10 * time.Second
)

// ViesClient calls the official VIES checkVat SOAP operation.
type ViesClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewViesClient builds a client with the mandatory bounded timeout. An empty
// endpoint selects the official VIES service URL.
func NewViesClient(endpoint string) *ViesClient {
	if endpoint == "" {
		endpoint = defaultViesEndpoint
	}
	return &ViesClient{
		httpClient: &http.Client{Timeout: viesTimeout},
		endpoint:   endpoint,
	}
}

const checkVatEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:urn="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
  <soapenv:Body>
    <urn:checkVat>
      <urn:countryCode>%s</urn:countryCode>
      <urn:vatNumber>%s</urn:vatNumber>
    </urn:checkVat>
  </soapenv:Body>
</soapenv:Envelope>`

// checkVatSoapResponse matches the checkVat response body by local element
// names, ignoring namespaces. VIES is known to return requestDate in odd
// shapes ("2025-09-10+02:00"), so it stays a string here.
type checkVatSoapResponse struct {
	Body struct {
		CheckVatResponse struct {
			CountryCode string `xml:"countryCode"`
			VatNumber   string `xml:"vatNumber"`
			RequestDate string `xml:"requestDate"`
			Valid       bool   `xml:"valid"`
			Name        string `xml:"name"`
			Address     string `xml:"address"`
		} `xml:"checkVatResponse"`
		Fault struct {
			FaultString string `xml:"faultstring"`
		} `xml:"Fault"`
	} `xml:"Body"`
}

// Validate performs one checkVat call. Inputs must already be normalized
// (see NormalizeVatInputs). All failure modes collapse into
// Status=unavailable with Valid=false.
func (c *ViesClient) Validate(ctx context.Context, countryCode, number string) CheckResult {
	checkedAt := time.Now().UTC()
	unavailable := CheckResult{Status: CheckStatusUnavailable, CheckedAt: checkedAt}

	envelope := fmt.Sprintf(checkVatEnvelope, xmlEscape(countryCode), xmlEscape(number))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(envelope))
	if err != nil {
		log.Printf("VIES request build failed: %v", err)
		return unavailable
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("VIES unreachable for %s%s: %v", countryCode, number, err)
		return unavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Printf("VIES response read failed: %v", err)
		return unavailable
	}

	var parsed checkVatSoapResponse
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		log.Printf("VIES response parse failed: %v", err)
		return unavailable
	}
	if parsed.Body.Fault.FaultString != "" {
		log.Printf("VIES fault for %s%s: %s", countryCode, number, parsed.Body.Fault.FaultString)
		return unavailable
	}

	body := parsed.Body.CheckVatResponse
	return CheckResult{
		Valid:            body.Valid,
		Status:           CheckStatusValidated,
		Name:             strings.TrimSpace(body.Name),
		Address:          strings.TrimSpace(body.Address),
		RequestDateRaw:   strings.TrimSpace(body.RequestDate),
		ConsultationDate: coerceRequestDate(body.RequestDate),
		CheckedAt:        checkedAt,
	}
}

// coerceRequestDate normalizes the free-text VIES requestDate. Seen in the
// wild: "2025-09-10", "2025-09-10T00:00:00Z", "2025-09-10+02:00" (a date with
// a bogus offset suffix). Unparsable input is logged and dropped, never an
// error.
func coerceRequestDate(value string) *time.Time {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil
	}

	// Starts like a plain date: take the first 10 characters.
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return &t
		}
	}

	// Cut at the first time/offset separator and retry.
	for _, sep := range []string{"T", " ", "+", "Z"} {
		if i := strings.Index(s, sep); i > 0 {
			if t, err := time.Parse("2006-01-02", s[:i]); err == nil {
				return &t
			}
		}
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}

	log.Printf("Unparseable VIES requestDate: %q", value)
	return nil
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
