package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkVatOKResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>DE</countryCode>
      <vatNumber>811907980</vatNumber>
      <requestDate>2025-09-10+02:00</requestDate>
      <valid>true</valid>
      <name>BMW AG</name>
      <address>Petuelring 130, 80809 MUENCHEN</address>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const checkVatInvalidResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <checkVatResponse xmlns="urn:ec.europa.eu:taxud:vies:services:checkVat:types">
      <countryCode>DE</countryCode>
      <vatNumber>123456789</vatNumber>
      <requestDate>2025-09-10</requestDate>
      <valid>false</valid>
      <name>---</name>
      <address>---</address>
    </checkVatResponse>
  </soap:Body>
</soap:Envelope>`

const checkVatFaultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>MS_MAX_CONCURRENT_REQ</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func viesTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "text/xml")
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestViesClient_ValidNumber(t *testing.T) {
	srv := viesTestServer(t, checkVatOKResponse)
	client := NewViesClient(srv.URL)

	result := client.Validate(context.Background(), "DE", "811907980")

	assert.True(t, result.Valid)
	assert.Equal(t, CheckStatusValidated, result.Status)
	assert.Equal(t, "BMW AG", result.Name)
	assert.Equal(t, "Petuelring 130, 80809 MUENCHEN", result.Address)
	assert.Equal(t, "2025-09-10+02:00", result.RequestDateRaw)
	require.NotNil(t, result.ConsultationDate, "malformed offset date must still be coerced")
	assert.Equal(t, "2025-09-10", result.ConsultationDate.Format("2006-01-02"))
	assert.False(t, result.CheckedAt.IsZero())
}

func TestViesClient_InvalidNumber(t *testing.T) {
	srv := viesTestServer(t, checkVatInvalidResponse)
	client := NewViesClient(srv.URL)

	result := client.Validate(context.Background(), "DE", "123456789")

	assert.False(t, result.Valid)
	assert.Equal(t, CheckStatusValidated, result.Status, "a reachable registry answering 'invalid' is still a completed check")
}

func TestViesClient_Fault(t *testing.T) {
	srv := viesTestServer(t, checkVatFaultResponse)
	client := NewViesClient(srv.URL)

	result := client.Validate(context.Background(), "DE", "811907980")

	assert.False(t, result.Valid)
	assert.Equal(t, CheckStatusUnavailable, result.Status)
}

func TestViesClient_MalformedResponse(t *testing.T) {
	srv := viesTestServer(t, "this is not xml <<<")
	client := NewViesClient(srv.URL)

	result := client.Validate(context.Background(), "DE", "811907980")

	assert.False(t, result.Valid)
	assert.Equal(t, CheckStatusUnavailable, result.Status)
}

func TestViesClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewViesClient(url)
	result := client.Validate(context.Background(), "DE", "811907980")

	assert.False(t, result.Valid)
	assert.Equal(t, CheckStatusUnavailable, result.Status)
}

func TestViesClient_ContextCancelled(t *testing.T) {
	srv := viesTestServer(t, checkVatOKResponse)
	client := NewViesClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := client.Validate(ctx, "DE", "811907980")
	assert.Equal(t, CheckStatusUnavailable, result.Status)
}

func TestCoerceRequestDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // "" means nil expected
	}{
		{"bare date", "2025-09-10", "2025-09-10"},
		{"datetime", "2025-09-10T00:00:00Z", "2025-09-10"},
		{"datetime with space", "2025-09-10 00:00:00", "2025-09-10"},
		{"bogus offset suffix", "2025-09-10+02:00", "2025-09-10"},
		{"zulu suffix", "2025-09-10Z", "2025-09-10"},
		{"surrounding whitespace", "  2025-09-10  ", "2025-09-10"},
		{"empty", "", ""},
		{"garbage", "next tuesday", ""},
		{"partial date", "2025-09", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coerceRequestDate(tt.input)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestViesClient_DefaultEndpointAndTimeout(t *testing.T) {
	client := NewViesClient("")
	assert.Equal(t, defaultViesEndpoint, client.endpoint)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
}

func TestXmlEscape(t *testing.T) {
	assert.Equal(t, "&lt;DE&gt;&amp;&quot;&apos;", xmlEscape(`<DE>&"'`))
}
