package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vatify/internal/model"
	"vatify/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRateEntryRepo struct {
	entries []model.RateEntry
}

func (f *fakeRateEntryRepo) Create(ctx context.Context, entry *model.RateEntry) error { return nil }

func (f *fakeRateEntryRepo) List(ctx context.Context, page, limit int) ([]model.RateEntry, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeRateEntryRepo) FindByCountry(ctx context.Context, country string) ([]model.RateEntry, error) {
	return f.entries, nil
}

func (f *fakeRateEntryRepo) Exists(ctx context.Context, country string, effectiveFrom time.Time) (bool, error) {
	return false, nil
}

func newRatesRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	repo := &fakeRateEntryRepo{entries: []model.RateEntry{{
		Country:       "DE",
		EffectiveFrom: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		StandardRate:  decimal.RequireFromString("19.0"),
		Currency:      "EUR",
	}}}
	NewRatesHandler(testRateTable(), repo).RegisterRoutes(router.Group(""))
	return router
}

func getPath(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCountryRates(t *testing.T) {
	router := newRatesRouter()

	w := getPath(t, router, "/api/rates/DE")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data service.CountryRatesSnapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "DE", envelope.Data.Country)
	assert.Equal(t, "19.0", envelope.Data.StandardRate)
	assert.Equal(t, "EUR", envelope.Data.Currency)
}

func TestGetCountryRates_DateFilter(t *testing.T) {
	router := newRatesRouter()

	w := getPath(t, router, "/api/rates/DE?date=2024-01-15")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Before any published entry.
	w = getPath(t, router, "/api/rates/DE?date=2019-01-15")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = getPath(t, router, "/api/rates/DE?date=15.01.2024")
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestGetCountryRates_UnknownCountry(t *testing.T) {
	router := newRatesRouter()

	w := getPath(t, router, "/api/rates/XX")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestListRateEntries(t *testing.T) {
	router := newRatesRouter()

	w := getPath(t, router, "/api/rates?page=1&limit=10")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data struct {
			Entries []model.RateEntry `json:"entries"`
			Total   int64             `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, int64(1), envelope.Data.Total)
	require.Len(t, envelope.Data.Entries, 1)
	assert.Equal(t, "DE", envelope.Data.Entries[0].Country)
}
