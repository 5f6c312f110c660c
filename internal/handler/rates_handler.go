package handler

import (
	"errors"
	"net/http"
	"time"

	"vatify/internal/repository"
	"vatify/internal/service"
	"vatify/pkg/pagination"
	"vatify/pkg/response"

	"github.com/gin-gonic/gin"
)

type RatesHandler struct {
	rateTable *service.RateTable
	rateRepo  repository.RateEntryRepository
}

func NewRatesHandler(rateTable *service.RateTable, rateRepo repository.RateEntryRepository) *RatesHandler {
	return &RatesHandler{rateTable: rateTable, rateRepo: rateRepo}
}

func (h *RatesHandler) RegisterRoutes(router *gin.RouterGroup) {
	rates := router.Group("/api/rates")
	{
		rates.GET("", h.ListRateEntries)
		rates.GET("/:country", h.GetCountryRates)
	}
}

// GetCountryRates returns the effective rates for a country on a date
// @Summary      Get country rates
// @Description  Returns the rate snapshot effective on the given date (default today)
// @Tags         rates
// @Produce      json
// @Param        country  path      string  true   "ISO-3166-1 alpha-2 country code, e.g. DE"
// @Param        date     query     string  false  "YYYY-MM-DD (default today)"
// @Success      200      {object}  response.Response{data=service.CountryRatesSnapshot}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/rates/{country} [get]
func (h *RatesHandler) GetCountryRates(c *gin.Context) {
	onDate := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid date (expected YYYY-MM-DD): "+err.Error()))
			return
		}
		onDate = parsed
	}

	snapshot, err := h.rateTable.Snapshot(c.Param("country"), onDate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownCountry), errors.Is(err, service.ErrRateNotFound):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, snapshot))
}

// ListRateEntries returns the persisted rate entry history
// @Summary      List rate entries
// @Description  Paginated list of stored rate entries across countries and effective dates
// @Tags         rates
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/rates [get]
func (h *RatesHandler) ListRateEntries(c *gin.Context) {
	params := pagination.Parse(c)

	entries, total, err := h.rateRepo.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"page":    params.Page,
		"limit":   params.Limit,
	}))
}
