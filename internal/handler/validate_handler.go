package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"vatify/internal/model"
	"vatify/internal/repository"
	"vatify/internal/service"
	"vatify/pkg/pagination"
	"vatify/pkg/response"

	"github.com/gin-gonic/gin"
)

// --- DTOs ---

type ValidateVatRequest struct {
	VatNumber   string `json:"vat_number"`   // full identifier incl. country prefix, e.g. "DE123456789"
	CountryCode string `json:"country_code"` // alternative: separate prefix ...
	Number      string `json:"number"`       // ... plus bare number
}

type ValidateVatResponse struct {
	Valid              bool    `json:"valid"`
	CountryCode        string  `json:"country_code"`
	VatNumber          string  `json:"vat_number"`
	ViesRequestDateRaw string  `json:"vies_request_date_raw,omitempty"`
	CheckedAt          string  `json:"checked_at"`
	Name               *string `json:"name"`
	Address            *string `json:"address"`
}

type ValidateHandler struct {
	validator service.VatNumberValidator
	checkRepo repository.VatCheckRepository
}

func NewValidateHandler(validator service.VatNumberValidator, checkRepo repository.VatCheckRepository) *ValidateHandler {
	return &ValidateHandler{validator: validator, checkRepo: checkRepo}
}

func (h *ValidateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/validate-vat", h.ValidateVat)

	checks := router.Group("/api/vat-checks")
	{
		checks.GET("", h.ListChecks)
	}
}

// ValidateVat checks a VAT identifier against the VIES registry
// @Summary      Validate VAT number
// @Description  Consults the EU VIES registry; accepts either a full identifier or a separate country code and number
// @Tags         vat
// @Accept       json
// @Produce      json
// @Param        payload  body      ValidateVatRequest  true  "Validation Payload"
// @Success      200      {object}  response.Response{data=ValidateVatResponse}
// @Failure      400      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/validate-vat [post]
func (h *ValidateHandler) ValidateVat(c *gin.Context) {
	var req ValidateVatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cc, num, err := service.NormalizeVatInputs(req.VatNumber, req.CountryCode, req.Number)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	result := h.validator.Validate(c.Request.Context(), cc, num)

	h.logCheck(c, cc, num, result)

	if result.Status == service.CheckStatusUnavailable {
		// Unlike the calculator, the standalone endpoint surfaces registry
		// downtime to the caller.
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "VIES registry is currently unavailable, please retry later"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ValidateVatResponse{
		Valid:              result.Valid,
		CountryCode:        cc,
		VatNumber:          cc + num,
		ViesRequestDateRaw: result.RequestDateRaw,
		CheckedAt:          result.CheckedAt.Format(time.RFC3339),
		Name:               nullable(result.Name),
		Address:            nullable(result.Address),
	}))
}

// ListChecks returns the registry consultation history
// @Summary      List VAT checks
// @Description  Paginated history of VIES consultations
// @Tags         vat
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/vat-checks [get]
func (h *ValidateHandler) ListChecks(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.checkRepo.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"checks": logs,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	}))
}

// logCheck persists the consultation, best effort.
func (h *ValidateHandler) logCheck(c *gin.Context, cc, num string, result service.CheckResult) {
	if h.checkRepo == nil {
		return
	}
	entry := model.VatCheckLog{
		CountryCode:    cc,
		VatNumber:      num,
		Valid:          result.Valid,
		Status:         result.Status,
		Name:           result.Name,
		Address:        result.Address,
		RequestDateRaw: result.RequestDateRaw,
		CheckedAt:      result.CheckedAt,
	}
	if err := h.checkRepo.Log(c.Request.Context(), &entry); err != nil {
		log.Printf("Failed to persist VAT check log: %v", err)
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
