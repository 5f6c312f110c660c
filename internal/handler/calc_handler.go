package handler

import (
	"errors"
	"net/http"

	"vatify/internal/service"
	"vatify/pkg/response"

	"github.com/gin-gonic/gin"
)

type CalcHandler struct {
	calcService service.CalcService
}

func NewCalcHandler(calcService service.CalcService) *CalcHandler {
	return &CalcHandler{calcService: calcService}
}

func (h *CalcHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/calculate", h.Calculate)
}

// Calculate computes the VAT outcome for one transaction
// @Summary      Calculate VAT
// @Description  Resolves the tax treatment (normal, reverse charge, zero-rated) and the net/VAT/gross breakdown for a transaction
// @Tags         calculate
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalcRequest  true  "Calculation Payload"
// @Success      200      {object}  response.Response{data=service.CalcResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/calculate [post]
func (h *CalcHandler) Calculate(c *gin.Context) {
	var req service.CalcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calcService.Calculate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownCountry):
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		case errors.Is(err, service.ErrRateNotFound), errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
