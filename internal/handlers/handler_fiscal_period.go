package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/gin-gonic/gin"
)

type fiscalPeriodHandler struct {
	periodService portssvc.FiscalPeriodSvcFacade
}

// RegisterFiscalPeriodRoutes registers the accounting calendar routes.
func RegisterFiscalPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.FiscalPeriodSvcFacade) {
	h := &fiscalPeriodHandler{periodService: periodService}

	periods := rg.Group("/fiscal-periods")
	{
		periods.POST("", h.createPeriod)
		periods.GET("", h.listPeriods)
		periods.PUT("/:id/status", h.updateStatus)
	}
}

// @Summary Create a fiscal period
// @Tags fiscal-periods
// @Accept  json
// @Produce  json
// @Param   period body dto.CreateFiscalPeriodRequest true "Period"
// @Success 201 {object} domain.FiscalPeriod
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /fiscal-periods [post]
func (h *fiscalPeriodHandler) createPeriod(c *gin.Context) {
	var req dto.CreateFiscalPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	period, err := h.periodService.CreatePeriod(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "creating fiscal period")
		return
	}
	c.JSON(http.StatusCreated, period)
}

// @Summary List fiscal periods
// @Tags fiscal-periods
// @Produce  json
// @Success 200 {object} map[string][]domain.FiscalPeriod
// @Security BearerAuth
// @Router /fiscal-periods [get]
func (h *fiscalPeriodHandler) listPeriods(c *gin.Context) {
	periods, err := h.periodService.ListPeriods(c.Request.Context())
	if err != nil {
		respondError(c, err, "listing fiscal periods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// @Summary Open, close or archive a fiscal period
// @Tags fiscal-periods
// @Accept  json
// @Param   id path string true "Fiscal period ID"
// @Param   status body dto.UpdateFiscalPeriodStatusRequest true "New status"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "Period not found"
// @Security BearerAuth
// @Router /fiscal-periods/{id}/status [put]
func (h *fiscalPeriodHandler) updateStatus(c *gin.Context) {
	var req dto.UpdateFiscalPeriodStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.periodService.UpdatePeriodStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err, "updating fiscal period")
		return
	}
	c.Status(http.StatusNoContent)
}
