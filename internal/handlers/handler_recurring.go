package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type recurringHandler struct {
	recurringService portssvc.RecurringSvcFacade
}

// RegisterRecurringRoutes registers recurring pattern routes.
func RegisterRecurringRoutes(rg *gin.RouterGroup, recurringService portssvc.RecurringSvcFacade) {
	h := &recurringHandler{recurringService: recurringService}

	patterns := rg.Group("/recurring-patterns")
	{
		patterns.POST("", h.createPattern)
		patterns.GET("", h.listPatterns)
		patterns.POST("/generate", h.generateDue)
		patterns.GET("/:id", h.getPattern)
		patterns.POST("/:id/deactivate", h.deactivatePattern)
	}
}

// @Summary Create a recurring pattern
// @Tags recurring
// @Accept  json
// @Produce  json
// @Param   pattern body dto.CreateRecurringPatternRequest true "Schedule"
// @Success 201 {object} domain.RecurringPattern
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /recurring-patterns [post]
func (h *recurringHandler) createPattern(c *gin.Context) {
	var req dto.CreateRecurringPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	pattern, err := h.recurringService.CreatePattern(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "creating recurring pattern")
		return
	}
	c.JSON(http.StatusCreated, pattern)
}

// @Summary List recurring patterns
// @Tags recurring
// @Produce  json
// @Param   activeOnly query bool false "Only active patterns" default(false)
// @Success 200 {object} map[string][]domain.RecurringPattern
// @Security BearerAuth
// @Router /recurring-patterns [get]
func (h *recurringHandler) listPatterns(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("activeOnly", "false"))

	patterns, err := h.recurringService.ListPatterns(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err, "listing recurring patterns")
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": patterns})
}

// @Summary Get a recurring pattern
// @Tags recurring
// @Produce  json
// @Param   id path string true "Pattern ID"
// @Success 200 {object} domain.RecurringPattern
// @Security BearerAuth
// @Router /recurring-patterns/{id} [get]
func (h *recurringHandler) getPattern(c *gin.Context) {
	pattern, err := h.recurringService.GetPattern(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieving recurring pattern")
		return
	}
	c.JSON(http.StatusOK, pattern)
}

// @Summary Deactivate a recurring pattern
// @Tags recurring
// @Param   id path string true "Pattern ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /recurring-patterns/{id}/deactivate [post]
func (h *recurringHandler) deactivatePattern(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.recurringService.DeactivatePattern(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "deactivating recurring pattern")
		return
	}
	c.Status(http.StatusNoContent)
}

// generateDue godoc
// @Summary Generate due recurring entries
// @Description Creates an unposted entry for every occurrence due on or before asOf. A failing pattern does not stop the others.
// @Tags recurring
// @Accept  json
// @Produce  json
// @Param   run body dto.GenerateRecurringRequest true "Cut-off date"
// @Success 200 {object} dto.GenerateRecurringResponse
// @Security BearerAuth
// @Router /recurring-patterns/generate [post]
func (h *recurringHandler) generateDue(c *gin.Context) {
	var req dto.GenerateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	resp, err := h.recurringService.GenerateDueRecurring(c.Request.Context(), req.AsOf, userID)
	if err != nil {
		respondError(c, err, "generating recurring entries")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Recurring generation finished",
		slog.Int("generated", len(resp.Generated)),
		slog.Int("failures", len(resp.Failures)))
	c.JSON(http.StatusOK, resp)
}
