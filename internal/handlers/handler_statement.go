package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/SscSPs/bookkeeping_engine/internal/utils/statement"
	"github.com/gin-gonic/gin"
)

const maxStatementSize = 10 << 20

type statementHandler struct {
	statementService portssvc.StatementSvcFacade
	profiles         statement.Profiles
}

// RegisterStatementRoutes registers the statement upload routes.
func RegisterStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade, profiles statement.Profiles) {
	h := &statementHandler{statementService: statementService, profiles: profiles}

	rg.POST("/bank-accounts/:id/statements", h.importStatement)
	rg.GET("/statement-profiles", h.listProfiles)
}

// importStatement godoc
// @Summary Import a bank statement
// @Description Parses a CSV export with the selected column profile and imports every usable row. Rows that fail to parse, carry a zero amount or duplicate an earlier import are reported, not fatal.
// @Tags statements
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path string true "Bank account ID"
// @Param   file formData file true "Statement CSV"
// @Param   profile formData string false "Column profile name"
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} dto.ErrorResponse "Unreadable file or unknown profile"
// @Security BearerAuth
// @Router /bank-accounts/{id}/statements [post]
func (h *statementHandler) importStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	bankAccountID := c.Param("id")

	userID, ok := requireUser(c)
	if !ok {
		return
	}

	mapping, err := h.profiles.Get(c.PostForm("profile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{"statement file is required"}})
		return
	}
	if header.Size > maxStatementSize {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{"statement file is too large"}})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err, "opening statement file")
		return
	}
	defer file.Close()

	rows, err := statement.Parse(file, mapping)
	if err != nil {
		logger.Warn("Statement could not be parsed", slog.String("file", header.Filename), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{err.Error()}})
		return
	}

	result, err := h.statementService.ImportStatement(c.Request.Context(), bankAccountID, rows, userID)
	if err != nil {
		respondError(c, err, "importing statement")
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary List statement column profiles
// @Tags statements
// @Produce  json
// @Success 200 {object} map[string][]string
// @Security BearerAuth
// @Router /statement-profiles [get]
func (h *statementHandler) listProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": h.profiles.Names()})
}
