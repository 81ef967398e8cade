package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler serves the matching screen and the draft lifecycle.
type reconciliationHandler struct {
	reconService portssvc.ReconciliationSvcFacade
}

// RegisterReconciliationRoutes registers routes related to bank reconciliation.
func RegisterReconciliationRoutes(rg *gin.RouterGroup, reconService portssvc.ReconciliationSvcFacade) {
	h := &reconciliationHandler{reconService: reconService}

	recs := rg.Group("/reconciliations")
	{
		recs.POST("", h.getOrCreateDraft)
		recs.GET("/:id", h.getReconciliation)
		recs.DELETE("/:id", h.deleteReconciliation)
		recs.GET("/:id/candidates", h.getCandidates)
		recs.GET("/:id/balancing", h.computeBalancing)
		recs.GET("/:id/audit", h.getAuditTrail)
		recs.POST("/:id/match", h.match)
		recs.POST("/:id/finalize", h.finalize)
	}
	rg.GET("/bank-accounts/:id/reconciliations", h.listReconciliations)
	rg.POST("/bank-transactions/unreconcile", h.unreconcile)
}

// getOrCreateDraft godoc
// @Summary Open or resume the draft reconciliation for a statement
// @Description Returns the existing draft for the bank account and statement date, refreshing its statement balance, or creates one.
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   draft body dto.GetOrCreateDraftRequest true "Statement"
// @Success 200 {object} domain.BankReconciliation
// @Failure 404 {object} dto.ErrorResponse "Bank account not found"
// @Failure 409 {object} dto.ErrorResponse "Statement already reconciled"
// @Security BearerAuth
// @Router /reconciliations [post]
func (h *reconciliationHandler) getOrCreateDraft(c *gin.Context) {
	var req dto.GetOrCreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	rec, err := h.reconService.GetOrCreateDraft(c.Request.Context(), req.BankAccountID, req.StatementDate, req.StatementBalance, userID)
	if err != nil {
		respondError(c, err, "opening draft reconciliation")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary Get a reconciliation
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.BankReconciliation
// @Failure 404 {object} dto.ErrorResponse "Reconciliation not found"
// @Security BearerAuth
// @Router /reconciliations/{id} [get]
func (h *reconciliationHandler) getReconciliation(c *gin.Context) {
	rec, err := h.reconService.GetReconciliation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieving reconciliation")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary List the reconciliations of a bank account
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Bank account ID"
// @Success 200 {object} map[string][]domain.BankReconciliation
// @Security BearerAuth
// @Router /bank-accounts/{id}/reconciliations [get]
func (h *reconciliationHandler) listReconciliations(c *gin.Context) {
	recs, err := h.reconService.ListReconciliations(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "listing reconciliations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciliations": recs})
}

// getCandidates godoc
// @Summary Matching candidates
// @Description Unreconciled transactions dated up to the statement date plus the ones this draft already holds, split by origin.
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} dto.CandidatesResponse
// @Security BearerAuth
// @Router /reconciliations/{id}/candidates [get]
func (h *reconciliationHandler) getCandidates(c *gin.Context) {
	resp, err := h.reconService.GetCandidates(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "loading reconciliation candidates")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Balancing summary
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.BalancingSummary
// @Security BearerAuth
// @Router /reconciliations/{id}/balancing [get]
func (h *reconciliationHandler) computeBalancing(c *gin.Context) {
	summary, err := h.reconService.ComputeBalancing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "computing reconciliation balance")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Audit trail of a reconciliation
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} map[string][]domain.AuditRecord
// @Security BearerAuth
// @Router /reconciliations/{id}/audit [get]
func (h *reconciliationHandler) getAuditTrail(c *gin.Context) {
	records, err := h.reconService.GetAuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "loading reconciliation audit trail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// match godoc
// @Summary Provisionally reconcile transactions
// @Description All selected transactions must be unreconciled, belong to the draft's bank account, and the statement and system totals must agree.
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   selection body dto.MatchTransactionsRequest true "Transactions"
// @Success 200 {object} dto.MatchResult
// @Failure 400 {object} dto.ErrorResponse "Ineligible selection or totals mismatch"
// @Failure 409 {object} dto.ErrorResponse "Reconciliation not a draft or lost a race"
// @Security BearerAuth
// @Router /reconciliations/{id}/match [post]
func (h *reconciliationHandler) match(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.MatchTransactionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.reconService.MarkProvisionallyReconciled(c.Request.Context(), c.Param("id"), req.TransactionIDs, req.StatementDate, userID)
	if err != nil {
		respondError(c, err, "matching transactions")
		return
	}

	logger.Info("Transactions matched", slog.String("reconciliation_id", result.ReconciliationID), slog.Int("matched", result.Matched))
	c.JSON(http.StatusOK, result)
}

// @Summary Release reconciled transactions
// @Description Transactions held by a finalized reconciliation cannot be released.
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   selection body dto.UnreconcileRequest true "Transactions"
// @Success 200 {object} dto.UnreconcileResult
// @Security BearerAuth
// @Router /bank-transactions/unreconcile [post]
func (h *reconciliationHandler) unreconcile(c *gin.Context) {
	var req dto.UnreconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	result, err := h.reconService.Unreconcile(c.Request.Context(), req.TransactionIDs, userID)
	if err != nil {
		respondError(c, err, "unreconciling transactions")
		return
	}
	c.JSON(http.StatusOK, result)
}

// finalize godoc
// @Summary Finalize a draft reconciliation
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   figures body dto.FinalizeReconciliationRequest true "Figures to freeze"
// @Success 200 {object} domain.BankReconciliation
// @Failure 409 {object} dto.ErrorResponse "Reconciliation not a draft"
// @Security BearerAuth
// @Router /reconciliations/{id}/finalize [post]
func (h *reconciliationHandler) finalize(c *gin.Context) {
	var req dto.FinalizeReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	rec, err := h.reconService.Finalize(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "finalizing reconciliation")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary Delete a reconciliation
// @Description Releases every transaction it holds. Deleting a finalized reconciliation recomputes the bank account's last reconciled markers.
// @Tags reconciliations
// @Param   id path string true "Reconciliation ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /reconciliations/{id} [delete]
func (h *reconciliationHandler) deleteReconciliation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.reconService.DeleteReconciliation(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "deleting reconciliation")
		return
	}
	c.Status(http.StatusNoContent)
}
