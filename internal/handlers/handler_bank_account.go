package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type bankAccountHandler struct {
	bankService portssvc.BankAccountSvcFacade
}

// RegisterBankAccountRoutes registers bank account and bank transaction routes.
func RegisterBankAccountRoutes(rg *gin.RouterGroup, bankService portssvc.BankAccountSvcFacade) {
	h := &bankAccountHandler{bankService: bankService}

	bank := rg.Group("/bank-accounts")
	{
		bank.POST("", h.createBankAccount)
		bank.GET("", h.listBankAccounts)
		bank.GET("/:id", h.getBankAccount)
		bank.GET("/:id/transactions", h.listTransactions)
	}
	rg.DELETE("/bank-transactions/:id", h.deleteTransaction)
}

// createBankAccount godoc
// @Summary Create a bank account
// @Description Links a bank account to a bank-linked, active ledger account.
// @Tags bank-accounts
// @Accept  json
// @Produce  json
// @Param   bankAccount body dto.CreateBankAccountRequest true "Bank account details"
// @Success 201 {object} domain.BankAccount
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /bank-accounts [post]
func (h *bankAccountHandler) createBankAccount(c *gin.Context) {
	var req dto.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	bank, err := h.bankService.CreateBankAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "creating bank account")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Bank account created", slog.String("bank_account_id", bank.BankAccountID))
	c.JSON(http.StatusCreated, bank)
}

// @Summary Get a bank account
// @Tags bank-accounts
// @Produce  json
// @Param   id path string true "Bank account ID"
// @Success 200 {object} domain.BankAccount
// @Failure 404 {object} dto.ErrorResponse "Bank account not found"
// @Security BearerAuth
// @Router /bank-accounts/{id} [get]
func (h *bankAccountHandler) getBankAccount(c *gin.Context) {
	bank, err := h.bankService.GetBankAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieving bank account")
		return
	}
	c.JSON(http.StatusOK, bank)
}

// @Summary List bank accounts
// @Tags bank-accounts
// @Produce  json
// @Success 200 {object} map[string][]domain.BankAccount
// @Security BearerAuth
// @Router /bank-accounts [get]
func (h *bankAccountHandler) listBankAccounts(c *gin.Context) {
	banks, err := h.bankService.ListBankAccounts(c.Request.Context())
	if err != nil {
		respondError(c, err, "listing bank accounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bankAccounts": banks})
}

// listTransactions godoc
// @Summary List bank transactions
// @Tags bank-accounts
// @Produce  json
// @Param   id path string true "Bank account ID"
// @Param   reconciled query bool false "Filter by reconciled state"
// @Param   fromStatement query bool false "Filter by origin"
// @Param   limit query int false "Limit" default(50)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {object} map[string][]domain.BankTransaction
// @Failure 404 {object} dto.ErrorResponse "Bank account not found"
// @Security BearerAuth
// @Router /bank-accounts/{id}/transactions [get]
func (h *bankAccountHandler) listTransactions(c *gin.Context) {
	var params dto.ListBankTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	txns, err := h.bankService.ListTransactions(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		respondError(c, err, "listing bank transactions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// deleteTransaction godoc
// @Summary Delete a bank transaction
// @Description Only unreconciled transactions that were not derived from a journal entry can be deleted.
// @Tags bank-accounts
// @Param   id path string true "Bank transaction ID"
// @Success 204 "No Content"
// @Failure 404 {object} dto.ErrorResponse "Transaction not found"
// @Failure 409 {object} dto.ErrorResponse "Transaction is reconciled or belongs to an entry"
// @Security BearerAuth
// @Router /bank-transactions/{id} [delete]
func (h *bankAccountHandler) deleteTransaction(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.bankService.DeleteTransaction(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "deleting bank transaction")
		return
	}
	c.Status(http.StatusNoContent)
}
