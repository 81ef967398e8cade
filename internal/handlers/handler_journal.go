package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/bookkeeping_engine/internal/core/ports/services"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{
		journalService: journalService,
	}
}

// RegisterJournalRoutes registers routes related to journal entries.
func RegisterJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.PUT("/:id", h.updateEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// createEntry godoc
// @Summary Create a journal entry
// @Description Validates and stores a new entry. With autoPost the entry is posted in the same transaction.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateEntryRequest true "Entry and lines"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse "Every validation problem found"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Failed to create entry"
// @Security BearerAuth
// @Router /entries [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	creatorUserID, ok := requireUser(c)
	if !ok {
		return
	}

	logger = logger.With(slog.String("creator_user_id", creatorUserID))

	entry, err := h.journalService.CreateEntry(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondError(c, err, "creating journal entry")
		return
	}

	logger.Info("Journal entry created", slog.String("entry_id", entry.EntryID), slog.Bool("posted", entry.IsPosted))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// getEntry godoc
// @Summary Get a journal entry and its lines
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Security BearerAuth
// @Router /entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	entry, err := h.journalService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieving journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Tags entries
// @Produce  json
// @Param   limit query int false "Limit" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Param   fromDate query string false "Earliest entry date (YYYY-MM-DD)"
// @Param   toDate query string false "Latest entry date (YYYY-MM-DD)"
// @Param   posted query bool false "Filter by posted state"
// @Success 200 {object} dto.ListEntriesResponse
// @Security BearerAuth
// @Router /entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.journalService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "listing journal entries")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// updateEntry godoc
// @Summary Replace an unposted journal entry
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   entry body dto.UpdateEntryRequest true "Header and full line set"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse "Validation error"
// @Failure 409 {object} dto.ErrorResponse "Entry already posted"
// @Security BearerAuth
// @Router /entries/{id} [put]
func (h *journalHandler) updateEntry(c *gin.Context) {
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	entry, err := h.journalService.UpdateEntry(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "updating journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// postEntry godoc
// @Summary Post a journal entry
// @Description Posts the entry and derives a bank transaction for every bank-linked line.
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 400 {object} dto.ErrorResponse "Period closed or bank account missing"
// @Failure 404 {object} dto.ErrorResponse "Entry not found"
// @Failure 409 {object} dto.ErrorResponse "Entry already posted"
// @Security BearerAuth
// @Router /entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	entry, err := h.journalService.PostEntry(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "posting journal entry")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal entry posted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a posted journal entry
// @Description Creates the mirror entry and links both. Returns the reversal.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   reversal body dto.ReverseEntryRequest true "Reversal date and note"
// @Success 201 {object} dto.EntryResponse
// @Failure 409 {object} dto.ErrorResponse "Entry not posted or already reversed"
// @Security BearerAuth
// @Router /entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	reversal, err := h.journalService.ReverseEntry(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, err, "reversing journal entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}
