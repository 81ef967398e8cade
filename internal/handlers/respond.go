package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/bookkeeping_engine/internal/apperrors"
	"github.com/SscSPs/bookkeeping_engine/internal/dto"
	"github.com/SscSPs/bookkeeping_engine/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// respondError maps service errors onto status codes. Validation messages are
// returned verbatim; infrastructure failures are logged and hidden behind a
// generic message.
func respondError(c *gin.Context, err error, action string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Validation error "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: apperrors.Messages(err)})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn("Not found "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Errors: apperrors.Messages(err)})
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrDuplicate):
		logger.Warn("Conflict "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, dto.ErrorResponse{Errors: apperrors.Messages(err)})
	default:
		logger.Error("Failed "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Errors: []string{"Failed " + action}})
	}
}

// respondBindError reports request-shape problems, one message per failing field.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed on the '%s' rule", fe.Namespace(), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: msgs})
		return
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Errors: []string{"Invalid request format: " + err.Error()}})
}

// requireUser reads the acting user placed by AuthMiddleware.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Errors: []string{"Unauthorized"}})
	}
	return userID, ok
}

// queryDate parses a YYYY-MM-DD query parameter, defaulting to today (UTC).
func queryDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", name)
	}
	return t, nil
}
