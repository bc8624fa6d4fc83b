package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"t2e-leaderboard/internal/authz"
	"t2e-leaderboard/internal/domain"
	"t2e-leaderboard/internal/storage"
	"t2e-leaderboard/internal/vault"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTradeSpamDetected),
		errors.Is(err, domain.ErrUpdateTooSoon):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrEmergencyPaused):
		return http.StatusLocked
	case errors.Is(err, domain.ErrNoValidScores),
		errors.Is(err, domain.ErrTraderTokenAccountNotFound),
		errors.Is(err, domain.ErrOverflow),
		errors.Is(err, vault.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, authz.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey),
		errors.Is(err, storage.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidPubkey),
		errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are not echoed.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.JSON(status, errorResponse{Error: msg})
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
