package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"gig-market/internal/marketerrors"
	"gig-market/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w: %w", marketerrors.ErrValidation, err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err to a response and logs it: client mistakes at warn, faults at error
func HandleServiceError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, err, message)

	logFields := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		logFields[k] = v
	}
	logFields["handler"] = handlerName
	logFields["kind"] = marketerrors.KindOf(err)
	logFields["error"] = err.Error()

	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", logFields)
		return
	}
	utils.Warn(handlerName+": request rejected", logFields)
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch marketerrors.KindOf(err) {
	case marketerrors.KindValidation:
		return http.StatusBadRequest, "invalid request"
	case marketerrors.KindNotFound:
		switch {
		case errors.Is(err, marketerrors.ErrGigNotFound):
			return http.StatusNotFound, "gig not found"
		case errors.Is(err, marketerrors.ErrBidNotFound):
			return http.StatusNotFound, "bid not found"
		}
		return http.StatusNotFound, "not found"
	case marketerrors.KindForbidden:
		return http.StatusForbidden, "only the gig owner may hire"
	case marketerrors.KindInvalidState:
		switch {
		case errors.Is(err, marketerrors.ErrGigNotOpen):
			return http.StatusConflict, "gig is not open for bidding"
		case errors.Is(err, marketerrors.ErrSelfBid):
			return http.StatusConflict, "cannot bid on your own gig"
		case errors.Is(err, marketerrors.ErrAlreadyAssigned):
			return http.StatusConflict, "gig already assigned"
		}
		return http.StatusConflict, "invalid state"
	case marketerrors.KindConflict:
		return http.StatusConflict, "you have already bid on this gig"
	case marketerrors.KindTransient:
		return http.StatusServiceUnavailable, "service temporarily unavailable, retry later"
	case marketerrors.KindUnauthenticated:
		return http.StatusUnauthorized, "authentication required"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
