package utils

import (
	"gig-market/internal/marketerrors"

	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response. The error kind lets clients branch
// without parsing the message.
func JSONError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"kind":    marketerrors.KindOf(err),
		"error":   err.Error(),
	})
}
