package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pqlammy/Gennerweb-sub000/internal/logic"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleError maps the logic-layer error taxonomy onto HTTP responses.
// Anything not in the taxonomy is a storage-layer fault and stays generic.
func HandleError(c *gin.Context, err error) {
	var verr *logic.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Message: verr.Message,
			Data:    gin.H{"field": verr.Field},
		})
		return
	}

	var lerr *logic.LockoutError
	if errors.As(err, &lerr) {
		retryAfter := int(lerr.RetryAfter.Seconds() + 0.5)
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.JSON(http.StatusTooManyRequests, Response{
			Success: false,
			Message: "too many failed login attempts",
			Data:    gin.H{"retry_after_seconds": retryAfter},
		})
		return
	}

	var berr *logic.BatchError
	if errors.As(err, &berr) {
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Message: berr.Reason,
			Data:    gin.H{"ineligible_ids": berr.IneligibleIDs},
		})
		return
	}

	var cerr *logic.SettlementConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Message: "settlement code generation conflicted, please retry",
			Data:    nil,
		})
		return
	}

	if errors.Is(err, logic.ErrInvalidCredentials) {
		ErrorResponse(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if errors.Is(err, logic.ErrNotFound) {
		ErrorResponse(c, http.StatusNotFound, "contribution not found")
		return
	}

	ErrorResponse(c, http.StatusInternalServerError, "internal error")
}
