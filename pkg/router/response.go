package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskex-lab/backend/pkg/errorx"
)

type response struct {
	Code   int64          `json:"code"`
	Error  string         `json:"error,omitempty"`
	Detail map[string]any `json:"detail,omitempty"`
	Data   any            `json:"data,omitempty"`
}

func writeData(gctx *gin.Context, data any) {
	gctx.JSON(http.StatusOK, response{Code: 0, Data: data})
}

func writeError(gctx *gin.Context, err error) {
	var errx errorx.Error
	if !errors.As(err, &errx) {
		errx = errorx.Unknown
	}

	gctx.AbortWithStatusJSON(statusOf(errx.Code), response{
		Code:   int64(errx.Code),
		Error:  errx.Message,
		Detail: errx.Detail,
	})
}

// statusOf flattens the internal error taxonomy onto HTTP statuses. The body
// keeps the fine-grained code.
func statusOf(code errorx.Code) int {
	switch code {
	case errorx.BadRequest, errorx.BadResponse:
		return http.StatusBadRequest
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.PermissionDenied, errorx.UserBlocked:
		return http.StatusForbidden
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.AlreadyExists, errorx.InvalidState,
		errorx.BudgetExhausted, errorx.AlreadyRejected, errorx.Collision:
		return http.StatusConflict
	case errorx.TooManyRequests, errorx.RetryCooldown:
		return http.StatusTooManyRequests
	case errorx.NotImplemented:
		return http.StatusNotImplemented
	case errorx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
