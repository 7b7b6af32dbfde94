package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nultr/nultr/backend/go/internal/v1/logging"
)

// ErrorCode is the wire tag in the {"code": ...} error envelope.
type ErrorCode string

const (
	CodeAccessDenied                 ErrorCode = "AccessDenied"
	CodeUserNotFound                 ErrorCode = "UserNotFound"
	CodeRoomNotFound                 ErrorCode = "RoomNotFound"
	CodeNotMemberOfRoom              ErrorCode = "NotMemberOfRoom"
	CodeAuthenticatedUnexpectedError ErrorCode = "AuthenticatedUnexpectedError"
	CodeUnexpectedError              ErrorCode = "UnexpectedError"
)

type errorBody struct {
	Code ErrorCode `json:"code"`
}

func abortWithCode(c *gin.Context, status int, code ErrorCode) {
	c.AbortWithStatusJSON(status, errorBody{Code: code})
}

// internalError logs the failure and replies with the unexpected-error
// envelope of the authenticated or public surface.
func internalError(c *gin.Context, authenticated bool, err error) {
	logging.Error(c.Request.Context(), "internal error", zap.Error(err))

	code := CodeUnexpectedError
	if authenticated {
		code = CodeAuthenticatedUnexpectedError
	}
	abortWithCode(c, http.StatusInternalServerError, code)
}
