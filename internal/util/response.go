package util

import (
	"errors"
	"net/http"

	"chatlink_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// FromError 把服务层哨兵错误换算成 HTTP 状态码，未识别的一律按 500 记日志处理
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrRequestNotFound),
		errors.Is(err, ErrFriendshipNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSelfFriend),
		errors.Is(err, ErrEmptyContent):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrFriendshipExists),
		errors.Is(err, ErrRequestAlreadySent),
		errors.Is(err, ErrIncomingRequest),
		errors.Is(err, ErrRequestHandled),
		errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrEmailRegistered),
		errors.Is(err, ErrUsernameTaken):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotAddressee),
		errors.Is(err, ErrNotFriends),
		errors.Is(err, ErrNotGroupMember),
		errors.Is(err, ErrTargetNotMember),
		errors.Is(err, ErrAdminRequired),
		errors.Is(err, ErrOwnerRequired),
		errors.Is(err, ErrCannotRemoveOwner),
		errors.Is(err, ErrOwnerCannotLeave):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Error(c, http.StatusUnauthorized, err.Error())
	default:
		LogInternalError(c, err)
	}
}
