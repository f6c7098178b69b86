package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCode lets clients branch on failure kind without parsing messages.
type ErrorCode string

const (
	ErrBadRequest         ErrorCode = "BAD_REQUEST"
	ErrValidation         ErrorCode = "VALIDATION_FAILED"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrForbidden          ErrorCode = "FORBIDDEN"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrInvalidState       ErrorCode = "INVALID_STATE"
	ErrConflict           ErrorCode = "CONFLICT"
	ErrTooManyRequests    ErrorCode = "TOO_MANY_REQUESTS"
	ErrInternal           ErrorCode = "INTERNAL_ERROR"
	ErrInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
)

// Error is the failure half of the envelope.
type Error struct {
	Code    ErrorCode `json:"codigo"`
	Message string    `json:"mensagem"`
	Details any       `json:"detalhes,omitempty"`
}

// Response is the envelope every endpoint returns. The field names follow the
// contract the SPA already consumes.
type Response struct {
	Success bool   `json:"sucesso"`
	Message string `json:"mensagem,omitempty"`
	Data    any    `json:"dados,omitempty"`
	Error   *Error `json:"erro,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// MetaPagination can be attached to list responses via Response.Meta.
type MetaPagination struct {
	Page         int `json:"paginaAtual"`
	PageSize     int `json:"tamanhoPagina"`
	TotalItems   int `json:"totalRegistros"`
	TotalPages   int `json:"totalPaginas"`
	CurrentCount int `json:"quantidadeAtual"`
}

// Success writes a success envelope with the given status.
func Success(c *gin.Context, status int, data any, meta any) {
	if status == 0 {
		status = http.StatusOK
	}

	resp := Response{
		Success: true,
		Data:    data,
	}
	if meta != nil {
		resp.Meta = meta
	}

	c.JSON(status, resp)
}

// Created writes a 201 success envelope.
func Created(c *gin.Context, data any, meta any) {
	Success(c, http.StatusCreated, data, meta)
}

// NoContent writes a bare 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail writes a failure envelope with the given code and message.
func Fail(c *gin.Context, status int, code ErrorCode, message string, details any) {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	resp := Response{
		Success: false,
		Message: message,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	}
	if details != nil {
		resp.Error.Details = details
	}

	c.JSON(status, resp)
}

// FailWithError maps an arbitrary error onto the envelope, falling back to a
// generic code when none is given.
func FailWithError(c *gin.Context, status int, err error, fallback ErrorCode) {
	if err == nil {
		Fail(c, status, fallback, http.StatusText(status), nil)
		return
	}

	code := fallback
	if code == "" {
		code = ErrInternal
	}

	Fail(c, status, code, err.Error(), nil)
}
