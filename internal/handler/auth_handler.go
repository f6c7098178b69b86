package handler

import (
	"net/http"

	response "github.com/mpsp-digital/jurist-prompts-hub/internal/infra/common"
	authservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes the credential login route. It is the only handler
// mounted outside the auth middleware.
type AuthHandler struct {
	service *authservice.Service
	logger  *zap.SugaredLogger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service *authservice.Service, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With("component", "auth_handler"),
	}
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input authservice.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "corpo da requisição inválido", nil)
		return
	}
	result, err := h.service.Login(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}
