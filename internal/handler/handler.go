package handler

import (
	"errors"
	"net/http"

	response "github.com/mpsp-digital/jurist-prompts-hub/internal/infra/common"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/middleware"
	authservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/auth"
	categoryservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/category"
	dashboardservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/dashboard"
	promptservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/prompt"

	"github.com/gin-gonic/gin"
)

// extractUserID reads the authenticated user id the auth middleware stored.
func extractUserID(c *gin.Context) (uint, bool) {
	raw, exists := c.Get(middleware.ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := raw.(uint)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// extractRole reads the caller's role string, empty when unset.
func extractRole(c *gin.Context) string {
	raw, exists := c.Get(middleware.ContextRole)
	if !exists {
		return ""
	}
	role, _ := raw.(string)
	return role
}

// isAdmin reports whether the auth middleware flagged the caller as an
// administrator.
func isAdmin(c *gin.Context) bool {
	raw, exists := c.Get(middleware.ContextIsAdmin)
	if !exists {
		return false
	}
	flag, _ := raw.(bool)
	return flag
}

// requireUser aborts with 401 when no authenticated identity is present and
// returns the user id otherwise.
func requireUser(c *gin.Context) (uint, bool) {
	id, ok := extractUserID(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "usuário não autenticado", nil)
		return 0, false
	}
	return id, true
}

// writeServiceError is the single place service errors become HTTP statuses:
// validation 400, credentials 401, permission 403, not-found 404, state and
// uniqueness conflicts 409, everything else 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, promptservice.ErrValidation),
		errors.Is(err, categoryservice.ErrValidation),
		errors.Is(err, dashboardservice.ErrInvalidPeriod):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation, err.Error(), nil)
	case errors.Is(err, authservice.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials, err.Error(), nil)
	case errors.Is(err, promptservice.ErrPermissionDenied),
		errors.Is(err, authservice.ErrAccountDisabled):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, err.Error(), nil)
	case errors.Is(err, promptservice.ErrNotFound),
		errors.Is(err, categoryservice.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound, err.Error(), nil)
	case errors.Is(err, promptservice.ErrNotPending):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState, err.Error(), nil)
	case errors.Is(err, categoryservice.ErrNameTaken),
		errors.Is(err, categoryservice.ErrCategoryInUse):
		response.Fail(c, http.StatusConflict, response.ErrConflict, err.Error(), nil)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "erro interno do servidor", nil)
	}
}
