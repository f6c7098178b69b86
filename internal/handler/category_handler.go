package handler

import (
	"net/http"

	response "github.com/mpsp-digital/jurist-prompts-hub/internal/infra/common"
	categoryservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/category"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CategoryHandler exposes the category routes. Reads are open to any
// authenticated user; writes require the administrator role.
type CategoryHandler struct {
	service *categoryservice.Service
	logger  *zap.SugaredLogger
}

// NewCategoryHandler creates a CategoryHandler.
func NewCategoryHandler(service *categoryservice.Service, logger *zap.SugaredLogger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  logger.With("component", "category_handler"),
	}
}

// List returns categories; ?todas=true includes deactivated ones for admins.
func (h *CategoryHandler) List(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	activeOnly := true
	if c.Query("todas") == "true" && isAdmin(c) {
		activeOnly = false
	}
	items, err := h.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// Get returns one category.
func (h *CategoryHandler) Get(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	entity, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entity, nil)
}

// Create stores a new category. Admin only.
func (h *CategoryHandler) Create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var input categoryservice.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "corpo da requisição inválido", nil)
		return
	}
	created, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, created, nil)
}

// Update rewrites a category. Admin only.
func (h *CategoryHandler) Update(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	var input categoryservice.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "corpo da requisição inválido", nil)
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated, nil)
}

// Delete removes an unused category. Admin only.
func (h *CategoryHandler) Delete(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CategoryHandler) requireAdmin(c *gin.Context) bool {
	if _, ok := requireUser(c); !ok {
		return false
	}
	if !isAdmin(c) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "acesso restrito a administradores", nil)
		return false
	}
	return true
}
