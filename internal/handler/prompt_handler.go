package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	response "github.com/mpsp-digital/jurist-prompts-hub/internal/infra/common"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/ratelimit"
	promptservice "github.com/mpsp-digital/jurist-prompts-hub/internal/service/prompt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Creation is rate limited per user so a single script cannot flood the
// moderation queue.
const (
	createLimit  = 10
	createWindow = time.Minute
)

// PromptHandler exposes the prompt routes.
type PromptHandler struct {
	service *promptservice.Service
	limiter ratelimit.Limiter
	logger  *zap.SugaredLogger
}

// NewPromptHandler creates a PromptHandler.
func NewPromptHandler(service *promptservice.Service, limiter ratelimit.Limiter, logger *zap.SugaredLogger) *PromptHandler {
	return &PromptHandler{
		service: service,
		limiter: limiter,
		logger:  logger.With("component", "prompt_handler"),
	}
}

// ListApproved returns the public catalogue.
func (h *PromptHandler) ListApproved(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListApproved(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// Search filters approved prompts by ?termo= and optional ?categorias=a,b.
func (h *PromptHandler) Search(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	term := c.Query("termo")
	var categoryIDs []string
	if raw := strings.TrimSpace(c.Query("categorias")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				categoryIDs = append(categoryIDs, id)
			}
		}
	}
	items, err := h.service.Search(c.Request.Context(), term, categoryIDs, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// ListMine returns everything the caller authored, any status.
func (h *PromptHandler) ListMine(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// ListFavorites returns the caller's favorited prompts.
func (h *PromptHandler) ListFavorites(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// ListPending returns the moderation queue. Gated on the admin flag before
// the service runs so ordinary users get a clean 403.
func (h *PromptHandler) ListPending(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !isAdmin(c) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "acesso restrito a aprovadores", nil)
		return
	}
	items, err := h.service.ListPending(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// ListByCategory returns approved prompts inside one category.
func (h *PromptHandler) ListByCategory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	items, err := h.service.ListByCategory(c.Request.Context(), c.Param("categoriaId"), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items, nil)
}

// Get returns one prompt.
func (h *PromptHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	entity, err := h.service.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entity, nil)
}

// Create stores a new prompt, rate limited per user.
func (h *PromptHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if h.limiter != nil {
		key := "prompt:create:" + strconv.FormatUint(uint64(userID), 10)
		verdict, err := h.limiter.Allow(c.Request.Context(), key, createLimit, createWindow)
		if err != nil {
			// A broken limiter must not take prompt creation down with it.
			h.logger.Warnw("rate limit check failed", "userID", userID, "error", err)
		} else if !verdict.Allowed {
			retry := int(math.Ceil(verdict.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retry))
			response.Fail(c, http.StatusTooManyRequests, response.ErrTooManyRequests,
				"limite de criação de prompts atingido, tente novamente em instantes", nil)
			return
		}
	}

	var input promptservice.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "corpo da requisição inválido", nil)
		return
	}

	created, err := h.service.Create(c.Request.Context(), input, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, created, nil)
}

// Update rewrites a prompt the caller created.
func (h *PromptHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var input promptservice.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "corpo da requisição inválido", nil)
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), input, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated, nil)
}

// Delete removes a prompt the caller created.
func (h *PromptHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		writeServiceError(c, err)
		return
	}
	response.NoContent(c)
}

// Like records the caller's like.
func (h *PromptHandler) Like(c *gin.Context) {
	h.react(c, h.service.Like)
}

// Unlike removes the caller's like.
func (h *PromptHandler) Unlike(c *gin.Context) {
	h.react(c, h.service.Unlike)
}

// Favorite records the caller's favorite.
func (h *PromptHandler) Favorite(c *gin.Context) {
	h.react(c, h.service.Favorite)
}

// Unfavorite removes the caller's favorite.
func (h *PromptHandler) Unfavorite(c *gin.Context) {
	h.react(c, h.service.Unfavorite)
}

func (h *PromptHandler) react(
	c *gin.Context,
	op func(ctx context.Context, id string, userID uint) (*promptservice.ReactionResult, error),
) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := op(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result, nil)
}

// Approve moves a pending prompt to approved.
func (h *PromptHandler) Approve(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !isAdmin(c) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "acesso restrito a aprovadores", nil)
		return
	}
	entity, err := h.service.Approve(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entity, nil)
}

// rejectRequest is the body of POST /prompts/:id/rejeitar.
type rejectRequest struct {
	Reason string `json:"motivo"`
}

// Reject moves a pending prompt to rejected with a mandatory reason.
func (h *PromptHandler) Reject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !isAdmin(c) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden, "acesso restrito a aprovadores", nil)
		return
	}
	var body rejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrBadRequest, "corpo da requisição inválido", nil)
		return
	}
	entity, err := h.service.Reject(c.Request.Context(), c.Param("id"), userID, body.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, entity, nil)
}
