package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/metrics"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sentinel errors the handlers translate into HTTP statuses.
var (
	ErrNotFound         = errors.New("prompt não encontrado")
	ErrPermissionDenied = errors.New("usuário sem permissão para esta operação")
	ErrNotPending       = errors.New("prompt não está pendente de aprovação")
	ErrValidation       = errors.New("dados inválidos")
)

// CreateInput carries the caller-editable fields of a new prompt. Status and
// creator are never taken from the caller.
type CreateInput struct {
	Title       string   `json:"titulo"`
	Description string   `json:"descricao"`
	Content     string   `json:"conteudo"`
	CategoryID  string   `json:"categoriaId"`
	Public      bool     `json:"publico"`
	Keywords    []string `json:"palavrasChave"`
}

// UpdateInput carries the editable fields of an existing prompt.
type UpdateInput struct {
	Title       string   `json:"titulo"`
	Description string   `json:"descricao"`
	Content     string   `json:"conteudo"`
	CategoryID  string   `json:"categoriaId"`
	Public      bool     `json:"publico"`
	Keywords    []string `json:"palavrasChave"`
}

// ReactionResult reports the outcome of a like/favorite toggle together with
// a fresh snapshot so the client can render without a second round trip.
type ReactionResult struct {
	Changed   bool  `json:"alterado"`
	LikeCount int64 `json:"curtidasCount"`
	Liked     bool  `json:"curtidoPeloUsuarioAtual"`
}

// Service owns the prompt lifecycle: authoring, moderation, reactions and
// the various listings. All permission checks happen here, not in handlers
// or repositories.
type Service struct {
	prompts    *repository.PromptRepository
	categories *repository.CategoryRepository
	users      *repository.UserRepository
	logger     *zap.SugaredLogger
}

// NewService creates a prompt Service.
func NewService(
	prompts *repository.PromptRepository,
	categories *repository.CategoryRepository,
	users *repository.UserRepository,
	logger *zap.SugaredLogger,
) *Service {
	return &Service{
		prompts:    prompts,
		categories: categories,
		users:      users,
		logger:     logger.With("component", "prompt_service"),
	}
}

// Create validates the input and stores a new prompt. Every prompt starts
// pending regardless of what the caller sends; the creator is the
// authenticated user.
func (s *Service) Create(ctx context.Context, input CreateInput, creatorID uint) (*promptdomain.Prompt, error) {
	log := s.logger.With("op", "create", "creatorID", creatorID)

	if err := s.validateFields(ctx, input.Title, input.Content, input.CategoryID); err != nil {
		metrics.RecordPromptWrite("create", "invalid")
		return nil, err
	}

	now := time.Now()
	entity := &promptdomain.Prompt{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Content:     strings.TrimSpace(input.Content),
		CategoryID:  strings.TrimSpace(input.CategoryID),
		Public:      input.Public,
		Status:      promptdomain.StatusPending,
		CreatorID:   creatorID,
		CreatedAt:   now,
		Keywords:    input.Keywords,
	}

	created, err := s.prompts.Create(ctx, entity, creatorID)
	if err != nil {
		metrics.RecordPromptWrite("create", "error")
		log.Errorw("create prompt failed", "error", err)
		return nil, err
	}
	if err := s.attachRefs(ctx, created); err != nil {
		return nil, err
	}

	metrics.RecordPromptWrite("create", "ok")
	log.Infow("prompt created", "promptID", created.ID)
	return created, nil
}

// Update rewrites an existing prompt. Only the creator may edit; the status
// and moderation fields are untouchable through this path.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput, requesterID uint) (*promptdomain.Prompt, error) {
	log := s.logger.With("op", "update", "promptID", id, "requesterID", requesterID)

	allowed, err := s.ValidateEditPermission(ctx, id, requesterID)
	if err != nil {
		log.Errorw("edit permission check failed", "error", err)
		return nil, err
	}
	if !allowed {
		if _, findErr := s.prompts.FindByID(ctx, id, requesterID); errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		metrics.RecordPromptWrite("update", "denied")
		return nil, ErrPermissionDenied
	}

	if err := s.validateFields(ctx, input.Title, input.Content, input.CategoryID); err != nil {
		metrics.RecordPromptWrite("update", "invalid")
		return nil, err
	}

	now := time.Now()
	entity := &promptdomain.Prompt{
		ID:          id,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Content:     strings.TrimSpace(input.Content),
		CategoryID:  strings.TrimSpace(input.CategoryID),
		Public:      input.Public,
		UpdatedAt:   &now,
		Keywords:    input.Keywords,
	}

	updated, err := s.prompts.Update(ctx, entity)
	if err != nil {
		metrics.RecordPromptWrite("update", "error")
		log.Errorw("update prompt failed", "error", err)
		return nil, err
	}
	if !updated {
		return nil, ErrNotFound
	}

	result, err := s.prompts.FindByID(ctx, id, requesterID)
	if err != nil {
		return nil, fmt.Errorf("reload updated prompt: %w", err)
	}
	if err := s.attachRefs(ctx, result); err != nil {
		return nil, err
	}

	metrics.RecordPromptWrite("update", "ok")
	log.Infow("prompt updated")
	return result, nil
}

// Delete removes a prompt and everything attached to it. Only the creator
// may delete.
func (s *Service) Delete(ctx context.Context, id string, requesterID uint) error {
	log := s.logger.With("op", "delete", "promptID", id, "requesterID", requesterID)

	allowed, err := s.ValidateEditPermission(ctx, id, requesterID)
	if err != nil {
		log.Errorw("edit permission check failed", "error", err)
		return err
	}
	if !allowed {
		if _, findErr := s.prompts.FindByID(ctx, id, requesterID); errors.Is(findErr, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		metrics.RecordPromptWrite("delete", "denied")
		return ErrPermissionDenied
	}

	deleted, err := s.prompts.Delete(ctx, id)
	if err != nil {
		metrics.RecordPromptWrite("delete", "error")
		log.Errorw("delete prompt failed", "error", err)
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	metrics.RecordPromptWrite("delete", "ok")
	log.Infow("prompt deleted")
	return nil
}

// Get loads one prompt with viewer-aware reaction state.
func (s *Service) Get(ctx context.Context, id string, viewerID uint) (*promptdomain.Prompt, error) {
	entity, err := s.prompts.FindByID(ctx, id, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorw("load prompt failed", "op", "get", "promptID", id, "error", err)
		return nil, err
	}
	if err := s.attachRefs(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// ListApproved returns the public catalogue.
func (s *Service) ListApproved(ctx context.Context, viewerID uint) ([]promptdomain.Prompt, error) {
	items, err := s.prompts.ListApproved(ctx, viewerID)
	if err != nil {
		s.logger.Errorw("list approved failed", "error", err)
		return nil, err
	}
	return items, s.attachRefsAll(ctx, items)
}

// ListByCategory returns approved prompts in one category.
func (s *Service) ListByCategory(ctx context.Context, categoryID string, viewerID uint) ([]promptdomain.Prompt, error) {
	items, err := s.prompts.ListByCategory(ctx, categoryID, viewerID)
	if err != nil {
		s.logger.Errorw("list by category failed", "categoryID", categoryID, "error", err)
		return nil, err
	}
	return items, s.attachRefsAll(ctx, items)
}

// ListMine returns everything the user authored, including pending and
// rejected items with their rejection reasons.
func (s *Service) ListMine(ctx context.Context, userID uint) ([]promptdomain.Prompt, error) {
	items, err := s.prompts.ListByCreator(ctx, userID, userID)
	if err != nil {
		s.logger.Errorw("list mine failed", "userID", userID, "error", err)
		return nil, err
	}
	return items, s.attachRefsAll(ctx, items)
}

// ListPending returns the moderation queue. Callers gate on approval
// permission before reaching here; the service re-checks anyway.
func (s *Service) ListPending(ctx context.Context, requesterID uint) ([]promptdomain.Prompt, error) {
	allowed, err := s.ValidateApprovalPermission(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}
	items, err := s.prompts.ListPending(ctx, requesterID)
	if err != nil {
		s.logger.Errorw("list pending failed", "error", err)
		return nil, err
	}
	return items, s.attachRefsAll(ctx, items)
}

// ListFavorites returns the user's favorited prompts.
func (s *Service) ListFavorites(ctx context.Context, userID uint) ([]promptdomain.Prompt, error) {
	items, err := s.prompts.ListFavoritesByUser(ctx, userID)
	if err != nil {
		s.logger.Errorw("list favorites failed", "userID", userID, "error", err)
		return nil, err
	}
	return items, s.attachRefsAll(ctx, items)
}

// Search matches approved prompts against a term, optionally narrowed to a
// set of categories.
func (s *Service) Search(ctx context.Context, term string, categoryIDs []string, viewerID uint) ([]promptdomain.Prompt, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: termo de busca é obrigatório", ErrValidation)
	}
	items, err := s.prompts.Search(ctx, term, categoryIDs, viewerID)
	if err != nil {
		s.logger.Errorw("search failed", "term", term, "error", err)
		return nil, err
	}
	return items, s.attachRefsAll(ctx, items)
}

// Like records the viewer's like. Repeated likes are no-ops.
func (s *Service) Like(ctx context.Context, id string, userID uint) (*ReactionResult, error) {
	return s.react(ctx, id, userID, "like", s.prompts.AddLike)
}

// Unlike removes the viewer's like. Absent likes are no-ops.
func (s *Service) Unlike(ctx context.Context, id string, userID uint) (*ReactionResult, error) {
	return s.react(ctx, id, userID, "unlike", s.prompts.RemoveLike)
}

// Favorite records the viewer's favorite.
func (s *Service) Favorite(ctx context.Context, id string, userID uint) (*ReactionResult, error) {
	return s.react(ctx, id, userID, "favorite", s.prompts.AddFavorite)
}

// Unfavorite removes the viewer's favorite.
func (s *Service) Unfavorite(ctx context.Context, id string, userID uint) (*ReactionResult, error) {
	return s.react(ctx, id, userID, "unfavorite", s.prompts.RemoveFavorite)
}

func (s *Service) react(
	ctx context.Context,
	id string,
	userID uint,
	reaction string,
	op func(context.Context, string, uint) (bool, error),
) (*ReactionResult, error) {
	log := s.logger.With("op", reaction, "promptID", id, "userID", userID)

	if _, err := s.prompts.FindByID(ctx, id, 0); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Errorw("load prompt failed", "error", err)
		return nil, err
	}

	changed, err := op(ctx, id, userID)
	if err != nil {
		log.Errorw("reaction write failed", "error", err)
		return nil, err
	}
	if changed {
		metrics.RecordReaction(reaction)
	}

	count, liked, err := s.prompts.LikeSnapshot(ctx, id, userID)
	if err != nil {
		log.Errorw("like snapshot failed", "error", err)
		return nil, err
	}
	return &ReactionResult{Changed: changed, LikeCount: count, Liked: liked}, nil
}

// Approve moves a pending prompt to approved. Requires the approver role.
func (s *Service) Approve(ctx context.Context, id string, approverID uint) (*promptdomain.Prompt, error) {
	return s.moderate(ctx, id, approverID, "approve", "")
}

// Reject moves a pending prompt to rejected. The reason is mandatory and is
// persisted on the prompt so the author sees it on their own listing.
func (s *Service) Reject(ctx context.Context, id string, approverID uint, reason string) (*promptdomain.Prompt, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: motivo da rejeição é obrigatório", ErrValidation)
	}
	return s.moderate(ctx, id, approverID, "reject", reason)
}

func (s *Service) moderate(ctx context.Context, id string, approverID uint, decision, reason string) (*promptdomain.Prompt, error) {
	log := s.logger.With("op", decision, "promptID", id, "approverID", approverID)

	allowed, err := s.ValidateApprovalPermission(ctx, approverID)
	if err != nil {
		log.Errorw("approval permission check failed", "error", err)
		return nil, err
	}
	if !allowed {
		metrics.RecordModeration(decision, "denied")
		return nil, ErrPermissionDenied
	}

	now := time.Now()
	var done bool
	if decision == "approve" {
		done, err = s.prompts.Approve(ctx, id, approverID, now)
	} else {
		done, err = s.prompts.Reject(ctx, id, approverID, reason, now)
	}
	if err != nil {
		metrics.RecordModeration(decision, "error")
		log.Errorw("moderation write failed", "error", err)
		return nil, err
	}
	if !done {
		// Zero rows means the prompt is missing or already decided; tell
		// the two apart for the client.
		if _, findErr := s.prompts.FindByID(ctx, id, 0); findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, findErr
		}
		metrics.RecordModeration(decision, "conflict")
		return nil, ErrNotPending
	}

	result, err := s.prompts.FindByID(ctx, id, approverID)
	if err != nil {
		return nil, fmt.Errorf("reload moderated prompt: %w", err)
	}
	if err := s.attachRefs(ctx, result); err != nil {
		return nil, err
	}

	metrics.RecordModeration(decision, "ok")
	log.Infow("prompt moderated", "status", result.Status)
	return result, nil
}

// ValidateEditPermission reports whether the user may edit or delete the
// prompt: it must exist and the user must be its creator. A missing prompt
// yields false, not an error.
func (s *Service) ValidateEditPermission(ctx context.Context, id string, userID uint) (bool, error) {
	entity, err := s.prompts.FindByID(ctx, id, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return entity.CreatorID == userID, nil
}

// ValidateApprovalPermission reports whether the user may moderate prompts:
// the account must exist, be active and carry the administrator role.
func (s *Service) ValidateApprovalPermission(ctx context.Context, userID uint) (bool, error) {
	account, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.IsApprover(), nil
}

// validateFields enforces the server-side invariants shared by create and
// update: mandatory title/content/category, title capped at 100 runes, and
// the category must exist and be active.
func (s *Service) validateFields(ctx context.Context, title, content, categoryID string) error {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	categoryID = strings.TrimSpace(categoryID)

	switch {
	case title == "":
		return fmt.Errorf("%w: título é obrigatório", ErrValidation)
	case utf8.RuneCountInString(title) > promptdomain.MaxTitleLength:
		return fmt.Errorf("%w: título excede %d caracteres", ErrValidation, promptdomain.MaxTitleLength)
	case content == "":
		return fmt.Errorf("%w: conteúdo é obrigatório", ErrValidation)
	case categoryID == "":
		return fmt.Errorf("%w: categoria é obrigatória", ErrValidation)
	}

	cat, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: categoria não encontrada", ErrValidation)
		}
		return err
	}
	if !cat.Active {
		return fmt.Errorf("%w: categoria inativa", ErrValidation)
	}
	return nil
}

// attachRefs fills the category and user briefs on one prompt.
func (s *Service) attachRefs(ctx context.Context, entity *promptdomain.Prompt) error {
	items := []promptdomain.Prompt{*entity}
	if err := s.attachRefsAll(ctx, items); err != nil {
		return err
	}
	*entity = items[0]
	return nil
}

// attachRefsAll batch-loads categories and user briefs for a page of prompts
// and attaches them, two queries total.
func (s *Service) attachRefsAll(ctx context.Context, items []promptdomain.Prompt) error {
	if len(items) == 0 {
		return nil
	}

	categoryIDs := make([]string, 0, len(items))
	userIDs := make([]uint, 0, len(items)*2)
	seenCat := make(map[string]struct{})
	seenUser := make(map[uint]struct{})
	for i := range items {
		if _, ok := seenCat[items[i].CategoryID]; !ok {
			seenCat[items[i].CategoryID] = struct{}{}
			categoryIDs = append(categoryIDs, items[i].CategoryID)
		}
		if _, ok := seenUser[items[i].CreatorID]; !ok {
			seenUser[items[i].CreatorID] = struct{}{}
			userIDs = append(userIDs, items[i].CreatorID)
		}
		if items[i].ApproverID != nil {
			if _, ok := seenUser[*items[i].ApproverID]; !ok {
				seenUser[*items[i].ApproverID] = struct{}{}
				userIDs = append(userIDs, *items[i].ApproverID)
			}
		}
	}

	categories, err := s.categories.ListByIDs(ctx, categoryIDs)
	if err != nil {
		return err
	}
	users, err := s.users.ListByIDs(ctx, userIDs)
	if err != nil {
		return err
	}

	for i := range items {
		if cat, ok := categories[items[i].CategoryID]; ok {
			c := cat
			items[i].Category = &c
		}
		if brief, ok := users[items[i].CreatorID]; ok {
			b := brief
			items[i].Creator = &b
		}
		if items[i].ApproverID != nil {
			if brief, ok := users[*items[i].ApproverID]; ok {
				b := brief
				items[i].Approver = &b
			}
		}
	}
	return nil
}
