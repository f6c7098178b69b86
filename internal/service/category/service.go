package category

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sentinel errors the handlers translate into HTTP statuses.
var (
	ErrNotFound      = errors.New("categoria não encontrada")
	ErrValidation    = errors.New("dados inválidos")
	ErrNameTaken     = errors.New("já existe uma categoria com esse nome")
	ErrCategoryInUse = errors.New("categoria possui prompts vinculados")
)

// Input carries the caller-editable fields of a category.
type Input struct {
	Name        string `json:"nome"`
	Description string `json:"descricao"`
	Active      *bool  `json:"ativa"`
}

// Service owns category CRUD. Deletion is refused while prompts still
// reference the category.
type Service struct {
	categories *repository.CategoryRepository
	prompts    *repository.PromptRepository
	logger     *zap.SugaredLogger
}

// NewService creates a category Service.
func NewService(
	categories *repository.CategoryRepository,
	prompts *repository.PromptRepository,
	logger *zap.SugaredLogger,
) *Service {
	return &Service{
		categories: categories,
		prompts:    prompts,
		logger:     logger.With("component", "category_service"),
	}
}

// List returns categories; activeOnly hides deactivated ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]categorydomain.Category, error) {
	var (
		items []categorydomain.Category
		err   error
	)
	if activeOnly {
		items, err = s.categories.ListActive(ctx)
	} else {
		items, err = s.categories.ListAll(ctx)
	}
	if err != nil {
		s.logger.Errorw("list categories failed", "error", err)
		return nil, err
	}
	return items, nil
}

// Get loads one category.
func (s *Service) Get(ctx context.Context, id string) (*categorydomain.Category, error) {
	entity, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Errorw("load category failed", "categoryID", id, "error", err)
		return nil, err
	}
	return entity, nil
}

// Create validates and stores a new category. Names are unique.
func (s *Service) Create(ctx context.Context, input Input) (*categorydomain.Category, error) {
	log := s.logger.With("op", "create")

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome é obrigatório", ErrValidation)
	}
	taken, err := s.categories.ExistsByName(ctx, name, "")
	if err != nil {
		log.Errorw("name uniqueness check failed", "error", err)
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	entity := &categorydomain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Active:      active,
		CreatedAt:   time.Now(),
	}
	if err := s.categories.Create(ctx, entity); err != nil {
		log.Errorw("create category failed", "error", err)
		return nil, err
	}

	log.Infow("category created", "categoryID", entity.ID, "name", name)
	return entity, nil
}

// Update rewrites a category's name, description and active flag.
func (s *Service) Update(ctx context.Context, id string, input Input) (*categorydomain.Category, error) {
	log := s.logger.With("op", "update", "categoryID", id)

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nome é obrigatório", ErrValidation)
	}
	taken, err := s.categories.ExistsByName(ctx, name, id)
	if err != nil {
		log.Errorw("name uniqueness check failed", "error", err)
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	now := time.Now()
	current.Name = name
	current.Description = strings.TrimSpace(input.Description)
	if input.Active != nil {
		current.Active = *input.Active
	}
	current.UpdatedAt = &now

	updated, err := s.categories.Update(ctx, current)
	if err != nil {
		log.Errorw("update category failed", "error", err)
		return nil, err
	}
	if !updated {
		return nil, ErrNotFound
	}

	log.Infow("category updated")
	return current, nil
}

// Delete removes an unused category. A category with prompts attached is
// refused so listings never dangle.
func (s *Service) Delete(ctx context.Context, id string) error {
	log := s.logger.With("op", "delete", "categoryID", id)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	inUse, err := s.prompts.CountByCategory(ctx, id)
	if err != nil {
		log.Errorw("usage count failed", "error", err)
		return err
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		log.Errorw("delete category failed", "error", err)
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	log.Infow("category deleted")
	return nil
}
