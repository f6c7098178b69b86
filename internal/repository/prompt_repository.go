package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PromptRepository persists prompts, their keyword side table and the
// like/favorite join rows. It carries no business rules: permission and
// status checks live in the service layer.
type PromptRepository struct {
	db *gorm.DB
}

// NewPromptRepository creates a PromptRepository.
func NewPromptRepository(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// WithDB returns a copy bound to another handle, used inside transactions.
func (r *PromptRepository) WithDB(db *gorm.DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// Create inserts the prompt row and its keyword rows in one transaction and
// re-fetches the stored entity so the caller sees server-computed fields.
// The id is generated here; any caller-supplied id is discarded.
func (r *PromptRepository) Create(ctx context.Context, entity *promptdomain.Prompt, viewerID uint) (*promptdomain.Prompt, error) {
	if entity == nil {
		return nil, errors.New("prompt entity is nil")
	}
	entity.ID = uuid.NewString()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return fmt.Errorf("create prompt: %w", err)
		}
		if err := insertKeywords(tx, entity.ID, entity.Keywords); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, entity.ID, viewerID)
}

// Update rewrites the editable fields and replaces the keyword set. Returns
// whether the prompt row existed.
func (r *PromptRepository) Update(ctx context.Context, entity *promptdomain.Prompt) (bool, error) {
	if entity == nil {
		return false, errors.New("prompt entity is nil")
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&promptdomain.Prompt{}).
			Where("id = ?", entity.ID).
			Updates(map[string]any{
				"title":       entity.Title,
				"description": entity.Description,
				"content":     entity.Content,
				"category_id": entity.CategoryID,
				"public":      entity.Public,
				"updated_at":  entity.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("update prompt: %w", res.Error)
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		if err := tx.Where("prompt_id = ?", entity.ID).Delete(&promptdomain.Keyword{}).Error; err != nil {
			return fmt.Errorf("clear prompt keywords: %w", err)
		}
		return insertKeywords(tx, entity.ID, entity.Keywords)
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Delete removes the prompt and cascades over its side tables.
func (r *PromptRepository) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prompt_id = ?", id).Delete(&promptdomain.Keyword{}).Error; err != nil {
			return fmt.Errorf("delete prompt keywords: %w", err)
		}
		if err := tx.Where("prompt_id = ?", id).Delete(&promptdomain.Like{}).Error; err != nil {
			return fmt.Errorf("delete prompt likes: %w", err)
		}
		if err := tx.Where("prompt_id = ?", id).Delete(&promptdomain.Favorite{}).Error; err != nil {
			return fmt.Errorf("delete prompt favorites: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&promptdomain.Prompt{})
		if res.Error != nil {
			return fmt.Errorf("delete prompt: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FindByID loads one prompt with keywords and the viewer's reaction state.
// Returns gorm.ErrRecordNotFound when absent.
func (r *PromptRepository) FindByID(ctx context.Context, id string, viewerID uint) (*promptdomain.Prompt, error) {
	var entity promptdomain.Prompt
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	items := []promptdomain.Prompt{entity}
	if err := r.hydrate(ctx, viewerID, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListApproved returns publicly listable prompts, newest first.
func (r *PromptRepository) ListApproved(ctx context.Context, viewerID uint) ([]promptdomain.Prompt, error) {
	return r.list(ctx, viewerID, "status = ?", promptdomain.StatusApproved)
}

// ListByCategory returns approved prompts inside one category.
func (r *PromptRepository) ListByCategory(ctx context.Context, categoryID string, viewerID uint) ([]promptdomain.Prompt, error) {
	return r.list(ctx, viewerID, "category_id = ? AND status = ?", categoryID, promptdomain.StatusApproved)
}

// ListByCreator returns every prompt a user authored, whatever its status.
func (r *PromptRepository) ListByCreator(ctx context.Context, creatorID uint, viewerID uint) ([]promptdomain.Prompt, error) {
	return r.list(ctx, viewerID, "creator_id = ?", creatorID)
}

// ListPending returns prompts awaiting moderation.
func (r *PromptRepository) ListPending(ctx context.Context, viewerID uint) ([]promptdomain.Prompt, error) {
	return r.list(ctx, viewerID, "status = ?", promptdomain.StatusPending)
}

// ListFavoritesByUser returns the approved prompts a user has favorited.
func (r *PromptRepository) ListFavoritesByUser(ctx context.Context, userID uint) ([]promptdomain.Prompt, error) {
	var items []promptdomain.Prompt
	err := r.db.WithContext(ctx).
		Joins("JOIN prompt_favorites pf ON pf.prompt_id = prompts.id AND pf.user_id = ?", userID).
		Where("prompts.status = ?", promptdomain.StatusApproved).
		Order("pf.created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list favorite prompts: %w", err)
	}
	if err := r.hydrate(ctx, userID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search matches approved prompts whose title, description, content or
// keywords contain the term, optionally narrowed to a category set.
func (r *PromptRepository) Search(ctx context.Context, term string, categoryIDs []string, viewerID uint) ([]promptdomain.Prompt, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"
	query := r.db.WithContext(ctx).
		Where("status = ?", promptdomain.StatusApproved).
		Where(
			r.db.Where("title LIKE ?", pattern).
				Or("description LIKE ?", pattern).
				Or("content LIKE ?", pattern).
				Or("id IN (?)", r.db.Model(&promptdomain.Keyword{}).
					Select("prompt_id").
					Where("word LIKE ?", pattern)),
		)
	if len(categoryIDs) > 0 {
		query = query.Where("category_id IN ?", categoryIDs)
	}

	var items []promptdomain.Prompt
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("search prompts: %w", err)
	}
	if err := r.hydrate(ctx, viewerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// Approve flips a pending prompt to approved, stamping approver and time.
// The status guard lives in the WHERE clause so a concurrent second approval
// affects zero rows instead of overwriting the first.
func (r *PromptRepository) Approve(ctx context.Context, id string, approverID uint, when time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&promptdomain.Prompt{}).
		Where("id = ? AND status = ?", id, promptdomain.StatusPending).
		Updates(map[string]any{
			"status":      promptdomain.StatusApproved,
			"approver_id": approverID,
			"approved_at": when,
		})
	if res.Error != nil {
		return false, fmt.Errorf("approve prompt: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Reject flips a pending prompt to rejected, persisting the reason.
func (r *PromptRepository) Reject(ctx context.Context, id string, approverID uint, reason string, when time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&promptdomain.Prompt{}).
		Where("id = ? AND status = ?", id, promptdomain.StatusPending).
		Updates(map[string]any{
			"status":           promptdomain.StatusRejected,
			"approver_id":      approverID,
			"rejection_reason": reason,
			"updated_at":       when,
		})
	if res.Error != nil {
		return false, fmt.Errorf("reject prompt: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// list runs one filtered query and hydrates the page.
func (r *PromptRepository) list(ctx context.Context, viewerID uint, cond string, args ...any) ([]promptdomain.Prompt, error) {
	var items []promptdomain.Prompt
	if err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	if err := r.hydrate(ctx, viewerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// hydrate fills keywords, like counts and the viewer's liked/favorited flags
// for a page of prompts in three batch queries keyed by the page's ids.
func (r *PromptRepository) hydrate(ctx context.Context, viewerID uint, items []promptdomain.Prompt) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	for i := range items {
		ids = append(ids, items[i].ID)
	}

	var keywordRows []promptdomain.Keyword
	if err := r.db.WithContext(ctx).
		Where("prompt_id IN ?", ids).
		Order("word ASC").
		Find(&keywordRows).Error; err != nil {
		return fmt.Errorf("load prompt keywords: %w", err)
	}
	keywordsByPrompt := make(map[string][]string, len(ids))
	for _, row := range keywordRows {
		keywordsByPrompt[row.PromptID] = append(keywordsByPrompt[row.PromptID], row.Word)
	}

	type likeCount struct {
		PromptID string
		Total    int64
	}
	var counts []likeCount
	if err := r.db.WithContext(ctx).
		Model(&promptdomain.Like{}).
		Select("prompt_id, COUNT(*) AS total").
		Where("prompt_id IN ?", ids).
		Group("prompt_id").
		Scan(&counts).Error; err != nil {
		return fmt.Errorf("count prompt likes: %w", err)
	}
	countByPrompt := make(map[string]int64, len(counts))
	for _, row := range counts {
		countByPrompt[row.PromptID] = row.Total
	}

	likedSet := make(map[string]bool)
	favoritedSet := make(map[string]bool)
	if viewerID != 0 {
		var likedIDs []string
		if err := r.db.WithContext(ctx).
			Model(&promptdomain.Like{}).
			Where("user_id = ? AND prompt_id IN ?", viewerID, ids).
			Pluck("prompt_id", &likedIDs).Error; err != nil {
			return fmt.Errorf("load viewer likes: %w", err)
		}
		for _, id := range likedIDs {
			likedSet[id] = true
		}
		var favoritedIDs []string
		if err := r.db.WithContext(ctx).
			Model(&promptdomain.Favorite{}).
			Where("user_id = ? AND prompt_id IN ?", viewerID, ids).
			Pluck("prompt_id", &favoritedIDs).Error; err != nil {
			return fmt.Errorf("load viewer favorites: %w", err)
		}
		for _, id := range favoritedIDs {
			favoritedSet[id] = true
		}
	}

	for i := range items {
		p := &items[i]
		p.Keywords = keywordsByPrompt[p.ID]
		if p.Keywords == nil {
			p.Keywords = []string{}
		}
		p.LikeCount = countByPrompt[p.ID]
		p.Liked = likedSet[p.ID]
		p.Favorited = favoritedSet[p.ID]
	}
	return nil
}

// insertKeywords bulk-inserts the keyword rows for one prompt, deduplicating
// and skipping blanks.
func insertKeywords(tx *gorm.DB, promptID string, words []string) error {
	seen := make(map[string]struct{}, len(words))
	rows := make([]promptdomain.Keyword, 0, len(words))
	for _, word := range words {
		cleaned := strings.TrimSpace(word)
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		rows = append(rows, promptdomain.Keyword{PromptID: promptID, Word: cleaned})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert prompt keywords: %w", err)
	}
	return nil
}

// AddLike records a like; the composite primary key makes a duplicate insert
// a no-op. Returns whether a row was created.
func (r *PromptRepository) AddLike(ctx context.Context, promptID string, userID uint) (bool, error) {
	like := promptdomain.Like{PromptID: promptID, UserID: userID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	if res.Error != nil {
		return false, fmt.Errorf("create prompt like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveLike deletes a like; absent rows make this a no-op.
func (r *PromptRepository) RemoveLike(ctx context.Context, promptID string, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("prompt_id = ? AND user_id = ?", promptID, userID).
		Delete(&promptdomain.Like{})
	if res.Error != nil {
		return false, fmt.Errorf("delete prompt like: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// AddFavorite mirrors AddLike on the favorites table.
func (r *PromptRepository) AddFavorite(ctx context.Context, promptID string, userID uint) (bool, error) {
	fav := promptdomain.Favorite{PromptID: promptID, UserID: userID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&fav)
	if res.Error != nil {
		return false, fmt.Errorf("create prompt favorite: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RemoveFavorite mirrors RemoveLike on the favorites table.
func (r *PromptRepository) RemoveFavorite(ctx context.Context, promptID string, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("prompt_id = ? AND user_id = ?", promptID, userID).
		Delete(&promptdomain.Favorite{})
	if res.Error != nil {
		return false, fmt.Errorf("delete prompt favorite: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// LikeSnapshot returns the current like count and whether the viewer likes
// the prompt.
func (r *PromptRepository) LikeSnapshot(ctx context.Context, promptID string, viewerID uint) (int64, bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&promptdomain.Like{}).
		Where("prompt_id = ?", promptID).
		Count(&count).Error; err != nil {
		return 0, false, fmt.Errorf("count prompt likes: %w", err)
	}
	if viewerID == 0 {
		return count, false, nil
	}
	var mine int64
	if err := r.db.WithContext(ctx).
		Model(&promptdomain.Like{}).
		Where("prompt_id = ? AND user_id = ?", promptID, viewerID).
		Count(&mine).Error; err != nil {
		return 0, false, fmt.Errorf("check viewer like: %w", err)
	}
	return count, mine > 0, nil
}

// CountByCategory reports how many prompts still reference a category, used
// to refuse category deletion while in use.
func (r *PromptRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&promptdomain.Prompt{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count prompts by category: %w", err)
	}
	return count, nil
}
