package repository

import (
	"context"
	"fmt"
	"time"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"

	"gorm.io/gorm"
)

// StatsRepository runs the aggregate queries behind the dashboard. Every
// method is a plain read over the live tables, no materialized state.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a StatsRepository.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// StatusCounts holds per-status prompt totals.
type StatusCounts struct {
	Total    int64
	Approved int64
	Pending  int64
	Rejected int64
}

// CategorySlice is one category's share of the prompt corpus.
type CategorySlice struct {
	CategoryID string
	Name       string
	Count      int64
}

// DayCount is one day of prompt creation volume.
type DayCount struct {
	Day   string
	Count int64
}

// CreatorCount is one author's prompt volume.
type CreatorCount struct {
	UserID uint
	Name   string
	Count  int64
}

// PromptLikes pairs a prompt with its like total, for the top-liked ranking.
type PromptLikes struct {
	PromptID string
	Title    string
	Count    int64
}

// CountByStatus returns prompt totals per moderation status, optionally
// limited to prompts created inside [from, to).
func (r *StatsRepository) CountByStatus(ctx context.Context, from, to *time.Time) (StatusCounts, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	query := r.db.WithContext(ctx).
		Model(&promptdomain.Prompt{}).
		Select("status, COUNT(*) AS total").
		Group("status")
	query = applyPeriod(query, "created_at", from, to)
	if err := query.Scan(&rows).Error; err != nil {
		return StatusCounts{}, fmt.Errorf("count prompts by status: %w", err)
	}

	var out StatusCounts
	for _, item := range rows {
		out.Total += item.Total
		switch item.Status {
		case promptdomain.StatusApproved:
			out.Approved = item.Total
		case promptdomain.StatusPending:
			out.Pending = item.Total
		case promptdomain.StatusRejected:
			out.Rejected = item.Total
		}
	}
	return out, nil
}

// CountLikes returns the total number of likes, optionally inside a period.
func (r *StatsRepository) CountLikes(ctx context.Context, from, to *time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&promptdomain.Like{})
	query = applyPeriod(query, "created_at", from, to)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

// CountFavorites returns the total number of favorites, optionally inside a
// period.
func (r *StatsRepository) CountFavorites(ctx context.Context, from, to *time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&promptdomain.Favorite{})
	query = applyPeriod(query, "created_at", from, to)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count favorites: %w", err)
	}
	return count, nil
}

// CountCategories returns how many active categories exist.
func (r *StatsRepository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&categorydomain.Category{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}

// CategoryDistribution returns approved-prompt counts per category, largest
// first. Categories with no prompts are omitted.
func (r *StatsRepository) CategoryDistribution(ctx context.Context, from, to *time.Time) ([]CategorySlice, error) {
	var rows []CategorySlice
	query := r.db.WithContext(ctx).
		Model(&promptdomain.Prompt{}).
		Select("prompts.category_id AS category_id, categories.name AS name, COUNT(*) AS count").
		Joins("JOIN categories ON categories.id = prompts.category_id").
		Where("prompts.status = ?", promptdomain.StatusApproved).
		Group("prompts.category_id, categories.name").
		Order("count DESC")
	query = applyPeriod(query, "prompts.created_at", from, to)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load category distribution: %w", err)
	}
	return rows, nil
}

// CreatedPerDay returns the daily prompt creation series inside a period.
func (r *StatsRepository) CreatedPerDay(ctx context.Context, from, to *time.Time) ([]DayCount, error) {
	var rows []DayCount
	query := r.db.WithContext(ctx).
		Model(&promptdomain.Prompt{}).
		Select("DATE(created_at) AS day, COUNT(*) AS count").
		Group("DATE(created_at)").
		Order("day ASC")
	query = applyPeriod(query, "created_at", from, to)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load creation series: %w", err)
	}
	return rows, nil
}

// TopCreators returns the most prolific authors, capped at limit.
func (r *StatsRepository) TopCreators(ctx context.Context, limit int, from, to *time.Time) ([]CreatorCount, error) {
	var rows []CreatorCount
	query := r.db.WithContext(ctx).
		Model(&promptdomain.Prompt{}).
		Select("prompts.creator_id AS user_id, users.name AS name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = prompts.creator_id").
		Group("prompts.creator_id, users.name").
		Order("count DESC").
		Limit(limit)
	query = applyPeriod(query, "prompts.created_at", from, to)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load top creators: %w", err)
	}
	return rows, nil
}

// TopPrompts returns the most liked approved prompts, capped at limit.
func (r *StatsRepository) TopPrompts(ctx context.Context, limit int, from, to *time.Time) ([]PromptLikes, error) {
	var rows []PromptLikes
	query := r.db.WithContext(ctx).
		Model(&promptdomain.Like{}).
		Select("prompt_likes.prompt_id AS prompt_id, prompts.title AS title, COUNT(*) AS count").
		Joins("JOIN prompts ON prompts.id = prompt_likes.prompt_id").
		Where("prompts.status = ?", promptdomain.StatusApproved).
		Group("prompt_likes.prompt_id, prompts.title").
		Order("count DESC").
		Limit(limit)
	query = applyPeriod(query, "prompt_likes.created_at", from, to)
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load top prompts: %w", err)
	}
	return rows, nil
}

// CountActiveUsers returns how many accounts are active.
func (r *StatsRepository) CountActiveUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&userdomain.User{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}

// applyPeriod narrows a query to [from, to) on the given column. Nil bounds
// are open.
func applyPeriod(query *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where(column+" >= ?", *from)
	}
	if to != nil {
		query = query.Where(column+" < ?", *to)
	}
	return query
}
