package repository

import (
	"context"
	"fmt"
	"time"

	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"

	"gorm.io/gorm"
)

// UserRepository reads and updates user accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads one user. Returns gorm.ErrRecordNotFound when absent.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*userdomain.User, error) {
	var entity userdomain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// FindByEmail loads one user by login email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	var entity userdomain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListByIDs batch-loads the brief projection for a set of user ids, used to
// attach author and approver names to a page of prompts.
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uint) (map[uint]userdomain.Brief, error) {
	result := make(map[uint]userdomain.Brief, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var items []userdomain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load users by ids: %w", err)
	}
	for i := range items {
		result[items[i].ID] = userdomain.BriefOf(&items[i])
	}
	return result, nil
}

// CountActive reports how many accounts are active, for the dashboard.
func (r *UserRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&userdomain.User{}).
		Where("active = ?", true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	return count, nil
}

// UpdateLastSeen stamps the user's last activity time. Best-effort: callers
// typically log and ignore the error.
func (r *UserRepository) UpdateLastSeen(ctx context.Context, id uint, when time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&userdomain.User{}).
		Where("id = ?", id).
		Update("last_seen_at", when).Error; err != nil {
		return fmt.Errorf("update last seen: %w", err)
	}
	return nil
}
