package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDashboardService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&userdomain.User{},
		&categorydomain.Category{},
		&promptdomain.Prompt{},
		&promptdomain.Like{},
		&promptdomain.Favorite{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	service := NewService(repository.NewStatsRepository(db), zap.NewNop().Sugar())
	return service, db
}

func seedDashboardData(t *testing.T, db *gorm.DB) {
	t.Helper()

	users := []userdomain.User{
		{ID: 1, Name: "Ana", Email: "ana@mpsp.mp.br", Active: true},
		{ID: 2, Name: "Bruno", Email: "bruno@mpsp.mp.br", Active: true},
		{ID: 3, Name: "Desativado", Email: "off@mpsp.mp.br", Active: false},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}

	categories := []categorydomain.Category{
		{ID: "cat-1", Name: "Criminal", Active: true},
		{ID: "cat-2", Name: "Cível", Active: true},
	}
	if err := db.Create(&categories).Error; err != nil {
		t.Fatalf("seed categories: %v", err)
	}

	now := time.Now()
	prompts := []promptdomain.Prompt{
		{ID: "p-1", Title: "Denúncia", Content: "...", CategoryID: "cat-1", Status: promptdomain.StatusApproved, CreatorID: 1, CreatedAt: now},
		{ID: "p-2", Title: "Alegações", Content: "...", CategoryID: "cat-1", Status: promptdomain.StatusApproved, CreatorID: 1, CreatedAt: now},
		{ID: "p-3", Title: "Contestação", Content: "...", CategoryID: "cat-2", Status: promptdomain.StatusApproved, CreatorID: 2, CreatedAt: now},
		{ID: "p-4", Title: "Rascunho", Content: "...", CategoryID: "cat-2", Status: promptdomain.StatusPending, CreatorID: 2, CreatedAt: now},
		{ID: "p-5", Title: "Recusado", Content: "...", CategoryID: "cat-2", Status: promptdomain.StatusRejected, CreatorID: 2, CreatedAt: now.AddDate(0, 0, -30)},
	}
	if err := db.Create(&prompts).Error; err != nil {
		t.Fatalf("seed prompts: %v", err)
	}

	likes := []promptdomain.Like{
		{PromptID: "p-1", UserID: 1},
		{PromptID: "p-1", UserID: 2},
		{PromptID: "p-3", UserID: 1},
	}
	if err := db.Create(&likes).Error; err != nil {
		t.Fatalf("seed likes: %v", err)
	}
	favorites := []promptdomain.Favorite{{PromptID: "p-1", UserID: 2}}
	if err := db.Create(&favorites).Error; err != nil {
		t.Fatalf("seed favorites: %v", err)
	}
}

func TestDashboardServiceOverviewAggregates(t *testing.T) {
	service, db := setupDashboardService(t)
	seedDashboardData(t, db)

	data, err := service.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if data.TotalPrompts != 5 || data.ApprovedPrompts != 3 || data.PendingPrompts != 1 || data.RejectedPrompts != 1 {
		t.Fatalf("unexpected status totals: %+v", data)
	}
	if data.TotalLikes != 3 || data.TotalFavorites != 1 {
		t.Fatalf("unexpected reaction totals: likes=%d favorites=%d", data.TotalLikes, data.TotalFavorites)
	}
	if data.TotalCategories != 2 || data.ActiveUsers != 2 {
		t.Fatalf("unexpected corpus totals: categories=%d users=%d", data.TotalCategories, data.ActiveUsers)
	}

	if len(data.ByCategory) != 2 {
		t.Fatalf("expected 2 category slices, got %d", len(data.ByCategory))
	}
	// Approved corpus: 2 in Criminal, 1 in Cível, largest first.
	if data.ByCategory[0].Name != "Criminal" || data.ByCategory[0].Count != 2 {
		t.Fatalf("unexpected top slice: %+v", data.ByCategory[0])
	}
	wantPercent := 66.7
	if data.ByCategory[0].Percent != wantPercent {
		t.Fatalf("expected %.1f%%, got %v", wantPercent, data.ByCategory[0].Percent)
	}

	if len(data.MostLikedPrompts) == 0 || data.MostLikedPrompts[0].PromptID != "p-1" || data.MostLikedPrompts[0].Likes != 2 {
		t.Fatalf("unexpected top prompts: %+v", data.MostLikedPrompts)
	}
	if len(data.TopCreators) == 0 || data.TopCreators[0].Count != 3 {
		t.Fatalf("unexpected top creators: %+v", data.TopCreators)
	}
}

func TestDashboardServicePeriodFiltersByDate(t *testing.T) {
	service, db := setupDashboardService(t)
	seedDashboardData(t, db)
	ctx := context.Background()

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now().AddDate(0, 0, 1)
	data, err := service.Period(ctx, from, to)
	if err != nil {
		t.Fatalf("period: %v", err)
	}
	// The 30-day-old rejected prompt falls outside the window.
	if data.TotalPrompts != 4 || data.RejectedPrompts != 0 {
		t.Fatalf("expected window to exclude old prompt: %+v", data)
	}

	if _, err := service.Period(ctx, to, from); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for inverted bounds, got %v", err)
	}
	if _, err := service.Period(ctx, time.Time{}, to); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod for zero bound, got %v", err)
	}
}
