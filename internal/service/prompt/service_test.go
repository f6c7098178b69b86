package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	authorID   = uint(1)
	strangerID = uint(2)
	adminID    = uint(3)
	inactiveID = uint(4)
)

func setupPromptService(t *testing.T) (*Service, *gorm.DB) {
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
		&promptdomain.Keyword{},
		&promptdomain.Like{},
		&promptdomain.Favorite{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	users := []userdomain.User{
		{ID: authorID, Name: "Ana Autora", Email: "ana@mpsp.mp.br", Role: "Promotor", Active: true},
		{ID: strangerID, Name: "Outro Usuário", Email: "outro@mpsp.mp.br", Role: "Promotor", Active: true},
		{ID: adminID, Name: "Carla Admin", Email: "carla@mpsp.mp.br", Role: userdomain.RoleAdministrator, Active: true},
		{ID: inactiveID, Name: "Admin Inativo", Email: "inativo@mpsp.mp.br", Role: userdomain.RoleAdministrator, Active: false},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	categories := []categorydomain.Category{
		{ID: "cat-criminal", Name: "Criminal", Active: true},
		{ID: "cat-desativada", Name: "Arquivada", Active: false},
	}
	if err := db.Create(&categories).Error; err != nil {
		t.Fatalf("seed categories: %v", err)
	}

	service := NewService(
		repository.NewPromptRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewUserRepository(db),
		zap.NewNop().Sugar(),
	)
	return service, db
}

func validInput() CreateInput {
	return CreateInput{
		Title:      "Modelo de denúncia por furto",
		Content:    "Excelentíssimo Senhor Doutor Juiz de Direito...",
		CategoryID: "cat-criminal",
		Keywords:   []string{"furto", "denúncia"},
	}
}

func TestPromptServiceCreateForcesPendingAndCreator(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != promptdomain.StatusPending {
		t.Fatalf("expected pending, got %q", created.Status)
	}
	if created.CreatorID != authorID {
		t.Fatalf("expected creator %d, got %d", authorID, created.CreatorID)
	}
	if created.Creator == nil || created.Creator.Name != "Ana Autora" {
		t.Fatalf("expected hydrated creator brief, got %+v", created.Creator)
	}
	if created.Category == nil || created.Category.Name != "Criminal" {
		t.Fatalf("expected hydrated category, got %+v", created.Category)
	}
}

func TestPromptServiceCreateValidation(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		mutate func(*CreateInput)
	}{
		{"blank title", func(in *CreateInput) { in.Title = "   " }},
		{"blank content", func(in *CreateInput) { in.Content = "" }},
		{"blank category", func(in *CreateInput) { in.CategoryID = "" }},
		{"unknown category", func(in *CreateInput) { in.CategoryID = "nao-existe" }},
		{"inactive category", func(in *CreateInput) { in.CategoryID = "cat-desativada" }},
		{"title too long", func(in *CreateInput) { in.Title = strings.Repeat("á", promptdomain.MaxTitleLength+1) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			if _, err := service.Create(ctx, input, authorID); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	// A title of exactly the cap passes.
	input := validInput()
	input.Title = strings.Repeat("á", promptdomain.MaxTitleLength)
	if _, err := service.Create(ctx, input, authorID); err != nil {
		t.Fatalf("title at cap should pass: %v", err)
	}
}

func TestPromptServiceUpdateRequiresCreator(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	update := UpdateInput{
		Title:      "Modelo revisado",
		Content:    created.Content,
		CategoryID: created.CategoryID,
		Keywords:   []string{"revisado"},
	}

	if _, err := service.Update(ctx, created.ID, update, strangerID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for non-creator, got %v", err)
	}
	if _, err := service.Update(ctx, "nao-existe", update, authorID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing prompt, got %v", err)
	}

	updated, err := service.Update(ctx, created.ID, update, authorID)
	if err != nil {
		t.Fatalf("update by creator: %v", err)
	}
	if updated.Title != "Modelo revisado" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}
	if updated.UpdatedAt == nil {
		t.Fatalf("expected UpdatedAt stamp")
	}
	if len(updated.Keywords) != 1 || updated.Keywords[0] != "revisado" {
		t.Fatalf("expected replaced keywords, got %v", updated.Keywords)
	}
}

func TestPromptServiceDeleteRequiresCreator(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := service.Delete(ctx, created.ID, strangerID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := service.Delete(ctx, "nao-existe", authorID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := service.Delete(ctx, created.ID, authorID); err != nil {
		t.Fatalf("delete by creator: %v", err)
	}
	if _, err := service.Get(ctx, created.ID, authorID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected prompt to be gone, got %v", err)
	}
}

func TestPromptServiceApprovePermissionAndLifecycle(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Ordinary users and inactive admins cannot moderate.
	if _, err := service.Approve(ctx, created.ID, strangerID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for ordinary user, got %v", err)
	}
	if _, err := service.Approve(ctx, created.ID, inactiveID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for inactive admin, got %v", err)
	}

	approved, err := service.Approve(ctx, created.ID, adminID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != promptdomain.StatusApproved {
		t.Fatalf("expected approved, got %q", approved.Status)
	}
	if approved.ApproverID == nil || *approved.ApproverID != adminID {
		t.Fatalf("expected approver %d, got %v", adminID, approved.ApproverID)
	}
	if approved.ApprovedAt == nil {
		t.Fatalf("expected approval timestamp")
	}

	// The decision is single-shot.
	if _, err := service.Approve(ctx, created.ID, adminID); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending on second approval, got %v", err)
	}
	if _, err := service.Reject(ctx, created.ID, adminID, "tarde demais"); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending on reject after approval, got %v", err)
	}
	if _, err := service.Approve(ctx, "nao-existe", adminID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPromptServiceRejectRequiresReason(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.Reject(ctx, created.ID, adminID, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank reason, got %v", err)
	}

	rejected, err := service.Reject(ctx, created.ID, adminID, "conteúdo incompleto")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != promptdomain.StatusRejected {
		t.Fatalf("expected rejected, got %q", rejected.Status)
	}
	if rejected.RejectionReason != "conteúdo incompleto" {
		t.Fatalf("expected persisted reason, got %q", rejected.RejectionReason)
	}

	// The author sees the reason on their own listing.
	mine, err := service.ListMine(ctx, authorID)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].RejectionReason != "conteúdo incompleto" {
		t.Fatalf("expected rejection reason in author listing, got %+v", mine)
	}
}

func TestPromptServiceReactionsReturnSnapshot(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Approve(ctx, created.ID, adminID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	result, err := service.Like(ctx, created.ID, strangerID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !result.Changed || result.LikeCount != 1 || !result.Liked {
		t.Fatalf("unexpected like result: %+v", result)
	}

	repeat, err := service.Like(ctx, created.ID, strangerID)
	if err != nil {
		t.Fatalf("repeat like: %v", err)
	}
	if repeat.Changed || repeat.LikeCount != 1 {
		t.Fatalf("expected idempotent like, got %+v", repeat)
	}

	undone, err := service.Unlike(ctx, created.ID, strangerID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if !undone.Changed || undone.LikeCount != 0 || undone.Liked {
		t.Fatalf("unexpected unlike result: %+v", undone)
	}

	if _, err := service.Favorite(ctx, "nao-existe", strangerID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPromptServiceListPendingRequiresApprover(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	if _, err := service.Create(ctx, validInput(), authorID); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := service.ListPending(ctx, strangerID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	pending, err := service.ListPending(ctx, adminID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending prompt, got %d", len(pending))
	}
}

func TestPromptServiceSearchRequiresTerm(t *testing.T) {
	service, _ := setupPromptService(t)
	ctx := context.Background()

	if _, err := service.Search(ctx, "   ", nil, authorID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for blank term, got %v", err)
	}

	created, err := service.Create(ctx, validInput(), authorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Approve(ctx, created.ID, adminID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	results, err := service.Search(ctx, "furto", nil, authorID)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}
