package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/handler"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/ratelimit"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/token"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/middleware"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/repository"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/server"
	authsvc "github.com/mpsp-digital/jurist-prompts-hub/internal/service/auth"
	categorysvc "github.com/mpsp-digital/jurist-prompts-hub/internal/service/category"
	dashboardsvc "github.com/mpsp-digital/jurist-prompts-hub/internal/service/dashboard"
	promptsvc "github.com/mpsp-digital/jurist-prompts-hub/internal/service/prompt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "segredo-de-teste"

type testEnv struct {
	router     http.Handler
	db         *gorm.DB
	authorTok  string
	otherTok   string
	adminTok   string
	promptRepo *repository.PromptRepository
}

func setupEnv(t *testing.T) *testEnv {
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
		{ID: 1, Name: "Ana Autora", Email: "ana@mpsp.mp.br", Role: "Promotor", Active: true},
		{ID: 2, Name: "Outro", Email: "outro@mpsp.mp.br", Role: "Promotor", Active: true},
		{ID: 3, Name: "Carla Admin", Email: "carla@mpsp.mp.br", Role: userdomain.RoleAdministrator, Active: true},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	if err := db.Create(&categorydomain.Category{ID: "cat-1", Name: "Criminal", Active: true}).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	logger := zap.NewNop().Sugar()
	promptRepo := repository.NewPromptRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	tokens := token.NewJWTManager(testSecret, time.Hour)

	router := server.NewRouter(server.RouterOptions{
		AuthHandler:      handler.NewAuthHandler(authsvc.NewService(userRepo, tokens, logger), logger),
		PromptHandler:    handler.NewPromptHandler(promptsvc.NewService(promptRepo, categoryRepo, userRepo, logger), ratelimit.NewMemoryLimiter(), logger),
		CategoryHandler:  handler.NewCategoryHandler(categorysvc.NewService(categoryRepo, promptRepo, logger), logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardsvc.NewService(statsRepo, logger), logger),
		AuthMW:           middleware.NewAuthMiddleware(testSecret),
	})

	mint := func(u *userdomain.User) string {
		raw, _, err := tokens.GenerateAccessToken(u)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		return raw
	}

	return &testEnv{
		router:     router,
		db:         db,
		authorTok:  mint(&users[0]),
		otherTok:   mint(&users[1]),
		adminTok:   mint(&users[2]),
		promptRepo: promptRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	return envelope
}

func createBody() map[string]any {
	return map[string]any{
		"titulo":        "Modelo de denúncia",
		"conteudo":      "Excelentíssimo Senhor Doutor Juiz...",
		"categoriaId":   "cat-1",
		"palavrasChave": []string{"denúncia"},
	}
}

func TestPromptRoutesRequireAuthentication(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/prompts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/prompts", "token-invalido", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestPromptCreateAndModerationFlow(t *testing.T) {
	env := setupEnv(t)

	// Author submits a prompt; it starts pending.
	rec := env.do(t, http.MethodPost, "/api/prompts", env.authorTok, createBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if envelope["sucesso"] != true {
		t.Fatalf("expected sucesso=true, got %v", envelope)
	}
	data := envelope["dados"].(map[string]any)
	if data["status"] != promptdomain.StatusPending {
		t.Fatalf("expected pending status, got %v", data["status"])
	}
	promptID := data["promptId"].(string)

	// Pending prompts are invisible on the public catalogue.
	rec = env.do(t, http.MethodGet, "/api/prompts", env.otherTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if dados := decodeEnvelope(t, rec)["dados"]; dados != nil && len(dados.([]any)) != 0 {
		t.Fatalf("expected empty catalogue, got %v", dados)
	}

	// The moderation queue is admin-only.
	rec = env.do(t, http.MethodGet, "/api/prompts/pendentes", env.otherTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/prompts/pendentes", env.adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}

	// Non-admin approval attempts are rejected before any business logic.
	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/aprovar", env.otherTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/aprovar", env.adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data = decodeEnvelope(t, rec)["dados"].(map[string]any)
	if data["status"] != promptdomain.StatusApproved {
		t.Fatalf("expected approved, got %v", data["status"])
	}

	// A second decision conflicts.
	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/aprovar", env.adminTok, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second approval, got %d", rec.Code)
	}

	// Now the catalogue shows it.
	rec = env.do(t, http.MethodGet, "/api/prompts", env.otherTok, nil)
	if got := len(decodeEnvelope(t, rec)["dados"].([]any)); got != 1 {
		t.Fatalf("expected 1 approved prompt, got %d", got)
	}
}

func TestPromptRejectRequiresReason(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/prompts", env.authorTok, createBody())
	promptID := decodeEnvelope(t, rec)["dados"].(map[string]any)["promptId"].(string)

	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/rejeitar", env.adminTok, map[string]any{"motivo": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank reason, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/rejeitar", env.adminTok, map[string]any{"motivo": "fora do padrão"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeEnvelope(t, rec)["dados"].(map[string]any)
	if data["motivoRejeicao"] != "fora do padrão" {
		t.Fatalf("expected persisted reason, got %v", data["motivoRejeicao"])
	}

	// The author sees the reason under /meus-prompts.
	rec = env.do(t, http.MethodGet, "/api/prompts/meus-prompts", env.authorTok, nil)
	mine := decodeEnvelope(t, rec)["dados"].([]any)
	if len(mine) != 1 || mine[0].(map[string]any)["motivoRejeicao"] != "fora do padrão" {
		t.Fatalf("expected rejection reason in author listing, got %v", mine)
	}
}

func TestPromptEditForbiddenForNonCreator(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/prompts", env.authorTok, createBody())
	promptID := decodeEnvelope(t, rec)["dados"].(map[string]any)["promptId"].(string)

	rec = env.do(t, http.MethodPut, "/api/prompts/"+promptID, env.otherTok, createBody())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-creator edit, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/prompts/"+promptID, env.otherTok, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-creator delete, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/prompts/"+promptID, env.authorTok, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for creator delete, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/prompts/"+promptID, env.authorTok, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestPromptLikeAndFavoriteEndpoints(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/prompts", env.authorTok, createBody())
	promptID := decodeEnvelope(t, rec)["dados"].(map[string]any)["promptId"].(string)
	if rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/aprovar", env.adminTok, nil); rec.Code != http.StatusOK {
		t.Fatalf("approve failed: %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/curtir", env.otherTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeEnvelope(t, rec)["dados"].(map[string]any)
	if data["alterado"] != true || data["curtidasCount"] != float64(1) {
		t.Fatalf("unexpected like payload: %v", data)
	}

	// Repeating the like changes nothing.
	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/curtir", env.otherTok, nil)
	data = decodeEnvelope(t, rec)["dados"].(map[string]any)
	if data["alterado"] != false || data["curtidasCount"] != float64(1) {
		t.Fatalf("expected idempotent like, got %v", data)
	}

	rec = env.do(t, http.MethodPost, "/api/prompts/"+promptID+"/favoritar", env.otherTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/prompts/favoritos", env.otherTok, nil)
	favorites := decodeEnvelope(t, rec)["dados"].([]any)
	if len(favorites) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favorites))
	}

	rec = env.do(t, http.MethodDelete, "/api/prompts/"+promptID+"/curtir", env.otherTok, nil)
	data = decodeEnvelope(t, rec)["dados"].(map[string]any)
	if data["curtidasCount"] != float64(0) {
		t.Fatalf("expected zero likes after unlike, got %v", data)
	}
}

func TestPromptCreateRateLimited(t *testing.T) {
	env := setupEnv(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		body := createBody()
		body["titulo"] = fmt.Sprintf("Modelo %d", i)
		last = env.do(t, http.MethodPost, "/api/prompts", env.authorTok, body)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the 11th create, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestSearchEndpointFiltersApproved(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	seed := &promptdomain.Prompt{
		Title:      "Denúncia por roubo",
		Content:    "Conteúdo",
		CategoryID: "cat-1",
		Status:     promptdomain.StatusPending,
		CreatorID:  1,
		CreatedAt:  time.Now(),
		Keywords:   []string{"roubo"},
	}
	created, err := env.promptRepo.Create(ctx, seed, 1)
	if err != nil {
		t.Fatalf("seed prompt: %v", err)
	}
	if _, err := env.promptRepo.Approve(ctx, created.ID, 3, time.Now()); err != nil {
		t.Fatalf("approve seed: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/prompts/search?termo=roubo", env.otherTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	results := decodeEnvelope(t, rec)["dados"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	rec = env.do(t, http.MethodGet, "/api/prompts/search?termo=", env.otherTok, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank term, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/prompts/search?termo=roubo&categorias=outra-cat", env.otherTok, nil)
	if got := decodeEnvelope(t, rec)["dados"]; got != nil && len(got.([]any)) != 0 {
		t.Fatalf("expected category filter to exclude, got %v", got)
	}
}
