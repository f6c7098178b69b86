package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mpsp-digital/jurist-prompts-hub/internal/app"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/config"
	categorydomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/category"
	promptdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/prompt"
	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/handler"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/metrics"
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
)

// Application is the fully wired server: services for tests and tooling, the
// router for the HTTP listener.
type Application struct {
	Resources *app.Resources
	PromptSvc *promptsvc.Service
	Router    http.Handler
}

// BuildApplication wires repositories, services, handlers and middleware on
// top of the opened resources.
func BuildApplication(ctx context.Context, logger *zap.SugaredLogger, resources *app.Resources) (*Application, error) {
	flags := resources.Flags

	if flags.Mode == config.ModeLocal {
		if err := prepareLocalStore(ctx, resources, flags.Local); err != nil {
			return nil, err
		}
	} else if flags.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required outside local mode")
	}

	metrics.MustRegister()

	db := resources.DB()
	promptRepo := repository.NewPromptRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	tokens := token.NewJWTManager(flags.JWTSecret, flags.AccessTTL)

	var limiter ratelimit.Limiter
	if resources.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(resources.Redis, "juristhub")
	} else {
		limiter = ratelimit.NewMemoryLimiter()
		logger.Infow("using in-memory rate limiter; counters reset on restart")
	}

	promptService := promptsvc.NewService(promptRepo, categoryRepo, userRepo, logger)
	categoryService := categorysvc.NewService(categoryRepo, promptRepo, logger)
	dashboardService := dashboardsvc.NewService(statsRepo, logger)
	authService := authsvc.NewService(userRepo, tokens, logger)

	var authMW middleware.Authenticator
	if flags.Mode == config.ModeLocal {
		authMW = middleware.NewLocalAuthMiddleware(flags.Local.UserID, flags.Local.Role)
	} else {
		authMW = middleware.NewAuthMiddleware(flags.JWTSecret)
	}

	router := server.NewRouter(server.RouterOptions{
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		PromptHandler:    handler.NewPromptHandler(promptService, limiter, logger),
		CategoryHandler:  handler.NewCategoryHandler(categoryService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, logger),
		AuthMW:           authMW,
	})

	return &Application{
		Resources: resources,
		PromptSvc: promptService,
		Router:    router,
	}, nil
}

// prepareLocalStore migrates the sqlite schema and seeds the fixed local
// identity so permission checks resolve against a real account.
func prepareLocalStore(ctx context.Context, resources *app.Resources, local config.LocalRuntime) error {
	db := resources.DB().WithContext(ctx)
	if err := db.AutoMigrate(
		&userdomain.User{},
		&categorydomain.Category{},
		&promptdomain.Prompt{},
		&promptdomain.Keyword{},
		&promptdomain.Like{},
		&promptdomain.Favorite{},
	); err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}

	account := userdomain.User{
		ID:     local.UserID,
		Name:   "Usuário Local",
		Email:  "local@jurist-hub.dev",
		Role:   local.Role,
		Active: true,
	}
	if err := db.Where("id = ?", local.UserID).FirstOrCreate(&account).Error; err != nil {
		return fmt.Errorf("seed local user: %w", err)
	}
	return nil
}
