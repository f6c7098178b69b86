package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/mpsp-digital/jurist-prompts-hub/internal/handler"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions collects the handlers and middleware the router mounts. Nil
// handlers simply leave their routes unregistered, which keeps test setups
// small.
type RouterOptions struct {
	AuthHandler      *handler.AuthHandler
	PromptHandler    *handler.PromptHandler
	CategoryHandler  *handler.CategoryHandler
	DashboardHandler *handler.DashboardHandler
	AuthMW           middleware.Authenticator
}

// NewRouter builds the Gin engine with every REST route and the shared
// middleware stack.
func NewRouter(opts RouterOptions) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  false,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			if origin == "" {
				return false
			}
			if strings.HasPrefix(origin, "http://localhost:") {
				return true
			}
			if strings.HasPrefix(origin, "http://127.0.0.1:") {
				return true
			}
			return strings.HasSuffix(origin, ".mpsp.mp.br")
		},
	}))
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: gin.LogFormatter(func(params gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s\" %d %s\n",
				params.ClientIP,
				params.TimeStamp.Format(time.RFC3339),
				params.Method,
				params.Path,
				params.StatusCode,
				params.Latency,
			)
		}),
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		if opts.AuthHandler != nil {
			authGroup := api.Group("/auth")
			authGroup.POST("/login", opts.AuthHandler.Login)
		}

		if opts.PromptHandler != nil {
			prompts := api.Group("/prompts")
			if opts.AuthMW != nil {
				prompts.Use(opts.AuthMW.Handle())
			}
			prompts.GET("", opts.PromptHandler.ListApproved)
			prompts.GET("/search", opts.PromptHandler.Search)
			prompts.GET("/meus-prompts", opts.PromptHandler.ListMine)
			prompts.GET("/favoritos", opts.PromptHandler.ListFavorites)
			prompts.GET("/pendentes", opts.PromptHandler.ListPending)
			prompts.GET("/categoria/:categoriaId", opts.PromptHandler.ListByCategory)
			prompts.GET("/:id", opts.PromptHandler.Get)
			prompts.POST("", opts.PromptHandler.Create)
			prompts.PUT("/:id", opts.PromptHandler.Update)
			prompts.DELETE("/:id", opts.PromptHandler.Delete)
			prompts.POST("/:id/curtir", opts.PromptHandler.Like)
			prompts.DELETE("/:id/curtir", opts.PromptHandler.Unlike)
			prompts.POST("/:id/favoritar", opts.PromptHandler.Favorite)
			prompts.DELETE("/:id/favoritar", opts.PromptHandler.Unfavorite)
			prompts.POST("/:id/aprovar", opts.PromptHandler.Approve)
			prompts.POST("/:id/rejeitar", opts.PromptHandler.Reject)
		}

		if opts.CategoryHandler != nil {
			categories := api.Group("/categorias")
			if opts.AuthMW != nil {
				categories.Use(opts.AuthMW.Handle())
			}
			categories.GET("", opts.CategoryHandler.List)
			categories.GET("/:id", opts.CategoryHandler.Get)
			categories.POST("", opts.CategoryHandler.Create)
			categories.PUT("/:id", opts.CategoryHandler.Update)
			categories.DELETE("/:id", opts.CategoryHandler.Delete)
		}

		if opts.DashboardHandler != nil {
			dashboard := api.Group("/dashboard")
			if opts.AuthMW != nil {
				dashboard.Use(opts.AuthMW.Handle())
			}
			dashboard.GET("", opts.DashboardHandler.Overview)
			dashboard.GET("/periodo", opts.DashboardHandler.Period)
		}
	}

	return r
}
