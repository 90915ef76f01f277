package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/persona-chat-api/internal/middleware"
	"github.com/noah-isme/persona-chat-api/internal/service"
	"github.com/noah-isme/persona-chat-api/pkg/config"
	"github.com/noah-isme/persona-chat-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/persona-chat-api/pkg/middleware/cors"
	"github.com/noah-isme/persona-chat-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/persona-chat-api/pkg/middleware/requestid"
)

// SessionService is what the router needs from the auth service.
type SessionService interface {
	authService
	middleware.TokenAuthenticator
}

// RouterParams groups router dependencies. Redis may be nil, which disables
// rate limiting.
type RouterParams struct {
	Config     *config.Config
	Logger     *zap.Logger
	Auth       SessionService
	Users      userService
	Characters characterService
	Chat       chatService
	Metrics    *service.MetricsService
	Store      StoreChecker
	Redis      *redis.Client
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(p RouterParams) *gin.Engine {
	cfg := p.Config
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(p.Logger, "/health", "/metrics"))
	r.Use(middleware.Metrics(p.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(corsmiddleware.SecurityHeaders())
	r.Use(ratelimit.Middleware(p.Redis, ratelimit.Rule{
		Name:   "general",
		Max:    cfg.RateLimit.MaxRequests,
		Window: cfg.RateLimit.Window,
		Key:    ratelimit.KeyByIP("general"),
		Skip:   ratelimit.SkipPaths("/health", "/ready", "/metrics"),
	}, p.Logger))
	r.Use(middleware.WithResponseMeta())

	health := NewHealthHandler(p.Metrics, p.Store, cfg.Env)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	registerAuthRoutes(api.Group("/auth"), p)
	registerUserRoutes(api.Group("/users"), p)
	registerCharacterRoutes(api.Group("/characters"), p)
	registerChatRoutes(api.Group("/chat"), p)

	return r
}

func registerAuthRoutes(group *gin.RouterGroup, p RouterParams) {
	rl := p.Config.RateLimit
	authLimit := ratelimit.Middleware(p.Redis, ratelimit.Rule{
		Name:    "auth",
		Max:     rl.AuthMaxRequests,
		Window:  rl.AuthWindow,
		Key:     ratelimit.KeyByIP("auth"),
		Message: "too many authentication attempts, please try again later",
	}, p.Logger)
	resetLimit := ratelimit.Middleware(p.Redis, ratelimit.Rule{
		Name:    "password-reset",
		Max:     rl.ResetMaxRequests,
		Window:  rl.ResetWindow,
		Key:     ratelimit.KeyByIP("reset"),
		Message: "too many password reset requests, please try again later",
	}, p.Logger)
	verifyLimit := ratelimit.Middleware(p.Redis, ratelimit.Rule{
		Name:    "email-verification",
		Max:     rl.VerifyMaxRequests,
		Window:  rl.VerifyWindow,
		Key:     ratelimit.KeyByIP("verify"),
		Message: "too many verification emails requested, please try again later",
	}, p.Logger)

	h := NewAuthHandler(p.Auth)
	group.POST("/register", authLimit, h.Register)
	group.POST("/login", authLimit, h.Login)
	group.POST("/refresh", h.Refresh)
	group.POST("/logout", middleware.OptionalJWT(p.Auth), h.Logout)
	group.POST("/forgot-password", resetLimit, h.ForgotPassword)
	group.POST("/reset-password", h.ResetPassword)
	group.POST("/verify-email", h.VerifyEmail)
	group.POST("/resend-verification", verifyLimit, h.ResendVerification)
	group.GET("/me", middleware.JWT(p.Auth), h.Me)
}

func registerUserRoutes(group *gin.RouterGroup, p RouterParams) {
	h := NewUserHandler(p.Users)
	group.Use(middleware.JWT(p.Auth))

	group.GET("/profile", h.Profile)
	group.PUT("/profile", h.UpdateProfile)
	group.PATCH("/profile", h.UpdateProfile)
	group.PUT("/preferences", h.UpdatePreferences)
	group.PATCH("/preferences", h.UpdatePreferences)
	group.PUT("/change-password", h.ChangePassword)
	group.POST("/deactivate", h.Deactivate)
	group.DELETE("/account", h.Delete)
	group.GET("/activity", h.Activity)
	group.GET("/stats", middleware.RequireVerifiedEmail(p.Auth), h.Stats)
}

func registerCharacterRoutes(group *gin.RouterGroup, p RouterParams) {
	h := NewCharacterHandler(p.Characters)
	group.Use(middleware.JWT(p.Auth))

	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

func registerChatRoutes(group *gin.RouterGroup, p RouterParams) {
	h := NewChatHandler(p.Chat)
	group.Use(middleware.JWT(p.Auth))

	group.GET("/conversations", h.ListConversations)
	group.POST("/conversations", h.CreateConversation)
	group.GET("/conversations/:id", h.GetConversation)
	group.GET("/conversations/:id/messages", h.Messages)
	group.DELETE("/conversations/:id", h.DeleteConversation)
	group.POST("/send-message", h.SendMessage)
}
