package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"navio/api/internal/config"
	"navio/api/internal/middleware"
	"navio/api/internal/models"
	"navio/api/internal/repository"
	"navio/api/internal/service"
	"navio/api/internal/storage"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	admin       *service.AdminService
	tours       *service.TourService
	layouts     storage.LayoutStore
	db          *pgxpool.Pool
	cache       *redis.Client
}

// NewHandlerSet wires the HTTP layer. db and cache may be nil when the
// deployment runs on the flat-file back-end; the health endpoint skips
// whatever is absent.
func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	authService *service.AuthService,
	admin *service.AdminService,
	tours *service.TourService,
	layouts storage.LayoutStore,
	db *pgxpool.Pool,
	cache *redis.Client,
) HandlerSet {
	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: authService,
		admin:       admin,
		tours:       tours,
		layouts:     layouts,
		db:          db,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/health", h.Health)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.GET("/verify", h.VerifyEmail)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.POST("/password/forgot", h.ForgotPassword)
		auth.POST("/password/reset", h.ResetPassword)

		me := auth.Group("")
		me.Use(middleware.Auth(h.cfg))
		me.GET("/me", h.Me)
	}

	admin := router.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	{
		admin.GET("/stats", h.AdminStats)
		admin.GET("/users", h.AdminListUsers)
		admin.GET("/users/:id", h.AdminGetUser)
		admin.PATCH("/users/:id", h.AdminPatchUser)
		admin.POST("/users/:id/deactivate", h.AdminDeactivateUser)
		admin.POST("/users/:id/reactivate", h.AdminReactivateUser)
		admin.DELETE("/users/:id", h.AdminDeleteUser)
		admin.GET("/audit", h.AdminListAudit)
	}

	layout := router.Group("/layout")
	layout.Use(
		middleware.Auth(h.cfg),
		middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleDispatcher),
	)
	{
		layout.GET("/cmr", h.GetLayout)
		layout.PUT("/cmr", h.PutLayout)
	}

	tours := router.Group("/tours")
	tours.Use(middleware.Auth(h.cfg))
	{
		tours.GET("", h.TourBoard)

		dispatch := tours.Group("")
		dispatch.Use(middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleDispatcher))
		dispatch.PUT("/active", h.SetActiveTours)

		ramp := tours.Group("")
		ramp.Use(middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleWarehouse))
		ramp.POST("/:id/loaded", h.MarkTourLoaded)
		ramp.POST("/:id/unloaded", h.MarkTourUnloaded)
	}
}

// serviceError maps the service and repository error taxonomy onto HTTP.
// Anything unrecognized is logged and becomes a plain 500.
func (h HandlerSet) serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrAccountDeactivated):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_deactivated"})
	case errors.Is(err, service.ErrEmailNotVerified):
		c.JSON(http.StatusForbidden, gin.H{"error": "email_not_verified"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too_many_attempts"})
	case errors.Is(err, service.ErrTokenExpiredOrUsed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_expired_or_used"})
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenTypeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_token"})
	case errors.Is(err, service.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role"})
	case errors.Is(err, service.ErrTourNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "tour_not_found"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "username_or_email_taken"})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, storage.ErrInvalidLayout):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_layout"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
