package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/souqly/marketplace-system/internal/api/handler"
	"github.com/souqly/marketplace-system/internal/api/middleware"
	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
	"github.com/souqly/marketplace-system/internal/core/service"
)

// Dependencies carries the wired services the router exposes over HTTP.
type Dependencies struct {
	JWTSecret string
	Log       zerolog.Logger

	Sessions    *service.SessionProvider
	Runtimes    *service.RuntimeManager
	Listings    *service.ListingService
	Categories  *service.CategoryService
	Preferences *service.PreferencesService
	Resolver    *service.RoleResolver
	RoleAdmin   *service.RoleAdminService
	Users       ports.UserRepository
	Media       ports.ObjectStore

	DB  *mongo.Database
	RDB *redis.Client
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Runtimes)
	listingHandler := handler.NewListingHandler(deps.Listings, deps.Resolver, deps.Runtimes)
	favoriteHandler := handler.NewFavoriteHandler(deps.Runtimes)
	notificationHandler := handler.NewNotificationHandler(deps.Runtimes)
	categoryHandler := handler.NewCategoryHandler(deps.Categories)
	adminHandler := handler.NewAdminHandler(deps.Users, deps.Resolver, deps.RoleAdmin)
	mediaHandler := handler.NewMediaHandler(deps.Media)
	prefsHandler := handler.NewPreferencesHandler(deps.Preferences)

	authMiddleware := middleware.Auth(deps.JWTSecret)
	categoriesAdmin := middleware.RequirePermission(deps.Resolver, func(p domain.Permissions) bool { return p.CategoriesAdmin })
	admin := middleware.RequirePermission(deps.Resolver, func(p domain.Permissions) bool { return p.Admin })

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.GET("/media/:bucket/*", mediaHandler.Serve)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.DB, deps.RDB)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Authenticated routes ---
	v1 := e.Group("/v1", authMiddleware)

	v1.POST("/auth/logout", authHandler.Logout)
	v1.GET("/me", authHandler.Me)

	v1.GET("/listings", listingHandler.List)
	v1.GET("/listings/mine", listingHandler.Mine)
	v1.GET("/listings/:id", listingHandler.Get)
	v1.POST("/listings", listingHandler.Create)
	v1.PUT("/listings/:id", listingHandler.Update)
	v1.DELETE("/listings/:id", listingHandler.Delete)

	v1.GET("/favorites", favoriteHandler.List)
	v1.POST("/favorites/:listing_id/toggle", favoriteHandler.Toggle)

	v1.GET("/notifications", notificationHandler.List)
	v1.POST("/notifications", notificationHandler.Create)
	v1.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	v1.POST("/notifications/:id/read", notificationHandler.MarkRead)
	v1.DELETE("/notifications/:id", notificationHandler.Delete)

	v1.GET("/categories", categoryHandler.List)
	v1.GET("/categories/:slug", categoryHandler.Get)
	v1.POST("/categories", categoryHandler.Create, categoriesAdmin)
	v1.PUT("/categories/:id", categoryHandler.Update, categoriesAdmin)
	v1.DELETE("/categories/:id", categoryHandler.Delete, categoriesAdmin)

	v1.GET("/preferences", prefsHandler.Get)
	v1.PUT("/preferences", prefsHandler.Set)

	v1.POST("/media/:bucket", mediaHandler.Upload)
	v1.DELETE("/media/:bucket/*", mediaHandler.Delete)

	adminGroup := v1.Group("/admin", admin)
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.POST("/users/:id/roles", adminHandler.AssignRole)
	adminGroup.DELETE("/users/:id/roles/:role", adminHandler.RevokeRole)

	return e
}
