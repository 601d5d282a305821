package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/app"
	iauth "github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/handlers"
	"github.com/charlesng35/posadmin/internal/middleware"
	"github.com/charlesng35/posadmin/internal/monitoring"
	"github.com/charlesng35/posadmin/internal/monitoring/checks"
	"github.com/charlesng35/posadmin/internal/services"
)

const healthProbeTimeout = 2 * time.Second

// NewRouter builds the Gin engine, wires middleware and registers all routes.
// A nil rateStore falls back to an in-process store when login throttling is
// enabled. readiness adds probes beyond the database ping.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, rateStore middleware.RateStore, readiness ...monitoring.Check) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	policy, err := buildPolicy(cfg)
	if err != nil {
		return nil, err
	}

	location, err := cfg.Notifications.Location()
	if err != nil {
		return nil, err
	}

	notificationSvc, err := services.NewNotificationService(db, services.WithNotificationLocation(location))
	if err != nil {
		return nil, err
	}
	userSvc, err := services.NewUserService(db, notificationSvc, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	orgSvc, err := services.NewOrganizationService(db, notificationSvc)
	if err != nil {
		return nil, err
	}
	ticketSvc, err := services.NewTicketService(db, notificationSvc)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Gatekeeper(policy, jwt, cfg.Auth.Cookie.Name))

	health := monitoring.NewHealthManager(healthProbeTimeout)
	health.RegisterReadiness(checks.Database(db))
	for _, check := range readiness {
		health.RegisterReadiness(check)
	}
	r.GET("/api/health", handlers.Health(health))
	r.GET("/api/health/live", handlers.Liveness(health))

	authHandler := handlers.NewAuthHandler(userSvc, jwt, handlers.CookieSettings{
		Name:   cfg.Auth.Cookie.Name,
		Domain: cfg.Auth.Cookie.Domain,
		Secure: cfg.Auth.Cookie.Secure,
	})

	auth := r.Group("/api/auth")
	{
		login := []gin.HandlerFunc{authHandler.Login}
		if cfg.RateLimit.Enabled {
			store := rateStore
			if store == nil {
				store = middleware.NewMemoryRateStore()
			}
			login = append([]gin.HandlerFunc{middleware.RateLimit(store, cfg.RateLimit.Requests, cfg.RateLimit.Window)}, login...)
		}
		auth.POST("/login", login...)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.RequireIdentity(), authHandler.Me)
	}

	api := r.Group("/api")
	api.Use(middleware.RequireIdentity())

	registerNotificationRoutes(api, handlers.NewNotificationHandler(notificationSvc, userSvc))
	registerTicketRoutes(api, handlers.NewTicketHandler(ticketSvc))
	registerOrganizationRoutes(api, handlers.NewOrganizationHandler(orgSvc), handlers.NewUserHandler(userSvc))

	registerPageRoutes(r, handlers.NewPageHandler(policy.Config().CallbackParam))

	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(metricsEndpoint(cfg), gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

// buildPolicy extends the default policy so the configured metrics path stays scrapeable.
func buildPolicy(cfg *app.Config) (*access.Policy, error) {
	policyCfg := access.DefaultConfig()
	if cfg.Monitoring.Prometheus.Enabled {
		policyCfg.PublicPaths = append(policyCfg.PublicPaths, metricsEndpoint(cfg))
	}
	policy, err := access.NewPolicy(policyCfg)
	if err != nil {
		return nil, fmt.Errorf("build access policy: %w", err)
	}
	return policy, nil
}

func metricsEndpoint(cfg *app.Config) string {
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if !strings.HasPrefix(endpoint, "/") {
		return "/metrics"
	}
	return endpoint
}

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler) {
	group := api.Group("/notifications")
	{
		group.GET("", handler.List)
		group.GET("/unread-count", handler.UnreadCount)
		group.POST("/read-all", handler.MarkAllRead)
		group.POST("/:id/read", handler.MarkRead)
		group.DELETE("/:id", handler.Delete)

		group.POST("", middleware.RequireAdminLike(), handler.Create)
	}
}

func registerTicketRoutes(api *gin.RouterGroup, handler *handlers.TicketHandler) {
	group := api.Group("/tickets")
	{
		group.GET("", handler.List)
		group.POST("", handler.Create)
		group.GET("/:id", handler.Get)
		group.POST("/:id/replies", handler.Reply)
		group.PATCH("/:id/status", middleware.RequireAdminLike(), handler.UpdateStatus)
	}
}

func registerOrganizationRoutes(api *gin.RouterGroup, orgs *handlers.OrganizationHandler, users *handlers.UserHandler) {
	group := api.Group("/organizations")
	{
		group.GET("", orgs.List)
		group.POST("", middleware.RequireRole(access.RoleSuperAdmin), orgs.Create)
		group.GET("/:id", orgs.Get)
		group.GET("/:id/users", users.ListByOrganization)
		group.POST("/:id/users", middleware.RequireRole(access.RoleSuperAdmin, access.RoleAdmin), users.Enroll)
	}

	api.PATCH("/users/:id/role", middleware.RequireRole(access.RoleSuperAdmin, access.RoleAdmin), users.UpdateRole)
}

func registerPageRoutes(r *gin.Engine, pages *handlers.PageHandler) {
	r.GET("/", pages.Static("home"))
	r.GET("/login", pages.Login)
	r.GET("/register", pages.Static("register"))
	r.GET("/unauthorized", pages.Static("unauthorized"))
	r.GET("/profile/complete", pages.Static("profile_complete"))
	r.GET("/onboarding/*path", pages.Onboarding)
	r.GET("/dashboard", pages.Static("dashboard"))
	r.GET("/admin", pages.Static("admin"))
	r.GET("/manager", pages.Static("manager"))
	r.GET("/user", pages.Static("user"))
}
