package routes

import (
	"net/http"
	"time"

	"kreede/docs"
	"kreede/internal/audit"
	"kreede/internal/bookings"
	"kreede/internal/cancellation"
	"kreede/internal/gateway"
	"kreede/internal/memberships"
	"kreede/internal/refunds"
	"kreede/internal/registrations"
	"kreede/internal/shared/config"
	"kreede/internal/shared/database"
	"kreede/internal/shared/middleware"
	"kreede/internal/users"
	"kreede/pkg/cache"
	"kreede/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps are the external clients the routes are wired with.
type Deps struct {
	Gateway gateway.Client
	Audit   audit.Exporter
	Locker  cache.Locker
	Log     *logger.Logger
}

// Router holds all route dependencies
type Router struct {
	config *config.Config
	db     *database.DB
	deps   Deps

	membershipService memberships.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, deps Deps) *Router {
	return &Router{
		config: cfg,
		db:     db,
		deps:   deps,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	docs.SwaggerInfo.BasePath = r.config.GetAPIBasePath()
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	admin := api.Group("/admin", middleware.JWTAuth(r.config, r.deps.Log), middleware.RequireAdmin())
	{
		// Membership service first, the reconciler depends on it
		r.setupMembershipRoutes(admin)
		r.setupBookingRoutes(admin)
		r.setupCancellationRoutes(admin)
		r.setupRefundRoutes(admin)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "kreede-admin",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "kreede-admin",
			"redis":     r.db.Redis != nil,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"gateway":     r.config.Gateway.Provider,
			"timestamp":   time.Now(),
		})
	})
}

// setupMembershipRoutes configures membership credit routes
func (r *Router) setupMembershipRoutes(rg *gin.RouterGroup) {
	membershipRepo := memberships.NewRepository(r.db.GetPostgreSQL())
	userRepo := users.NewRepository(r.db.GetPostgreSQL())
	r.membershipService = memberships.NewService(membershipRepo, userRepo, r.deps.Log)

	memberships.SetupMembershipRoutes(rg, memberships.NewController(r.membershipService))
}

// setupBookingRoutes configures booking read and mark-paid routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgreSQL())
	bookingService := bookings.NewService(bookingRepo, r.deps.Log)

	bookings.SetupBookingRoutes(rg, bookings.NewController(bookingService))
}

// setupCancellationRoutes configures slot, booking and registration cancels
func (r *Router) setupCancellationRoutes(rg *gin.RouterGroup) {
	pg := r.db.GetPostgreSQL()
	reconciler := cancellation.NewReconciler(cancellation.Deps{
		Bookings:      bookings.NewRepository(pg),
		Ledger:        refunds.NewRepository(pg),
		Credits:       r.membershipService,
		Gateway:       r.deps.Gateway,
		Registrations: registrations.NewRepository(pg),
		Audit:         r.deps.Audit,
		Locker:        r.deps.Locker,
		Log:           r.deps.Log,
	}, cancellation.OptionsFromConfig(r.config.Reconcile))

	cancellation.SetupCancellationRoutes(rg, cancellation.NewController(reconciler))
}

// setupRefundRoutes configures the ledger read and sync routes
func (r *Router) setupRefundRoutes(rg *gin.RouterGroup) {
	refundRepo := refunds.NewRepository(r.db.GetPostgreSQL())
	refundService := refunds.NewService(refundRepo, r.deps.Gateway, r.deps.Log)

	refunds.SetupRefundRoutes(rg, refunds.NewController(refundService))
}
