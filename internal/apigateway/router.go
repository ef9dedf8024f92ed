package apigateway

import (
	"net/http"
	"time"

	"elearning-platform/backend/internal/identity"
	"elearning-platform/backend/internal/telemetry"
	"elearning-platform/backend/internal/usermanagement"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"pkt.systems/pslog"
)

// RouterConfig carries what the routes depend on. Admin is computed once at
// startup and never changes afterwards.
type RouterConfig struct {
	Admin       *identity.Capability
	Metrics     *telemetry.Metrics
	Logger      pslog.Logger
	CORSOrigins []string
	Now         func() time.Time
}

// SetupRouter initializes the gin engine with the public and admin routes.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		gin.Recovery(),
		telemetry.SpanNameMiddleware(),
		RequestIDMiddleware(),
		AccessLogMiddleware(logger.With("sys", "http.access")),
		cfg.Metrics.Middleware(),
		CORSMiddleware(cfg.CORSOrigins),
	)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	router.GET("/", StatusHandler)

	apiRoutes := router.Group("/api")
	{
		apiRoutes.GET("/health", HealthHandler(cfg.Now))

		users := usermanagement.NewUserHandler(cfg.Admin, cfg.Metrics, logger.With("sys", "api.admin.users"))
		adminRoutes := apiRoutes.Group("/admin")
		{
			adminRoutes.GET("/users", users.ListUsersHandler)
		}
	}

	return router
}

// NewHandler wraps the engine with OpenTelemetry server instrumentation.
// Spans start under the service name and are renamed to the matched route by
// telemetry.SpanNameMiddleware.
func NewHandler(router *gin.Engine, opts ...otelhttp.Option) http.Handler {
	return otelhttp.NewHandler(router, telemetry.ServiceName, opts...)
}
