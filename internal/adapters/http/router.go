package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/audience-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/audience-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/audience-gateway/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds a /api/v1 request, marketing API retries included.
const DefaultRequestTimeout = 30 * time.Second

// Routes lists what SetupRouter mounts. Nil handlers are skipped.
type Routes struct {
	Logger *slog.Logger

	// ServiceName names the server spans.
	ServiceName string

	Health  *handlers.HealthHandler
	Members *handlers.MemberHandler

	// RequestTimeout is the /api/v1 deadline. Zero disables it.
	RequestTimeout time.Duration
}

// NewRoutes returns Routes with DefaultRequestTimeout.
func NewRoutes(logger *slog.Logger, serviceName string, health *handlers.HealthHandler, members *handlers.MemberHandler) Routes {
	return Routes{
		Logger:         logger,
		ServiceName:    serviceName,
		Health:         health,
		Members:        members,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// SetupRouter installs the middleware chain and routes on engine.
//
// Every request passes recovery, the request-scoped logger, request and
// correlation IDs, tracing and metrics, then access logging. Probes under
// /-/ have no deadline; /api/v1 answers 504 once RequestTimeout passes.
func SetupRouter(engine *gin.Engine, r Routes) {
	engine.Use(
		middleware.Recovery(r.Logger),
		middleware.ContextLogger(r.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(r.ServiceName)...)
	engine.Use(middleware.Logging(r.Logger))

	if r.Health != nil {
		r.Health.RegisterHealthRoutesOnEngine(engine)
	}

	api := engine.Group("/api/v1")
	if r.RequestTimeout > 0 {
		api.Use(middleware.Timeout(r.RequestTimeout))
	}

	if r.Members != nil {
		r.Members.RegisterMemberRoutes(api)
	}
}
