package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/assets"
	googleauth "portfolio-backend/internal/auth"
	"portfolio-backend/internal/editor"
	"portfolio-backend/internal/guest"
	"portfolio-backend/internal/migration"
	"portfolio-backend/internal/portfolios"
	"portfolio-backend/internal/services/health"
	"portfolio-backend/internal/shared/config"
	"portfolio-backend/internal/shared/metrics"
	"portfolio-backend/internal/shared/server/middleware"
	"portfolio-backend/internal/shared/server/respond"
	"portfolio-backend/internal/themes"
	"portfolio-backend/internal/usage"
	"portfolio-backend/internal/users"
)

// RouterDeps holds the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config      config.Config
	Health      *health.Service
	Portfolios  *portfolios.Handler
	Editor      *editor.Handler
	Assets      *assets.Handler
	Themes      *themes.Handler
	Guest       *guest.Handler
	Migration   *migration.Handler
	Usage       *usage.Handler
	Users       *users.Handler
	GoogleAuth  *googleauth.GoogleService
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: "DEFAULT",
			GroupFor:     rateLimitGroup,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT":  {Rate: 10, Burst: 40},
				"STREAM":   {Rate: 1, Burst: 5},
				"GENERATE": {Rate: 0.2, Burst: 3},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := healthSvc.Status(c.Request.Context())
		code := http.StatusOK
		if !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.Portfolios != nil {
		deps.Portfolios.RegisterRoutes(api)
	}
	if deps.Editor != nil {
		deps.Editor.RegisterRoutes(api)
	}
	if deps.Assets != nil {
		deps.Assets.RegisterRoutes(api)
	}
	if deps.Themes != nil {
		deps.Themes.RegisterRoutes(api)
	}
	if deps.Guest != nil {
		deps.Guest.RegisterRoutes(api)
	}
	if deps.Migration != nil {
		deps.Migration.RegisterRoutes(api)
	}
	if deps.Usage != nil {
		deps.Usage.RegisterRoutes(api)
		if deps.Config.Env == "dev" {
			deps.Usage.RegisterDevRoutes(api.Group("/dev"))
		}
	}

	return r
}

func rateLimitGroup(c *gin.Context) string {
	switch c.FullPath() {
	case "/api/v1/portfolios/:id/events":
		return "STREAM"
	case "/api/v1/portfolios/:id/assets/generate":
		return "GENERATE"
	}
	return "DEFAULT"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
