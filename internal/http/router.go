package http

import (
	"log/slog"

	"github.com/geocoder89/funapp/internal/config"
	"github.com/geocoder89/funapp/internal/http/handlers"
	"github.com/geocoder89/funapp/internal/http/middlewares"
	"github.com/geocoder89/funapp/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type RouterDeps struct {
	Cfg    config.Config
	Log    *slog.Logger
	Prom   *observability.Prom
	Gather prometheus.Gatherer

	Users   handlers.UserService
	Tokens  middlewares.TokenVerifier
	Limiter middlewares.Limiter

	// readiness dependencies by name
	Ready map[string]handlers.Pinger
}

func NewRouter(d RouterDeps) *gin.Engine {
	switch d.Cfg.Env {
	case "dev":
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(d.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gather != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gather, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// Wire up the user routes
	usersHandler := handlers.NewUsersHandler(d.Users, d.Log)
	authMW := middlewares.NewAuthMiddleware(d.Tokens)

	var onLimited func(string)
	if d.Prom != nil {
		onLimited = d.Prom.IncRateLimited
	}

	maxBody := d.Cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	users := r.Group("/user")

	signup := []gin.HandlerFunc{middlewares.MaxBodyBytes(maxBody), middlewares.RequireJSON()}
	if d.Limiter != nil {
		signup = append(signup, middlewares.RateLimit(d.Limiter, middlewares.KeyByIP, d.Log, onLimited))
	}
	signup = append(signup, usersHandler.Signup)

	users.POST("/signup", signup...)
	users.GET("/:user_id", authMW.RequireAuth(), usersHandler.GetProfile)

	return r
}
