// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, error stages, panic
// recovery, metrics, compression, CORS and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - One error policy: every failure, including unknown routes and panics,
//     is answered by the same error stages
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-rest-errors/internal/apierr"
	"github.com/tbourn/go-rest-errors/internal/config"
	"github.com/tbourn/go-rest-errors/internal/docs"
	"github.com/tbourn/go-rest-errors/internal/domain"
	"github.com/tbourn/go-rest-errors/internal/http/handlers"
	"github.com/tbourn/go-rest-errors/internal/http/middleware"
	"github.com/tbourn/go-rest-errors/internal/repo"
	"github.com/tbourn/go-rest-errors/internal/services"
)

// userRepoShim adapts the repository free functions to the services.UserRepo
// interface expected by the UserService.
type userRepoShim struct{}

// CreateUser proxies repo.CreateUser.
func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, email, name, role string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, email, name, role)
}

// GetUser proxies repo.GetUser.
func (userRepoShim) GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	return repo.GetUser(ctx, db, id)
}

// GetUserByEmail proxies repo.GetUserByEmail.
func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// CountUsers proxies repo.CountUsers (pagination support).
func (userRepoShim) CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountUsers(ctx, db)
}

// ListUsersPage proxies repo.ListUsersPage (pagination support).
func (userRepoShim) ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	return repo.ListUsersPage(ctx, db, offset, limit)
}

// DeleteUser proxies repo.DeleteUser.
func (userRepoShim) DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteUser(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: access log with PII scrubbing, request-scoped logger
//  4. Gzip compression (error envelopes included)
//  5. Metrics
//  6. CORS and security headers
//  7. Error stages: classified, then fallback
//  8. Recovery: panics become errors for the stages above
//  9. Body size limiter
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	handlers.UseJSONFieldNames()

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Compression; scrapers negotiate their own encoding.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) CORS posture (safe defaults: allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS)...)

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 7) Error stages
	lg := handlers.RequestLogger{}
	r.Use(middleware.ErrorHandlers(
		handlers.ClassifiedErrorHandler(lg),
		handlers.FallbackErrorHandler(lg, handlers.FallbackOptions{HideInternal: cfg.Errors.HideInternal}),
	))

	// 8) Panic recovery, answered by the stages
	r.Use(middleware.Recovery())

	// 9) Global body size limit
	r.Use(limitBody(cfg.MaxBodyBytes))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, apierr.NewNotFoundError(apierr.WithMessage("Route not found")))
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, apierr.New(http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "Method not allowed"))
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	h := handlers.New(services.NewUserService(db, userRepoShim{}))

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/users", h.CreateUser)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.DELETE("/users/:id", h.DeleteUser)
	}
}

// corsMiddleware returns the CORS handlers for cfg.
func corsMiddleware(cfg config.CORSConfig) []gin.HandlerFunc {
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", handlers.HeaderUserID}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", "Location"}

	if len(cfg.AllowedOrigins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowHeaders:     allowHeaders,
				ExposeHeaders:    exposeHeaders,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
