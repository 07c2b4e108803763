// Package httpapi mounts the link tracker on a gin engine: the tracking page
// at /track/:id, the JSON API under the configured base path, and the
// health, metrics and docs endpoints around them.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-link-tracker/docs"
	"github.com/tbourn/go-link-tracker/internal/config"
	"github.com/tbourn/go-link-tracker/internal/http/handlers"
	"github.com/tbourn/go-link-tracker/internal/http/middleware"
	"github.com/tbourn/go-link-tracker/internal/services"
)

// maxBodyBytes caps request bodies. Client payloads are a few KiB at most.
const maxBodyBytes = 64 << 10

// ClickUpdatePath is the callback path relative to the API base path.
const ClickUpdatePath = "/click-update"

// RegisterRoutes installs the middleware chain and every endpoint on r.
// Order: tracing, request id, access log, recovery, body limit, metrics,
// gzip, CORS, security headers.
//
// Rate limiting is opt-in (cfg.RateRPS > 0) and per route: link creation
// answers 429, the tracking page callback keeps its {"ok": false} contract.
// The tracking page itself is never limited so no visit is lost.
func RegisterRoutes(r *gin.Engine, links handlers.LinkService, tracker handlers.TrackerService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compress link listings and pages; scrapes negotiate on their own.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 8) CORS and security headers. Link documents change with every
	// visit, so nothing is cacheable.
	r.Use(corsHandlers(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiBase := cfg.APIBasePath
	h := handlers.New(links, tracker, cfg.PublicBaseURL, joinPath(apiBase, ClickUpdatePath))

	createLimit, callbackLimit := noLimit, noLimit
	if cfg.RateRPS > 0 {
		createLimit = middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVisitorIP()).Handler()
		callbackLimit = middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByVisitorIP()).
			HandlerWith(func(c *gin.Context) {
				c.AbortWithStatusJSON(http.StatusOK, handlers.ClickUpdateResponse{OK: false})
			})
	}

	// Tracking page
	r.GET(strings.TrimSuffix(services.TrackPath, "/")+"/:id", middleware.PageHeaders(), h.Track)

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		api.POST("/links", createLimit, h.CreateLink)
		api.GET("/links", h.ListLinks)
		api.GET("/links/:id", h.GetLink)
		api.GET("/links/:id/clicks/:clickId", h.GetClick)

		api.POST(ClickUpdatePath, callbackLimit, h.UpdateClick)
	}
}

// corsHandlers allows any origin when none are configured. Otherwise only
// listed origins are echoed back, with Vary: Origin.
func corsHandlers(origins []string) []gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{middleware.HeaderRequestID, "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		// cors only answers requests that carry Origin; the wildcard is
		// sent regardless.
		return []gin.HandlerFunc{func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Next()
		}, cors.New(cfg)}
	}

	cfg.AllowOrigins = origins
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return []gin.HandlerFunc{func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Next()
	}, cors.New(cfg)}
}

// noLimit is the pass-through used when rate limiting is disabled.
func noLimit(c *gin.Context) { c.Next() }

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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

// joinPath joins a base path and an absolute sub path without doubling "/".
func joinPath(base, sub string) string {
	return strings.TrimRight(base, "/") + sub
}
