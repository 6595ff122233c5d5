// Package ops exposes the operational HTTP surface: liveness, Prometheus
// metrics, and a status view over the sync pipeline and record-store cache.
// It is an internal sidecar server, not a public API.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/crewdesk/crewdesk/internal/cache"
	"github.com/crewdesk/crewdesk/internal/sysutil"
)

// Options configures the ops server.
type Options struct {
	Addr        string
	ServiceName string
	CORSOrigins []string
}

// Server is the ops HTTP server.
type Server struct {
	srv *http.Server
}

// NewRouter builds the gin engine with middleware and routes. Split from New
// so tests can drive it with httptest.
//
// Middleware order: tracing first, then correlation ID, access logging,
// recovery, metrics, and finally compression and CORS.
func NewRouter(opts Options, recorder *Recorder, cacheStore *cache.Store) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(sysutil.FirstNonEmpty(opts.ServiceName, "crewdesk")))
	r.Use(requestID())
	r.Use(accessLog())
	r.Use(recovery())
	r.Use(metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(opts.CORSOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = opts.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/status", statusHandler(recorder, cacheStore))

	return r
}

// New builds the ops server around the given router.
func New(opts Options, router *gin.Engine) *Server {
	return &Server{srv: &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Start serves until Shutdown. It returns http.ErrServerClosed on clean
// shutdown, like http.Server.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// statusHandler reports the last sync run and cache state.
func statusHandler(recorder *Recorder, cacheStore *cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if cacheStore != nil {
			body["cache"] = cacheStore.Stats()
		}
		if last := recorder.Last(); last != nil {
			failures := last.Failures()
			body["last_sync"] = gin.H{
				"trigger":       last.Trigger,
				"started_at":    last.StartedAt.UTC().Format(time.RFC3339),
				"duration_ms":   last.Duration.Milliseconds(),
				"outcome":       last.Outcome(),
				"reports":       len(last.Reports),
				"failures":      len(failures),
				"tasks_deleted": last.TasksDeleted,
			}
		} else {
			body["last_sync"] = nil
		}
		c.JSON(http.StatusOK, body)
	}
}
