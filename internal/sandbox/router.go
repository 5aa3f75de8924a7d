package sandbox

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const commandTimeout = 2 * time.Second

type handlers struct {
	sim    *Simulation
	logger *zap.Logger
}

// NewRouter builds the HTTP API over sim. It starts no goroutines; requests
// that touch the scene block until sim.Run accepts them.
func NewRouter(sim *Simulation) *chi.Mux {
	cfg := sim.cfg.Server
	h := &handlers{sim: sim, logger: sim.logger.Named("http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}

	// Only commands that mutate the scene are rate limited.
	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit > 0 {
		limit = rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}

	r.Route("/bodies", func(r chi.Router) {
		r.Get("/", h.listBodies)
		r.Get("/{uid}", h.getBody)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/", h.spawnBody)
			r.Delete("/{uid}", h.removeBody)
			r.Post("/{uid}/impulse", h.applyImpulse)
			r.Post("/{uid}/force", h.applyForce)
			r.Post("/{uid}/resize", h.resizeBody)
		})
	})
	r.Route("/query", func(r chi.Router) {
		r.Get("/raycast", h.raycast)
		r.Get("/radius", h.queryRadius)
	})
	r.Route("/constraints", func(r chi.Router) {
		r.Get("/", h.listConstraints)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/", h.applyTemplate)
			r.Delete("/{name}", h.removeConstraint)
		})
	})
	r.Route("/triggers", func(r chi.Router) {
		r.Get("/", h.listTriggers)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/", h.createTrigger)
			r.Delete("/{name}", h.removeTrigger)
		})
	})
	r.Get("/scene", h.getScene)
	r.With(limit).Post("/scene", h.loadScene)
	r.Get("/templates", h.listTemplates)
	r.Get("/materials", h.listMaterials)
	r.Handle("/metrics", promhttp.HandlerFor(sim.registry, promhttp.HandlerOpts{}))

	return r
}

func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
