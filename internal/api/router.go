package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/atomexec/internal/api/handlers"
	mw "github.com/Harshitk-cp/atomexec/internal/api/middleware"
	"github.com/Harshitk-cp/atomexec/internal/buildconfig"
	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/evaluator"
	"github.com/Harshitk-cp/atomexec/internal/service"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options carries the settings NewApp reads from config.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	APIKey         string
	MergePolicy    domain.MergeControl

	// Registry receives the HTTP metrics. Defaults to the global registry.
	Registry prometheus.Registerer
	// Gatherer backs /metrics. Defaults to the global gatherer.
	Gatherer prometheus.Gatherer
}

// App holds the router and the components it serves.
type App struct {
	Router       *chi.Mux
	AtomSpace    *store.AtomSpace
	Instantiator *service.Instantiator
	Revision     *service.RevisionService

	dispatcher  *service.Dispatcher
	rateLimiter *mw.RateLimiter
	stop        chan struct{}
	startTime   time.Time
}

func NewApp(as *store.AtomSpace, dispatcher *service.Dispatcher, opts Options, logger *zap.Logger) *App {
	if opts.Registry == nil {
		opts.Registry = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	// Services
	inst := service.NewInstantiator(dispatcher, logger)
	revisionSvc := service.NewRevisionService(as, logger)
	revisionSvc.DefaultPolicy = opts.MergePolicy

	// Handlers
	atomHandler := handlers.NewAtomHandler(as, revisionSvc, opts.MergePolicy)
	executeHandler := handlers.NewExecuteHandler(as, inst)
	tvHandler := handlers.NewTruthValueHandler(revisionSvc, opts.MergePolicy)

	r := chi.NewRouter()

	app := &App{
		Router:       r,
		AtomSpace:    as,
		Instantiator: inst,
		Revision:     revisionSvc,
		dispatcher:   dispatcher,
		rateLimiter:  mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		stop:         make(chan struct{}),
		startTime:    time.Now(),
	}
	app.rateLimiter.StartCleanup(10*time.Minute, app.stop)

	metricsCollector := mw.NewMetricsCollector(opts.Registry)

	// Global middleware (order matters)
	r.Use(mw.RequestID)                // Generate/extract request ID first
	r.Use(middleware.RealIP)           // Extract real IP
	r.Use(metricsCollector.Middleware) // Collect metrics
	r.Use(mw.Logging(logger))          // Log all requests
	r.Use(middleware.Recoverer)        // Recover from panics
	r.Use(app.rateLimiter.Middleware)  // Rate limiting

	// Health and metrics (no auth)
	r.Get("/health", app.healthHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(mw.HashAPIKey(opts.APIKey)))

		r.Route("/atoms", func(r chi.Router) {
			r.Post("/nodes", atomHandler.CreateNode)
			r.Post("/links", atomHandler.CreateLink)
			r.Route("/{handle}", func(r chi.Router) {
				r.Get("/", atomHandler.GetByHandle)
				r.Put("/tv", atomHandler.UpdateTruthValue)
				r.Post("/execute", executeHandler.ExecuteExisting)
			})
		})

		r.Post("/execute", executeHandler.Execute)
		r.Post("/truthvalues/merge", tvHandler.Merge)
	})

	return app
}

// Close stops background work started by NewApp.
func (app *App) Close() {
	select {
	case <-app.stop:
	default:
		close(app.stop)
	}
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		features := make(map[string]bool)
		for f, ok := range app.dispatcher.Features() {
			features[string(f)] = ok
		}

		response := map[string]any{
			"status":         "ok",
			"build":          buildconfig.VersionInfo(),
			"features":       features,
			"atoms":          app.AtomSpace.Size(),
			"uptime_seconds": time.Since(app.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and evaluators satisfy interfaces at compile time.
var (
	_ domain.AtomSpace                 = (*store.AtomSpace)(nil)
	_ service.TruthValueStore          = (*store.AtomSpace)(nil)
	_ domain.ScriptingProvider         = (*evaluator.Registry)(nil)
	_ domain.CheckedScriptingEvaluator = (*evaluator.ScriptEvaluator)(nil)
	_ domain.DynamicEvaluator          = (*evaluator.GoEvaluator)(nil)
)
