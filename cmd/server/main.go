package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/janisto/engage-forms/internal/http/health"
	"github.com/janisto/engage-forms/internal/http/v1/routes"
	"github.com/janisto/engage-forms/internal/platform/config"
	applog "github.com/janisto/engage-forms/internal/platform/logging"
	"github.com/janisto/engage-forms/internal/platform/metrics"
	appmiddleware "github.com/janisto/engage-forms/internal/platform/middleware"
	"github.com/janisto/engage-forms/internal/platform/respond"
	"github.com/janisto/engage-forms/internal/service/dispatch"
	"github.com/janisto/engage-forms/internal/service/engagement"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	docsPath    = "/api-docs"
	metricsPath = "/metrics"
	apiPrefix   = "/v1"
)

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		applog.LogFatal(context.Background(), "config load failed", err)
	}
	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		applog.LogWarn(context.Background(), "invalid log level, keeping info", zap.String("level", cfg.LogLevel))
	}

	sdk, mode := newEngagement(cfg.Engagement)
	applog.LogInfo(context.Background(), "engagement binding ready", zap.String("mode", mode))

	handler, _ := newServer(cfg, sdk, mode)
	srv := newHTTPServer(cfg.HTTP, handler)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	if err := run(srv, cfg.HTTP.ShutdownTimeout, stop); err != nil {
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	}
}

// newEngagement picks the live client when an account is configured and the
// in-memory recorder otherwise.
func newEngagement(cfg config.Engagement) (engagement.Service, string) {
	if !cfg.Enabled() {
		return engagement.NewMockService(), health.ModeMock
	}
	opts := []engagement.Option{
		engagement.WithBaseURL(cfg.BaseURL),
		engagement.WithCredentials(cfg.AccountID, cfg.Passcode),
	}
	if cfg.NotificationsURL != "" {
		opts = append(opts, engagement.WithNotificationsURL(cfg.NotificationsURL))
	}
	client := engagement.NewClient(&http.Client{Timeout: cfg.Timeout}, opts...)
	return client, health.ModeLive
}

// newServer builds the router with the full middleware stack and registers
// every route.
func newServer(cfg *config.Config, sdk engagement.Service, mode string) (http.Handler, huma.API) {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.HTTP.AllowedOrigins),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address.
		chimiddleware.RealIP,
		// RequestSize limits request body size to prevent memory exhaustion from large payloads.
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(cfg.TraceProject, zap.String("engagement", mode)),
		applog.AccessLogger(),
		metrics.Middleware(metricsPath),
		appmiddleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst, respond.TooManyRequestsHandler()),
		appmiddleware.Origin(),
		respond.Recoverer(),
	)

	router.Get("/health", health.Handler(mode))
	router.Method(http.MethodGet, metricsPath, metrics.Handler())

	// Problem details never echo rejected request values back.
	huma.NewError = respond.NewError

	humaCfg := huma.DefaultConfig("Engage Forms API", Version)
	humaCfg.DocsPath = docsPath
	// Allow JSON fallback for wildcard Accept headers (e.g., */*) since Huma's
	// negotiation uses exact matching and doesn't interpret wildcards per
	// RFC 9110 section 12.5.1.
	api := humachi.New(router, humaCfg)
	addCBORContentTypes(api)

	routes.Register(huma.NewGroup(api, apiPrefix), dispatch.New(sdk))
	return router, api
}

// addCBORContentTypes mirrors every JSON request and response schema as CBOR
// in the OpenAPI document.
func addCBORContentTypes(api huma.API) {
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation,
		func(_ *huma.OpenAPI, op *huma.Operation) {
			if op.RequestBody != nil && op.RequestBody.Content != nil {
				if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
					op.RequestBody.Content["application/cbor"] = jsonContent
				}
			}
			for _, resp := range op.Responses {
				if resp.Content == nil {
					continue
				}
				if jsonContent, ok := resp.Content["application/json"]; ok {
					resp.Content["application/cbor"] = jsonContent
				}
			}
		},
	)
}

func newHTTPServer(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

// run serves until a signal arrives on stop, then shuts down gracefully.
// It returns the listen error if the server fails to start.
func run(srv *http.Server, shutdownTimeout time.Duration, stop <-chan os.Signal) error {
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return err
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		applog.LogError(ctx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
	return nil
}
