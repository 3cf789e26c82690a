package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/api/auth"
	"github.com/marmos91/dittodrive/pkg/controlplane/api/handlers"
	apiMiddleware "github.com/marmos91/dittodrive/pkg/controlplane/api/middleware"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive"
)

// NewRouter creates the chi router serving the DittoDrive API.
//
// Routes:
//   - GET /health, GET /health/ready - probes
//   - POST /api/v1/auth/login, POST /api/v1/auth/refresh, GET /api/v1/auth/me
//   - POST /api/v1/auth/register - only with AllowRegistration
//   - /api/v1/files/* - namespace, upload and download
//   - /api/v1/files/{id}/permissions/* - grants (mutations admin only)
//   - GET /api/v1/storage/info - usage
//   - /api/v1/users/* - user management (admin only)
//
// Uploads and downloads are exempt from the request timeout.
func NewRouter(d *drive.Service, jwtService *auth.JWTService, cpStore store.Store, cfg APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	timeout := middleware.Timeout(cfg.RequestTimeout)

	healthHandler := handlers.NewHealthHandler(cpStore)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(cpStore, jwtService)
	userHandler := handlers.NewUserHandler(cpStore, d)
	fileHandler := handlers.NewFileHandler(d)
	permHandler := handlers.NewPermissionHandler(d)
	storageHandler := handlers.NewStorageHandler(d)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(timeout)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			if cfg.AllowRegistration {
				r.Post("/register", authHandler.Register)
			}

			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(jwtService))

			// Streaming transfers
			r.Post("/files/upload", fileHandler.Upload)
			r.Get("/files/{id}/download", fileHandler.Download)
			r.Post("/files/batch-download", fileHandler.BatchDownload)

			r.Group(func(r chi.Router) {
				r.Use(timeout)

				r.Get("/files", fileHandler.List)
				r.Post("/files/folder", fileHandler.CreateFolder)
				r.Post("/files/instant-upload", fileHandler.InstantUpload)
				r.Post("/files/size", fileHandler.SizeOf)

				r.Get("/files/{id}", fileHandler.Get)
				r.Delete("/files/{id}", fileHandler.Delete)
				r.Get("/files/{id}/size", fileHandler.Size)
				r.Put("/files/{id}/rename", fileHandler.Rename)
				r.Put("/files/{id}/move", fileHandler.Move)
				r.Post("/files/{id}/copy", fileHandler.Copy)

				r.Get("/files/{id}/permissions", permHandler.List)
				r.With(apiMiddleware.RequireAdmin()).Post("/files/{id}/permissions", permHandler.Grant)
				r.With(apiMiddleware.RequireAdmin()).Delete("/files/{id}/permissions/{userID}", permHandler.Revoke)

				r.Get("/storage/info", storageHandler.Info)

				r.Route("/users", func(r chi.Router) {
					r.Use(apiMiddleware.RequireAdmin())
					r.Get("/", userHandler.List)
					r.Post("/", userHandler.Create)
					r.Delete("/{id}", userHandler.Delete)
				})
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger attaches a LogContext and a span to every request and logs
// its completion. Healthchecks are logged at DEBUG.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ctx, span := telemetry.StartSpan(telemetry.ExtractHTTP(r.Context(), r.Header), r.Method+" "+r.URL.Path)
		defer span.End()

		lc := logger.NewLogContext(clientIP(r.RemoteAddr))
		lc.RequestID = requestID
		if traceID := telemetry.TraceID(ctx); traceID != "" {
			lc = lc.WithTrace(traceID, telemetry.SpanID(ctx))
		}
		ctx = logger.WithContext(ctx, lc)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logArgs := []any{
			logger.RequestID(requestID),
			"method", r.Method,
			logger.Path(r.URL.Path),
			"status", ww.Status(),
			logger.Bytes(int64(ww.BytesWritten())),
			logger.DurationMs(logger.Duration(start)),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

// clientIP strips the port from a remote address.
func clientIP(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i > 0 && !strings.HasSuffix(addr, "]") {
		return strings.Trim(addr[:i], "[]")
	}
	return addr
}
