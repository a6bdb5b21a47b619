package chi

import (
	"encoding/json"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportdesk/internal/logger"
	"github.com/kailas-cloud/supportdesk/internal/metrics"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string // empty allows any origin
	MetricsAPIKeys []string // empty leaves /metrics open
	MaxBodyBytes   int64
}

// NewRouter wires middleware and routes around s.
func NewRouter(s *Server, opts RouterOptions, log *zap.Logger) http.Handler {
	if opts.MaxBodyBytes > 0 {
		s.maxBodyBytes = opts.MaxBodyBytes
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:     origins,
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		OptionsPassthrough: true,
	}).Handler
	chatCORS := corsHandler
	if len(origins) == 1 && origins[0] == "*" {
		chatCORS = func(next http.Handler) http.Handler { return anyOrigin(corsHandler(next)) }
	}

	r := gochi.NewRouter()
	r.Use(jsonRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(log))
	r.Use(metrics.Middleware())
	r.MethodNotAllowed(methodNotAllowed)
	r.NotFound(notFound)

	r.With(chatCORS).Post("/chat", s.Chat)
	r.With(chatCORS).Options("/chat", s.Preflight)
	r.Get("/health", s.HealthCheck)
	r.With(BearerAuthMiddleware(opts.MetricsAPIKeys)).Handle("/metrics", promhttp.Handler())

	return r
}

// anyOrigin sets Access-Control-Allow-Origin: * even when the request has no Origin header,
// which rs/cors leaves untouched.
func anyOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					log.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(errorResponse{Error: "Internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi's RequestID middleware runs first
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			ctx := logger.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", clientIP(r)),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
