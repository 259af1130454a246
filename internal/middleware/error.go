package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pageza/knoweat/backend/internal/types"
)

// responseRecorder captures the status and swallows plain-text error bodies
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       string
	jsonBody   bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.jsonBody = strings.HasPrefix(r.Header().Get("Content-Type"), "application/json")
	if statusCode >= 400 && !r.jsonBody {
		r.Header().Set("Content-Type", "application/json")
		r.Header().Del("X-Content-Type-Options")
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.statusCode >= 400 && !r.jsonBody {
		r.body += string(b)
		return len(b), nil
	}
	return r.ResponseWriter.Write(b)
}

// ErrorHandler turns panics and plain-text error responses into JSON error bodies.
// Handlers that already answer with JSON pass through untouched.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic while serving request",
						zap.Any("panic", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: "Internal Server Error"})
					return
				}
				if rec.statusCode >= 400 && !rec.jsonBody {
					msg := strings.TrimSpace(rec.body)
					if msg == "" {
						msg = http.StatusText(rec.statusCode)
					}
					_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
