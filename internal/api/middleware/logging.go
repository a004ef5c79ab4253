package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/research-bridge/engine/pkg/logger"
)

// Logging emits one structured line per request, tagged with the request ID
// and the acting principal when one is present.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("id", GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		}
		if p := GetPrincipal(r.Context()); p.UserID != 0 {
			fields = append(fields, zap.Uint("user_id", p.UserID), zap.String("role", p.Role))
		}
		logger.L().Info("request", fields...)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
