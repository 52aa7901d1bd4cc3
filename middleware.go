package turnstile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

const verifyTimeout = 6 * time.Second

// VerificationResult is what the failure handler reports to the client.
type VerificationResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type FailureHandler func(http.ResponseWriter, *http.Request, VerificationResult)

type middlewareConfig struct {
	failureHandler FailureHandler
	logger         *slog.Logger
}

type MiddlewareOption func(*middlewareConfig)

func WithFailureHandler(handler FailureHandler) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if handler != nil {
			cfg.failureHandler = handler
		}
	}
}

func WithMiddlewareLogger(logger *slog.Logger) MiddlewareOption {
	return func(cfg *middlewareConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Middleware runs ctrl's DoTest on every state-changing request before next.
// A control that is not shown (see ShowVerification) should not be wrapped.
func Middleware(ctrl Control, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		failureHandler: JSONFailureHandler(http.StatusBadRequest),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("component", "turnstile-middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guarded(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sub, err := SubmissionFromRequest(r)
			if err != nil {
				logger.Warn("could not parse verification form", "error", err)
				cfg.failureHandler(w, r, failure(ErrMissingInput))
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), verifyTimeout)
			defer cancel()

			if err := ctrl.DoTest(ctx, sub); err != nil {
				var code ErrorCode
				if !errors.As(err, &code) {
					code = ErrWrongVerification
				}
				logger.Info("verification failed", "path", r.URL.Path, "code", string(code))
				cfg.failureHandler(w, r, failure(code))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func JSONFailureHandler(status int) FailureHandler {
	return func(w http.ResponseWriter, _ *http.Request, result VerificationResult) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = sonic.ConfigStd.NewEncoder(w).Encode(result)
	}
}

func failure(code ErrorCode) VerificationResult {
	return VerificationResult{
		Success: false,
		Status:  string(code),
		Message: Message(code),
	}
}

func guarded(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
