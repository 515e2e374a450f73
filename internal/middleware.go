package internal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/frankli0324/go-browse/internal/http"
	"github.com/frankli0324/go-browse/internal/monitoring"
	"github.com/frankli0324/go-browse/internal/urls"
)

func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, u *urls.URL) (*http.Response, error) {
			start := time.Now()
			logger.Debug("fetching", zap.String("url", u.String()))
			resp, err := next(ctx, u)
			if err != nil {
				logger.Warn("fetch failed",
					zap.String("url", u.String()),
					zap.String("kind", ErrorKind(err)),
					zap.Duration("took", time.Since(start)),
					zap.Error(err))
				return nil, err
			}
			logger.Info("fetched",
				zap.String("url", u.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("bytes", len(resp.Body)),
				zap.Bool("truncated", resp.Truncated),
				zap.Duration("took", time.Since(start)))
			return resp, nil
		}
	}
}

func MetricsMiddleware(m *monitoring.Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, u *urls.URL) (*http.Response, error) {
			start := time.Now()
			resp, err := next(ctx, u)
			size := 0
			if resp != nil {
				size = len(resp.Body)
			}
			m.RecordFetch(ErrorKind(err), time.Since(start), size)
			return resp, err
		}
	}
}

// RateLimitMiddleware holds network fetches back to what l allows. Cache
// hits never reach it.
func RateLimitMiddleware(l *rate.Limiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, u *urls.URL) (*http.Response, error) {
			if err := l.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
			}
			return next(ctx, u)
		}
	}
}
