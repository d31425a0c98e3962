package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/repodoc/internal/logfields"
)

// Middleware decorates a Service.
type Middleware func(Service) Service

// Wrap applies middlewares so the first one listed is the outermost.
func Wrap(base Service, mws ...Middleware) Service {
	s := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			s = mws[i](s)
		}
	}
	return s
}

// WithLogging logs every call at debug level and failures at warn level.
func WithLogging(logger *slog.Logger, provider, model string) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req Request) (string, error) {
			start := time.Now()
			text, err := next.Complete(ctx, req)
			attrs := []any{
				logfields.Provider(provider),
				logfields.Model(model),
				logfields.DurationMS(float64(time.Since(start).Microseconds()) / 1000),
				slog.Int("prompt_chars", len(req.Prompt)),
			}
			if err != nil {
				logger.Warn("Generation call failed", append(attrs, logfields.Error(err))...)
				return "", err
			}
			logger.Debug("Generation call completed", append(attrs, slog.Int("completion_chars", len(text)))...)
			return text, nil
		})
	}
}

// WithRateLimit throttles calls to rps requests per second. Non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req Request) (string, error) {
			if err := limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return "", NewError(KindRateLimited, "limiter", err)
			}
			return next.Complete(ctx, req)
		})
	}
}

// WithCache memoizes successful completions in an LRU keyed by the request.
// Scheduled and watch-triggered runs reuse completions for unchanged prompts.
func WithCache(size int) (Middleware, error) {
	if size <= 0 {
		return nil, nil
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return func(next Service) Service {
		return ServiceFunc(func(ctx context.Context, req Request) (string, error) {
			key := cacheKey(req)
			if text, ok := cache.Get(key); ok {
				return text, nil
			}
			text, err := next.Complete(ctx, req)
			if err == nil && text != "" {
				cache.Add(key, text)
			}
			return text, err
		})
	}, nil
}

func cacheKey(req Request) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d\x00%g\x00%s\x00%s", req.MaxTokens, req.Temperature, req.System, req.Prompt)
	return hex.EncodeToString(h.Sum(nil))
}
