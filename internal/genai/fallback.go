package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
)

// FallbackGenerator tries a chain of generators in order. Each one is
// retried on transient errors before the next is tried; the first text
// produced wins.
//
// Identical concurrent requests (same system role and user text) share one
// upstream call. The shared call runs detached from any single caller and is
// bounded by its own timeout; each caller still returns as soon as its own
// context is done.
type FallbackGenerator struct {
	chain       []Generator
	retryConfig RetryConfig
	timeout     time.Duration
	group       singleflight.Group
}

// NewFallbackGenerator creates a fallback chain. Nil generators are skipped.
func NewFallbackGenerator(cfg RetryConfig, chain ...Generator) *FallbackGenerator {
	gens := make([]Generator, 0, len(chain))
	for _, g := range chain {
		if g != nil {
			gens = append(gens, g)
		}
	}
	return &FallbackGenerator{
		chain:       gens,
		retryConfig: cfg,
	}
}

// Generate returns the first successful answer in the chain.
func (f *FallbackGenerator) Generate(ctx context.Context, systemRole, userText string) (string, error) {
	if f == nil || len(f.chain) == 0 {
		return "", ErrNotConfigured
	}

	ch := f.group.DoChan(requestKey(systemRole, userText), func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.requestTimeout())
		defer cancel()
		return f.generate(sharedCtx, systemRole, userText)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			if m := metrics.Global(); m != nil {
				m.RecordSingleflightDedup("llm")
			}
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (f *FallbackGenerator) requestTimeout() time.Duration {
	if f.timeout > 0 {
		return f.timeout
	}
	return DefaultRequestTimeout
}

func (f *FallbackGenerator) generate(ctx context.Context, systemRole, userText string) (string, error) {
	start := time.Now()
	primary := f.chain[0].Provider()

	var errs []error
	for i, g := range f.chain {
		attemptStart := time.Now()
		text, err := f.generateWithRetry(ctx, g, systemRole, userText)
		if err == nil {
			recordSuccess(g.Provider(), attemptStart)
			if i > 0 {
				recordFallback(primary, g.Provider(), time.Since(start))
			}
			return text, nil
		}

		recordError(g.Provider(), err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
		if i < len(f.chain)-1 {
			slog.WarnContext(ctx, "reply generator failed, falling back",
				"provider", g.Provider(),
				"model", g.Model(),
				"action", ClassifyError(err),
				"next", f.chain[i+1].Provider(),
				"error", err)
		}
	}

	return "", fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

// generateWithRetry calls g with retry on transient errors.
func (f *FallbackGenerator) generateWithRetry(ctx context.Context, g Generator, systemRole, userText string) (string, error) {
	var text string
	onRetry := func(attempt int, err error) {
		if m := metrics.Global(); m != nil {
			m.RecordLLMRetry(string(g.Provider()))
		}
		slog.DebugContext(ctx, "retrying reply generation",
			"provider", g.Provider(),
			"attempt", attempt,
			"error", err)
	}
	err := WithRetry(ctx, f.retryConfig, onRetry, func(ctx context.Context) error {
		var err error
		text, err = g.Generate(ctx, systemRole, userText)
		return err
	})
	return text, err
}

// Provider returns the primary provider type.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Model returns the primary model.
func (f *FallbackGenerator) Model() string {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Model()
}

// Providers lists the chain in order.
func (f *FallbackGenerator) Providers() []Provider {
	if f == nil {
		return nil
	}
	out := make([]Provider, len(f.chain))
	for i, g := range f.chain {
		out[i] = g.Provider()
	}
	return out
}

// Close closes every generator in the chain.
func (f *FallbackGenerator) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, g := range f.chain {
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func requestKey(systemRole, userText string) string {
	h := sha256.New()
	h.Write([]byte(systemRole))
	h.Write([]byte{0})
	h.Write([]byte(userText))
	return hex.EncodeToString(h.Sum(nil))
}

// Helper functions for metrics recording

func recordSuccess(provider Provider, start time.Time) {
	if m := metrics.Global(); m != nil {
		m.RecordLLM(string(provider), "success", time.Since(start).Seconds())
	}
}

func recordError(provider Provider, err error) {
	if m := metrics.Global(); m != nil {
		m.RecordLLM(string(provider), classifyErrorType(err), 0)
	}
}

func recordFallback(from, to Provider, total time.Duration) {
	if m := metrics.Global(); m != nil {
		m.RecordLLMFallback(string(from), string(to), total.Seconds())
	}
}
