// Package gateway wraps each upstream lookup service in a single guarded call
// that returns normalized model values or a *lookup.Error, never a raw fault.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/resilience"
)

// Source names, used for logging, breaker keys and error messages.
const (
	SourcePhone       = "numverify"
	SourcePhoneLegacy = "numverify_legacy"
	SourceIP          = "ipapi"
	SourceCallerName  = "callerid"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 10 * time.Second

// Options are shared by every gateway.
type Options struct {
	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration
	// Breakers supplies the per-source circuit breaker. Nil disables breaking.
	Breakers *resilience.Breakers
}

type guard struct {
	source  string
	timeout time.Duration
	breaker *resilience.CircuitBreaker
	// classify maps client-specific sentinel errors to a lookup kind.
	classify func(error) (lookup.Kind, bool)
}

func newGuard(source string, opts Options, classify func(error) (lookup.Kind, bool)) guard {
	g := guard{source: source, timeout: opts.Timeout, classify: classify}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if opts.Breakers != nil {
		g.breaker = opts.Breakers.Get(source)
	}
	return g
}

// run executes fn with the guard's timeout and breaker. Any error, including a
// panic inside fn, comes back as a *lookup.Error.
func run[T any](ctx context.Context, g guard, fn func(ctx context.Context) (T, error)) (val T, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			var zero T
			val = zero
			err = lookup.Newf(lookup.KindProtocol, g.source, "unexpected failure: %v", r)
			zap.L().Error("gateway: recovered panic", zap.String("source", g.source), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	if g.breaker != nil {
		val, err = resilience.ExecuteVal(ctx, g.breaker, fn)
	} else {
		val, err = fn(ctx)
	}
	if err == nil {
		zap.L().Debug("gateway: call complete",
			zap.String("source", g.source),
			zap.Duration("elapsed", time.Since(start)),
		)
		return val, nil
	}

	lerr := g.convert(ctx, err)
	zap.L().Debug("gateway: call failed",
		zap.String("source", g.source),
		zap.String("kind", string(lerr.Kind)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	var zero T
	return zero, lerr
}

func (g guard) convert(ctx context.Context, err error) *lookup.Error {
	var le *lookup.Error
	if errors.As(err, &le) {
		return le
	}
	if g.classify != nil {
		if kind, ok := g.classify(err); ok {
			return &lookup.Error{Kind: kind, Source: g.source, Err: err}
		}
	}
	// A deadline on our own context is a timeout even when the transport
	// reports it as a plain cancellation.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &lookup.Error{Kind: lookup.KindTimeout, Source: g.source, Detail: fmt.Sprintf("no response within %s", g.timeout), Err: err}
	}
	return lookup.FromTransport(g.source, err)
}
