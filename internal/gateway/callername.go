package gateway

import (
	"context"
	"errors"

	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/model"
	"github.com/sells-group/lookup-bot/internal/workerpool"
	"github.com/sells-group/lookup-bot/pkg/callerid"
)

// CallerNameGateway searches for the name behind a phone number. The upstream
// is slow and account-bound, so calls run on a bounded worker pool and the
// caller only waits for the result.
type CallerNameGateway struct {
	client     callerid.Client
	pool       *workerpool.Pool
	configured bool
	guard      guard
}

// NewCallerNameGateway creates the caller-name gateway. configured reports
// whether credentials were supplied; an unconfigured gateway is skipped by the
// orchestrator.
func NewCallerNameGateway(client callerid.Client, pool *workerpool.Pool, configured bool, opts Options) *CallerNameGateway {
	return &CallerNameGateway{
		client:     client,
		pool:       pool,
		configured: configured,
		guard: newGuard(SourceCallerName, opts, func(err error) (lookup.Kind, bool) {
			switch {
			case errors.Is(err, callerid.ErrNotConfigured):
				return lookup.KindMissingCredential, true
			case errors.Is(err, callerid.ErrMalformedResponse):
				return lookup.KindProtocol, true
			default:
				return "", false
			}
		}),
	}
}

// Configured reports whether the gateway has credentials.
func (g *CallerNameGateway) Configured() bool { return g.configured }

// Lookup returns the first match with a name, or nil when nothing was found.
func (g *CallerNameGateway) Lookup(ctx context.Context, id model.Identifier, countryCode string) (*model.CallerIdentity, error) {
	return run(ctx, g.guard, func(ctx context.Context) (*model.CallerIdentity, error) {
		res, err := workerpool.Do(ctx, g.pool, func(ctx context.Context) (*callerid.SearchResult, error) {
			return g.client.Search(ctx, id.Raw, countryCode)
		})
		if err != nil {
			return nil, err
		}
		for _, m := range res.Matches {
			if m.Name != nil {
				return &model.CallerIdentity{Name: m.Name, SpamScore: m.SpamScore}, nil
			}
		}
		return nil, nil
	})
}
