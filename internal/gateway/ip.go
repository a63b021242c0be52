package gateway

import (
	"context"
	"errors"

	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/model"
	"github.com/sells-group/lookup-bot/pkg/ipapi"
)

// IPGateway calls the IP geolocation endpoint. There is no fallback source.
type IPGateway struct {
	client ipapi.Client
	guard  guard
}

// NewIPGateway creates the IP gateway.
func NewIPGateway(client ipapi.Client, opts Options) *IPGateway {
	return &IPGateway{client: client, guard: newGuard(SourceIP, opts, func(err error) (lookup.Kind, bool) {
		if errors.Is(err, ipapi.ErrMalformedResponse) {
			return lookup.KindProtocol, true
		}
		if errors.Is(err, ipapi.ErrQuotaWait) {
			return lookup.KindTimeout, true
		}
		return "", false
	})}
}

// Lookup geolocates id.Raw. A "fail" status is not an error here; the
// orchestrator decides what it means.
func (g *IPGateway) Lookup(ctx context.Context, id model.Identifier) (*model.IPMetadata, error) {
	return run(ctx, g.guard, func(ctx context.Context) (*model.IPMetadata, error) {
		resp, err := g.client.Lookup(ctx, id.Raw)
		if err != nil {
			return nil, err
		}
		return &model.IPMetadata{
			Status:      resp.Status,
			Message:     resp.Message,
			Query:       resp.Query,
			Country:     resp.Country,
			CountryCode: resp.CountryCode,
			City:        resp.City,
			Region:      resp.RegionName,
			Zip:         resp.Zip,
			ISP:         resp.ISP,
			Org:         resp.Org,
		}, nil
	})
}
