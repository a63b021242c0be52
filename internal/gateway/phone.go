package gateway

import (
	"context"
	"errors"

	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/model"
	"github.com/sells-group/lookup-bot/pkg/numverify"
)

// PhoneLookup is a normalized number-verification answer.
type PhoneLookup struct {
	Metadata model.PhoneMetadata
	// Rejected is set when the payload carried an error or message field
	// instead of a verdict.
	Rejected bool
	Raw      []byte
}

// PhoneGateway calls the current number-verification endpoint.
type PhoneGateway struct {
	client numverify.Client
	guard  guard
}

// NewPhoneGateway creates the primary phone gateway.
func NewPhoneGateway(client numverify.Client, opts Options) *PhoneGateway {
	return &PhoneGateway{client: client, guard: newGuard(SourcePhone, opts, classifyNumverify)}
}

// Lookup validates id.Raw.
func (g *PhoneGateway) Lookup(ctx context.Context, id model.Identifier) (*PhoneLookup, error) {
	return run(ctx, g.guard, func(ctx context.Context) (*PhoneLookup, error) {
		resp, err := g.client.Validate(ctx, id.Raw)
		if err != nil {
			return nil, err
		}
		return toPhoneLookup(resp), nil
	})
}

// LegacyPhoneGateway calls the legacy number-verification endpoint. It is
// only used as a fallback for the primary gateway.
type LegacyPhoneGateway struct {
	client numverify.Client
	guard  guard
}

// NewLegacyPhoneGateway creates the fallback phone gateway.
func NewLegacyPhoneGateway(client numverify.Client, opts Options) *LegacyPhoneGateway {
	return &LegacyPhoneGateway{client: client, guard: newGuard(SourcePhoneLegacy, opts, classifyNumverify)}
}

// Lookup validates id.Raw.
func (g *LegacyPhoneGateway) Lookup(ctx context.Context, id model.Identifier) (*PhoneLookup, error) {
	return run(ctx, g.guard, func(ctx context.Context) (*PhoneLookup, error) {
		resp, err := g.client.ValidateLegacy(ctx, id.Raw)
		if err != nil {
			return nil, err
		}
		return toPhoneLookup(resp), nil
	})
}

func toPhoneLookup(resp *numverify.Response) *PhoneLookup {
	return &PhoneLookup{
		Metadata: model.PhoneMetadata{
			Valid:       resp.Valid,
			CountryName: resp.CountryName,
			CountryCode: resp.CountryCode,
			Location:    resp.Location,
			Carrier:     resp.Carrier,
			LineType:    resp.LineType,
		},
		Rejected: resp.Rejected,
		Raw:      resp.Raw,
	}
}

func classifyNumverify(err error) (lookup.Kind, bool) {
	switch {
	case errors.Is(err, numverify.ErrMissingKey):
		return lookup.KindMissingCredential, true
	case errors.Is(err, numverify.ErrMalformedResponse):
		return lookup.KindProtocol, true
	default:
		return "", false
	}
}
