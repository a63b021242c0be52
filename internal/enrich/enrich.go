// Package enrich runs the lookup sequence for a classified identifier and
// aggregates the answers into a report.
//
// The primary lookup decides whether the identifier is real: any failure there
// ends the request. The chained caller-name lookup is cosmetic: its failures
// degrade to a placeholder and never fail the request.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/lookup-bot/internal/gateway"
	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/model"
)

// DefaultCountryCode is used for the chained lookup when the phone metadata
// carries no country code.
const DefaultCountryCode = "US"

// PhoneLookuper validates a phone number against one endpoint.
type PhoneLookuper interface {
	Lookup(ctx context.Context, id model.Identifier) (*gateway.PhoneLookup, error)
}

// IPLookuper geolocates an IPv4 address.
type IPLookuper interface {
	Lookup(ctx context.Context, id model.Identifier) (*model.IPMetadata, error)
}

// CallerNameLookuper resolves the name behind a phone number.
type CallerNameLookuper interface {
	Configured() bool
	Lookup(ctx context.Context, id model.Identifier, countryCode string) (*model.CallerIdentity, error)
}

// Config holds orchestrator settings.
type Config struct {
	DefaultCountryCode string
}

// Enricher sequences gateway calls for one identifier at a time. It holds no
// per-request state and is safe for concurrent use.
type Enricher struct {
	phone     PhoneLookuper
	legacy    PhoneLookuper
	ip        IPLookuper
	caller    CallerNameLookuper
	defaultCC string
}

// New creates an Enricher. caller may be nil, which disables chaining.
func New(phone, legacy PhoneLookuper, ip IPLookuper, caller CallerNameLookuper, cfg Config) *Enricher {
	cc := cfg.DefaultCountryCode
	if cc == "" {
		cc = DefaultCountryCode
	}
	return &Enricher{
		phone:     phone,
		legacy:    legacy,
		ip:        ip,
		caller:    caller,
		defaultCC: cc,
	}
}

// Enrich looks up id and returns the aggregated report. Every returned error
// is a *lookup.Error.
func (e *Enricher) Enrich(ctx context.Context, id model.Identifier) (*model.Report, error) {
	t := newTracker(zap.L().With(
		zap.String("kind", string(id.Kind)),
		zap.String("identifier", id.Raw),
	))

	switch id.Kind {
	case model.KindPhone:
		return e.enrichPhone(ctx, id, t)
	case model.KindIPv4:
		return e.enrichIP(ctx, id, t)
	default:
		return nil, t.fail(lookup.New(lookup.KindInvalidInput, "", "text is neither a phone number nor an IPv4 address"))
	}
}

func (e *Enricher) enrichPhone(ctx context.Context, id model.Identifier, t *tracker) (*model.Report, error) {
	t.to(StatePrimaryLookupPending)
	source := gateway.SourcePhone
	res, err := e.phone.Lookup(ctx, id)
	if err != nil {
		return nil, t.fail(err)
	}

	// One fallback at most: a key issued for the legacy endpoint is reported
	// by the current one as an error/message payload.
	if res.Rejected && e.legacy != nil {
		t.log.Info("enrich: primary endpoint rejected request, trying legacy endpoint")
		source = gateway.SourcePhoneLegacy
		res, err = e.legacy.Lookup(ctx, id)
		if err != nil {
			return nil, t.fail(err)
		}
	}

	switch {
	case res.Metadata.Valid == nil:
		return nil, t.fail(lookup.APIError(source, res.Raw))
	case !*res.Metadata.Valid:
		return nil, t.fail(lookup.New(lookup.KindInvalidNumber, source, ""))
	}
	t.to(StatePrimarySucceeded)

	metadata := res.Metadata
	report := &model.Report{
		Identifier: id,
		Phone:      &metadata,
		Caller:     e.chainCallerName(ctx, id, metadata, t),
	}
	t.to(StateAggregated)
	return report, nil
}

func (e *Enricher) chainCallerName(ctx context.Context, id model.Identifier, md model.PhoneMetadata, t *tracker) *model.CallerLookup {
	if e.caller == nil || !e.caller.Configured() {
		return &model.CallerLookup{Status: model.CallerSkipped}
	}

	cc := e.defaultCC
	if md.CountryCode != nil {
		cc = *md.CountryCode
	}

	t.to(StateSecondaryLookupPending, zap.String("country_code", cc))
	ident, err := e.caller.Lookup(ctx, id, cc)
	if err != nil {
		t.log.Warn("enrich: caller name lookup failed, continuing without name",
			zap.String("kind", string(lookup.KindOf(err))),
			zap.Error(err),
		)
		return &model.CallerLookup{Status: model.CallerFailed}
	}
	if ident == nil || ident.Name == nil {
		return &model.CallerLookup{Status: model.CallerNotFound}
	}
	return &model.CallerLookup{Status: model.CallerResolved, Identity: ident}
}

func (e *Enricher) enrichIP(ctx context.Context, id model.Identifier, t *tracker) (*model.Report, error) {
	t.to(StatePrimaryLookupPending)
	md, err := e.ip.Lookup(ctx, id)
	if err != nil {
		return nil, t.fail(err)
	}
	if !md.Succeeded() {
		detail := ""
		if md.Message != nil {
			detail = *md.Message
		}
		return nil, t.fail(lookup.New(lookup.KindInvalidOrPrivateRange, gateway.SourceIP, detail))
	}
	t.to(StatePrimarySucceeded)

	report := &model.Report{Identifier: id, IP: md}
	t.to(StateAggregated)
	return report, nil
}
