package main

import (
	"time"

	"github.com/sells-group/lookup-bot/internal/config"
	"github.com/sells-group/lookup-bot/internal/enrich"
	"github.com/sells-group/lookup-bot/internal/gateway"
	"github.com/sells-group/lookup-bot/internal/model"
	"github.com/sells-group/lookup-bot/internal/report"
	"github.com/sells-group/lookup-bot/internal/resilience"
	"github.com/sells-group/lookup-bot/internal/workerpool"
	"github.com/sells-group/lookup-bot/pkg/callerid"
	"github.com/sells-group/lookup-bot/pkg/ipapi"
	"github.com/sells-group/lookup-bot/pkg/numverify"
)

// pipelineEnv holds the lookup pipeline shared by the serve and lookup
// commands.
type pipelineEnv struct {
	Enricher  *enrich.Enricher
	Formatter report.Formatter
	Breakers  *resilience.Breakers
}

// initPipeline builds the API clients, gateways and orchestrator from c.
func initPipeline(c *config.Config) *pipelineEnv {
	breakers := resilience.NewBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold: c.Lookup.BreakerFailures,
		ResetTimeout:     time.Duration(c.Lookup.BreakerResetSecs) * time.Second,
	})
	opts := gateway.Options{
		Timeout:  time.Duration(c.Lookup.TimeoutSecs) * time.Second,
		Breakers: breakers,
	}

	nv := numverify.NewClient(c.Numverify.Key,
		numverify.WithBaseURL(c.Numverify.BaseURL),
		numverify.WithLegacyURL(c.Numverify.LegacyURL),
	)
	ip := ipapi.NewClient(
		ipapi.WithBaseURL(c.IPAPI.BaseURL),
		ipapi.WithRequestsPerMinute(c.IPAPI.RequestsPerMinute),
	)
	cid := callerid.NewClient(c.CallerID.InstallationID, callerid.WithBaseURL(c.CallerID.BaseURL))

	enricher := enrich.New(
		gateway.NewPhoneGateway(nv, opts),
		gateway.NewLegacyPhoneGateway(nv, opts),
		gateway.NewIPGateway(ip, opts),
		gateway.NewCallerNameGateway(cid, workerpool.New(c.CallerID.Workers), c.CallerID.InstallationID != "", opts),
		enrich.Config{DefaultCountryCode: c.CallerID.DefaultCountryCode},
	)

	return &pipelineEnv{
		Enricher:  enricher,
		Formatter: report.Formatter{SpamThreshold: model.Ptr(c.CallerID.SpamThreshold)},
		Breakers:  breakers,
	}
}
