package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lookup-bot/internal/gateway"
	"github.com/sells-group/lookup-bot/internal/model"
)

// --- Phone gateway mock ---

type mockPhone struct {
	mock.Mock
}

func (m *mockPhone) Lookup(ctx context.Context, id model.Identifier) (*gateway.PhoneLookup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PhoneLookup), args.Error(1)
}

// --- IP gateway mock ---

type mockIP struct {
	mock.Mock
}

func (m *mockIP) Lookup(ctx context.Context, id model.Identifier) (*model.IPMetadata, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IPMetadata), args.Error(1)
}

// --- Caller name gateway mock ---

type mockCaller struct {
	mock.Mock
	configured bool
}

func (m *mockCaller) Configured() bool { return m.configured }

func (m *mockCaller) Lookup(ctx context.Context, id model.Identifier, countryCode string) (*model.CallerIdentity, error) {
	args := m.Called(ctx, id, countryCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CallerIdentity), args.Error(1)
}
