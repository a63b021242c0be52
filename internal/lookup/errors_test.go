package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lookup-bot/internal/resilience"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestFromTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", eris.Wrap(context.DeadlineExceeded, "send"), KindTimeout},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, KindTimeout},
		{"connection refused", errors.New("dial tcp: connection refused"), KindNetwork},
		{"circuit open", resilience.ErrCircuitOpen, KindNetwork},
		{"passthrough", New(KindProtocol, "x", "bad json"), KindProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTransport("numverify", tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestFromTransport_Nil(t *testing.T) {
	assert.Nil(t, FromTransport("x", nil))
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &Error{Kind: KindNetwork, Source: "ipapi", Detail: "send request", Err: cause}

	assert.Equal(t, "ipapi: network: send request: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(KindInvalidNumber, "", ""))
	assert.Equal(t, KindInvalidNumber, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestIsSourceError(t *testing.T) {
	assert.True(t, IsSourceError(KindNetwork))
	assert.True(t, IsSourceError(KindTimeout))
	assert.True(t, IsSourceError(KindProtocol))
	assert.True(t, IsSourceError(KindMissingCredential))
	assert.False(t, IsSourceError(KindInvalidNumber))
	assert.False(t, IsSourceError(KindAPIError))
}
