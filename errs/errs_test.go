package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	cause := errors.New("connection refused")
	err := Transientf(cause, "fetching latest block")
	assert.Equal(t, Transient, KindOf(err))
	assert.True(t, errors.Is(err, cause))
}

func TestKindOfDefaultsToFatal(t *testing.T) {
	assert.Equal(t, Fatal, KindOf(errors.New("unclassified")))
}

func TestRetryablePolicy(t *testing.T) {
	assert.True(t, Retryable(New(Transient, "timeout")))
	assert.True(t, Retryable(New(Upstream, "502 from node")))
	assert.False(t, Retryable(New(Invariant, "terminal state transition")))
	assert.False(t, Retryable(New(Fatal, "db connection lost")))
	assert.False(t, Retryable(errors.New("plain error")))
}
