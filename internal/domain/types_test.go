package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHoldStatus_Terminal(t *testing.T) {
	assert.False(t, HoldActive.Terminal())
	assert.True(t, HoldConfirmed.Terminal())
	assert.True(t, HoldExpired.Terminal())
	assert.True(t, HoldCancelled.Terminal())
}

func TestHold_ExpiredAt(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := Hold{ExpiresAt: deadline}

	assert.False(t, h.ExpiredAt(deadline.Add(-time.Nanosecond)))
	assert.True(t, h.ExpiredAt(deadline), "the boundary instant counts as expired")
	assert.True(t, h.ExpiredAt(deadline.Add(time.Second)))
}
