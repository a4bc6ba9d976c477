package resilience

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker("geocoder", 3, time.Hour)
	fail := eris.New("boom")

	for i := 0; i < 3; i++ {
		assert.True(t, b.Allow())
		b.Record(fail)
	}
	assert.False(t, b.Allow(), "breaker should be open after 3 consecutive failures")
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	b := NewBreaker("geocoder", 3, time.Hour)
	fail := eris.New("boom")

	b.Record(fail)
	b.Record(fail)
	b.Record(nil)
	b.Record(fail)
	b.Record(fail)
	assert.True(t, b.Allow(), "non-consecutive failures should not open the breaker")
}

func TestBreakerProbeAfterCooldown(t *testing.T) {
	b := NewBreaker("router", 1, 10*time.Millisecond)
	b.Record(eris.New("down"))
	assert.False(t, b.Allow())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.Allow(), "one probe allowed after cooldown")
	assert.False(t, b.Allow(), "only one probe at a time")

	b.Record(nil)
	assert.True(t, b.Allow(), "successful probe closes the breaker")
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	b := NewBreaker("router", 1, 10*time.Millisecond)
	b.Record(eris.New("down"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.Allow())
	b.Record(eris.New("still down"))
	assert.False(t, b.Allow(), "failed probe restarts the cooldown")
}
