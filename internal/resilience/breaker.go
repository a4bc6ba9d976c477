package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned when a call is rejected without reaching the
// upstream because too many recent calls failed.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// Breaker is a minimal circuit breaker for one upstream. Consecutive
// failures past the threshold open it; after the cooldown a single probe
// call is allowed through, and its outcome closes or re-opens the circuit.
// Safe for concurrent use, though the auditor drives one route at a time.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
	open     bool
	probing  bool
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and stays open for the cooldown.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a call may proceed. During the cooldown it returns
// false; after the cooldown it admits one probe at a time.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if time.Since(b.openedAt) < b.cooldown || b.probing {
		return false
	}
	b.probing = true
	return true
}

// Record feeds a call outcome back into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err == nil {
		if b.open {
			zap.L().Info("resilience: breaker closed", zap.String("upstream", b.name))
		}
		b.open = false
		b.failures = 0
		return
	}

	b.failures++
	if b.failures >= b.threshold && !b.open {
		b.open = true
		b.openedAt = time.Now()
		zap.L().Warn("resilience: breaker opened",
			zap.String("upstream", b.name),
			zap.Int("consecutive_failures", b.failures),
		)
	} else if b.open {
		// Failed probe: restart the cooldown.
		b.openedAt = time.Now()
	}
}
