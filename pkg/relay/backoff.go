package relay

import (
	"math"
	"time"

	"lukechampine.com/frand"
)

const (
	defaultBackoffMin = 3 * time.Second
	defaultBackoffMax = 2 * time.Minute
	backoffFactor     = 1.7
	// a connection that stayed up this long resets the backoff
	stabilityThreshold = 30 * time.Second
)

// backoff is carried as plain data so the reconnect loop never nests.
type backoff struct {
	min, max time.Duration
	attempts int
}

func (b *backoff) next() time.Duration {
	d := float64(b.min) * math.Pow(backoffFactor, float64(b.attempts))
	b.attempts++
	if d > float64(b.max) {
		d = float64(b.max)
	}
	// +-25% jitter keeps a fleet of clients from reconnecting in step
	return time.Duration(d * (1 + (frand.Float64()-0.5)/2))
}

func (b *backoff) reset() {
	b.attempts = 0
}
