package pipeline

import "time"

// Budget is the shared wall-clock bound governing all stages of one
// query's resolution. Stages check it before starting expensive work and
// abort remaining work once it is exceeded, returning whatever has been
// gathered so far.
type Budget struct {
	start time.Time
	max   time.Duration
}

func NewBudget(max time.Duration) Budget {
	return Budget{start: time.Now(), max: max}
}

func (b Budget) Exceeded() bool {
	return time.Since(b.start) >= b.max
}

// Remaining reports the time left, never negative.
func (b Budget) Remaining() time.Duration {
	r := b.max - time.Since(b.start)
	if r < 0 {
		return 0
	}
	return r
}
