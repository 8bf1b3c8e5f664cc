package backoff

import (
	"math/rand"
	"time"
)

// JitterType selects how NewJitterFunc randomizes an interval.
type JitterType int

const (
	// NoJitter returns the interval unchanged.
	NoJitter JitterType = iota
	// FullJitter returns a uniform random duration in [0, interval].
	FullJitter
	// Jitter returns a uniform random duration in [interval/2, interval*1.5].
	Jitter
)

// NewJitterFunc returns a function that applies the given jitter strategy to
// an interval. The returned function is safe for concurrent use.
func NewJitterFunc(jt JitterType) func(time.Duration) time.Duration {
	switch jt {
	case FullJitter:
		return func(interval time.Duration) time.Duration {
			if interval <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(interval) + 1))
		}
	case Jitter:
		return func(interval time.Duration) time.Duration {
			if interval <= 0 {
				return 0
			}
			half := int64(interval) / 2
			return time.Duration(half + rand.Int63n(int64(interval)))
		}
	default:
		return func(interval time.Duration) time.Duration {
			if interval <= 0 {
				return 0
			}
			return interval
		}
	}
}

// WithJitter wraps a RetryPolicy so every computed interval is passed
// through the given jitter strategy before being returned.
func WithJitter(policy RetryPolicy, jt JitterType) RetryPolicy {
	return &jitteredPolicy{policy: policy, jitterFunc: NewJitterFunc(jt)}
}

type jitteredPolicy struct {
	policy     RetryPolicy
	jitterFunc func(time.Duration) time.Duration
}

func (p *jitteredPolicy) ComputeNextInterval(retryCount int, elapsedTime time.Duration, err error) (time.Duration, error) {
	interval, computeErr := p.policy.ComputeNextInterval(retryCount, elapsedTime, err)
	if computeErr != nil {
		return 0, computeErr
	}
	return p.jitterFunc(interval), nil
}
