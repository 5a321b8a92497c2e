package llm

import (
	"context"
	"errors"
	"time"

	"voice-agent-workers/internal/common/config"
	apperrors "voice-agent-workers/internal/common/errors"
	"voice-agent-workers/internal/common/logger"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("LLM_CIRCUIT_OPEN")

// Breaker guards a Client with a circuit breaker. It never retries; an open
// circuit fails fast so callers fall back immediately.
type Breaker struct {
	name string
	next Client
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Client, cfg config.BreakerConfig, log logger.Logger) *Breaker {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	ratio := cfg.FailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}
	interval := config.GetDuration(cfg.Interval)
	if interval <= 0 {
		interval = time.Minute
	}
	openTimeout := config.GetDuration(cfg.OpenTimeout)
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 3
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= ratio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})

	return &Breaker{name: name, next: next, cb: cb}
}

func (b *Breaker) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, system, messages)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", apperrors.NewLLMUnavailableError(ErrCircuitOpen)
	}
	if err != nil {
		return "", b.classify(err)
	}
	return out.(string), nil
}

// classify tags timeouts and backend rejections with their error codes.
// Other failures pass through untouched.
func (b *Breaker) classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewLLMTimeoutError(b.name, err)
	case errors.Is(err, ErrBackendStatus):
		return apperrors.NewLLMUnavailableError(err)
	default:
		return err
	}
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}
