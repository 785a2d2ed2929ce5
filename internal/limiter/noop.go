package limiter

import (
	"context"
	"time"
)

// NoopLimiter allows everything and reports the configured limits. It is the
// fallback when no Redis is configured.
type NoopLimiter struct {
	rules map[Bucket]Rule
	now   func() time.Time
}

func NewNoop() *NoopLimiter {
	return &NoopLimiter{rules: DefaultRules(), now: time.Now}
}

func (l *NoopLimiter) Allow(_ context.Context, bucket Bucket, _ string) (Decision, error) {
	r, err := ruleFor(l.rules, bucket)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   true,
		Limit:     r.Limit,
		Remaining: r.Limit - 1,
		ResetAt:   l.now().Add(r.Window),
	}, nil
}

func (l *NoopLimiter) Status(context.Context) (Status, error) {
	return Status{Backend: "noop", Message: "rate limiting disabled"}, nil
}

func (l *NoopLimiter) Maintain(ctx context.Context) (Status, error) {
	return l.Status(ctx)
}
