// Package limiter decides whether a caller may perform an action right now.
package limiter

import (
	"context"
	"fmt"
	"time"
)

// Bucket names a class of actions sharing one limit.
type Bucket string

const (
	BucketAddTerrain Bucket = "addTerrain"
	BucketRating     Bucket = "rating"
	BucketGeneral    Bucket = "general"
	BucketAuth       Bucket = "auth"
	BucketSensitive  Bucket = "sensitive"
)

// Rule allows Limit actions per sliding Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRules returns the limits of every bucket.
func DefaultRules() map[Bucket]Rule {
	return map[Bucket]Rule{
		BucketAddTerrain: {Limit: 3, Window: time.Hour},
		BucketRating:     {Limit: 10, Window: time.Minute},
		BucketGeneral:    {Limit: 100, Window: time.Minute},
		BucketAuth:       {Limit: 5, Window: 5 * time.Minute},
		BucketSensitive:  {Limit: 20, Window: time.Minute},
	}
}

// Decision is the verdict for one attempt.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

// RetryAfter is how long the caller should wait before trying again.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if d.ResetAt.Before(now) {
		return 0
	}
	return d.ResetAt.Sub(now)
}

// Status describes the limiter backend for the maintenance endpoint.
type Status struct {
	Backend         string     `json:"backend"`
	Connected       bool       `json:"connected"`
	Message         string     `json:"message"`
	LatencyMs       int64      `json:"latencyMs"`
	MaintenanceRuns int64      `json:"maintenanceCount"`
	LastMaintenance *time.Time `json:"lastMaintenance"`
}

// Limiter is consulted before every mutating action.
type Limiter interface {
	Allow(ctx context.Context, bucket Bucket, identifier string) (Decision, error)
	Status(ctx context.Context) (Status, error)
	// Maintain touches the backend so an idle hosted instance is not reclaimed.
	Maintain(ctx context.Context) (Status, error)
}

// Identifier keys a limit by user when known, by client IP otherwise.
func Identifier(userID, ip string) string {
	if userID != "" {
		return "user:" + userID
	}
	return "ip:" + ip
}

func ruleFor(rules map[Bucket]Rule, bucket Bucket) (Rule, error) {
	r, ok := rules[bucket]
	if !ok {
		return Rule{}, fmt.Errorf("unknown rate limit bucket %q", bucket)
	}
	return r, nil
}
