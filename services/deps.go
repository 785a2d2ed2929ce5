package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"terrainhub/models"
	"terrainhub/rules"
)

// Deps is what every service is built from. Screener, Geocoder, Notifier and
// Now are optional.
type Deps struct {
	Courts   CourtStore
	Comments CommentStore
	Reports  ReportStore
	Users    UserStore
	Authz    *Authorizer
	Policy   rules.Policy
	Screener ContentScreener
	Geocoder Geocoder
	Notifier Notifier
	Now      func() time.Time
}

func (d Deps) withDefaults() Deps {
	d.Policy = d.Policy.WithDefaults()
	d.Notifier = orNop(d.Notifier)
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func (d Deps) screen(ctx context.Context, text string) error {
	if d.Screener == nil {
		return nil
	}
	return d.Screener.Screen(ctx, text)
}

// withRetries runs attempt until it stops failing with rules.ErrConflict.
// Each attempt must reload whatever it compares against.
func withRetries(ctx context.Context, retries int, op string, attempt func() error) error {
	var err error
	for i := 0; i <= retries; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = attempt()
		if !errors.Is(err, rules.ErrConflict) {
			return err
		}
	}
	slog.Warn("conflict retries exhausted", "op", op, "attempts", retries+1)
	return fmt.Errorf("%w: %s gave up after %d attempts", rules.ErrConflict, op, retries+1)
}

// seedUser is the profile created on first contact with an authenticated principal.
func seedUser(p models.Principal, now time.Time) models.User {
	return models.NewUser(p.Email, p.Name, "", p.Role, now)
}

// progress applies a points and stat delta to the principal's profile,
// creating it on first use, and emits the matching events.
func (d Deps) progress(ctx context.Context, p models.Principal, delta models.ProgressDelta, action string) (models.User, error) {
	before, err := d.Users.FindUser(ctx, p.Email)
	if errors.Is(err, rules.ErrNotFound) {
		before, err = d.Users.EnsureUser(ctx, seedUser(p, d.Now()))
	}
	if err != nil {
		return models.User{}, err
	}
	after, err := d.Users.AddProgress(ctx, p.Email, delta, d.Policy.PointsPerLevel)
	if err != nil {
		return models.User{}, err
	}
	now := d.Now()
	if delta.Points != 0 {
		d.Notifier.Notify(models.GamificationEvent{
			Type:      models.EventPointsAwarded,
			UserID:    p.Email,
			Points:    delta.Points,
			NewPoints: after.Points,
			Level:     after.Level,
			Action:    action,
			Timestamp: now,
		})
	}
	if after.Level > before.Level {
		d.Notifier.Notify(models.GamificationEvent{
			Type:      models.EventLevelUp,
			UserID:    p.Email,
			NewPoints: after.Points,
			Level:     after.Level,
			Action:    action,
			Timestamp: now,
		})
	}
	return after, nil
}
