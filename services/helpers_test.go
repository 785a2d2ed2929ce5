package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"terrainhub/db"
	"terrainhub/models"
	"terrainhub/rules"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.GamificationEvent
}

func (r *recordingNotifier) Notify(e models.GamificationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) ofType(t models.GamificationEventType) []models.GamificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.GamificationEvent
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// tickingClock advances one second per call so creation order is stable.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	store    *db.MemoryStore
	notifier *recordingNotifier
	deps     Deps
	courts   *CourtService
	comments *CommentService
	reports  *ReportService
	profiles *ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	authz, err := NewAuthorizer(nil)
	require.NoError(t, err)
	store := db.NewMemoryStore()
	n := &recordingNotifier{}
	d := Deps{
		Courts:   store,
		Comments: store,
		Reports:  store,
		Users:    store,
		Authz:    authz,
		Policy:   rules.DefaultPolicy(),
		Notifier: n,
		Now:      tickingClock(),
	}
	return &fixture{
		store:    store,
		notifier: n,
		deps:     d,
		courts:   NewCourtService(d),
		comments: NewCommentService(d),
		reports:  NewReportService(d),
		profiles: NewProfileService(d),
	}
}

func member(email string) models.Principal {
	return models.Principal{Email: email, Name: "Joueur " + email, Role: models.RoleUser}
}

func guest() models.Principal {
	return models.Principal{Email: "guest-1@guest.local", Name: "Invité", Role: models.RoleGuest}
}

func (f *fixture) createCourt(t *testing.T, owner models.Principal, lat, lng float64) models.Court {
	t.Helper()
	c, err := f.courts.Create(context.Background(), owner, rules.CourtInput{
		Name:        "Boulodrome du Parc",
		Description: "Terrain ombragé, 6 pistes",
		Lat:         lat,
		Lng:         lng,
		Address:     "Parc Borély, Marseille",
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) user(t *testing.T, email string) models.User {
	t.Helper()
	u, err := f.store.FindUser(context.Background(), email)
	require.NoError(t, err)
	return u
}
