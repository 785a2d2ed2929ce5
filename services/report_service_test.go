package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainhub/db"
	"terrainhub/models"
	"terrainhub/rules"
)

func moderator(email string) models.Principal {
	return models.Principal{Email: email, Name: "Modo", Role: models.RoleModerator}
}

func TestReportHidesCourtAtThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCourt(t, member("owner@example.com"), 43.3, 5.4)

	r, err := f.reports.File(ctx, member("a@example.com"), ReportInput{Type: models.TargetCourt, TargetID: c.ID.Hex(), Reason: models.ReasonFake, Description: " n'existe pas "})
	require.NoError(t, err)
	assert.Equal(t, models.ReportPending, r.Status)
	assert.Equal(t, "n'existe pas", r.Description)

	_, err = f.courts.Get(ctx, c.ID.Hex())
	require.NoError(t, err, "one report is below the threshold")

	_, err = f.reports.File(ctx, member("a@example.com"), ReportInput{Type: models.TargetCourt, TargetID: c.ID.Hex(), Reason: models.ReasonSpam})
	assert.ErrorIs(t, err, rules.ErrDuplicate)

	_, err = f.courts.Get(ctx, c.ID.Hex())
	require.NoError(t, err, "a duplicate report does not count")

	_, err = f.reports.File(ctx, member("b@example.com"), ReportInput{Type: models.TargetCourt, TargetID: "43.3--5.4", Reason: models.ReasonSpam})
	require.NoError(t, err)

	_, err = f.courts.Get(ctx, c.ID.Hex())
	assert.ErrorIs(t, err, rules.ErrNotFound)

	stored, err := f.store.FindCourt(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted)
	assert.Len(t, stored.Reports, 2)

	hidden := f.notifier.ofType(models.EventContentHidden)
	require.Len(t, hidden, 1)
	assert.Equal(t, c.ID.Hex(), hidden[0].TargetID)

	u := f.user(t, "a@example.com")
	assert.Equal(t, 2, u.Points)
	assert.Equal(t, 1, u.Stats.ReportsSubmitted)
}

func TestReportComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCourt(t, member("owner@example.com"), 43.3, 5.4)
	comment, err := f.comments.Post(ctx, member("troll@example.com"), c.ID.Hex(), rules.CommentInput{Content: "bof"})
	require.NoError(t, err)

	for _, who := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := f.reports.File(ctx, member(who), ReportInput{Type: models.TargetComment, TargetID: comment.ID.Hex(), Reason: models.ReasonOffensive})
		require.NoError(t, err)
	}

	list, err := f.comments.List(ctx, c.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Len(t, f.notifier.ofType(models.EventContentHidden), 1, "only the crossing report hides")
}

// contendedCourts loses every revision race while busy is set.
type contendedCourts struct {
	*db.MemoryStore
	busy atomic.Bool
}

func (c *contendedCourts) ReplaceCourt(ctx context.Context, court *models.Court) error {
	if c.busy.Load() {
		return fmt.Errorf("%w: court %s changed", rules.ErrConflict, court.ID.Hex())
	}
	return c.MemoryStore.ReplaceCourt(ctx, court)
}

func TestReportRolledBackWhenTargetUpdateFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCourt(t, member("owner@example.com"), 43.3, 5.4)
	courts := &contendedCourts{MemoryStore: f.store}
	f.deps.Courts = courts
	reports := NewReportService(f.deps)
	in := ReportInput{Type: models.TargetCourt, TargetID: c.ID.Hex(), Reason: models.ReasonFake}

	courts.busy.Store(true)
	_, err := reports.File(ctx, member("a@example.com"), in)
	require.ErrorIs(t, err, rules.ErrConflict)

	pending, err := f.store.ListReports(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, pending, "no report survives a failed target update")
	_, err = f.store.FindUser(ctx, "a@example.com")
	assert.ErrorIs(t, err, rules.ErrNotFound, "nothing is credited")

	courts.busy.Store(false)
	_, err = reports.File(ctx, member("a@example.com"), in)
	require.NoError(t, err, "the reporter can try again")

	stored, err := f.store.FindCourt(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Reports, 1)
	all, err := f.store.ListReports(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReportValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCourt(t, member("owner@example.com"), 43.3, 5.4)
	p := member("a@example.com")

	cases := []ReportInput{
		{Type: "user", TargetID: c.ID.Hex(), Reason: models.ReasonSpam},
		{Type: models.TargetCourt, TargetID: c.ID.Hex(), Reason: "boring"},
		{Type: models.TargetCourt, Reason: models.ReasonSpam},
		{Type: models.TargetComment, TargetID: "nope", Reason: models.ReasonSpam},
	}
	for _, in := range cases {
		_, err := f.reports.File(ctx, p, in)
		assert.ErrorIs(t, err, rules.ErrValidation, "%+v", in)
	}

	_, err := f.reports.File(ctx, p, ReportInput{Type: models.TargetCourt, TargetID: "1--1", Reason: models.ReasonSpam})
	assert.ErrorIs(t, err, rules.ErrNotFound)

	_, err = f.reports.File(ctx, guest(), ReportInput{Type: models.TargetCourt, TargetID: c.ID.Hex(), Reason: models.ReasonSpam})
	assert.ErrorIs(t, err, rules.ErrPermission)

	reports, err := f.store.ListReports(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestReviewReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.createCourt(t, member("owner@example.com"), 43.3, 5.4)
	r, err := f.reports.File(ctx, member("a@example.com"), ReportInput{Type: models.TargetCourt, TargetID: c.ID.Hex(), Reason: models.ReasonDuplicate})
	require.NoError(t, err)

	_, err = f.reports.List(ctx, member("a@example.com"), "")
	assert.ErrorIs(t, err, rules.ErrPermission)

	pending, err := f.reports.List(ctx, moderator("mod@example.com"), models.ReportPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.reports.Review(ctx, moderator("mod@example.com"), r.ID.Hex(), models.ReportPending)
	assert.ErrorIs(t, err, rules.ErrValidation)

	admin := models.Principal{Email: "admin@example.com", Role: models.RoleAdmin}
	resolved, err := f.reports.Review(ctx, admin, r.ID.Hex(), models.ReportDismissed)
	require.NoError(t, err)
	assert.Equal(t, models.ReportDismissed, resolved.Status)
	assert.Equal(t, admin.Email, resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = f.reports.Review(ctx, admin, r.ID.Hex(), models.ReportResolved)
	assert.ErrorIs(t, err, rules.ErrConflict)

	pending, err = f.reports.List(ctx, admin, models.ReportPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReportDescriptionScreening(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.deps.Screener = NewPatternScreener(nil)
	reports := NewReportService(f.deps)
	c := f.createCourt(t, member("owner@example.com"), 43.3, 5.4)

	_, err := reports.File(ctx, member("a@example.com"), ReportInput{
		Type:        models.TargetCourt,
		TargetID:    c.ID.Hex(),
		Reason:      models.ReasonOther,
		Description: "appelez le 06 12 34 56 78",
	})
	assert.ErrorIs(t, err, rules.ErrValidation)

	_, err = reports.File(ctx, member("a@example.com"), ReportInput{
		Type:     models.TargetCourt,
		TargetID: c.ID.Hex(),
		Reason:   models.ReasonFake,
	})
	assert.NoError(t, err)
}
