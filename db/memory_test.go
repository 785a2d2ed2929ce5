package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"terrainhub/models"
	"terrainhub/rules"
)

func TestMemoryReplaceCourtRevision(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := &models.Court{Name: "Boulodrome", CreatedAt: time.Now()}
	require.NoError(t, s.InsertCourt(ctx, c))

	a, err := s.FindCourt(ctx, c.ID)
	require.NoError(t, err)
	b, err := s.FindCourt(ctx, c.ID)
	require.NoError(t, err)

	a.Name = "first"
	require.NoError(t, s.ReplaceCourt(ctx, &a))
	assert.Equal(t, int64(1), a.Revision)

	b.Name = "second"
	assert.ErrorIs(t, s.ReplaceCourt(ctx, &b), rules.ErrConflict)

	stored, err := s.FindCourt(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Name)

	missing := &models.Court{ID: primitive.NewObjectID()}
	assert.ErrorIs(t, s.ReplaceCourt(ctx, missing), rules.ErrNotFound)
}

func TestMemoryCourtQueries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "c"} {
		c := &models.Court{
			Name:      name,
			CreatedBy: "owner@example.com",
			Location:  models.Location{Lat: 43 + float64(i), Lng: 5},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if name == "b" {
			c.IsDeleted = true
			c.Ratings = []models.RatingEntry{{UserID: "r@example.com", Rating: 3}}
		}
		require.NoError(t, s.InsertCourt(ctx, c))
	}

	list, err := s.ListCourts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].Name)

	owned, err := s.ListCourtsByOwner(ctx, "owner@example.com", 2)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	n, err := s.CountCourtsByOwner(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rated, err := s.ListCourtsRatedBy(ctx, "r@example.com")
	require.NoError(t, err)
	assert.Len(t, rated, 1)

	near, err := s.FindCourtNear(ctx, rules.Point{Lat: 43.0000001, Lng: 5}, rules.ExactTolerance)
	require.NoError(t, err)
	assert.Equal(t, "a", near.Name)

	_, err = s.FindCourtNear(ctx, rules.Point{Lat: 44, Lng: 5}, rules.ExactTolerance)
	assert.ErrorIs(t, err, rules.ErrNotFound, "deleted courts are not resolved")
}

func TestMemoryDuplicateReport(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	target := primitive.NewObjectID()
	r := models.Report{Type: models.TargetCourt, TargetID: target, ReporterID: "a", Status: models.ReportPending}

	first := r
	require.NoError(t, s.InsertReport(ctx, &first))
	second := r
	assert.ErrorIs(t, s.InsertReport(ctx, &second), rules.ErrDuplicate)

	other := r
	other.Type = models.TargetComment
	assert.NoError(t, s.InsertReport(ctx, &other))

	require.NoError(t, s.DeleteReport(ctx, other.ID))
	assert.ErrorIs(t, s.DeleteReport(ctx, other.ID), rules.ErrNotFound)
	require.NoError(t, s.InsertReport(ctx, &other), "a deleted report no longer blocks the reporter")

	resolved, err := s.ResolveReport(ctx, first.ID, models.ReportResolved, "mod", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, resolved.Status)
	_, err = s.ResolveReport(ctx, first.ID, models.ReportDismissed, "mod", time.Now())
	assert.ErrorIs(t, err, rules.ErrConflict)

	pending, err := s.ListReports(ctx, models.ReportPending, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMemoryUserProgress(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.EnsureUser(ctx, models.NewUser("u@example.com", "U", "", models.RoleUser, time.Now()))
	require.NoError(t, err)

	u, err := s.AddProgress(ctx, "u@example.com", models.ProgressDelta{Points: 250, Stat: models.StatCommentsPosted, StatDelta: 1}, 100)
	require.NoError(t, err)
	assert.Equal(t, 250, u.Points)
	assert.Equal(t, 3, u.Level)
	assert.Equal(t, 1, u.Stats.CommentsPosted)

	_, err = s.AddProgress(ctx, "ghost@example.com", models.ProgressDelta{Points: 1}, 100)
	assert.ErrorIs(t, err, rules.ErrNotFound)
}

func TestMemoryLevelTracksBalanceAfterPurchase(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.EnsureUser(ctx, models.NewUser("u@example.com", "U", "", models.RoleUser, time.Now()))
	require.NoError(t, err)

	_, err = s.AddProgress(ctx, "u@example.com", models.ProgressDelta{Points: 250}, 100)
	require.NoError(t, err)
	u, err := s.Purchase(ctx, "u@example.com", rules.CategoryAvatar, models.UnlockedItem{ID: "golden_player", Cost: 200}, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Level)

	u, err = s.AddProgress(ctx, "u@example.com", models.ProgressDelta{Points: 10}, 100)
	require.NoError(t, err)
	assert.Equal(t, 60, u.Points)
	assert.Equal(t, 1, u.Level)
}

func TestMemoryPurchaseAndEquip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed := models.NewUser("u@example.com", "U", "", models.RoleUser, time.Now())
	seed.Points = 120
	seed.Level = 2
	_, err := s.EnsureUser(ctx, seed)
	require.NoError(t, err)

	item := models.UnlockedItem{ID: "champion", Cost: 100}
	u, err := s.Purchase(ctx, "u@example.com", rules.CategoryAvatar, item, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, u.Points)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, "champion", u.CurrentAvatar)

	_, err = s.Purchase(ctx, "u@example.com", rules.CategoryAvatar, item, 100)
	assert.ErrorIs(t, err, rules.ErrConflict, "already unlocked")
	_, err = s.Purchase(ctx, "u@example.com", rules.CategoryBanner, models.UnlockedItem{ID: "ocean", Cost: 300}, 100)
	assert.ErrorIs(t, err, rules.ErrConflict, "too expensive")

	_, err = s.Equip(ctx, "u@example.com", rules.CategoryBanner, "ocean")
	assert.ErrorIs(t, err, rules.ErrConflict)
	u, err = s.Equip(ctx, "u@example.com", rules.CategoryAvatar, models.DefaultItemID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultItemID, u.CurrentAvatar)
	assert.Equal(t, 20, u.Points)
}

func TestMemoryPushBadge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed := models.NewUser("u@example.com", "U", "", models.RoleUser, time.Now())
	seed.Stats.TerrainsCreated = 1
	_, err := s.EnsureUser(ctx, seed)
	require.NoError(t, err)

	cond := rules.Predicate{Kind: rules.TerrainsCreatedAtLeast, Threshold: 1}
	_, err = s.PushBadge(ctx, "u@example.com", models.UserBadge{ID: "first_terrain"}, cond)
	require.NoError(t, err)
	_, err = s.PushBadge(ctx, "u@example.com", models.UserBadge{ID: "first_terrain"}, cond)
	assert.ErrorIs(t, err, rules.ErrAlreadyUnlocked)

	hard := rules.Predicate{Kind: rules.TerrainsCreatedAtLeast, Threshold: 10}
	_, err = s.PushBadge(ctx, "u@example.com", models.UserBadge{ID: "terrain_master"}, hard)
	assert.ErrorIs(t, err, rules.ErrConditionNotMet)
}

func TestMemoryUpdateProfileCreatesUser(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed := models.NewUser("new@example.com", "new", "", models.RoleUser, time.Now())

	u, err := s.UpdateProfile(ctx, "new@example.com", rules.ProfileInput{Username: "bouliste"}, seed)
	require.NoError(t, err)
	assert.Equal(t, "bouliste", u.Username)
	assert.Equal(t, "new", u.Name)
	assert.Equal(t, 1, u.Level)

	require.NoError(t, s.SetRole(ctx, "new@example.com", models.RoleModerator))
	u, err = s.FindUser(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, u.Role)
	assert.ErrorIs(t, s.SetRole(ctx, "ghost@example.com", models.RoleAdmin), rules.ErrNotFound)
}
