package rules

import (
	"fmt"
	"time"

	"terrainhub/models"
)

// PredicateKind names the quantity a badge condition is checked against.
type PredicateKind int

const (
	TerrainsCreatedAtLeast PredicateKind = iota
	CommentsPostedAtLeast
	TerrainsRatedAtLeast
	ReportsSubmittedAtLeast
	PointsAtLeast
	LevelAtLeast
)

// Predicate is a closed set of "quantity >= threshold" conditions.
type Predicate struct {
	Kind      PredicateKind
	Threshold int
}

// Holds evaluates the predicate over the user's progression.
func (p Predicate) Holds(stats models.UserStats, points, level int) bool {
	var v int
	switch p.Kind {
	case TerrainsCreatedAtLeast:
		v = stats.TerrainsCreated
	case CommentsPostedAtLeast:
		v = stats.CommentsPosted
	case TerrainsRatedAtLeast:
		v = stats.TerrainsRated
	case ReportsSubmittedAtLeast:
		v = stats.ReportsSubmitted
	case PointsAtLeast:
		v = points
	case LevelAtLeast:
		v = level
	default:
		return false
	}
	return v >= p.Threshold
}

// Field returns the user document path the predicate reads.
func (p Predicate) Field() string {
	switch p.Kind {
	case TerrainsCreatedAtLeast:
		return "stats." + string(models.StatTerrainsCreated)
	case CommentsPostedAtLeast:
		return "stats." + string(models.StatCommentsPosted)
	case TerrainsRatedAtLeast:
		return "stats." + string(models.StatTerrainsRated)
	case ReportsSubmittedAtLeast:
		return "stats." + string(models.StatReportsSubmitted)
	case PointsAtLeast:
		return "points"
	case LevelAtLeast:
		return "level"
	}
	return ""
}

// Badge is an achievement definition.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Condition   Predicate `json:"-"`
}

var badgeCatalog = []Badge{
	{ID: "first_terrain", Name: "Premier Terrain", Description: "A ajouté son premier terrain", Icon: "🏟️", Condition: Predicate{TerrainsCreatedAtLeast, 1}},
	{ID: "terrain_master", Name: "Maître des Terrains", Description: "A ajouté 10 terrains", Icon: "🏆", Condition: Predicate{TerrainsCreatedAtLeast, 10}},
	{ID: "social_butterfly", Name: "Papillon Social", Description: "A posté 20 commentaires", Icon: "🦋", Condition: Predicate{CommentsPostedAtLeast, 20}},
	{ID: "critic", Name: "Critique", Description: "A noté 15 terrains", Icon: "⭐", Condition: Predicate{TerrainsRatedAtLeast, 15}},
	{ID: "guardian", Name: "Gardien", Description: "A signalé 5 contenus inappropriés", Icon: "🛡️", Condition: Predicate{ReportsSubmittedAtLeast, 5}},
	{ID: "points_collector", Name: "Collectionneur", Description: "A atteint 500 points", Icon: "💰", Condition: Predicate{PointsAtLeast, 500}},
	{ID: "level_5", Name: "Niveau 5", Description: "A atteint le niveau 5", Icon: "🎖️", Condition: Predicate{LevelAtLeast, 5}},
	{ID: "level_10", Name: "Niveau 10", Description: "A atteint le niveau 10", Icon: "👑", Condition: Predicate{LevelAtLeast, 10}},
}

// Badges returns a copy of the catalog in display order.
func Badges() []Badge {
	return append([]Badge(nil), badgeCatalog...)
}

// FindBadge looks up a badge definition by id.
func FindBadge(id string) (Badge, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// BadgeStatus is a catalog entry annotated for one user.
type BadgeStatus struct {
	Badge
	Unlocked  bool `json:"unlocked"`
	CanUnlock bool `json:"canUnlock"`
}

// EvaluateBadges annotates every badge with whether the user already holds it
// and whether it could be claimed now.
func EvaluateBadges(user models.User) []BadgeStatus {
	held := make(map[string]bool, len(user.Badges))
	for _, b := range user.Badges {
		held[b.ID] = true
	}
	out := make([]BadgeStatus, 0, len(badgeCatalog))
	for _, b := range badgeCatalog {
		unlocked := held[b.ID]
		out = append(out, BadgeStatus{
			Badge:     b,
			Unlocked:  unlocked,
			CanUnlock: !unlocked && b.Condition.Holds(user.Stats, user.Points, user.Level),
		})
	}
	return out
}

// UnlockBadge claims badgeID for the user. Unlocking is always explicit.
func UnlockBadge(user *models.User, badgeID string, now time.Time) (models.UserBadge, error) {
	b, ok := FindBadge(badgeID)
	if !ok {
		return models.UserBadge{}, fmt.Errorf("%w: badge %q", ErrNotFound, badgeID)
	}
	for _, held := range user.Badges {
		if held.ID == badgeID {
			return models.UserBadge{}, fmt.Errorf("%w: %s", ErrAlreadyUnlocked, badgeID)
		}
	}
	if !b.Condition.Holds(user.Stats, user.Points, user.Level) {
		return models.UserBadge{}, fmt.Errorf("%w: %s", ErrConditionNotMet, badgeID)
	}
	ub := models.UserBadge{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Icon:        b.Icon,
		UnlockedAt:  now,
	}
	user.Badges = append(user.Badges, ub)
	return ub, nil
}
