package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"terrainhub/models"
	"terrainhub/rules"
)

// ProfileService owns points, badges, cosmetics and profile fields.
type ProfileService struct {
	deps Deps
}

func NewProfileService(d Deps) *ProfileService {
	return &ProfileService{deps: d.withDefaults()}
}

// EnsureUser returns the principal's profile, creating it on first sign-in.
func (s *ProfileService) EnsureUser(ctx context.Context, p models.Principal, image string) (models.User, error) {
	if p.Email == "" {
		return models.User{}, fmt.Errorf("%w: email is required", rules.ErrValidation)
	}
	seed := seedUser(p, s.deps.Now())
	seed.Image = image
	return s.deps.Users.EnsureUser(ctx, seed)
}

func (s *ProfileService) find(ctx context.Context, p models.Principal) (models.User, error) {
	if p.Email == "" {
		return models.User{}, fmt.Errorf("%w: not authenticated", rules.ErrPermission)
	}
	return s.deps.Users.FindUser(ctx, p.Email)
}

// PointsView is the scoring summary of a user.
type PointsView struct {
	Points int                `json:"points"`
	Level  int                `json:"level"`
	Badges []models.UserBadge `json:"badges"`
	Stats  models.UserStats   `json:"stats"`
}

func (s *ProfileService) Points(ctx context.Context, p models.Principal) (PointsView, error) {
	u, err := s.find(ctx, p)
	if err != nil {
		return PointsView{}, err
	}
	return PointsView{Points: u.Points, Level: max(u.Level, 1), Badges: u.Badges, Stats: u.Stats}, nil
}

// AwardResult is returned by Award.
type AwardResult struct {
	Points      int    `json:"points"`
	Level       int    `json:"level"`
	PointsAdded int    `json:"pointsAdded"`
	Action      string `json:"action"`
}

// Award credits amount points for a named action. The amount must be positive.
func (s *ProfileService) Award(ctx context.Context, p models.Principal, action string, amount int) (AwardResult, error) {
	if err := s.deps.Authz.Check(p, ResourcePoints, ActionAward); err != nil {
		return AwardResult{}, err
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return AwardResult{}, fmt.Errorf("%w: action is required", rules.ErrValidation)
	}
	u, err := s.find(ctx, p)
	if err != nil {
		return AwardResult{}, err
	}
	// Checks the amount against the current profile before anything is written.
	if _, _, err := rules.AwardPoints(&u, amount, s.deps.Policy.PointsPerLevel); err != nil {
		return AwardResult{}, err
	}
	after, err := s.deps.progress(ctx, p, models.ProgressDelta{Points: amount}, action)
	if err != nil {
		return AwardResult{}, err
	}
	return AwardResult{Points: after.Points, Level: after.Level, PointsAdded: amount, Action: action}, nil
}

// BadgesView lists held badges next to the annotated catalog.
type BadgesView struct {
	CurrentBadges   []models.UserBadge  `json:"currentBadges"`
	AvailableBadges []rules.BadgeStatus `json:"availableBadges"`
	Stats           models.UserStats    `json:"stats"`
	Points          int                 `json:"points"`
	Level           int                 `json:"level"`
}

func (s *ProfileService) Badges(ctx context.Context, p models.Principal) (BadgesView, error) {
	u, err := s.find(ctx, p)
	if err != nil {
		return BadgesView{}, err
	}
	return BadgesView{
		CurrentBadges:   u.Badges,
		AvailableBadges: rules.EvaluateBadges(u),
		Stats:           u.Stats,
		Points:          u.Points,
		Level:           max(u.Level, 1),
	}, nil
}

// UnlockBadge claims a badge whose condition the user meets.
func (s *ProfileService) UnlockBadge(ctx context.Context, p models.Principal, badgeID string) (models.UserBadge, error) {
	if err := s.deps.Authz.Check(p, ResourceBadge, ActionUnlock); err != nil {
		return models.UserBadge{}, err
	}
	u, err := s.find(ctx, p)
	if err != nil {
		return models.UserBadge{}, err
	}
	badge, err := rules.UnlockBadge(&u, badgeID, s.deps.Now())
	if err != nil {
		return models.UserBadge{}, err
	}
	def, _ := rules.FindBadge(badgeID)
	// The store re-checks ownership and the condition in the same write.
	after, err := s.deps.Users.PushBadge(ctx, p.Email, badge, def.Condition)
	if err != nil {
		return models.UserBadge{}, err
	}
	s.deps.Notifier.Notify(models.GamificationEvent{
		Type:      models.EventBadgeUnlocked,
		UserID:    p.Email,
		BadgeID:   badge.ID,
		NewPoints: after.Points,
		Level:     after.Level,
		Timestamp: badge.UnlockedAt,
	})
	return badge, nil
}

func (s *ProfileService) Customization(ctx context.Context, p models.Principal) (rules.Storefront, error) {
	u, err := s.find(ctx, p)
	if err != nil {
		return rules.Storefront{}, err
	}
	return rules.ShopView(u), nil
}

// Customize equips an item, buying it first when it is still locked.
// A purchase debits, unlocks and equips in a single write.
func (s *ProfileService) Customize(ctx context.Context, p models.Principal, category, itemID string) (rules.EquipResult, error) {
	if err := s.deps.Authz.Check(p, ResourceShop, ActionPurchase); err != nil {
		return rules.EquipResult{}, err
	}
	c, err := rules.ParseCategory(category)
	if err != nil {
		return rules.EquipResult{}, err
	}
	if _, err := rules.FindItem(c, itemID); err != nil {
		return rules.EquipResult{}, err
	}

	var res rules.EquipResult
	err = withRetries(ctx, s.deps.Policy.ConflictRetries, "customize", func() error {
		u, err := s.find(ctx, p)
		if err != nil {
			return err
		}
		res, err = rules.PurchaseOrEquip(&u, c, itemID, s.deps.Policy.PointsPerLevel, s.deps.Now())
		if err != nil {
			return err
		}
		var after models.User
		if res.Purchased {
			after, err = s.deps.Users.Purchase(ctx, p.Email, c, *res.Unlocked, s.deps.Policy.PointsPerLevel)
		} else {
			after, err = s.deps.Users.Equip(ctx, p.Email, c, itemID)
		}
		if err != nil {
			return err
		}
		res.NewPoints = after.Points
		return nil
	})
	if err != nil {
		return rules.EquipResult{}, err
	}

	if res.Purchased {
		slog.Info("shop item purchased", "user", p.Email, "type", c, "item", itemID, "cost", res.PointsSpent)
		s.deps.Notifier.Notify(models.GamificationEvent{
			Type:      models.EventItemPurchased,
			UserID:    p.Email,
			ItemID:    itemID,
			Points:    -res.PointsSpent,
			NewPoints: res.NewPoints,
			Timestamp: res.Unlocked.UnlockedAt,
		})
	}
	return res, nil
}

// UpdateName sets the display name.
func (s *ProfileService) UpdateName(ctx context.Context, p models.Principal, name string) (models.User, error) {
	if strings.TrimSpace(name) == "" {
		return models.User{}, fmt.Errorf("%w: name is required", rules.ErrValidation)
	}
	return s.UpdateProfile(ctx, p, rules.ProfileInput{Name: name})
}

// UpdateProfile sets the provided fields, creating the profile if needed.
func (s *ProfileService) UpdateProfile(ctx context.Context, p models.Principal, in rules.ProfileInput) (models.User, error) {
	if err := s.deps.Authz.Check(p, ResourceProfile, ActionUpdate); err != nil {
		return models.User{}, err
	}
	in.Normalize()
	if in.Name == "" && in.Username == "" && in.Image == "" {
		return models.User{}, fmt.Errorf("%w: nothing to update", rules.ErrValidation)
	}
	if err := rules.Validate(in); err != nil {
		return models.User{}, err
	}
	if err := s.deps.screen(ctx, strings.TrimSpace(in.Name+" "+in.Username)); err != nil {
		return models.User{}, err
	}
	u, err := s.deps.Users.UpdateProfile(ctx, p.Email, in, seedUser(p, s.deps.Now()))
	if err != nil {
		if errors.Is(err, rules.ErrDuplicate) {
			return models.User{}, fmt.Errorf("%w: profile was created concurrently, retry", rules.ErrConflict)
		}
		return models.User{}, err
	}
	return u, nil
}
