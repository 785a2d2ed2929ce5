package rules

import (
	"fmt"

	"terrainhub/models"
)

// LevelFor returns floor(points/perLevel) + 1.
func LevelFor(points, perLevel int) int {
	if perLevel <= 0 {
		perLevel = DefaultPolicy().PointsPerLevel
	}
	if points < 0 {
		points = 0
	}
	return points/perLevel + 1
}

// AwardPoints adds amount to the user's balance and recomputes the level.
func AwardPoints(user *models.User, amount, perLevel int) (points, level int, err error) {
	if amount <= 0 {
		return user.Points, user.Level, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	user.Points += amount
	user.Level = LevelFor(user.Points, perLevel)
	return user.Points, user.Level, nil
}

// SpendPoints debits cost from the user's balance. The level follows the
// remaining balance.
func SpendPoints(user *models.User, cost, perLevel int) (int, error) {
	if cost < 0 {
		return user.Points, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}
	if user.Points < cost {
		return user.Points, fmt.Errorf("%w: need %d points, have %d", ErrInsufficientPoints, cost, user.Points)
	}
	user.Points -= cost
	user.Level = LevelFor(user.Points, perLevel)
	return user.Points, nil
}
