package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainhub/models"
)

func TestAwardPointsLevel(t *testing.T) {
	u := &models.User{Level: 1}
	points, level, err := AwardPoints(u, 250, 100)
	require.NoError(t, err)
	assert.Equal(t, 250, points)
	assert.Equal(t, 3, level)

	u = &models.User{Points: 99, Level: 1}
	_, level, err = AwardPoints(u, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, level)
}

func TestAwardPointsRejectsNonPositive(t *testing.T) {
	u := &models.User{Points: 10, Level: 1}
	_, _, err := AwardPoints(u, 0, 100)
	assert.ErrorIs(t, err, ErrValidation)
	_, _, err = AwardPoints(u, -5, 100)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 10, u.Points)
}

func TestSpendPoints(t *testing.T) {
	u := &models.User{Points: 50, Level: 1}
	_, err := SpendPoints(u, 100, 100)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, 50, u.Points)

	left, err := SpendPoints(u, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, left)
}

func TestLevelFollowsBalance(t *testing.T) {
	u := &models.User{Level: 1}
	_, level, err := AwardPoints(u, 250, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, level)

	_, err = SpendPoints(u, 200, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Level)

	points, level, err := AwardPoints(u, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 60, points)
	assert.Equal(t, 1, level)
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0, 100))
	assert.Equal(t, 1, LevelFor(99, 100))
	assert.Equal(t, 2, LevelFor(100, 100))
	assert.Equal(t, 11, LevelFor(1000, 100))
	assert.Equal(t, 1, LevelFor(-3, 100))
	assert.Equal(t, 2, LevelFor(100, 0), "falls back to the default step")
}
