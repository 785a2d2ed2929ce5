package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainhub/models"
)

func TestSubmitRatingScenario(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	court := &models.Court{}

	agg, first, err := SubmitRating(court, "a@example.com", 4, now)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, models.RatingAggregate{Average: 4, Count: 1, Total: 4}, agg)

	agg, first, err = SubmitRating(court, "b@example.com", 2, now)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, models.RatingAggregate{Average: 3, Count: 2, Total: 6}, agg)

	agg, first, err = SubmitRating(court, "a@example.com", 5, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, models.RatingAggregate{Average: 3.5, Count: 2, Total: 7}, agg)

	require.Len(t, court.Ratings, 2)
	assert.Equal(t, now, court.Ratings[0].CreatedAt, "re-rating keeps the original slot")
}

func TestSubmitRatingTwiceKeepsOneEntry(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		court := &models.Court{}
		_, _, err := SubmitRating(court, "u", r, time.Now())
		require.NoError(t, err)
		agg, _, err := SubmitRating(court, "u", MaxRating+MinRating-r, time.Now())
		require.NoError(t, err)

		assert.Len(t, court.Ratings, 1)
		assert.Equal(t, len(court.Ratings), agg.Count)
		assert.InDelta(t, float64(agg.Total)/float64(agg.Count), agg.Average, 1e-9)
	}
}

func TestSubmitRatingOutOfRange(t *testing.T) {
	court := &models.Court{}
	_, _, err := SubmitRating(court, "u", 3, time.Now())
	require.NoError(t, err)
	before := court.Clone()

	for _, v := range []int{-1, 0, 6, 100} {
		agg, _, err := SubmitRating(court, "v", v, time.Now())
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, before.Rating, agg)
		assert.Equal(t, before, *court)
	}
}

func TestRecomputeEmpty(t *testing.T) {
	assert.Equal(t, models.RatingAggregate{}, Recompute(nil))
}
