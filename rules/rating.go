package rules

import (
	"fmt"
	"time"

	"terrainhub/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

// SubmitRating inserts or overwrites the rating of userID on court and
// recomputes the aggregate. firstTime is true when no previous entry existed.
// On error court is left untouched.
func SubmitRating(court *models.Court, userID string, value int, now time.Time) (models.RatingAggregate, bool, error) {
	if err := ValidateRating(value); err != nil {
		return court.Rating, false, err
	}
	if userID == "" {
		return court.Rating, false, fmt.Errorf("%w: missing user", ErrValidation)
	}

	firstTime := true
	for i := range court.Ratings {
		if court.Ratings[i].UserID == userID {
			court.Ratings[i].Rating = value
			firstTime = false
			break
		}
	}
	if firstTime {
		court.Ratings = append(court.Ratings, models.RatingEntry{
			UserID:    userID,
			Rating:    value,
			CreatedAt: now,
		})
	}

	court.Rating = Recompute(court.Ratings)
	return court.Rating, firstTime, nil
}

// Recompute derives the aggregate from the individual entries.
func Recompute(entries []models.RatingEntry) models.RatingAggregate {
	agg := models.RatingAggregate{Count: len(entries)}
	for _, e := range entries {
		agg.Total += e.Rating
	}
	if agg.Count > 0 {
		agg.Average = float64(agg.Total) / float64(agg.Count)
	}
	return agg
}

// ValidateRating checks the range before any lookup happens.
func ValidateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	return nil
}
