package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"terrainhub/models"
	"terrainhub/rules"
)

const ownerCourtsLimit = 5

// CourtService manages courts and their ratings.
type CourtService struct {
	deps Deps
}

func NewCourtService(d Deps) *CourtService {
	return &CourtService{deps: d.withDefaults()}
}

// Create stores a new court owned by the principal and credits the owner.
func (s *CourtService) Create(ctx context.Context, p models.Principal, in rules.CourtInput) (models.Court, error) {
	if err := s.deps.Authz.Check(p, ResourceCourt, ActionCreate); err != nil {
		return models.Court{}, err
	}
	in.Normalize()
	if err := rules.Validate(in); err != nil {
		return models.Court{}, err
	}
	if err := s.deps.screen(ctx, in.Name+"\n"+in.Description); err != nil {
		return models.Court{}, err
	}
	if in.Address == "" && s.deps.Geocoder != nil {
		addr, err := s.deps.Geocoder.Reverse(ctx, in.Lat, in.Lng)
		if err != nil {
			slog.Warn("reverse geocoding skipped", "lat", in.Lat, "lng", in.Lng, "error", err)
		} else {
			in.Address = addr
		}
	}

	now := s.deps.Now()
	court := models.Court{
		Name:        in.Name,
		Description: in.Description,
		Location:    models.Location{Lat: in.Lat, Lng: in.Lng, Address: in.Address},
		ImageURL:    in.ImageURL,
		Ratings:     []models.RatingEntry{},
		CreatedBy:   p.Email,
		Moderation:  models.Moderation{Reports: []models.ReportEntry{}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.deps.Courts.InsertCourt(ctx, &court); err != nil {
		return models.Court{}, fmt.Errorf("failed to create court: %w", err)
	}

	delta := models.ProgressDelta{
		Points:    s.deps.Policy.CourtPoints,
		Stat:      models.StatTerrainsCreated,
		StatDelta: 1,
	}
	if _, err := s.deps.progress(ctx, p, delta, "terrain_created"); err != nil {
		slog.Error("failed to credit court creation", "user", p.Email, "court", court.ID.Hex(), "error", err)
	}
	return court, nil
}

// Get resolves ref, either a court id or a "lat--lng" coordinate reference.
func (s *CourtService) Get(ctx context.Context, ref string) (models.Court, error) {
	return s.load(ctx, ref, false)
}

// load resolves ref to a court. Soft deleted courts are NotFound unless
// includeDeleted is set.
func (s *CourtService) load(ctx context.Context, ref string, includeDeleted bool) (models.Court, error) {
	return resolveCourt(ctx, s.deps.Courts, ref, includeDeleted)
}

func resolveCourt(ctx context.Context, courts CourtStore, ref string, includeDeleted bool) (models.Court, error) {
	if id, err := primitive.ObjectIDFromHex(ref); err == nil {
		c, err := courts.FindCourt(ctx, id)
		if err != nil {
			return models.Court{}, err
		}
		if c.IsDeleted && !includeDeleted {
			return models.Court{}, fmt.Errorf("%w: court %s", rules.ErrNotFound, ref)
		}
		return c, nil
	}
	pt, ok := rules.ParseCoordinateRef(ref)
	if !ok {
		return models.Court{}, fmt.Errorf("%w: invalid court reference %q", rules.ErrValidation, ref)
	}
	c, err := courts.FindCourtNear(ctx, pt, rules.ExactTolerance)
	if errors.Is(err, rules.ErrNotFound) {
		c, err = courts.FindCourtNear(ctx, pt, rules.LooseTolerance)
	}
	return c, err
}

// List returns the non-deleted courts matching f.
func (s *CourtService) List(ctx context.Context, f rules.CourtFilter) ([]models.Court, error) {
	courts, err := s.deps.Courts.ListCourts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return rules.FilterCourts(courts, f), nil
}

// Rate records the principal's rating. Only the first rating of a court earns points.
func (s *CourtService) Rate(ctx context.Context, p models.Principal, ref string, value int) (models.RatingAggregate, error) {
	if err := s.deps.Authz.Check(p, ResourceCourt, ActionRate); err != nil {
		return models.RatingAggregate{}, err
	}
	if err := rules.ValidateRating(value); err != nil {
		return models.RatingAggregate{}, err
	}

	var (
		agg       models.RatingAggregate
		firstTime bool
		courtID   primitive.ObjectID
	)
	err := withRetries(ctx, s.deps.Policy.ConflictRetries, "rate court", func() error {
		court, err := s.load(ctx, ref, false)
		if err != nil {
			return err
		}
		agg, firstTime, err = rules.SubmitRating(&court, p.Email, value, s.deps.Now())
		if err != nil {
			return err
		}
		court.UpdatedAt = s.deps.Now()
		courtID = court.ID
		return s.deps.Courts.ReplaceCourt(ctx, &court)
	})
	if err != nil {
		return models.RatingAggregate{}, err
	}

	if firstTime {
		delta := models.ProgressDelta{
			Points:    s.deps.Policy.RatingPoints,
			Stat:      models.StatTerrainsRated,
			StatDelta: 1,
		}
		if _, err := s.deps.progress(ctx, p, delta, "terrain_rated"); err != nil {
			slog.Error("failed to credit rating", "user", p.Email, "court", courtID.Hex(), "error", err)
		}
	}
	return agg, nil
}

// Delete soft deletes a court. Only its creator may do so, and deleting twice is a no-op.
func (s *CourtService) Delete(ctx context.Context, p models.Principal, ref string) error {
	if err := s.deps.Authz.Check(p, ResourceCourt, ActionDelete); err != nil {
		return err
	}
	return withRetries(ctx, s.deps.Policy.ConflictRetries, "delete court", func() error {
		court, err := s.load(ctx, ref, true)
		if err != nil {
			return err
		}
		if court.CreatedBy != p.Email {
			return fmt.Errorf("%w: only the creator can delete this court", rules.ErrPermission)
		}
		if court.IsDeleted {
			return nil
		}
		court.IsDeleted = true
		court.UpdatedAt = s.deps.Now()
		if err := s.deps.Courts.ReplaceCourt(ctx, &court); err != nil {
			return err
		}
		slog.Info("court deleted by owner", "court", court.ID.Hex(), "user", p.Email)
		return nil
	})
}

// ListByOwner returns the principal's latest courts.
func (s *CourtService) ListByOwner(ctx context.Context, p models.Principal) ([]models.Court, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("%w: not authenticated", rules.ErrPermission)
	}
	return s.deps.Courts.ListCourtsByOwner(ctx, p.Email, ownerCourtsLimit)
}

// CourtStats summarises a user's contributions.
type CourtStats struct {
	TerrainsAdded int64      `json:"terrainsAdded"`
	TotalRatings  int        `json:"totalRatings"`
	AverageRating float64    `json:"averageRating"`
	LastActivity  *time.Time `json:"lastActivity"`
}

// Stats counts the courts the principal created and the ratings they gave.
func (s *CourtService) Stats(ctx context.Context, p models.Principal) (CourtStats, error) {
	if p.Email == "" {
		return CourtStats{}, fmt.Errorf("%w: not authenticated", rules.ErrPermission)
	}
	var st CourtStats
	n, err := s.deps.Courts.CountCourtsByOwner(ctx, p.Email)
	if err != nil {
		return CourtStats{}, err
	}
	st.TerrainsAdded = n

	rated, err := s.deps.Courts.ListCourtsRatedBy(ctx, p.Email)
	if err != nil {
		return CourtStats{}, err
	}
	sum := 0
	for _, c := range rated {
		for _, r := range c.Ratings {
			if r.UserID != p.Email {
				continue
			}
			st.TotalRatings++
			sum += r.Rating
			if st.LastActivity == nil || r.CreatedAt.After(*st.LastActivity) {
				at := r.CreatedAt
				st.LastActivity = &at
			}
		}
	}
	if st.TotalRatings > 0 {
		st.AverageRating = float64(sum) / float64(st.TotalRatings)
	}
	return st, nil
}
