package db

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"terrainhub/models"
	"terrainhub/rules"
)

// MemoryStore keeps every collection in process. It enforces the same
// uniqueness, revision and precondition rules as MongoStore.
type MemoryStore struct {
	mu       sync.RWMutex
	courts   map[primitive.ObjectID]models.Court
	comments map[primitive.ObjectID]models.Comment
	reports  map[primitive.ObjectID]models.Report
	users    map[string]models.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courts:   map[primitive.ObjectID]models.Court{},
		comments: map[primitive.ObjectID]models.Comment{},
		reports:  map[primitive.ObjectID]models.Report{},
		users:    map[string]models.User{},
	}
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}

// Courts

func (s *MemoryStore) InsertCourt(_ context.Context, c *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.courts[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) FindCourt(_ context.Context, id primitive.ObjectID) (models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courts[id]
	if !ok {
		return models.Court{}, fmt.Errorf("%w: court %s", rules.ErrNotFound, id.Hex())
	}
	return c.Clone(), nil
}

func (s *MemoryStore) FindCourtNear(_ context.Context, p rules.Point, tol float64) (models.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courts {
		if !c.IsDeleted && rules.WithinTolerance(p, c.Location.Lat, c.Location.Lng, tol) {
			return c.Clone(), nil
		}
	}
	return models.Court{}, fmt.Errorf("%w: no court at %s", rules.ErrNotFound, rules.CoordinateRef(p.Lat, p.Lng))
}

func (s *MemoryStore) ListCourts(_ context.Context) ([]models.Court, error) {
	return s.filterCourts(func(c models.Court) bool { return !c.IsDeleted }, 0), nil
}

func (s *MemoryStore) ListCourtsByOwner(_ context.Context, owner string, limit int) ([]models.Court, error) {
	return s.filterCourts(func(c models.Court) bool { return c.CreatedBy == owner }, limit), nil
}

func (s *MemoryStore) CountCourtsByOwner(_ context.Context, owner string) (int64, error) {
	return int64(len(s.filterCourts(func(c models.Court) bool { return c.CreatedBy == owner }, 0))), nil
}

func (s *MemoryStore) ListCourtsRatedBy(_ context.Context, userID string) ([]models.Court, error) {
	return s.filterCourts(func(c models.Court) bool {
		return slices.ContainsFunc(c.Ratings, func(r models.RatingEntry) bool { return r.UserID == userID })
	}, 0), nil
}

func (s *MemoryStore) filterCourts(keep func(models.Court) bool, limit int) []models.Court {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Court{}
	for _, c := range s.courts {
		if keep(c) {
			out = append(out, c.Clone())
		}
	}
	newestFirst(out, func(c models.Court) time.Time { return c.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemoryStore) ReplaceCourt(_ context.Context, c *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.courts[c.ID]
	if !ok {
		return fmt.Errorf("%w: court %s", rules.ErrNotFound, c.ID.Hex())
	}
	if stored.Revision != c.Revision {
		return fmt.Errorf("%w: court %s", rules.ErrConflict, c.ID.Hex())
	}
	c.Revision++
	s.courts[c.ID] = c.Clone()
	return nil
}

// Comments

func (s *MemoryStore) InsertComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	s.comments[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) FindComment(_ context.Context, id primitive.ObjectID) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, fmt.Errorf("%w: comment %s", rules.ErrNotFound, id.Hex())
	}
	return c.Clone(), nil
}

func (s *MemoryStore) ListComments(_ context.Context, courtID primitive.ObjectID, limit int) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Comment{}
	for _, c := range s.comments {
		if c.CourtID == courtID && !c.IsDeleted {
			out = append(out, c.Clone())
		}
	}
	newestFirst(out, func(c models.Comment) time.Time { return c.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ReplaceComment(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.comments[c.ID]
	if !ok {
		return fmt.Errorf("%w: comment %s", rules.ErrNotFound, c.ID.Hex())
	}
	if stored.Revision != c.Revision {
		return fmt.Errorf("%w: comment %s", rules.ErrConflict, c.ID.Hex())
	}
	c.Revision++
	s.comments[c.ID] = c.Clone()
	return nil
}

// Reports

func (s *MemoryStore) InsertReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reports {
		if existing.Type == r.Type && existing.TargetID == r.TargetID && existing.ReporterID == r.ReporterID {
			return fmt.Errorf("%w: already reported", rules.ErrDuplicate)
		}
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	s.reports[r.ID] = *r
	return nil
}

func (s *MemoryStore) FindReport(_ context.Context, id primitive.ObjectID) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return models.Report{}, fmt.Errorf("%w: report %s", rules.ErrNotFound, id.Hex())
	}
	return r, nil
}

func (s *MemoryStore) ListReports(_ context.Context, status models.ReportStatus, limit int) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Report{}
	for _, r := range s.reports {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	newestFirst(out, func(r models.Report) time.Time { return r.CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ResolveReport(_ context.Context, id primitive.ObjectID, status models.ReportStatus, by string, at time.Time) (models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return models.Report{}, fmt.Errorf("%w: report %s", rules.ErrNotFound, id.Hex())
	}
	if r.Status != models.ReportPending {
		return models.Report{}, fmt.Errorf("%w: report %s already %s", rules.ErrConflict, id.Hex(), r.Status)
	}
	r.Status = status
	r.ResolvedAt = &at
	r.ResolvedBy = by
	s.reports[id] = r
	return r, nil
}

func (s *MemoryStore) DeleteReport(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[id]; !ok {
		return fmt.Errorf("%w: report %s", rules.ErrNotFound, id.Hex())
	}
	delete(s.reports, id)
	return nil
}

// Users

func (s *MemoryStore) FindUser(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", rules.ErrNotFound, email)
	}
	return u.Clone(), nil
}

func (s *MemoryStore) EnsureUser(_ context.Context, seed models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[seed.Email]; ok {
		return u.Clone(), nil
	}
	if seed.ID.IsZero() {
		seed.ID = primitive.NewObjectID()
	}
	s.users[seed.Email] = seed.Clone()
	return seed, nil
}

// update applies fn to the stored user under the write lock. fn returns an
// error to abort without writing.
func (s *MemoryStore) update(email string, fn func(u *models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return models.User{}, fmt.Errorf("%w: user %s", rules.ErrNotFound, email)
	}
	u = u.Clone()
	if err := fn(&u); err != nil {
		return models.User{}, err
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[email] = u
	return u.Clone(), nil
}

func (s *MemoryStore) AddProgress(_ context.Context, email string, delta models.ProgressDelta, pointsPerLevel int) (models.User, error) {
	return s.update(email, func(u *models.User) error {
		u.Points += delta.Points
		if delta.Stat != "" {
			u.Stats.Inc(delta.Stat, delta.StatDelta)
		}
		u.Level = rules.LevelFor(u.Points, pointsPerLevel)
		return nil
	})
}

func (s *MemoryStore) PushBadge(_ context.Context, email string, badge models.UserBadge, cond rules.Predicate) (models.User, error) {
	return s.update(email, func(u *models.User) error {
		if slices.ContainsFunc(u.Badges, func(b models.UserBadge) bool { return b.ID == badge.ID }) {
			return fmt.Errorf("%w: %s", rules.ErrAlreadyUnlocked, badge.ID)
		}
		if !cond.Holds(u.Stats, u.Points, u.Level) {
			return fmt.Errorf("%w: %s", rules.ErrConditionNotMet, badge.ID)
		}
		u.Badges = append(u.Badges, badge)
		return nil
	})
}

func (s *MemoryStore) Purchase(_ context.Context, email string, c rules.Category, item models.UnlockedItem, pointsPerLevel int) (models.User, error) {
	return s.update(email, func(u *models.User) error {
		if u.Points < item.Cost || rules.IsUnlocked(*u, c, item.ID) {
			return fmt.Errorf("%w: purchase of %s", rules.ErrConflict, item.ID)
		}
		u.Points -= item.Cost
		u.Level = rules.LevelFor(u.Points, pointsPerLevel)
		if c == rules.CategoryBanner {
			u.UnlockedBanners = append(u.UnlockedBanners, item)
			u.CurrentBanner = item.ID
		} else {
			u.UnlockedAvatars = append(u.UnlockedAvatars, item)
			u.CurrentAvatar = item.ID
		}
		return nil
	})
}

func (s *MemoryStore) Equip(_ context.Context, email string, c rules.Category, itemID string) (models.User, error) {
	return s.update(email, func(u *models.User) error {
		if !rules.IsUnlocked(*u, c, itemID) {
			return fmt.Errorf("%w: %s is locked", rules.ErrConflict, itemID)
		}
		if c == rules.CategoryBanner {
			u.CurrentBanner = itemID
		} else {
			u.CurrentAvatar = itemID
		}
		return nil
	})
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, email string, in rules.ProfileInput, seed models.User) (models.User, error) {
	if _, err := s.EnsureUser(ctx, seed); err != nil {
		return models.User{}, err
	}
	return s.update(email, func(u *models.User) error {
		if in.Name != "" {
			u.Name = in.Name
		}
		if in.Username != "" {
			u.Username = in.Username
		}
		if in.Image != "" {
			u.Image = in.Image
		}
		return nil
	})
}

func (s *MemoryStore) SetRole(_ context.Context, email string, role models.Role) error {
	_, err := s.update(email, func(u *models.User) error {
		u.Role = role
		return nil
	})
	return err
}
