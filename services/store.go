package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"terrainhub/models"
	"terrainhub/rules"
)

// Stores report missing documents as rules.ErrNotFound. Writes guarded by a
// revision or a precondition fail with rules.ErrConflict when the stored
// document moved on since it was read.

// CourtStore persists courts.
type CourtStore interface {
	InsertCourt(ctx context.Context, c *models.Court) error
	FindCourt(ctx context.Context, id primitive.ObjectID) (models.Court, error)
	// FindCourtNear returns a non-deleted court within tol degrees of p.
	FindCourtNear(ctx context.Context, p rules.Point, tol float64) (models.Court, error)
	// ListCourts returns non-deleted courts, newest first.
	ListCourts(ctx context.Context) ([]models.Court, error)
	ListCourtsByOwner(ctx context.Context, owner string, limit int) ([]models.Court, error)
	CountCourtsByOwner(ctx context.Context, owner string) (int64, error)
	ListCourtsRatedBy(ctx context.Context, userID string) ([]models.Court, error)
	// ReplaceCourt writes c if the stored revision equals c.Revision, then bumps it.
	ReplaceCourt(ctx context.Context, c *models.Court) error
}

// CommentStore persists comments.
type CommentStore interface {
	InsertComment(ctx context.Context, c *models.Comment) error
	FindComment(ctx context.Context, id primitive.ObjectID) (models.Comment, error)
	// ListComments returns non-deleted comments of a court, newest first.
	ListComments(ctx context.Context, courtID primitive.ObjectID, limit int) ([]models.Comment, error)
	ReplaceComment(ctx context.Context, c *models.Comment) error
}

// ReportStore persists reports. InsertReport fails with rules.ErrDuplicate
// when the reporter already reported the target.
type ReportStore interface {
	InsertReport(ctx context.Context, r *models.Report) error
	FindReport(ctx context.Context, id primitive.ObjectID) (models.Report, error)
	// ListReports filters by status when it is non-empty, newest first.
	ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]models.Report, error)
	// ResolveReport closes a pending report.
	ResolveReport(ctx context.Context, id primitive.ObjectID, status models.ReportStatus, by string, at time.Time) (models.Report, error)
	// DeleteReport removes a report whose target could not be updated.
	DeleteReport(ctx context.Context, id primitive.ObjectID) error
}

// UserStore persists profiles. Every method is a single atomic update.
type UserStore interface {
	FindUser(ctx context.Context, email string) (models.User, error)
	// EnsureUser inserts seed when no user has its email and returns the stored user.
	EnsureUser(ctx context.Context, seed models.User) (models.User, error)
	// AddProgress adds points and a stat delta and recomputes the level from the new balance.
	AddProgress(ctx context.Context, email string, delta models.ProgressDelta, pointsPerLevel int) (models.User, error)
	// PushBadge appends badge when it is not held and cond holds on the stored user.
	PushBadge(ctx context.Context, email string, badge models.UserBadge, cond rules.Predicate) (models.User, error)
	// Purchase debits item.Cost, unlocks and equips the item in one update.
	// It fails with rules.ErrConflict unless points >= cost and the item is still locked.
	// The level is recomputed from the remaining balance.
	Purchase(ctx context.Context, email string, c rules.Category, item models.UnlockedItem, pointsPerLevel int) (models.User, error)
	// Equip switches the current item when it is the default or already unlocked.
	Equip(ctx context.Context, email string, c rules.Category, itemID string) (models.User, error)
	// UpdateProfile sets the non-empty fields of in, creating the user from seed if needed.
	UpdateProfile(ctx context.Context, email string, in rules.ProfileInput, seed models.User) (models.User, error)
	SetRole(ctx context.Context, email string, role models.Role) error
}
