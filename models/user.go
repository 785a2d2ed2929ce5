package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the capability class of an account
type Role string

const (
	RoleUser      Role = "user"
	RoleGuest     Role = "guest"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// DefaultItemID is the always-available avatar/banner
const DefaultItemID = "default"

// StatField names a counter under User.Stats
type StatField string

const (
	StatTerrainsCreated  StatField = "terrainsCreated"
	StatCommentsPosted   StatField = "commentsPosted"
	StatTerrainsRated    StatField = "terrainsRated"
	StatReportsSubmitted StatField = "reportsSubmitted"
)

// UserStats holds the activity counters badges are evaluated against
type UserStats struct {
	TerrainsCreated  int `bson:"terrainsCreated" json:"terrainsCreated"`
	CommentsPosted   int `bson:"commentsPosted" json:"commentsPosted"`
	TerrainsRated    int `bson:"terrainsRated" json:"terrainsRated"`
	ReportsSubmitted int `bson:"reportsSubmitted" json:"reportsSubmitted"`
}

// Inc adds delta to the named counter
func (s *UserStats) Inc(field StatField, delta int) {
	switch field {
	case StatTerrainsCreated:
		s.TerrainsCreated += delta
	case StatCommentsPosted:
		s.CommentsPosted += delta
	case StatTerrainsRated:
		s.TerrainsRated += delta
	case StatReportsSubmitted:
		s.ReportsSubmitted += delta
	}
}

// UserBadge is a badge claimed by a user
type UserBadge struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description" json:"description"`
	Icon        string    `bson:"icon" json:"icon"`
	UnlockedAt  time.Time `bson:"unlockedAt" json:"unlockedAt"`
}

// UnlockedItem is a cosmetic bought from the shop
type UnlockedItem struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	ImageURL   string    `bson:"imageUrl" json:"imageUrl"`
	Cost       int       `bson:"cost" json:"cost"`
	UnlockedAt time.Time `bson:"unlockedAt" json:"unlockedAt"`
}

// User defines a user profile and its progression
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email           string             `bson:"email" json:"email"`
	Name            string             `bson:"name" json:"name"`
	Image           string             `bson:"image,omitempty" json:"image,omitempty"`
	Username        string             `bson:"username,omitempty" json:"username,omitempty"`
	Role            Role               `bson:"role" json:"role"`
	Points          int                `bson:"points" json:"points"`
	Level           int                `bson:"level" json:"level"`
	Badges          []UserBadge        `bson:"badges" json:"badges"`
	UnlockedAvatars []UnlockedItem     `bson:"unlockedAvatars" json:"unlockedAvatars"`
	UnlockedBanners []UnlockedItem     `bson:"unlockedBanners" json:"unlockedBanners"`
	CurrentAvatar   string             `bson:"currentAvatar" json:"currentAvatar"`
	CurrentBanner   string             `bson:"currentBanner" json:"currentBanner"`
	Stats           UserStats          `bson:"stats" json:"stats"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy of the user
func (u User) Clone() User {
	cp := u
	cp.Badges = slices.Clone(u.Badges)
	cp.UnlockedAvatars = slices.Clone(u.UnlockedAvatars)
	cp.UnlockedBanners = slices.Clone(u.UnlockedBanners)
	return cp
}

// NewUser returns a fresh profile with default cosmetics and level 1
func NewUser(email, name, image string, role Role, now time.Time) User {
	if role == "" {
		role = RoleUser
	}
	return User{
		Email:           email,
		Name:            name,
		Image:           image,
		Role:            role,
		Level:           1,
		Badges:          []UserBadge{},
		UnlockedAvatars: []UnlockedItem{},
		UnlockedBanners: []UnlockedItem{},
		CurrentAvatar:   DefaultItemID,
		CurrentBanner:   DefaultItemID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

// IsGuest reports whether the principal only has read access
func (p Principal) IsGuest() bool {
	return p.Role == RoleGuest
}

// ProgressDelta is an increment applied atomically to a user's progression
type ProgressDelta struct {
	Points    int
	Stat      StatField
	StatDelta int
}
