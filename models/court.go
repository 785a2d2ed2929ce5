package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is the geographic position of a court
type Location struct {
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
	Address string  `bson:"address,omitempty" json:"address,omitempty"`
}

// RatingAggregate is the running summary of all ratings on a court
type RatingAggregate struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
	Total   int     `bson:"total" json:"total"`
}

// RatingEntry is a single user's rating, one slot per user
type RatingEntry struct {
	UserID    string    `bson:"userId" json:"userId"`
	Rating    int       `bson:"rating" json:"rating"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Court is a pétanque playing ground ("terrain")
type Court struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Location    Location           `bson:"location" json:"location"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Rating      RatingAggregate    `bson:"rating" json:"rating"`
	Ratings     []RatingEntry      `bson:"ratings" json:"ratings"`
	CreatedBy   string             `bson:"createdBy" json:"createdBy"`
	Moderation  `bson:",inline"`
	Revision    int64              `bson:"revision" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate without aliasing the stored document.
func (c Court) Clone() Court {
	cp := c
	cp.Ratings = slices.Clone(c.Ratings)
	cp.Moderation = c.Moderation.Clone()
	return cp
}
