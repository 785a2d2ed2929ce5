package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a user comment on a court. Author name and image are captured at post time.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CourtID    primitive.ObjectID `bson:"terrainId" json:"terrainId"`
	UserID     string             `bson:"userId" json:"userId"`
	UserName   string             `bson:"userName" json:"userName"`
	UserImage  string             `bson:"userImage" json:"userImage"`
	Content    string             `bson:"content" json:"content"`
	Moderation `bson:",inline"`
	Revision   int64              `bson:"revision" json:"-"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy of the comment
func (c Comment) Clone() Comment {
	cp := c
	cp.Moderation = c.Moderation.Clone()
	return cp
}
