package models

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TargetType is the kind of content a report points at
type TargetType string

const (
	TargetCourt   TargetType = "terrain"
	TargetComment TargetType = "comment"
)

// ReportReason is the closed set of reasons a user may give
type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonOffensive     ReportReason = "offensive"
	ReasonFake          ReportReason = "fake"
	ReasonDuplicate     ReportReason = "duplicate"
	ReasonOther         ReportReason = "other"
)

// ReportStatus tracks the moderation review of a report
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is the standalone record of a moderation report.
// At most one exists per (type, targetId, reporterId).
type Report struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Type        TargetType         `bson:"type" json:"type"`
	TargetID    primitive.ObjectID `bson:"targetId" json:"targetId"`
	ReporterID  string             `bson:"reporterId" json:"reporterId"`
	Reason      ReportReason       `bson:"reason" json:"reason"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      ReportStatus       `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	ResolvedAt  *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy  string             `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
}

// ReportEntry is the denormalised copy of a report kept on the target document
type ReportEntry struct {
	UserID      string       `bson:"userId" json:"userId"`
	Reason      ReportReason `bson:"reason" json:"reason"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
}

// Moderation is the system-owned moderation state shared by courts and comments
type Moderation struct {
	Reports   []ReportEntry `bson:"reports" json:"reports,omitempty"`
	IsDeleted bool          `bson:"isDeleted" json:"isDeleted"`
}

// Clone returns a deep copy of the moderation state
func (m Moderation) Clone() Moderation {
	return Moderation{
		Reports:   slices.Clone(m.Reports),
		IsDeleted: m.IsDeleted,
	}
}
