package rules

import (
	"fmt"
	"strings"

	"terrainhub/models"
)

const MaxReportDescription = 200

var validReasons = map[models.ReportReason]bool{
	models.ReasonSpam:          true,
	models.ReasonInappropriate: true,
	models.ReasonOffensive:     true,
	models.ReasonFake:          true,
	models.ReasonDuplicate:     true,
	models.ReasonOther:         true,
}

// ValidateReason rejects reasons outside the fixed enum.
func ValidateReason(reason models.ReportReason) error {
	if !validReasons[reason] {
		return fmt.Errorf("%w: invalid report reason %q", ErrValidation, reason)
	}
	return nil
}

// ValidateTargetType rejects anything but a court or a comment.
func ValidateTargetType(t models.TargetType) error {
	switch t {
	case models.TargetCourt, models.TargetComment:
		return nil
	}
	return fmt.Errorf("%w: invalid report type %q", ErrValidation, t)
}

// ValidateReport checks a report request before any lookup happens.
func ValidateReport(t models.TargetType, reason models.ReportReason, description string) error {
	if err := ValidateTargetType(t); err != nil {
		return err
	}
	if err := ValidateReason(reason); err != nil {
		return err
	}
	if len([]rune(strings.TrimSpace(description))) > MaxReportDescription {
		return fmt.Errorf("%w: description must be at most %d characters", ErrValidation, MaxReportDescription)
	}
	return nil
}

// HasReported reports whether userID already has an entry in m.
func HasReported(m models.Moderation, userID string) bool {
	for _, r := range m.Reports {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// ApplyReport appends entry to the moderation state and soft deletes the
// target once threshold reports are present. It returns true only when this
// call flipped IsDeleted.
func ApplyReport(m *models.Moderation, entry models.ReportEntry, threshold int) bool {
	m.Reports = append(m.Reports, entry)
	if m.IsDeleted || len(m.Reports) < threshold {
		return false
	}
	m.IsDeleted = true
	return true
}
