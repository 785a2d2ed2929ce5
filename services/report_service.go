package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"terrainhub/models"
	"terrainhub/rules"
)

const reportListLimit = 100

// ReportInput is a report as submitted by a user. TargetID may be a
// "lat--lng" reference when Type is terrain.
type ReportInput struct {
	Type        models.TargetType   `json:"type"`
	TargetID    string              `json:"targetId"`
	Reason      models.ReportReason `json:"reason"`
	Description string              `json:"description"`
}

// ReportService files and reviews moderation reports.
type ReportService struct {
	deps Deps
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{deps: d.withDefaults()}
}

// File records a report and hides the target once it collects
// Policy.ReportThreshold reports. A second report of the same target by the
// same user is rules.ErrDuplicate.
func (s *ReportService) File(ctx context.Context, p models.Principal, in ReportInput) (models.Report, error) {
	if err := s.deps.Authz.Check(p, ResourceReport, ActionCreate); err != nil {
		return models.Report{}, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.TargetID == "" {
		return models.Report{}, fmt.Errorf("%w: targetId is required", rules.ErrValidation)
	}
	if err := rules.ValidateReport(in.Type, in.Reason, in.Description); err != nil {
		return models.Report{}, err
	}
	if in.Description != "" {
		if err := s.deps.screen(ctx, in.Description); err != nil {
			return models.Report{}, err
		}
	}
	targetID, err := s.resolveTarget(ctx, in.Type, in.TargetID)
	if err != nil {
		return models.Report{}, err
	}

	now := s.deps.Now()
	report := models.Report{
		Type:        in.Type,
		TargetID:    targetID,
		ReporterID:  p.Email,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      models.ReportPending,
		CreatedAt:   now,
	}
	if err := s.deps.Reports.InsertReport(ctx, &report); err != nil {
		return models.Report{}, err
	}

	entry := models.ReportEntry{
		UserID:      p.Email,
		Reason:      in.Reason,
		Description: in.Description,
		CreatedAt:   now,
	}
	hidden, err := s.applyToTarget(ctx, in.Type, targetID, entry)
	if err != nil {
		// A report with no matching target entry would block every retry.
		if derr := s.deps.Reports.DeleteReport(context.WithoutCancel(ctx), report.ID); derr != nil {
			slog.Error("failed to roll back report", "report", report.ID.Hex(), "error", derr)
		}
		return models.Report{}, fmt.Errorf("failed to update reported content: %w", err)
	}
	if hidden {
		slog.Info("content hidden by reports", "type", in.Type, "target", targetID.Hex(), "threshold", s.deps.Policy.ReportThreshold)
		s.deps.Notifier.Notify(models.GamificationEvent{
			Type:       models.EventContentHidden,
			UserID:     p.Email,
			TargetType: in.Type,
			TargetID:   targetID.Hex(),
			Timestamp:  now,
		})
	}

	delta := models.ProgressDelta{
		Points:    s.deps.Policy.ReportPoints,
		Stat:      models.StatReportsSubmitted,
		StatDelta: 1,
	}
	if _, err := s.deps.progress(ctx, p, delta, "report_submitted"); err != nil {
		slog.Error("failed to credit report", "user", p.Email, "report", report.ID.Hex(), "error", err)
	}
	return report, nil
}

func (s *ReportService) resolveTarget(ctx context.Context, t models.TargetType, ref string) (primitive.ObjectID, error) {
	if t == models.TargetCourt {
		court, err := resolveCourt(ctx, s.deps.Courts, ref, true)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return court.ID, nil
	}
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid comment id", rules.ErrValidation)
	}
	if _, err := s.deps.Comments.FindComment(ctx, id); err != nil {
		return primitive.NilObjectID, err
	}
	return id, nil
}

// applyToTarget appends entry to the target's moderation state and reports
// whether this write hid it.
func (s *ReportService) applyToTarget(ctx context.Context, t models.TargetType, id primitive.ObjectID, entry models.ReportEntry) (bool, error) {
	threshold := s.deps.Policy.ReportThreshold
	var hidden bool
	err := withRetries(ctx, s.deps.Policy.ConflictRetries, "apply report", func() error {
		hidden = false
		switch t {
		case models.TargetCourt:
			c, err := s.deps.Courts.FindCourt(ctx, id)
			if err != nil {
				return err
			}
			if rules.HasReported(c.Moderation, entry.UserID) {
				return nil
			}
			hidden = rules.ApplyReport(&c.Moderation, entry, threshold)
			c.UpdatedAt = entry.CreatedAt
			return s.deps.Courts.ReplaceCourt(ctx, &c)
		default:
			c, err := s.deps.Comments.FindComment(ctx, id)
			if err != nil {
				return err
			}
			if rules.HasReported(c.Moderation, entry.UserID) {
				return nil
			}
			hidden = rules.ApplyReport(&c.Moderation, entry, threshold)
			c.UpdatedAt = entry.CreatedAt
			return s.deps.Comments.ReplaceComment(ctx, &c)
		}
	})
	return hidden, err
}

// List returns reports for moderators, filtered by status when set.
func (s *ReportService) List(ctx context.Context, p models.Principal, status models.ReportStatus) ([]models.Report, error) {
	if err := s.deps.Authz.Check(p, ResourceReport, ActionReview); err != nil {
		return nil, err
	}
	switch status {
	case "", models.ReportPending, models.ReportResolved, models.ReportDismissed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", rules.ErrValidation, status)
	}
	return s.deps.Reports.ListReports(ctx, status, reportListLimit)
}

// Review closes a pending report as resolved or dismissed.
func (s *ReportService) Review(ctx context.Context, p models.Principal, reportID string, status models.ReportStatus) (models.Report, error) {
	if err := s.deps.Authz.Check(p, ResourceReport, ActionReview); err != nil {
		return models.Report{}, err
	}
	if status != models.ReportResolved && status != models.ReportDismissed {
		return models.Report{}, fmt.Errorf("%w: status must be resolved or dismissed", rules.ErrValidation)
	}
	id, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		return models.Report{}, fmt.Errorf("%w: invalid report id", rules.ErrValidation)
	}
	r, err := s.deps.Reports.ResolveReport(ctx, id, status, p.Email, s.deps.Now())
	if err != nil {
		return models.Report{}, err
	}
	slog.Info("report reviewed", "report", reportID, "status", status, "by", p.Email)
	return r, nil
}
