package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"terrainhub/models"
	"terrainhub/rules"
)

const commentListLimit = 50

// CommentService manages comments on courts.
type CommentService struct {
	deps Deps
}

func NewCommentService(d Deps) *CommentService {
	return &CommentService{deps: d.withDefaults()}
}

// Post adds a comment to the court named by ref and credits the author.
func (s *CommentService) Post(ctx context.Context, p models.Principal, ref string, in rules.CommentInput) (models.Comment, error) {
	if err := s.deps.Authz.Check(p, ResourceComment, ActionCreate); err != nil {
		return models.Comment{}, err
	}
	in.Normalize()
	if err := rules.Validate(in); err != nil {
		return models.Comment{}, err
	}
	court, err := resolveCourt(ctx, s.deps.Courts, ref, false)
	if err != nil {
		return models.Comment{}, err
	}
	if err := s.deps.screen(ctx, in.Content); err != nil {
		return models.Comment{}, err
	}

	author, err := s.deps.Users.FindUser(ctx, p.Email)
	if errors.Is(err, rules.ErrNotFound) {
		author, err = s.deps.Users.EnsureUser(ctx, seedUser(p, s.deps.Now()))
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("failed to load author: %w", err)
	}
	name := author.Name
	if name == "" {
		name = p.Name
	}

	now := s.deps.Now()
	comment := models.Comment{
		CourtID:    court.ID,
		UserID:     p.Email,
		UserName:   name,
		UserImage:  rules.AvatarImage(author),
		Content:    in.Content,
		Moderation: models.Moderation{Reports: []models.ReportEntry{}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.deps.Comments.InsertComment(ctx, &comment); err != nil {
		return models.Comment{}, fmt.Errorf("failed to post comment: %w", err)
	}

	delta := models.ProgressDelta{
		Points:    s.deps.Policy.CommentPoints,
		Stat:      models.StatCommentsPosted,
		StatDelta: 1,
	}
	if _, err := s.deps.progress(ctx, p, delta, "comment_posted"); err != nil {
		slog.Error("failed to credit comment", "user", p.Email, "comment", comment.ID.Hex(), "error", err)
	}
	return comment, nil
}

// List returns the latest visible comments of a court. A coordinate
// reference that matches no court yields an empty list.
func (s *CommentService) List(ctx context.Context, ref string) ([]models.Comment, error) {
	court, err := resolveCourt(ctx, s.deps.Courts, ref, false)
	if err != nil {
		if _, isCoord := rules.ParseCoordinateRef(ref); isCoord && errors.Is(err, rules.ErrNotFound) {
			return []models.Comment{}, nil
		}
		return nil, err
	}
	return s.deps.Comments.ListComments(ctx, court.ID, commentListLimit)
}

// Delete soft deletes a comment. Only its author may do so.
func (s *CommentService) Delete(ctx context.Context, p models.Principal, commentID string) error {
	if err := s.deps.Authz.Check(p, ResourceComment, ActionDelete); err != nil {
		return err
	}
	id, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return fmt.Errorf("%w: invalid comment id", rules.ErrValidation)
	}
	return withRetries(ctx, s.deps.Policy.ConflictRetries, "delete comment", func() error {
		c, err := s.deps.Comments.FindComment(ctx, id)
		if err != nil {
			return err
		}
		if c.UserID != p.Email {
			return fmt.Errorf("%w: only the author can delete this comment", rules.ErrPermission)
		}
		if c.IsDeleted {
			return nil
		}
		c.IsDeleted = true
		c.UpdatedAt = s.deps.Now()
		return s.deps.Comments.ReplaceComment(ctx, &c)
	})
}
