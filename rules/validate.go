package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CourtInput is the user-supplied part of a new court.
type CourtInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description" validate:"required,max=1000"`
	Lat         float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng         float64 `json:"lng" validate:"gte=-180,lte=180"`
	Address     string  `json:"address" validate:"max=300"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,max=500"`
}

// CommentInput is the body of a new comment.
type CommentInput struct {
	Content string `json:"content" validate:"required,max=500"`
}

// ProfileInput is a profile update. Empty fields are left unchanged.
type ProfileInput struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=50"`
	Username string `json:"username" validate:"omitempty,min=2,max=50"`
	Image    string `json:"image" validate:"omitempty,max=500"`
}

// Normalize trims surrounding whitespace from every field.
func (in *CourtInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

// Normalize trims surrounding whitespace from the content.
func (in *CommentInput) Normalize() {
	in.Content = strings.TrimSpace(in.Content)
}

// Normalize trims surrounding whitespace from every field.
func (in *ProfileInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Image = strings.TrimSpace(in.Image)
}

// Validate runs struct validation and reports failures as ErrValidation.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return field + " is out of range"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
