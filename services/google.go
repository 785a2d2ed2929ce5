package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the verified profile carried by a Google ID token.
type GoogleIdentity struct {
	Email   string
	Name    string
	Picture string
}

// IDTokenVerifier checks a third-party sign-in token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, token string) (GoogleIdentity, error)
}

// GoogleVerifier validates Google Sign-In ID tokens issued for clientID.
type GoogleVerifier struct {
	validator *idtoken.Validator
	clientID  string
}

func NewGoogleVerifier(ctx context.Context, clientID string) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id not configured")
	}
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create google token validator: %w", err)
	}
	return &GoogleVerifier{validator: v, clientID: clientID}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (GoogleIdentity, error) {
	payload, err := g.validator.Validate(ctx, token, g.clientID)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return identityFromClaims(payload.Claims)
}

func identityFromClaims(claims map[string]interface{}) (GoogleIdentity, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return GoogleIdentity{}, fmt.Errorf("%w: token has no email", ErrInvalidCredentials)
	}
	if verified, ok := claims["email_verified"].(bool); ok && !verified {
		return GoogleIdentity{}, fmt.Errorf("%w: email not verified", ErrInvalidCredentials)
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	return GoogleIdentity{Email: email, Name: name, Picture: picture}, nil
}
