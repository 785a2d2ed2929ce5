package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"terrainhub/utils"
)

// ErrInvalidCredentials is returned when a password sign-in is refused.
var ErrInvalidCredentials = errors.New("invalid email or password")

// PasswordIdentity manages email and password accounts.
type PasswordIdentity interface {
	SignUp(ctx context.Context, email, password, nickname string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) error
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
}

// CognitoIdentity is a PasswordIdentity backed by an AWS Cognito user pool.
type CognitoIdentity struct {
	client       *cognitoidentityprovider.Client
	clientID     string
	clientSecret string
}

func NewCognitoIdentity(ctx context.Context, region, clientID, clientSecret string) (*CognitoIdentity, error) {
	if clientID == "" {
		return nil, errors.New("cognito app client id not configured")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &CognitoIdentity{
		client:       cognitoidentityprovider.NewFromConfig(cfg),
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

func (ci *CognitoIdentity) secretHash(email string) *string {
	return aws.String(utils.GenerateSecretHash(email, ci.clientID, ci.clientSecret))
}

func (ci *CognitoIdentity) SignUp(ctx context.Context, email, password, nickname string) error {
	if nickname == "" {
		nickname = utils.ExtractNameFromEmail(email)
	}
	_, err := ci.client.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:   aws.String(ci.clientID),
		Password:   aws.String(password),
		SecretHash: ci.secretHash(email),
		Username:   aws.String(email),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("nickname"), Value: aws.String(nickname)},
		},
	})
	if err != nil {
		slog.Warn("cognito sign-up failed", "email", email, "error", err)
		return fmt.Errorf("sign-up failed: %w", err)
	}
	return nil
}

func (ci *CognitoIdentity) ConfirmSignUp(ctx context.Context, email, code string) error {
	_, err := ci.client.ConfirmSignUp(ctx, &cognitoidentityprovider.ConfirmSignUpInput{
		ClientId:         aws.String(ci.clientID),
		ConfirmationCode: aws.String(code),
		Username:         aws.String(email),
		SecretHash:       ci.secretHash(email),
	})
	if err != nil {
		return fmt.Errorf("email verification failed: %w", err)
	}
	return nil
}

func (ci *CognitoIdentity) Login(ctx context.Context, email, password string) error {
	out, err := ci.client.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(ci.clientID),
		AuthParameters: map[string]string{
			"USERNAME":    email,
			"PASSWORD":    password,
			"SECRET_HASH": *ci.secretHash(email),
		},
	})
	if err != nil {
		slog.Info("cognito sign-in refused", "email", email, "error", err)
		return ErrInvalidCredentials
	}
	if out.AuthenticationResult == nil {
		// A challenge (new password, MFA) is pending.
		return ErrInvalidCredentials
	}
	return nil
}

func (ci *CognitoIdentity) ForgotPassword(ctx context.Context, email string) error {
	_, err := ci.client.ForgotPassword(ctx, &cognitoidentityprovider.ForgotPasswordInput{
		ClientId:   aws.String(ci.clientID),
		Username:   aws.String(email),
		SecretHash: ci.secretHash(email),
	})
	if err != nil {
		return fmt.Errorf("error initiating forgot password: %w", err)
	}
	return nil
}

func (ci *CognitoIdentity) ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error {
	_, err := ci.client.ConfirmForgotPassword(ctx, &cognitoidentityprovider.ConfirmForgotPasswordInput{
		ClientId:         aws.String(ci.clientID),
		Username:         aws.String(email),
		ConfirmationCode: aws.String(code),
		Password:         aws.String(newPassword),
		SecretHash:       ci.secretHash(email),
	})
	if err != nil {
		return fmt.Errorf("error confirming forgot password: %w", err)
	}
	return nil
}
