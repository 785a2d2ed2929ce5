package structs

// Bodies of the /auth endpoints. Passwords follow the Cognito pool policy.

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"omitempty,min=2,max=50"`
}

type VerifyEmailRequest struct {
	Email            string `json:"email" binding:"required,email"`
	ConfirmationCode string `json:"confirmationCode" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyForgotPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// GoogleLoginRequest carries the ID token returned by Google Sign-In.
type GoogleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// SessionResponse is returned by every successful sign-in.
type SessionResponse struct {
	Message     string      `json:"message"`
	AccessToken string      `json:"accessToken"`
	User        SessionUser `json:"user"`
}

type SessionUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Role  string `json:"role"`
}
