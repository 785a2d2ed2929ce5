package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"terrainhub/models"
	"terrainhub/services"
	"terrainhub/structs"
	"terrainhub/utils"
)

// AuthHandler signs users in through Cognito, Google or as guests and hands
// out the session token every other endpoint checks. A nil identity provider
// disables its endpoints.
type AuthHandler struct {
	passwords services.PasswordIdentity
	google    services.IDTokenVerifier
	profiles  *services.ProfileService
}

func NewAuthHandler(passwords services.PasswordIdentity, google services.IDTokenVerifier, profiles *services.ProfileService) *AuthHandler {
	return &AuthHandler{passwords: passwords, google: google, profiles: profiles}
}

func (h *AuthHandler) passwordsEnabled(c *gin.Context) bool {
	if h.passwords == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Email sign-in is not configured"})
		return false
	}
	return true
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	if !h.passwordsEnabled(c) {
		return
	}
	var request structs.SignUpRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	if err := h.passwords.SignUp(c.Request.Context(), request.Email, request.Password, request.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to sign up", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sign-up successful"})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if !h.passwordsEnabled(c) {
		return
	}
	var request structs.VerifyEmailRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	if err := h.passwords.ConfirmSignUp(c.Request.Context(), request.Email, request.ConfirmationCode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to verify email", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verification successful"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	if !h.passwordsEnabled(c) {
		return
	}
	var request structs.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid input", errors.New("check email and password format"))
		return
	}
	if err := h.passwords.Login(c.Request.Context(), request.Email, request.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to sign in", "message": "Invalid email or password"})
			return
		}
		respondError(c, err, "Failed to sign in")
		return
	}
	p := models.Principal{Email: request.Email, Name: utils.ExtractNameFromEmail(request.Email)}
	h.startSession(c, p, "")
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	if !h.passwordsEnabled(c) {
		return
	}
	var request structs.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid input", errors.New("check email format"))
		return
	}
	if err := h.passwords.ForgotPassword(c.Request.Context(), request.Email); err != nil {
		respondError(c, err, "Failed to initiate password reset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset initiated. Check your email for further instructions."})
}

func (h *AuthHandler) VerifyForgotPassword(c *gin.Context) {
	if !h.passwordsEnabled(c) {
		return
	}
	var request structs.VerifyForgotPasswordRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	if err := h.passwords.ConfirmForgotPassword(c.Request.Context(), request.Email, request.Code, request.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to confirm password reset", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password successfully changed"})
}

// GoogleLogin exchanges a Google ID token for a session.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.google == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}
	var request structs.GoogleLoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, "Invalid input", err)
		return
	}
	id, err := h.google.Verify(c.Request.Context(), request.IDToken)
	if err != nil {
		slog.Info("google sign-in refused", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Failed to sign in", "message": "Invalid Google token"})
		return
	}
	name := id.Name
	if name == "" {
		name = utils.ExtractNameFromEmail(id.Email)
	}
	h.startSession(c, models.Principal{Email: id.Email, Name: name}, id.Picture)
}

// Guest opens a read-only session. Guests have no stored profile.
func (h *AuthHandler) Guest(c *gin.Context) {
	p := utils.GuestPrincipal()
	token, err := utils.GenerateJWTToken(p)
	if err != nil {
		respondError(c, err, "Failed to start guest session")
		return
	}
	c.JSON(http.StatusOK, structs.SessionResponse{
		Message:     "Guest session started",
		AccessToken: token,
		User: structs.SessionUser{
			Email: p.Email,
			Name:  p.Name,
			Image: utils.GuestImage,
			Role:  string(p.Role),
		},
	})
}

// startSession loads or creates the profile, then signs a token carrying the
// stored role so promotions take effect at the next sign-in.
func (h *AuthHandler) startSession(c *gin.Context, p models.Principal, image string) {
	u, err := h.profiles.EnsureUser(c.Request.Context(), p, image)
	if err != nil {
		respondError(c, err, "Failed to load profile")
		return
	}
	p.UserID = u.ID.Hex()
	p.Name = u.Name
	p.Role = u.Role
	token, err := utils.GenerateJWTToken(p)
	if err != nil {
		respondError(c, err, "Failed to sign session")
		return
	}
	c.JSON(http.StatusOK, structs.SessionResponse{
		Message:     "Sign-in successful",
		AccessToken: token,
		User: structs.SessionUser{
			Email: u.Email,
			Name:  u.Name,
			Image: u.Image,
			Role:  string(u.Role),
		},
	})
}

