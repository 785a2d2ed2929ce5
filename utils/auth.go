package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"terrainhub/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

const (
	GuestName   = "Invité"
	GuestImage  = "/guest-avatar.png"
	guestDomain = "guest.local"
)

var (
	secretMu  sync.RWMutex
	jwtSecret string
	jwtExpiry = 24 * time.Hour
)

// SetJWTSecret configures the signing secret and token lifetime.
func SetJWTSecret(secret string, expiry time.Duration) {
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = secret
	if expiry > 0 {
		jwtExpiry = expiry
	}
}

func getJWTSecret() ([]byte, error) {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if jwtSecret == "" {
		return nil, errors.New("JWT secret is not set in config")
	}
	return []byte(jwtSecret), nil
}

var emailLocalPart = regexp.MustCompile(`^([^@]+)`)

// ExtractNameFromEmail extracts the username before '@'
func ExtractNameFromEmail(email string) string {
	match := emailLocalPart.FindStringSubmatch(email)
	if len(match) < 2 {
		return email
	}
	return match[1]
}

// Claims carries the principal in a session token.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name,omitempty"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the caller described by the claims.
func (c *Claims) Principal() models.Principal {
	email := c.Email
	if email == "" {
		email = c.Subject
	}
	role := c.Role
	if role == "" {
		role = models.RoleUser
	}
	return models.Principal{UserID: c.UserID, Email: email, Name: c.Name, Role: role}
}

func GenerateJWTToken(p models.Principal) (string, error) {
	secret, err := getJWTSecret()
	if err != nil {
		return "", err
	}
	secretMu.RLock()
	expiry := jwtExpiry
	secretMu.RUnlock()

	now := time.Now()
	claims := &Claims{
		UserID: p.UserID,
		Email:  p.Email,
		Name:   p.Name,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token")
	}
	return signedToken, nil
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	secret, err := getJWTSecret()
	if err != nil {
		return nil, err
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GuestPrincipal returns a fresh read-only identity. Each guest gets its own
// address so rate limits are not shared between guests.
func GuestPrincipal() models.Principal {
	id := uuid.NewString()
	return models.Principal{
		UserID: "guest-" + id,
		Email:  "guest-" + id + "@" + guestDomain,
		Name:   GuestName,
		Role:   models.RoleGuest,
	}
}

func GenerateSecretHash(username, clientID, clientSecret string) string {
	key := []byte(clientSecret)
	message := username + clientID

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
