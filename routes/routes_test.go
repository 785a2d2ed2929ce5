package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrainhub/controllers"
	"terrainhub/db"
	"terrainhub/internal/limiter"
	"terrainhub/models"
	"terrainhub/services"
	"terrainhub/utils"
	"terrainhub/websocket"
)

type fakePasswords struct {
	passwords map[string]string
}

func (f *fakePasswords) SignUp(_ context.Context, email, password, _ string) error {
	f.passwords[email] = password
	return nil
}

func (f *fakePasswords) ConfirmSignUp(context.Context, string, string) error { return nil }

func (f *fakePasswords) Login(_ context.Context, email, password string) error {
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return services.ErrInvalidCredentials
	}
	return nil
}

func (f *fakePasswords) ForgotPassword(context.Context, string) error { return nil }

func (f *fakePasswords) ConfirmForgotPassword(_ context.Context, email, _, newPassword string) error {
	f.passwords[email] = newPassword
	return nil
}

type fakeGoogle struct{}

func (fakeGoogle) Verify(_ context.Context, token string) (services.GoogleIdentity, error) {
	if token != "good-token" {
		return services.GoogleIdentity{}, services.ErrInvalidCredentials
	}
	return services.GoogleIdentity{Email: "fanny@gmail.com", Name: "Fanny", Picture: "https://lh3.googleusercontent.com/fanny"}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Reverse(context.Context, float64, float64) (string, error) {
	return "Place Bellecour, Lyon", nil
}

type testServer struct {
	router *gin.Engine
	store  *db.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("routes-test-secret", time.Hour)

	store := db.NewMemoryStore()
	authz, err := services.NewAuthorizer(nil)
	require.NoError(t, err)
	hub := websocket.NewHub()
	deps := services.Deps{
		Courts:   store,
		Comments: store,
		Reports:  store,
		Users:    store,
		Authz:    authz,
		Geocoder: stubGeocoder{},
		Notifier: hub,
	}
	courts := services.NewCourtService(deps)
	comments := services.NewCommentService(deps)
	reports := services.NewReportService(deps)
	profiles := services.NewProfileService(deps)

	router := gin.New()
	Register(router, Handlers{
		Auth:        controllers.NewAuthHandler(&fakePasswords{passwords: map[string]string{"marcel@example.fr": "boules1234"}}, fakeGoogle{}, profiles),
		Courts:      controllers.NewCourtHandler(courts, comments),
		Reports:     controllers.NewReportHandler(reports),
		Profiles:    controllers.NewProfileHandler(profiles),
		Maintenance: controllers.NewMaintenanceHandler(limiter.NewNoop()),
		Geocode:     controllers.NewGeocodeHandler(stubGeocoder{}),
		Hub:         hub,
		Authz:       authz,
		Limiter:     limiter.NewNoop(),
	})
	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, email string, role models.Role) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(models.Principal{Email: email, Name: utils.ExtractNameFromEmail(email), Role: role})
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *testServer) createCourt(t *testing.T, token string) models.Court {
	t.Helper()
	w := s.do(t, http.MethodPost, "/terrains", token, map[string]any{
		"name":        "Boulodrome du parc",
		"description": "Six pistes ombragées",
		"lat":         45.764,
		"lng":         4.8357,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var court models.Court
	decode(t, w, &court)
	return court
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginIssuesSessionWithStoredRole(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "marcel@example.fr", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "marcel@example.fr", "password": "boules1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var session struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			Email string `json:"email"`
			Name  string `json:"name"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decode(t, w, &session)
	assert.Equal(t, "marcel@example.fr", session.User.Email)
	assert.Equal(t, "marcel", session.User.Name)
	assert.Equal(t, "user", session.User.Role)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	w = s.do(t, http.MethodGet, "/user/points", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points services.PointsView
	decode(t, w, &points)
	assert.Equal(t, 0, points.Points)
	assert.Equal(t, 1, points.Level)

	require.NoError(t, s.store.SetRole(context.Background(), "marcel@example.fr", models.RoleModerator))
	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "marcel@example.fr", "password": "boules1234"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &session)
	assert.Equal(t, "moderator", session.User.Role)

	w = s.do(t, http.MethodGet, "/admin/reports", session.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGoogleLoginKeepsPicture(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/google", "", map[string]string{"idToken": "forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/auth/google", "", map[string]string{"idToken": "good-token"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := s.store.FindUser(context.Background(), "fanny@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "Fanny", u.Name)
	assert.Equal(t, "https://lh3.googleusercontent.com/fanny", u.Image)
}

func TestGuestIsReadOnly(t *testing.T) {
	s := newTestServer(t)
	member := tokenFor(t, "marcel@example.fr", models.RoleUser)
	court := s.createCourt(t, member)

	w := s.do(t, http.MethodPost, "/auth/guest", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, w, &session)

	w = s.do(t, http.MethodGet, "/terrains/"+court.ID.Hex(), session.AccessToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/terrains/"+court.ID.Hex()+"/rate", session.AccessToken, map[string]int{"rating": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/terrains", "", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCourtLifecycle(t *testing.T) {
	s := newTestServer(t)
	owner := tokenFor(t, "marcel@example.fr", models.RoleUser)
	other := tokenFor(t, "jeanne@example.fr", models.RoleUser)

	court := s.createCourt(t, owner)
	assert.Equal(t, "Place Bellecour, Lyon", court.Location.Address)

	w := s.do(t, http.MethodGet, "/terrains", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Court
	decode(t, w, &list)
	assert.Len(t, list, 1)

	w = s.do(t, http.MethodGet, "/terrains/45.764--4.8357", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/terrains/"+court.ID.Hex()+"/rate", other, map[string]int{"rating": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rated struct {
		Success   bool                   `json:"success"`
		NewRating models.RatingAggregate `json:"newRating"`
		Remaining int                    `json:"remaining"`
	}
	decode(t, w, &rated)
	assert.True(t, rated.Success)
	assert.Equal(t, models.RatingAggregate{Average: 4, Count: 1, Total: 4}, rated.NewRating)
	assert.Equal(t, 9, rated.Remaining)

	w = s.do(t, http.MethodPost, "/terrains/"+court.ID.Hex()+"/rate", other, map[string]int{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/terrains/"+court.ID.Hex()+"/comments", other, map[string]string{"content": "Belles pistes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment models.Comment
	decode(t, w, &comment)

	w = s.do(t, http.MethodGet, "/terrains/"+court.ID.Hex()+"/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	decode(t, w, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "jeanne", comments[0].UserName)

	w = s.do(t, http.MethodDelete, "/terrains/"+court.ID.Hex()+"/comments/"+comment.ID.Hex(), owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodDelete, "/terrains/"+court.ID.Hex()+"/comments/"+comment.ID.Hex(), other, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/terrains/"+court.ID.Hex(), other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodDelete, "/terrains/"+court.ID.Hex(), owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/terrains/"+court.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/user/stats", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.CourtStats
	decode(t, w, &stats)
	assert.Equal(t, 1, stats.TotalRatings)
	assert.Equal(t, 4.0, stats.AverageRating)

	w = s.do(t, http.MethodGet, "/user/terrains", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestReportsHideCourtAndModeratorsReview(t *testing.T) {
	s := newTestServer(t)
	owner := tokenFor(t, "marcel@example.fr", models.RoleUser)
	court := s.createCourt(t, owner)

	report := map[string]string{"type": "terrain", "targetId": court.ID.Hex(), "reason": "fake"}
	var filed struct {
		Report models.Report `json:"report"`
	}
	w := s.do(t, http.MethodPost, "/reports", tokenFor(t, "a@example.fr", models.RoleUser), report)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &filed)

	w = s.do(t, http.MethodPost, "/reports", tokenFor(t, "a@example.fr", models.RoleUser), report)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/terrains/"+court.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/reports", tokenFor(t, "b@example.fr", models.RoleUser), report)
	require.Equal(t, http.StatusCreated, w.Code)
	w = s.do(t, http.MethodGet, "/terrains/"+court.ID.Hex(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/admin/reports", owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	mod := tokenFor(t, "mod@example.fr", models.RoleModerator)
	w = s.do(t, http.MethodGet, "/admin/reports?status=pending", mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []models.Report
	decode(t, w, &pending)
	assert.Len(t, pending, 2)

	path := "/admin/reports/" + filed.Report.ID.Hex()
	w = s.do(t, http.MethodPatch, path, mod, map[string]string{"status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(t, http.MethodPatch, path, tokenFor(t, "admin@example.fr", models.RoleAdmin), map[string]string{"status": "dismissed"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestShopRejectsUnaffordableItem(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, "marcel@example.fr", models.RoleUser)
	s.createCourt(t, token)

	w := s.do(t, http.MethodPost, "/user/customization", token, map[string]string{"type": "avatar", "itemId": "legend"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/user/customization", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Points        int    `json:"points"`
		CurrentAvatar string `json:"currentAvatar"`
	}
	decode(t, w, &view)
	assert.Equal(t, 10, view.Points)
	assert.Equal(t, models.DefaultItemID, view.CurrentAvatar)
}

func TestProfileUpdates(t *testing.T) {
	s := newTestServer(t)
	token := tokenFor(t, "marcel@example.fr", models.RoleUser)

	w := s.do(t, http.MethodPut, "/user/username", token, map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/user/username", token, map[string]string{"name": "Marcel P."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/user/points", token, map[string]any{"action": "daily_visit", "amount": 100})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var award services.AwardResult
	decode(t, w, &award)
	assert.Equal(t, 2, award.Level)
}

func TestGeocodeAndMaintenance(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/geocode/reverse?lat=91&lng=2", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/geocode/reverse?lat=45.76&lng=4.83", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bellecour")

	w = s.do(t, http.MethodPost, "/maintenance/redis", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
