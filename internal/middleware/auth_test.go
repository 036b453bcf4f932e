package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/examstack/exam_scheduler/internal/models"
	"github.com/examstack/exam_scheduler/internal/repo"
	"github.com/examstack/exam_scheduler/internal/service"
	"github.com/examstack/exam_scheduler/pkg/cookies"
	"github.com/examstack/exam_scheduler/pkg/hash"
	"github.com/examstack/exam_scheduler/pkg/tokens"
)

type mwEnv struct {
	E        *echo.Echo
	Auth     *SessionAuth
	Sessions *service.SessionService
	DB       *gorm.DB
}

func newMwEnv(t *testing.T) *mwEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	rp := repo.GormRepo{DB: db}
	sessions := &service.SessionService{
		Repo:    rp,
		Codec:   tokens.NewAccessCodec([]byte("test-jwt-secret"), 15*time.Minute),
		Refresh: &service.RefreshTokenService{Repo: rp},
	}

	return &mwEnv{
		E:        echo.New(),
		Auth:     NewSessionAuth(sessions),
		Sessions: sessions,
		DB:       db,
	}
}

func (env *mwEnv) seedAccount(t *testing.T, username, password, role string) *models.Account {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)
	acct := &models.Account{Username: username, PasswordHash: pwHash, Role: role}
	require.NoError(t, env.DB.Create(acct).Error)
	return acct
}

func (env *mwEnv) request(cks ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, ck := range cks {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func okHandler(called *bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		*called = true
		return c.NoContent(http.StatusOK)
	}
}

func TestRequireAuth_ValidAccessToken(t *testing.T) {
	env := newMwEnv(t)
	acct := env.seedAccount(t, "alice", "s3cret", models.RoleAdmin)

	res, err := env.Sessions.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	called := false
	_, ctx := env.request(&http.Cookie{Name: cookies.AccessToken, Value: res.AccessToken})
	require.NoError(t, env.Auth.RequireAuth(okHandler(&called))(ctx))

	assert.True(t, called)
	assert.Equal(t, acct.ID, AccountID(ctx))
	assert.Equal(t, models.RoleAdmin, Role(ctx))
	assert.Equal(t, "alice", Username(ctx))
}

func TestRequireAuth_RenewsWithRefreshToken(t *testing.T) {
	env := newMwEnv(t)
	env.seedAccount(t, "alice", "s3cret", models.RoleAdmin)

	res, err := env.Sessions.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	called := false
	rec, ctx := env.request(
		&http.Cookie{Name: cookies.AccessToken, Value: "garbage"},
		&http.Cookie{Name: cookies.RefreshToken, Value: res.RefreshToken},
	)
	require.NoError(t, env.Auth.RequireAuth(okHandler(&called))(ctx))
	assert.True(t, called)

	// The renewed access token is handed back as a cookie.
	renewed := findCookie(rec, cookies.AccessToken)
	require.NotNil(t, renewed)
	assert.NotEqual(t, res.AccessToken, renewed.Value)
	assert.NotEmpty(t, renewed.Value)
}

func TestRequireAuth_NoTokens(t *testing.T) {
	env := newMwEnv(t)

	called := false
	_, ctx := env.request()
	err := env.Auth.RequireAuth(okHandler(&called))(ctx)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.False(t, called)
}

func TestRequireAuth_GarbageWithoutRefresh(t *testing.T) {
	env := newMwEnv(t)

	called := false
	_, ctx := env.request(&http.Cookie{Name: cookies.AccessToken, Value: "garbage"})
	err := env.Auth.RequireAuth(okHandler(&called))(ctx)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.False(t, called)
}

func TestRequireAdmin(t *testing.T) {
	env := newMwEnv(t)
	env.seedAccount(t, "alice", "s3cret", models.RoleAdmin)
	env.seedAccount(t, "Somchai Dee", "0812223333", models.RoleUser)

	admin, err := env.Sessions.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	user, err := env.Sessions.Login(context.Background(), "Somchai Dee", "0812223333")
	require.NoError(t, err)

	called := false
	_, ctx := env.request(&http.Cookie{Name: cookies.AccessToken, Value: admin.AccessToken})
	require.NoError(t, env.Auth.RequireAdmin(okHandler(&called))(ctx))
	assert.True(t, called)

	called = false
	_, ctx = env.request(&http.Cookie{Name: cookies.AccessToken, Value: user.AccessToken})
	err = env.Auth.RequireAdmin(okHandler(&called))(ctx)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	assert.Equal(t, http.StatusForbidden, he.Code)
	assert.False(t, called)
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := rec.Result()
	defer res.Body.Close()

	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
