package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"auth-backend/pkg/common/config"
	"auth-backend/pkg/core/auth/token"
	"auth-backend/pkg/core/user/model"
	"auth-backend/pkg/core/user/repository/dao"
	impl "auth-backend/pkg/core/user/repository/dao/impl"
	"auth-backend/pkg/web/router"
)

type testApp struct {
	engine *route.Engine
	repo   dao.UserRepository
	issuer *token.Issuer
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Address: ":0"},
		Middleware: config.MiddlewareConfig{
			JWT: config.JWTAuthConfig{
				Access: config.TokenConfig{
					Secret:         "test-access-secret",
					ExpireDuration: 6 * time.Hour,
				},
				Refresh: config.TokenConfig{
					Secret:         "test-refresh-secret",
					ExpireDuration: 24 * time.Hour,
				},
				Issuer:        "auth-backend",
				SigningMethod: "HS256",
			},
			CORS: config.CORSConfig{
				AllowOrigins:     []string{"http://localhost:3000"},
				AllowMethods:     []string{"GET", "POST"},
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: true,
				MaxAge:           time.Hour,
			},
		},
		Cookie: config.CookieConfig{
			Name:     "jwt",
			MaxAge:   24 * 60 * 60,
			Secure:   false,
			HTTPOnly: true,
		},
		Env: "test",
	}
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))

	cfg := testConfig()
	h := server.New()
	require.NoError(t, router.RegisterAPIs(h, cfg, db))

	issuer, err := token.NewIssuer(cfg.Middleware.JWT)
	require.NoError(t, err)

	return &testApp{
		engine: h.Engine,
		repo:   impl.NewUserRepository(db),
		issuer: issuer,
	}
}

func (a *testApp) request(method, path, body string, headers ...ut.Header) *protocol.Response {
	var b *ut.Body
	if body != "" {
		b = &ut.Body{Body: bytes.NewBufferString(body), Len: len(body)}
		headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	}
	w := ut.PerformRequest(a.engine, method, path, b, headers...)
	return w.Result()
}

type envelope struct {
	Code    int                    `json:"code"`
	Success bool                   `json:"success"`
	Error   *string                `json:"error"`
	Message *string                `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, resp *protocol.Response) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.Unmarshal(resp.Body(), &e))

	// Envelope invariant: success exactly when error is null.
	require.Equal(t, e.Error == nil, e.Success)
	return e
}

func registerBody(username, password, email string) string {
	return fmt.Sprintf(`{"username":%q,"password":%q,"email":%q}`, username, password, email)
}

func (a *testApp) register(t *testing.T, username, password, email string) envelope {
	t.Helper()
	resp := a.request("POST", "/register", registerBody(username, password, email))
	require.Equal(t, 201, resp.StatusCode())
	return decode(t, resp)
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)

	reg := app.register(t, "alice", "secret1", "alice@example.com")
	assert.Equal(t, "alice", reg.Data["username"])
	assert.NotZero(t, reg.Data["id"])
	assert.NotEmpty(t, reg.Data["accessToken"])

	resp := app.request("POST", "/login", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, 200, resp.StatusCode())
	login := decode(t, resp)
	assert.Equal(t, "alice", login.Data["username"])
	assert.NotEmpty(t, login.Data["accessToken"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	resp := app.request("POST", "/register", registerBody("alice", "secret1", "other@example.com"))
	require.Equal(t, 409, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Contains(t, *e.Error, "username")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	resp := app.request("POST", "/register", registerBody("bob", "secret1", "alice@example.com"))
	require.Equal(t, 409, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Contains(t, *e.Error, "email")
}

func TestRegisterUsernameBoundaries(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("POST", "/register", registerBody("", "secret1", "a@example.com"))
	assert.Equal(t, 400, resp.StatusCode())

	resp = app.request("POST", "/register", registerBody(strings.Repeat("x", 21), "secret1", "b@example.com"))
	assert.Equal(t, 400, resp.StatusCode())

	resp = app.request("POST", "/register", registerBody(strings.Repeat("x", 20), "secret1", "c@example.com"))
	assert.Equal(t, 201, resp.StatusCode())
}

func TestRegisterPasswordBoundaries(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("POST", "/register", registerBody("alice", "12345", "a@example.com"))
	assert.Equal(t, 400, resp.StatusCode())

	resp = app.request("POST", "/register", registerBody("alice", "123456", "a@example.com"))
	assert.Equal(t, 201, resp.StatusCode())
}

func TestRegisterSetsRefreshCookie(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("POST", "/register", registerBody("alice", "secret1", "alice@example.com"))
	require.Equal(t, 201, resp.StatusCode())
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "jwt=")

	stored, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.RefreshToken)
}

func TestLoginMissingFields(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("POST", "/login", `{}`)
	require.Equal(t, 422, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Contains(t, *e.Error, "username")

	resp = app.request("POST", "/login", `{"username":"alice"}`)
	require.Equal(t, 422, resp.StatusCode())
	e = decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Contains(t, *e.Error, "Password")
}

func TestLoginUnknownUser(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("POST", "/login", `{"username":"ghost","password":"secret1"}`)
	require.Equal(t, 401, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Equal(t, "No user found with this username.", *e.Error)
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	resp := app.request("POST", "/login", `{"username":"alice","password":"wrong-1"}`)
	require.Equal(t, 401, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Equal(t, "The password is incorrect.", *e.Error)
}

func TestLoginRotatesRefreshToken(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	first, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)

	// Token payloads embed issue time at second granularity.
	time.Sleep(1100 * time.Millisecond)

	resp := app.request("POST", "/login", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, 200, resp.StatusCode())

	second, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
}

func TestLogoutWithoutCookie(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	before, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)

	resp := app.request("GET", "/logout", "")
	assert.Equal(t, 204, resp.StatusCode())

	// No store mutation happened.
	after, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, before.RefreshToken, after.RefreshToken)
}

func TestLogoutClearsStoredToken(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	stored, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)
	require.NotEmpty(t, stored.RefreshToken)

	resp := app.request("GET", "/logout", "",
		ut.Header{Key: "Cookie", Value: "jwt=" + stored.RefreshToken})
	assert.Equal(t, 204, resp.StatusCode())

	after, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)
	assert.Empty(t, after.RefreshToken)
}

func TestRefreshUnknownUser(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("GET", "/refresh/9999", "")
	require.Equal(t, 404, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Equal(t, "User not found.", *e.Error)

	resp = app.request("GET", "/refresh/not-a-number", "")
	assert.Equal(t, 404, resp.StatusCode())
}

func TestRefreshWithoutStoredToken(t *testing.T) {
	app := newTestApp(t)
	reg := app.register(t, "alice", "secret1", "alice@example.com")
	id := int64(reg.Data["id"].(float64))

	stored, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)
	require.NoError(t, app.repo.UpdateRefreshToken(stored.ID, ""))

	resp := app.request("GET", fmt.Sprintf("/refresh/%d", id), "")
	require.Equal(t, 404, resp.StatusCode())
	e := decode(t, resp)
	require.NotNil(t, e.Error)
	assert.Equal(t, "User does not have a refresh token.", *e.Error)
}

func TestRefreshRequiresMatchingCookie(t *testing.T) {
	app := newTestApp(t)
	reg := app.register(t, "alice", "secret1", "alice@example.com")
	id := int64(reg.Data["id"].(float64))

	// No cookie at all.
	resp := app.request("GET", fmt.Sprintf("/refresh/%d", id), "")
	assert.Equal(t, 401, resp.StatusCode())

	// A syntactically valid token that is not the stored one.
	other, err := app.issuer.IssueRefreshToken("mallory")
	require.NoError(t, err)
	resp = app.request("GET", fmt.Sprintf("/refresh/%d", id), "",
		ut.Header{Key: "Cookie", Value: "jwt=" + other})
	assert.Equal(t, 401, resp.StatusCode())
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	app := newTestApp(t)
	reg := app.register(t, "alice", "secret1", "alice@example.com")
	id := int64(reg.Data["id"].(float64))

	stored, err := app.repo.QueryByUsername("alice")
	require.NoError(t, err)

	resp := app.request("GET", fmt.Sprintf("/refresh/%d", id), "",
		ut.Header{Key: "Cookie", Value: "jwt=" + stored.RefreshToken})
	require.Equal(t, 200, resp.StatusCode())
	e := decode(t, resp)

	accessToken, _ := e.Data["accessToken"].(string)
	require.NotEmpty(t, accessToken)

	claims, err := app.issuer.ParseAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserInfo.Username)
}

func TestMeRequiresAccessToken(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("GET", "/me", "")
	assert.Equal(t, 401, resp.StatusCode())
}

func TestMeReturnsProfile(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "alice", "secret1", "alice@example.com")

	accessToken, err := app.issuer.IssueAccessToken("alice")
	require.NoError(t, err)

	resp := app.request("GET", "/me", "",
		ut.Header{Key: "Authorization", Value: "Bearer " + accessToken})
	require.Equal(t, 200, resp.StatusCode())
	e := decode(t, resp)
	assert.Equal(t, "alice", e.Data["username"])
	assert.Equal(t, "alice@example.com", e.Data["email"])
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp := app.request("GET", "/health", "")
	assert.Equal(t, 200, resp.StatusCode())
}
