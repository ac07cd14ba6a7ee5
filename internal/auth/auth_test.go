package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/model-workshop/internal/config"
	"github.com/example/model-workshop/internal/models"
)

func testTable(t *testing.T) *CredentialTable {
	t.Helper()
	hash, err := HashPassword(DefaultPassword, bcrypt.MinCost)
	require.NoError(t, err)
	return DefaultCredentials(hash)
}

func TestAuthenticate(t *testing.T) {
	table := testTable(t)

	cases := map[string]models.Role{
		"student@example.com": models.RoleStudent,
		"admin@example.com":   models.RoleAdmin,
		"alpha@example.com":   models.RoleAlpha,
	}
	for email, role := range cases {
		u, ok := table.Authenticate(email, "password")
		require.True(t, ok, email)
		assert.Equal(t, role, u.Role)
		assert.Equal(t, email, u.Email)
	}

	_, ok := table.Authenticate("admin@example.com", "wrong")
	assert.False(t, ok)
	_, ok = table.Authenticate("nobody@example.com", "password")
	assert.False(t, ok)
	_, ok = table.Authenticate("ADMIN@example.com", "password")
	assert.False(t, ok)
	assert.Len(t, table.Users(), 3)
}

func TestClientToken(t *testing.T) {
	cfg := config.Defaults()
	token, exp, err := GenerateClientToken("client-1", cfg)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ParseClientToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "client-1", claims.ClientID)

	other := config.Defaults()
	other.JWTSecret = "another"
	_, err = ParseClientToken(token, other)
	assert.Error(t, err)

	_, err = ParseClientToken("garbage", cfg)
	assert.Error(t, err)
}

func newRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ids := []string{"c-1", "c-2"}
	n := 0
	r.Use(ClientMiddleware(cfg, func() string { n++; return ids[n-1] }, zap.NewNop()))
	r.GET("/who", func(c *gin.Context) {
		c.String(http.StatusOK, ClientID(c))
	})
	return r
}

func TestClientMiddlewareIssuesCookie(t *testing.T) {
	cfg := config.Defaults()
	r := newRouter(cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c-1", w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ClientCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "c-1", w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestClientMiddlewareBearer(t *testing.T) {
	cfg := config.Defaults()
	r := newRouter(cfg)
	token, _, err := GenerateClientToken("api-client", cfg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "api-client", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientMiddlewareReplacesBadCookie(t *testing.T) {
	cfg := config.Defaults()
	r := newRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.AddCookie(&http.Cookie{Name: ClientCookie, Value: "tampered"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "c-1", w.Body.String())
	assert.Len(t, w.Result().Cookies(), 1)
}
