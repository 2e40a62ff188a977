package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", Identity(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId":   c.GetString(ContextUserID),
			"userName": c.GetString(ContextUserName),
		})
	})
	return r
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestIdentityDevHeaders(t *testing.T) {
	r := identityRouter("")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-Id", "alice")
	req.Header.Set("X-User-Name", "Alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"alice"`)
	assert.Contains(t, w.Body.String(), `"userName":"Alice"`)
}

func TestIdentityDevDefaultUser(t *testing.T) {
	r := identityRouter("")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"default-user"`)
}

func TestIdentityValidToken(t *testing.T) {
	r := identityRouter("topsecret")

	token := signToken(t, "topsecret", jwt.MapClaims{"sub": "bob", "name": "Bob"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"bob"`)
	assert.Contains(t, w.Body.String(), `"userName":"Bob"`)
}

func TestIdentityNameDefaultsToSubject(t *testing.T) {
	r := identityRouter("topsecret")

	token := signToken(t, "topsecret", jwt.MapClaims{"sub": "bob"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userName":"bob"`)
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	r := identityRouter("topsecret")

	cases := map[string]string{
		"no header":       "",
		"wrong secret":    "Bearer " + signToken(t, "othersecret", jwt.MapClaims{"sub": "bob"}),
		"missing subject": "Bearer " + signToken(t, "topsecret", jwt.MapClaims{"name": "Bob"}),
		"garbage":         "Bearer not.a.token",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED", name)
	}
}
