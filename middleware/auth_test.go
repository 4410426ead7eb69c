package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	})

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)

	parsed, err := UserIDFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestParseTokenRejectsBadTokens(t *testing.T) {
	valid := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", valid)
		_, err := ParseToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"user_id": uuid.NewString(),
			"exp":     time.Now().Add(-time.Hour).Unix(),
		})
		_, err := ParseToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("not-a-token", testSecret)
		assert.Error(t, err)
	})
}

func TestUserIDFromClaims(t *testing.T) {
	_, err := UserIDFromClaims(jwt.MapClaims{})
	assert.Error(t, err)

	_, err = UserIDFromClaims(jwt.MapClaims{"user_id": 42})
	assert.Error(t, err)

	_, err = UserIDFromClaims(jwt.MapClaims{"user_id": "not-a-uuid"})
	assert.Error(t, err)
}

func TestAuthenticateMiddleware(t *testing.T) {
	var gotUserID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(testSecret)(next)

	userID := uuid.New()
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, gotUserID)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not a bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
