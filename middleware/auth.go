package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

const jwtClaimUserID = "user_id"

var ErrUserNotInContext = errors.New("user claims not found in context or invalid type")

// ParseToken проверяет подпись и срок жизни токена и возвращает его claims.
// Используется и HTTP-middleware, и websocket-хендлером (там токен приходит
// query-параметром).
func ParseToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Authenticate требует заголовок Authorization: Bearer <token> и кладёт
// claims токена в контекст запроса.
func Authenticate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(tokenString, secret)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithClaims кладёт claims в контекст вручную; нужен websocket-хендлеру
// и тестам хендлеров.
func ContextWithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrUserNotInContext
	}
	return UserIDFromClaims(claims)
}

func UserIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return uuid.Nil, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	userIDStr, ok := userIDClaim.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimUserID, userIDClaim)
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID value in '%s' claim: %q", jwtClaimUserID, userIDStr)
	}
	return userID, nil
}
