package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/vytor/cognivia/internal/errors"
	"github.com/vytor/cognivia/internal/logger"
	"github.com/vytor/cognivia/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// Authenticator verifies HS256 bearer tokens carrying a user_id claim.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Identify validates tokenStr and builds the caller identity from its claims.
// Only user_id is required.
func (a *Authenticator) Identify(tokenStr string) (*models.User, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	userID, _ := claims["user_id"].(string)
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("token has no user_id")
	}
	user := &models.User{ID: userID}
	user.Name, _ = claims["name"].(string)
	user.Email, _ = claims["email"].(string)
	return user, nil
}

// Middleware resolves the user from the Authorization header. Websocket
// upgrades may carry it in the token query parameter instead.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := ""
		if header := r.Header.Get("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handleError(w, r, errors.NewUnauthenticatedError("invalid authorization format"))
				return
			}
			tokenStr = strings.TrimSpace(parts[1])
		} else if websocket.IsWebSocketUpgrade(r) {
			tokenStr = r.URL.Query().Get("token")
		}
		if tokenStr == "" {
			handleError(w, r, errors.NewUnauthenticatedError("missing bearer token"))
			return
		}

		user, err := a.Identify(tokenStr)
		if err != nil {
			logger.FromContext(r.Context()).Debug("rejecting token: %v", err)
			handleError(w, r, errors.NewUnauthenticatedError("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithUser(user.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

// userIDFromContext returns "" for anonymous requests; services reject that
// as unauthenticated.
func userIDFromContext(ctx context.Context) string {
	if u := userFromContext(ctx); u != nil {
		return u.ID
	}
	return ""
}
