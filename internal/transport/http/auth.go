package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/app"
)

type contextKey string

const identityKey contextKey = "identity"

// JWTAuth verifies HS256 bearer tokens carrying user_id (or sub) and an optional team_id.
type JWTAuth struct {
	secret []byte
	now    func() time.Time
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{secret: []byte(secret), now: time.Now}
}

// IssueToken signs a token for who that expires after ttl.
func (j *JWTAuth) IssueToken(who app.Identity, ttl time.Duration) (string, error) {
	now := j.now()
	claims := jwt.MapClaims{
		"user_id": who.UserID,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	if who.TeamID != "" {
		claims["team_id"] = who.TeamID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Middleware authenticates the request and attaches the identity to its context.
// Browsers cannot set headers on WebSocket upgrades, so ?token= is accepted too.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResp(api.CodeUnauthorized, "missing authorization token"))
			return
		}
		who, err := j.parse(raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeJSON(w, http.StatusUnauthorized, errorResp("TOKEN_EXPIRED", "token has expired"))
				return
			}
			writeJSON(w, http.StatusUnauthorized, errorResp(api.CodeUnauthorized, "invalid token"))
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, who)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (j *JWTAuth) parse(raw string) (app.Identity, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return app.Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return app.Identity{}, fmt.Errorf("invalid token claims")
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return app.Identity{}, fmt.Errorf("token has no user id")
	}
	teamID, _ := claims["team_id"].(string)
	return app.Identity{UserID: userID, TeamID: teamID}, nil
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// IdentityFromContext returns the participant attached by JWTAuth.Middleware.
func IdentityFromContext(ctx context.Context) (app.Identity, bool) {
	who, ok := ctx.Value(identityKey).(app.Identity)
	return who, ok
}
