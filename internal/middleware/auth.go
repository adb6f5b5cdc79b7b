package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"

	"wheels-backend/internal/auth"
	"wheels-backend/internal/database"
	"wheels-backend/internal/models"
	"wheels-backend/pkg/utils"

	"github.com/jmoiron/sqlx"
)

type contextKey string

const (
	UserContextKey  contextKey = "user"
	TokenContextKey contextKey = "token"
)

// Auth runs the full authenticated-request pipeline. Each stage
// short-circuits: bearer extraction, signature/expiry verification,
// session registry membership, account-active check. The resolved user
// record and the presented token are attached to the request context.
//
// Registry membership is checked after cryptographic verification on
// purpose: a token that verifies but was logged out must be rejected.
func Auth(db *sqlx.DB, tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondError(w, http.StatusUnauthorized, "Authorization token missing")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			active, err := database.IsTokenActive(db, claims.UserID, tokenString)
			if err != nil {
				log.Printf("❌ Session registry check failed: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !active {
				// Covers logout-then-reuse: cryptographically valid but revoked.
				utils.RespondError(w, http.StatusUnauthorized, "Session expired or revoked")
				return
			}

			var user models.User
			if err := db.Get(&user, "SELECT * FROM users WHERE id = $1", claims.UserID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					utils.RespondError(w, http.StatusUnauthorized, "Session expired or revoked")
					return
				}
				log.Printf("❌ User lookup failed: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			if !user.Active {
				utils.RespondError(w, http.StatusForbidden, "Account deactivated. Contact the administrator")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, &user)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates an endpoint by role (must be used after Auth). A
// caller whose role is "both" passes every single-role gate; that is the
// deliberate escalation rule, encoded in Role.Satisfies rather than
// string comparison.
func RequireRole(required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r)
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "Authorization token missing")
				return
			}

			if !user.Role.Satisfies(required) {
				utils.RespondError(w, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext extracts the resolved user from the request context.
func GetUserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}

// GetTokenFromContext extracts the presented session token (needed by
// logout, which revokes exactly the token it was called with).
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(TokenContextKey).(string)
	return token, ok
}
