package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"wheels-backend/internal/auth"
	"wheels-backend/internal/models"
	"wheels-backend/pkg/utils"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "university_id", "email", "password", "first_name", "last_name",
	"phone", "role", "photo_url", "driver_registered", "active",
	"created_at", "updated_at",
}

func userRow(id string, role models.Role, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		id, "U2021001", "ana@uni.edu", "$2a$10$hash", "Ana", "Gómez",
		"3001234567", role, "", false, active, int64(1700000000), int64(1700000000),
	)
}

func newAuthFixture(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *auth.TokenManager) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock, auth.NewTokenManager([]byte("test-secret"))
}

func issueFor(t *testing.T, tokens *auth.TokenManager, id string, role models.Role) string {
	t.Helper()
	token, _, err := tokens.Issue(&models.User{ID: id, Email: "ana@uni.edu", Role: role})
	require.NoError(t, err)
	return token
}

func runAuth(db *sqlx.DB, tokens *auth.TokenManager, header string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Auth(db, tokens)(next).ServeHTTP(rec, req)
	return rec
}

func contextWithUser(r *http.Request, u *models.User) context.Context {
	return context.WithValue(r.Context(), UserContextKey, u)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) utils.Response {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestAuthMissingHeader(t *testing.T) {
	db, _, tokens := newAuthFixture(t)

	rec := runAuth(db, tokens, "", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, decodeEnvelope(t, rec).Success)
}

func TestAuthMalformedHeader(t *testing.T) {
	db, _, tokens := newAuthFixture(t)

	for _, header := range []string{"Token abc", "bearer abc", "Bearerabc"} {
		rec := runAuth(db, tokens, header, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatalf("next handler must not run for header %q", header)
		}))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthInvalidToken(t *testing.T) {
	db, _, tokens := newAuthFixture(t)

	rec := runAuth(db, tokens, "Bearer not.a.jwt", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRevokedTokenRejected(t *testing.T) {
	// Cryptographically valid token that is absent from the registry
	// (logged out) must be rejected.
	db, mock, tokens := newAuthFixture(t)
	token := issueFor(t, tokens, "u1", models.RolePassenger)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u1", token).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	rec := runAuth(db, tokens, "Bearer "+token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthDeactivatedAccountForbidden(t *testing.T) {
	// Token passes signature, expiry AND registry membership; the
	// deactivated flag alone must still deny with 403.
	db, mock, tokens := newAuthFixture(t)
	token := issueFor(t, tokens, "u1", models.RoleBoth)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u1", token).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(userRow("u1", models.RoleBoth, false))

	rec := runAuth(db, tokens, "Bearer "+token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthSuccessAttachesUserAndToken(t *testing.T) {
	db, mock, tokens := newAuthFixture(t)
	token := issueFor(t, tokens, "u1", models.RolePassenger)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u1", token).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(userRow("u1", models.RolePassenger, true))

	var sawUser *models.User
	var sawToken string
	rec := runAuth(db, tokens, "Bearer "+token, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUser, _ = GetUserFromContext(r)
		sawToken, _ = GetTokenFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sawUser)
	assert.Equal(t, "u1", sawUser.ID)
	assert.Equal(t, models.RolePassenger, sawUser.Role)
	assert.Equal(t, token, sawToken)
}

func TestRequireRoleMatrix(t *testing.T) {
	tests := []struct {
		name     string
		caller   models.Role
		required models.Role
		wantCode int
	}{
		{"driver gate admits driver", models.RoleDriver, models.RoleDriver, http.StatusOK},
		{"driver gate rejects passenger", models.RolePassenger, models.RoleDriver, http.StatusForbidden},
		{"driver gate admits both", models.RoleBoth, models.RoleDriver, http.StatusOK},
		{"passenger gate admits both", models.RoleBoth, models.RolePassenger, http.StatusOK},
		{"passenger gate rejects driver", models.RoleDriver, models.RolePassenger, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/vehicles/my-vehicle", nil)
			req = req.WithContext(contextWithUser(req, &models.User{ID: "u1", Role: tt.caller, Active: true}))
			rec := httptest.NewRecorder()

			RequireRole(tt.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRequireRoleWithoutAuthContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/vehicles/my-vehicle", nil)
	rec := httptest.NewRecorder()

	RequireRole(models.RoleDriver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
