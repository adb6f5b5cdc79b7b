package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"wheels-backend/internal/auth"
	"wheels-backend/internal/database"
	"wheels-backend/internal/middleware"
	"wheels-backend/internal/models"
	"wheels-backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const pqUniqueViolation = "23505"

// uniqueViolation unwraps a duplicate-key error so callers can word the
// conflict by the constraint that fired.
func uniqueViolation(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	_, ok := uniqueViolation(err)
	return ok
}

type RegisterRequest struct {
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	UniversityID string      `json:"university_id"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Phone        string      `json:"phone"`
	Role         models.Role `json:"role"`
	PhotoURL     string      `json:"photo_url"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionData struct {
	User  models.UserResponse `json:"user"`
	Token string              `json:"token"`
}

// issueSession mints a token and records it in the session registry.
func issueSession(db *sqlx.DB, tokens *auth.TokenManager, user *models.User) (string, error) {
	token, expiresAt, err := tokens.Issue(user)
	if err != nil {
		return "", err
	}
	if err := database.RecordToken(db, user.ID, token, time.Now(), expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

// Register creates a new account and opens its first session.
func Register(db *sqlx.DB, tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if errs := validateRegister(&req); len(errs) > 0 {
			utils.RespondValidationErrors(w, errs)
			return
		}

		// "both" is only reachable via vehicle registration, never at signup.
		role := req.Role
		if role == "" {
			role = models.RolePassenger
		}
		if role != models.RolePassenger && role != models.RoleDriver {
			utils.RespondValidationErrors(w, []utils.FieldError{
				{Field: "role", Message: "Role must be 'passenger' or 'driver'"},
			})
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("❌ Failed to hash password: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register user")
			return
		}

		now := time.Now().Unix()
		user := models.User{
			ID:           uuid.New().String(),
			UniversityID: req.UniversityID,
			Email:        req.Email,
			Password:     string(hashed),
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         role,
			PhotoURL:     req.PhotoURL,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		_, err = db.Exec(`
			INSERT INTO users (id, university_id, email, password, first_name, last_name, phone, role, photo_url, driver_registered, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, TRUE, $10, $11)`,
			user.ID, user.UniversityID, user.Email, user.Password, user.FirstName,
			user.LastName, user.Phone, user.Role, user.PhotoURL, user.CreatedAt, user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				log.Printf("❌ Duplicate registration attempt: %s / %s", req.Email, req.UniversityID)
				utils.RespondError(w, http.StatusConflict, "Email or university ID already registered")
				return
			}
			log.Printf("❌ Database error on register: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register user")
			return
		}

		token, err := issueSession(db, tokens, &user)
		if err != nil {
			log.Printf("❌ Failed to open session: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register user")
			return
		}

		log.Printf("✅ User registered: %s (%s)", user.Email, user.Role)
		utils.RespondSuccess(w, http.StatusCreated, "User registered successfully", sessionData{
			User:  user.ToUserResponse(),
			Token: token,
		})
	}
}

// Login verifies credentials and opens a new session. The failure
// message is identical whether the email is unknown or the password is
// wrong, so accounts cannot be enumerated.
func Login(db *sqlx.DB, tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if errs := validateLogin(&req); len(errs) > 0 {
			utils.RespondValidationErrors(w, errs)
			return
		}

		var user models.User
		err := db.Get(&user, "SELECT * FROM users WHERE email = $1", req.Email)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				log.Printf("❌ Database error on login: %v", err)
				utils.RespondError(w, http.StatusInternalServerError, "Failed to log in")
				return
			}
			utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		if !user.Active {
			utils.RespondError(w, http.StatusForbidden, "Account deactivated. Contact the administrator")
			return
		}

		token, err := issueSession(db, tokens, &user)
		if err != nil {
			log.Printf("❌ Failed to open session: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to log in")
			return
		}

		log.Printf("✅ Login successful: %s (%s)", user.Email, user.Role)
		utils.RespondSuccess(w, http.StatusOK, "Login successful", sessionData{
			User:  user.ToUserResponse(),
			Token: token,
		})
	}
}

// Logout revokes the session token the request was authenticated with.
func Logout(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)
		token, _ := middleware.GetTokenFromContext(r)

		if err := database.RevokeToken(db, user.ID, token); err != nil {
			log.Printf("❌ Failed to revoke token: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to log out")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "Logged out successfully", nil)
	}
}

// LogoutAll revokes every session the user has open.
func LogoutAll(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		if err := database.RevokeAllTokens(db, user.ID); err != nil {
			log.Printf("❌ Failed to revoke tokens: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to log out")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "All sessions closed successfully", nil)
	}
}

// Me returns the caller's own record, hash excluded.
func Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		utils.RespondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"user": user.ToUserResponse(),
		})
	}
}

type driverStatusData struct {
	IsDriverCapable  bool `json:"isDriverCapable"`
	HasVehicle       bool `json:"hasVehicle"`
	DriverRegistered bool `json:"driverRegistered"`
}

// DriverStatus tells the frontend whether to show driver features.
func DriverStatus(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		var hasVehicle bool
		err := db.Get(&hasVehicle,
			"SELECT EXISTS (SELECT 1 FROM vehicles WHERE owner_id = $1)", user.ID)
		if err != nil {
			log.Printf("❌ Vehicle lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to check driver status")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "", driverStatusData{
			IsDriverCapable:  user.Role.DriverCapable(),
			HasVehicle:       hasVehicle,
			DriverRegistered: user.DriverRegistered,
		})
	}
}
