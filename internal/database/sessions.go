package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Session registry: the per-user set of active tokens. A token is only
// honored while its row exists, so logout works without a blacklist.
// The set grows by one row per login and shrinks only on revoke; there
// is no cap on live sessions (matching the original behavior), but rows
// whose tokens have already expired are swept on the owner's next login
// since they can never verify again.

func RecordToken(db *sqlx.DB, userID, token string, issuedAt, expiresAt time.Time) error {
	if _, err := db.Exec(
		`DELETE FROM session_tokens WHERE user_id = $1 AND expires_at < $2`,
		userID, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to sweep expired sessions: %w", err)
	}

	if _, err := db.Exec(
		`INSERT INTO session_tokens (user_id, token, issued_at, expires_at) VALUES ($1, $2, $3, $4)`,
		userID, token, issuedAt.Unix(), expiresAt.Unix(),
	); err != nil {
		return fmt.Errorf("failed to record session token: %w", err)
	}
	return nil
}

// RevokeToken removes exactly one matching row. Revoking a token that is
// not in the registry is a no-op success.
func RevokeToken(db *sqlx.DB, userID, token string) error {
	_, err := db.Exec(
		`DELETE FROM session_tokens WHERE id = (
			SELECT id FROM session_tokens WHERE user_id = $1 AND token = $2 LIMIT 1
		)`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}
	return nil
}

// RevokeAllTokens implements "log out everywhere".
func RevokeAllTokens(db *sqlx.DB, userID string) error {
	_, err := db.Exec(`DELETE FROM session_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke session tokens: %w", err)
	}
	return nil
}

// IsTokenActive is the registry membership check run on every
// authenticated request.
func IsTokenActive(db *sqlx.DB, userID, token string) (bool, error) {
	var active bool
	err := db.Get(&active,
		`SELECT EXISTS (SELECT 1 FROM session_tokens WHERE user_id = $1 AND token = $2)`,
		userID, token,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check session token: %w", err)
	}
	return active, nil
}
