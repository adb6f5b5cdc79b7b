package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			university_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('passenger', 'driver', 'both')),
			photo_url TEXT NOT NULL DEFAULT '',
			driver_registered BOOLEAN NOT NULL DEFAULT FALSE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create session_tokens table. One row per active session; a row
		// existing is what makes a cryptographically valid token usable
		// (logout deletes the row, not the token).
		`CREATE TABLE IF NOT EXISTS session_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL,
			issued_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create vehicles table. owner_id UNIQUE enforces at most one
		// vehicle per user; plate UNIQUE spans the whole fleet.
		`CREATE TABLE IF NOT EXISTS vehicles (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL UNIQUE,
			plate TEXT NOT NULL UNIQUE,
			make TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL,
			capacity INT NOT NULL CHECK(capacity > 0),
			vehicle_photo_url TEXT NOT NULL,
			insurance_photo_url TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create trips table
		`CREATE TABLE IF NOT EXISTS trips (
			id TEXT PRIMARY KEY,
			driver_id TEXT NOT NULL,
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			route TEXT[] NOT NULL DEFAULT '{}',
			seats_available INT NOT NULL CHECK(seats_available >= 0),
			departure_time TEXT NOT NULL,
			price BIGINT NOT NULL CHECK(price > 0),
			status TEXT NOT NULL CHECK(status IN ('active', 'full', 'completed', 'cancelled')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (driver_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_university_id ON users(university_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_tokens_user_id ON session_tokens(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_tokens_user_token ON session_tokens(user_id, token)`,
		`CREATE INDEX IF NOT EXISTS idx_session_tokens_expires_at ON session_tokens(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_driver_id ON trips(driver_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_status ON trips(status)`,
		`CREATE INDEX IF NOT EXISTS idx_trips_origin ON trips(origin)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
