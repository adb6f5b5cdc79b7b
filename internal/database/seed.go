package database

import (
	"log"
	"time"

	"wheels-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// SeedDemoData inserts a handful of demo accounts and trips for local
// development. Skips entirely if any user already exists.
func SeedDemoData(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already present, skipping demo seed...")
		return nil
	}

	log.Println("🌱 Seeding demo users and trips...")

	now := time.Now().Unix()

	type demoUser struct {
		universityID string
		email        string
		firstName    string
		lastName     string
		phone        string
		role         models.Role
	}

	users := []demoUser{
		{"U2021001", "ana.gomez@uni.edu", "Ana", "Gómez", "3001234567", models.RolePassenger},
		{"U2020042", "carlos.ruiz@uni.edu", "Carlos", "Ruiz", "3017654321", models.RoleDriver},
		{"U2019107", "maria.lopez@uni.edu", "María", "López", "3029876543", models.RoleBoth},
	}

	ids := make(map[string]string)
	for _, u := range users {
		hashed, err := bcrypt.GenerateFromPassword([]byte("wheels123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		id := uuid.New().String()
		ids[u.email] = id

		_, err = db.Exec(`
			INSERT INTO users (id, university_id, email, password, first_name, last_name, phone, role, driver_registered, active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10, $10)`,
			id, u.universityID, u.email, string(hashed), u.firstName, u.lastName,
			u.phone, u.role, u.role.DriverCapable(), now,
		)
		if err != nil {
			return err
		}
	}

	// One registered vehicle and a couple of listings for the demo driver.
	driverID := ids["carlos.ruiz@uni.edu"]
	_, err := db.Exec(`
		INSERT INTO vehicles (id, owner_id, plate, make, model, capacity, vehicle_photo_url, insurance_photo_url, created_at, updated_at)
		VALUES ($1, $2, 'DEM123', 'Mazda', '3 Touring', 4, '', '', $3, $3)`,
		uuid.New().String(), driverID, now,
	)
	if err != nil {
		return err
	}

	trips := []struct {
		origin, destination, departure string
		seats                          int
		price                          int64
	}{
		{"Portal Norte", "Campus Principal", "06:30", 3, 6000},
		{"Campus Principal", "Portal Norte", "17:45", 4, 6000},
	}

	for _, tr := range trips {
		_, err := db.Exec(`
			INSERT INTO trips (id, driver_id, origin, destination, route, seats_available, departure_time, price, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active', $9, $9)`,
			uuid.New().String(), driverID, tr.origin, tr.destination,
			pq.StringArray{tr.origin, tr.destination}, tr.seats, tr.departure, tr.price, now,
		)
		if err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d demo users, 1 vehicle, %d trips", len(users), len(trips))
	return nil
}
