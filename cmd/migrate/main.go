package main

import (
	"fmt"
	"log"
	"os"

	"wheels-backend/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// Connect to database
	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	// Run schema migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully!")

	// Query and display summary
	var result struct {
		TotalUsers    int `db:"total_users"`
		ActiveUsers   int `db:"active_users"`
		DriverCapable int `db:"driver_capable"`
		TotalVehicles int `db:"total_vehicles"`
		ActiveTrips   int `db:"active_trips"`
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE active = TRUE) AS active_users,
			(SELECT COUNT(*) FROM users WHERE role IN ('driver', 'both')) AS driver_capable,
			(SELECT COUNT(*) FROM vehicles) AS total_vehicles,
			(SELECT COUNT(*) FROM trips WHERE status = 'active') AS active_trips
	`

	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	// Display results
	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Total users:             %d\n", result.TotalUsers)
	fmt.Printf("Active users:            %d\n", result.ActiveUsers)
	fmt.Printf("Driver-capable users:    %d\n", result.DriverCapable)
	fmt.Printf("Total vehicles:          %d\n", result.TotalVehicles)
	fmt.Printf("Active trips:            %d\n", result.ActiveTrips)
	fmt.Println("============================================================")
}
