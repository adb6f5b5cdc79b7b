package main

import (
	"log"
	"net/http"
	"os"

	"wheels-backend/internal/auth"
	"wheels-backend/internal/database"
	"wheels-backend/internal/handlers"
	"wheels-backend/internal/middleware"
	"wheels-backend/internal/models"
	"wheels-backend/internal/services"
	"wheels-backend/internal/websocket"
	"wheels-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚗 WHEELS BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log.Printf("✅ Environment: %s", env)

	// Get database URL
	log.Println("🔍 Checking DATABASE_URL environment variable...")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: DATABASE_URL environment variable is required")
		log.Println("   Please set DATABASE_URL in your deployment variables or .env file")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal("DATABASE_URL environment variable is required")
	}
	log.Println("✅ DATABASE_URL found")

	// JWT secret is mandatory; refusing to boot beats silently signing with ""
	secret := os.Getenv("APP_JWT_SECRET")
	if secret == "" {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: APP_JWT_SECRET environment variable is required")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal("APP_JWT_SECRET environment variable is required")
	}
	tokens := auth.NewTokenManager([]byte(secret))
	log.Println("✅ Token manager initialized")

	// Connect to database
	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(dbURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("   This is usually caused by:")
		log.Println("   1. Wrong DATABASE_URL format")
		log.Println("   2. PostgreSQL service is down")
		log.Println("   3. Network connectivity issue")
		log.Println("   4. Invalid credentials")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()
	log.Println("✅ Database connection established")

	// Run migrations
	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database migrations failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("✅ Database migrations completed")

	// Seed demo data (opt-in, for local development)
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		log.Println("🌱 Seeding database with demo data...")
		if err := database.SeedDemoData(db); err != nil {
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Println("❌ FATAL ERROR: Demo data seeding failed")
			log.Printf("   Error: %v", err)
			log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Fatal(err)
		}
		log.Println("✅ Demo data seeded successfully")
	}

	// Initialize Cloudinary for vehicle photo uploads
	var uploads handlers.ImageUploader
	cloudinaryURL := os.Getenv("CLOUDINARY_URL")
	if cloudinaryURL != "" {
		cld, err := services.NewCloudinaryService(cloudinaryURL)
		if err != nil {
			log.Printf("⚠️  Failed to initialize Cloudinary: %v (vehicle registration disabled)", err)
		} else {
			uploads = cld
			log.Println("✅ Cloudinary initialized")
		}
	} else {
		log.Println("⚠️  CLOUDINARY_URL not set (vehicle registration disabled)")
	}

	// Initialize WebSocket hub for the live trip board
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recover(env))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondSuccess(w, http.StatusOK, "Wheels API is running", nil)
	})

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleTripBoard(wsHub, db, tokens))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", handlers.Register(db, tokens))
		r.Post("/auth/login", handlers.Login(db, tokens))

		// Public vehicle lookup (shown on trip cards)
		r.Get("/vehicles/driver/{driverId}", handlers.VehicleByDriver(db))

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(db, tokens))

			r.Post("/auth/logout", handlers.Logout(db))
			r.Post("/auth/logout-all", handlers.LogoutAll(db))
			r.Get("/auth/me", handlers.Me())
			r.Get("/auth/driver-status", handlers.DriverStatus(db))

			// Any signed-in user may register a vehicle; doing so promotes
			// passengers to the combined role.
			r.Post("/vehicles", handlers.RegisterVehicle(db, uploads))

			r.Get("/trips", handlers.ListTrips(db))

			// Driver-gated endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleDriver))

				r.Get("/vehicles/my-vehicle", handlers.MyVehicle(db))
				r.Delete("/vehicles", handlers.DeleteVehicle(db))

				r.Get("/trips/my-trips", handlers.MyTrips(db))
				r.Post("/trips", handlers.CreateTrip(db, wsHub))
				r.Patch("/trips/{id}", handlers.UpdateTrip(db, wsHub))
				r.Delete("/trips/{id}", handlers.DeleteTrip(db, wsHub))
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusNotFound, "Route not found")
	})

	// Get port
	log.Println("🔍 Checking PORT environment variable...")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	} else {
		log.Printf("✅ PORT found: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚗 Server starting on http://localhost:%s", port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Start server
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Server failed to start")
		log.Printf("   Error: %v", err)
		log.Printf("   Port: %s", port)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
}
