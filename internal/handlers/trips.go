package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wheels-backend/internal/middleware"
	"wheels-backend/internal/models"
	"wheels-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TripBroadcaster pushes trip-board events to connected dashboards.
// Nil is tolerated (broadcasting disabled).
type TripBroadcaster interface {
	BroadcastTripEvent(eventType string, trip interface{})
}

func broadcastTrip(hub TripBroadcaster, eventType string, trip interface{}) {
	if hub != nil {
		hub.BroadcastTripEvent(eventType, trip)
	}
}

// ListTrips enumerates open listings for the rider dashboard, with
// optional origin substring and minimum-seats filters. Full trips are
// included (the dashboard renders them greyed out); completed and
// cancelled ones are not.
func ListTrips(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := `
			SELECT t.*,
				u.first_name AS driver_first_name,
				u.last_name AS driver_last_name,
				u.phone AS driver_phone,
				u.photo_url AS driver_photo_url
			FROM trips t
			JOIN users u ON u.id = t.driver_id
			WHERE t.status IN ('active', 'full')`
		args := []interface{}{}

		if origin := strings.TrimSpace(r.URL.Query().Get("origin")); origin != "" {
			args = append(args, "%"+origin+"%")
			query += " AND t.origin ILIKE $" + strconv.Itoa(len(args))
		}
		if seatsParam := r.URL.Query().Get("seats"); seatsParam != "" {
			seats, err := strconv.Atoi(seatsParam)
			if err != nil || seats < 1 {
				utils.RespondValidationErrors(w, []utils.FieldError{
					{Field: "seats", Message: "Seats filter must be a positive number"},
				})
				return
			}
			args = append(args, seats)
			query += " AND t.seats_available >= $" + strconv.Itoa(len(args))
		}

		query += " ORDER BY t.departure_time, t.created_at"

		trips := []models.TripWithDriver{}
		if err := db.Select(&trips, query, args...); err != nil {
			log.Printf("❌ Trip listing failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch trips")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"trips": trips,
		})
	}
}

// MyTrips returns the caller's own listings, all statuses.
func MyTrips(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		trips := []models.Trip{}
		err := db.Select(&trips,
			"SELECT * FROM trips WHERE driver_id = $1 ORDER BY created_at DESC", user.ID)
		if err != nil {
			log.Printf("❌ Trip listing failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch trips")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"trips": trips,
		})
	}
}

type CreateTripRequest struct {
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	Route          []string `json:"route"`
	SeatsAvailable int      `json:"seats_available"`
	DepartureTime  string   `json:"departure_time"`
	Price          int64    `json:"price"`
}

// CreateTrip publishes a listing. The driver must have a registered
// vehicle, and cannot offer more seats than it holds.
func CreateTrip(db *sqlx.DB, hub TripBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		var req CreateTripRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Origin = strings.TrimSpace(req.Origin)
		req.Destination = strings.TrimSpace(req.Destination)

		var errs []utils.FieldError
		if req.Origin == "" {
			errs = append(errs, utils.FieldError{Field: "origin", Message: "Origin is required"})
		}
		if req.Destination == "" {
			errs = append(errs, utils.FieldError{Field: "destination", Message: "Destination is required"})
		}
		if req.DepartureTime == "" {
			errs = append(errs, utils.FieldError{Field: "departure_time", Message: "Departure time is required"})
		}
		if req.SeatsAvailable < 1 {
			errs = append(errs, utils.FieldError{Field: "seats_available", Message: "Seats must be at least 1"})
		}
		if req.Price <= 0 {
			errs = append(errs, utils.FieldError{Field: "price", Message: "Price must be greater than 0"})
		}
		if len(errs) > 0 {
			utils.RespondValidationErrors(w, errs)
			return
		}

		var vehicle models.Vehicle
		err := db.Get(&vehicle, "SELECT * FROM vehicles WHERE owner_id = $1", user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusBadRequest, "You must register a vehicle before publishing trips")
				return
			}
			log.Printf("❌ Vehicle lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to publish trip")
			return
		}

		if req.SeatsAvailable > vehicle.Capacity {
			utils.RespondValidationErrors(w, []utils.FieldError{
				{Field: "seats_available", Message: "Seats offered exceed vehicle capacity"},
			})
			return
		}

		route := req.Route
		if len(route) < 2 {
			route = []string{req.Origin, req.Destination}
		}

		now := time.Now().Unix()
		trip := models.Trip{
			ID:             uuid.New().String(),
			DriverID:       user.ID,
			Origin:         req.Origin,
			Destination:    req.Destination,
			Route:          pq.StringArray(route),
			SeatsAvailable: req.SeatsAvailable,
			DepartureTime:  req.DepartureTime,
			Price:          req.Price,
			Status:         models.TripStatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		_, err = db.Exec(`
			INSERT INTO trips (id, driver_id, origin, destination, route, seats_available, departure_time, price, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			trip.ID, trip.DriverID, trip.Origin, trip.Destination, trip.Route,
			trip.SeatsAvailable, trip.DepartureTime, trip.Price, trip.Status,
			trip.CreatedAt, trip.UpdatedAt,
		)
		if err != nil {
			log.Printf("❌ Database error on trip insert: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to publish trip")
			return
		}

		broadcastTrip(hub, "trip_created", trip)
		log.Printf("✅ Trip published by %s: %s → %s", user.Email, trip.Origin, trip.Destination)
		utils.RespondSuccess(w, http.StatusCreated, "Trip published successfully", map[string]interface{}{
			"trip": trip,
		})
	}
}

type UpdateTripRequest struct {
	SeatsAvailable *int    `json:"seats_available"`
	DepartureTime  *string `json:"departure_time"`
	Price          *int64  `json:"price"`
	Status         *string `json:"status"`
}

// UpdateTrip patches a listing the caller owns. Seats reaching zero
// derives status "full"; seats coming back while "full" re-activates.
func UpdateTrip(db *sqlx.DB, hub TripBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)
		tripID := chi.URLParam(r, "id")

		var req UpdateTripRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		var trip models.Trip
		err := db.Get(&trip, "SELECT * FROM trips WHERE id = $1", tripID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusNotFound, "Trip not found")
				return
			}
			log.Printf("❌ Trip lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update trip")
			return
		}

		if trip.DriverID != user.ID {
			utils.RespondError(w, http.StatusForbidden, "You can only modify your own trips")
			return
		}

		if req.SeatsAvailable != nil {
			if *req.SeatsAvailable < 0 {
				utils.RespondValidationErrors(w, []utils.FieldError{
					{Field: "seats_available", Message: "Seats cannot be negative"},
				})
				return
			}
			trip.SeatsAvailable = *req.SeatsAvailable
			if trip.SeatsAvailable == 0 {
				trip.Status = models.TripStatusFull
			} else if trip.Status == models.TripStatusFull {
				trip.Status = models.TripStatusActive
			}
		}
		if req.DepartureTime != nil {
			trip.DepartureTime = *req.DepartureTime
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				utils.RespondValidationErrors(w, []utils.FieldError{
					{Field: "price", Message: "Price must be greater than 0"},
				})
				return
			}
			trip.Price = *req.Price
		}
		if req.Status != nil {
			switch *req.Status {
			case models.TripStatusActive, models.TripStatusFull,
				models.TripStatusCompleted, models.TripStatusCancelled:
				trip.Status = *req.Status
			default:
				utils.RespondValidationErrors(w, []utils.FieldError{
					{Field: "status", Message: "Unknown trip status"},
				})
				return
			}
		}

		trip.UpdatedAt = time.Now().Unix()
		_, err = db.Exec(`
			UPDATE trips SET seats_available = $1, departure_time = $2, price = $3, status = $4, updated_at = $5
			WHERE id = $6`,
			trip.SeatsAvailable, trip.DepartureTime, trip.Price, trip.Status,
			trip.UpdatedAt, trip.ID,
		)
		if err != nil {
			log.Printf("❌ Database error on trip update: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to update trip")
			return
		}

		broadcastTrip(hub, "trip_updated", trip)
		utils.RespondSuccess(w, http.StatusOK, "Trip updated successfully", map[string]interface{}{
			"trip": trip,
		})
	}
}

// DeleteTrip removes a listing the caller owns.
func DeleteTrip(db *sqlx.DB, hub TripBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)
		tripID := chi.URLParam(r, "id")

		var trip models.Trip
		err := db.Get(&trip, "SELECT * FROM trips WHERE id = $1", tripID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusNotFound, "Trip not found")
				return
			}
			log.Printf("❌ Trip lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete trip")
			return
		}

		if trip.DriverID != user.ID {
			utils.RespondError(w, http.StatusForbidden, "You can only modify your own trips")
			return
		}

		if _, err := db.Exec("DELETE FROM trips WHERE id = $1", trip.ID); err != nil {
			log.Printf("❌ Database error on trip delete: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete trip")
			return
		}

		broadcastTrip(hub, "trip_deleted", trip)
		utils.RespondSuccess(w, http.StatusOK, "Trip deleted successfully", nil)
	}
}
