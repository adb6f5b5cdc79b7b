package handlers

import (
	"context"
	"database/sql"
	"errors"
	"io"
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
)

const maxUploadBytes = 10 << 20 // per multipart request

// ImageUploader is the collaborator interface vehicle registration
// uses to store photos; injected at construction so handlers never
// resolve it lazily.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder string) (string, error)
}

// RegisterVehicle creates or wholesale-replaces the caller's vehicle
// (upsert keyed by owner). Registering a vehicle is the one transition
// that makes a passenger driver-capable.
func RegisterVehicle(db *sqlx.DB, uploads ImageUploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		if uploads == nil {
			utils.RespondError(w, http.StatusServiceUnavailable, "Image uploads are not available right now")
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}

		plate := strings.ToUpper(strings.TrimSpace(r.FormValue("plate")))
		vehicleMake := strings.TrimSpace(r.FormValue("make"))
		model := strings.TrimSpace(r.FormValue("model"))
		capacity, capErr := strconv.Atoi(r.FormValue("capacity"))

		var errs []utils.FieldError
		if plate == "" {
			errs = append(errs, utils.FieldError{Field: "plate", Message: "Plate is required"})
		}
		if model == "" {
			errs = append(errs, utils.FieldError{Field: "model", Message: "Model is required"})
		}
		if capErr != nil || capacity < 1 || capacity > 8 {
			errs = append(errs, utils.FieldError{Field: "capacity", Message: "Capacity must be between 1 and 8"})
		}
		if len(errs) > 0 {
			utils.RespondValidationErrors(w, errs)
			return
		}

		vehicleFile, _, err := r.FormFile("vehiclePhoto")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Vehicle photo and insurance photo are required")
			return
		}
		defer vehicleFile.Close()

		insuranceFile, _, err := r.FormFile("insurancePhoto")
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Vehicle photo and insurance photo are required")
			return
		}
		defer insuranceFile.Close()

		vehiclePhotoURL, err := uploads.UploadImage(r.Context(), vehicleFile, "wheels/vehicles")
		if err != nil {
			log.Printf("❌ Vehicle photo upload failed: %v", err)
			utils.RespondError(w, http.StatusBadGateway, "Failed to upload images")
			return
		}
		insurancePhotoURL, err := uploads.UploadImage(r.Context(), insuranceFile, "wheels/insurance")
		if err != nil {
			log.Printf("❌ Insurance photo upload failed: %v", err)
			utils.RespondError(w, http.StatusBadGateway, "Failed to upload images")
			return
		}

		now := time.Now().Unix()

		var existing models.Vehicle
		err = db.Get(&existing, "SELECT * FROM vehicles WHERE owner_id = $1", user.ID)
		isUpdate := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			log.Printf("❌ Vehicle lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register vehicle")
			return
		}

		vehicle := models.Vehicle{
			ID:                uuid.New().String(),
			OwnerID:           user.ID,
			Plate:             plate,
			Make:              vehicleMake,
			Model:             model,
			Capacity:          capacity,
			VehiclePhotoURL:   vehiclePhotoURL,
			InsurancePhotoURL: insurancePhotoURL,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if isUpdate {
			vehicle.ID = existing.ID
			vehicle.CreatedAt = existing.CreatedAt
			_, err = db.Exec(`
				UPDATE vehicles SET plate = $1, make = $2, model = $3, capacity = $4,
					vehicle_photo_url = $5, insurance_photo_url = $6, updated_at = $7
				WHERE owner_id = $8`,
				vehicle.Plate, vehicle.Make, vehicle.Model, vehicle.Capacity,
				vehicle.VehiclePhotoURL, vehicle.InsurancePhotoURL, now, user.ID,
			)
		} else {
			_, err = db.Exec(`
				INSERT INTO vehicles (id, owner_id, plate, make, model, capacity, vehicle_photo_url, insurance_photo_url, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				vehicle.ID, vehicle.OwnerID, vehicle.Plate, vehicle.Make, vehicle.Model,
				vehicle.Capacity, vehicle.VehiclePhotoURL, vehicle.InsurancePhotoURL,
				vehicle.CreatedAt, vehicle.UpdatedAt,
			)
		}
		if err != nil {
			if pqErr, ok := uniqueViolation(err); ok {
				// Two constraints can fire here: the fleet-wide plate, or
				// owner_id when two first-time registrations race.
				message := "Vehicle plate already registered"
				if strings.Contains(pqErr.Constraint, "owner_id") {
					message = "You already have a registered vehicle"
				}
				utils.RespondError(w, http.StatusConflict, message)
				return
			}
			log.Printf("❌ Database error on vehicle upsert: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register vehicle")
			return
		}

		// Role re-derivation: a passenger who registers a vehicle becomes
		// "both". Convergent under races: concurrent registrations write
		// the same value.
		_, err = db.Exec(`
			UPDATE users SET
				role = CASE WHEN role = 'passenger' THEN 'both' ELSE role END,
				driver_registered = TRUE,
				updated_at = $1
			WHERE id = $2`,
			now, user.ID,
		)
		if err != nil {
			log.Printf("❌ Failed to update owner role: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to register vehicle")
			return
		}

		status := http.StatusCreated
		message := "Vehicle registered successfully"
		if isUpdate {
			status = http.StatusOK
			message = "Vehicle updated successfully"
		}

		log.Printf("✅ Vehicle %s for %s: plate %s", map[bool]string{true: "updated", false: "registered"}[isUpdate], user.Email, plate)
		utils.RespondSuccess(w, status, message, map[string]interface{}{
			"vehicle": vehicle,
		})
	}
}

// MyVehicle returns the caller's own vehicle.
func MyVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		var vehicle models.Vehicle
		err := db.Get(&vehicle, "SELECT * FROM vehicles WHERE owner_id = $1", user.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusNotFound, "You have no registered vehicle")
				return
			}
			log.Printf("❌ Vehicle lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch vehicle")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"vehicle": vehicle,
		})
	}
}

// VehicleByDriver is the public lookup the rider dashboard uses when
// showing a trip's vehicle.
func VehicleByDriver(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := chi.URLParam(r, "driverId")

		var vehicle models.Vehicle
		err := db.Get(&vehicle, "SELECT * FROM vehicles WHERE owner_id = $1", driverID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondError(w, http.StatusNotFound, "This driver has no registered vehicle")
				return
			}
			log.Printf("❌ Vehicle lookup failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch vehicle")
			return
		}

		utils.RespondSuccess(w, http.StatusOK, "", map[string]interface{}{
			"vehicle": vehicle,
		})
	}
}

// DeleteVehicle removes the caller's vehicle.
func DeleteVehicle(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := middleware.GetUserFromContext(r)

		res, err := db.Exec("DELETE FROM vehicles WHERE owner_id = $1", user.ID)
		if err != nil {
			log.Printf("❌ Vehicle delete failed: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to delete vehicle")
			return
		}

		if n, _ := res.RowsAffected(); n == 0 {
			utils.RespondError(w, http.StatusNotFound, "You have no registered vehicle")
			return
		}

		log.Printf("✅ Vehicle deleted for %s", user.Email)
		utils.RespondSuccess(w, http.StatusOK, "Vehicle deleted successfully", nil)
	}
}
