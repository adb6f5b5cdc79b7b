package models

import "github.com/lib/pq"

// Trip statuses. "full" is derived when available seats reach zero.
const (
	TripStatusActive    = "active"
	TripStatusFull      = "full"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

type Trip struct {
	ID             string         `json:"id" db:"id"`
	DriverID       string         `json:"driver_id" db:"driver_id"`
	Origin         string         `json:"origin" db:"origin"`
	Destination    string         `json:"destination" db:"destination"`
	Route          pq.StringArray `json:"route" db:"route"` // ordered stops, origin first
	SeatsAvailable int            `json:"seats_available" db:"seats_available"`
	DepartureTime  string         `json:"departure_time" db:"departure_time"`
	Price          int64          `json:"price" db:"price"` // per passenger, in COP
	Status         string         `json:"status" db:"status"`
	CreatedAt      int64          `json:"created_at" db:"created_at"`
	UpdatedAt      int64          `json:"updated_at" db:"updated_at"`
}

// TripWithDriver is the listing row the passenger dashboard renders:
// the trip plus a summary of the driver offering it.
type TripWithDriver struct {
	Trip
	DriverFirstName string `json:"driver_first_name" db:"driver_first_name"`
	DriverLastName  string `json:"driver_last_name" db:"driver_last_name"`
	DriverPhone     string `json:"driver_phone" db:"driver_phone"`
	DriverPhotoURL  string `json:"driver_photo_url" db:"driver_photo_url"`
}
