package models

// Vehicle is the single vehicle a driver-capable user may register.
// owner_id and plate are both UNIQUE: at most one vehicle per user, and
// a plate can belong to only one vehicle across the whole fleet.
type Vehicle struct {
	ID                string `json:"id" db:"id"`
	OwnerID           string `json:"owner_id" db:"owner_id"`
	Plate             string `json:"plate" db:"plate"`
	Make              string `json:"make" db:"make"`
	Model             string `json:"model" db:"model"`
	Capacity          int    `json:"capacity" db:"capacity"`
	VehiclePhotoURL   string `json:"vehicle_photo_url" db:"vehicle_photo_url"`
	InsurancePhotoURL string `json:"insurance_photo_url" db:"insurance_photo_url"`
	CreatedAt         int64  `json:"created_at" db:"created_at"`
	UpdatedAt         int64  `json:"updated_at" db:"updated_at"`
}
