package models

// Role is the closed set of account roles. "both" is never chosen at
// signup; it is reached only through the vehicle-registration transition
// (a passenger registers a vehicle and becomes driver-capable).
type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
	RoleBoth      Role = "both"
)

// Valid reports whether r is one of the known role variants.
func (r Role) Valid() bool {
	switch r {
	case RolePassenger, RoleDriver, RoleBoth:
		return true
	}
	return false
}

// Satisfies reports whether a caller holding role r passes a gate that
// requires the given role. "both" satisfies every single-role gate.
func (r Role) Satisfies(required Role) bool {
	return r == required || r == RoleBoth
}

// DriverCapable reports whether the role allows driver-only actions.
func (r Role) DriverCapable() bool {
	return r == RoleDriver || r == RoleBoth
}

type User struct {
	ID               string `json:"id" db:"id"`
	UniversityID     string `json:"university_id" db:"university_id"`
	Email            string `json:"email" db:"email"`
	Password         string `json:"-" db:"password"` // Never return password hash in JSON
	FirstName        string `json:"first_name" db:"first_name"`
	LastName         string `json:"last_name" db:"last_name"`
	Phone            string `json:"phone" db:"phone"`
	Role             Role   `json:"role" db:"role"`
	PhotoURL         string `json:"photo_url" db:"photo_url"`
	DriverRegistered bool   `json:"driver_registered" db:"driver_registered"`
	Active           bool   `json:"active" db:"active"`
	CreatedAt        int64  `json:"created_at" db:"created_at"`
	UpdatedAt        int64  `json:"updated_at" db:"updated_at"`
}

type UserResponse struct {
	ID               string `json:"id"`
	UniversityID     string `json:"university_id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	Role             Role   `json:"role"`
	PhotoURL         string `json:"photo_url"`
	DriverRegistered bool   `json:"driver_registered"`
	Active           bool   `json:"active"`
	CreatedAt        int64  `json:"created_at"`
}

func (u *User) ToUserResponse() UserResponse {
	return UserResponse{
		ID:               u.ID,
		UniversityID:     u.UniversityID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Phone:            u.Phone,
		Role:             u.Role,
		PhotoURL:         u.PhotoURL,
		DriverRegistered: u.DriverRegistered,
		Active:           u.Active,
		CreatedAt:        u.CreatedAt,
	}
}
