package handlers

import (
	"regexp"
	"strings"

	"wheels-backend/pkg/utils"
)

// Validation mirrors the rules the signup form enforces. Errors are
// collected per field so the client can render them next to the inputs.

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
)

func validateRegister(req *RegisterRequest) []utils.FieldError {
	var errs []utils.FieldError

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.UniversityID = strings.TrimSpace(req.UniversityID)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if len(req.FirstName) < 2 {
		errs = append(errs, utils.FieldError{Field: "first_name", Message: "First name must be at least 2 characters"})
	}
	if len(req.LastName) < 2 {
		errs = append(errs, utils.FieldError{Field: "last_name", Message: "Last name must be at least 2 characters"})
	}
	if req.UniversityID == "" {
		errs = append(errs, utils.FieldError{Field: "university_id", Message: "University ID is required"})
	}
	if !emailPattern.MatchString(req.Email) {
		errs = append(errs, utils.FieldError{Field: "email", Message: "Must be a valid email"})
	}
	if len(req.Password) < 6 {
		errs = append(errs, utils.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if !phonePattern.MatchString(req.Phone) {
		errs = append(errs, utils.FieldError{Field: "phone", Message: "Phone must be 10 digits"})
	}

	return errs
}

func validateLogin(req *LoginRequest) []utils.FieldError {
	var errs []utils.FieldError

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if !emailPattern.MatchString(req.Email) {
		errs = append(errs, utils.FieldError{Field: "email", Message: "Must be a valid email"})
	}
	if req.Password == "" {
		errs = append(errs, utils.FieldError{Field: "password", Message: "Password is required"})
	}

	return errs
}
