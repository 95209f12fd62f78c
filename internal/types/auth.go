package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Role is the closed set of user roles.
type Role string

// Roles
const (
	RoleJobSeeker Role = "job_seeker"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// CreateUserRequest represents the request to create a new user with password authentication.
type CreateUserRequest struct {
	Name     string   `json:"name" validate:"required,min=1"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     Role     `json:"role" validate:"required,oneof=job_seeker recruiter"`
	Phone    string   `json:"phone,omitempty"`
	CGPA     *float64 `json:"cgpa,omitempty" validate:"omitempty,gte=0,lte=10"`
	Company  string   `json:"company,omitempty"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User represents a user profile for API responses (avoids import cycle with db package).
type User struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	CGPA        *float64  `json:"cgpa,omitempty"`
	PasswordSet bool      `json:"password_set"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LoginResponse represents the login/register response with user data and authentication token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Validate validates the CreateUserRequest using the validator.
func (r *CreateUserRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
