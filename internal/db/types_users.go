package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/hirezaa/internal/types"
)

// User represents a user profile
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Role         types.Role `json:"role"`
	Company      string     `json:"company,omitempty"`
	CGPA         *float64   `json:"cgpa,omitempty"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never serialize to JSON
	PasswordSet  bool       `json:"password_set" db:"password_set"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToAPI converts the row into the API representation without the hash.
func (u *User) ToAPI() *types.User {
	return &types.User{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Phone:       u.Phone,
		Company:     u.Company,
		CGPA:        u.CGPA,
		PasswordSet: u.PasswordSet,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewUser holds the fields needed to insert a user.
type NewUser struct {
	Name         string
	Email        string
	Phone        string
	Role         types.Role
	Company      string
	CGPA         *float64
	PasswordHash string
}

// StringArray handles JSONB string arrays
type StringArray []string

// Scan implements the Scanner interface for StringArray
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = []string{}
		return nil
	}
	source, ok := src.([]byte)
	if !ok {
		return errors.New("type assertion .([]byte) failed")
	}
	return json.Unmarshal(source, a)
}

// Value implements the Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}
