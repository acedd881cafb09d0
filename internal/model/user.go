package model

import "time"

// Roles understood by the API.  Drivers book and pay for sessions;
// operators manage the station catalog.
const (
    RoleDriver   = "DRIVER"
    RoleOperator = "OPERATOR"
)

// User mirrors the 'users' table.
type User struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    IsActive     bool      `json:"is_active"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}
