// Package auth handles credential verification and bearer-token sessions.
package auth

import (
	"time"

	"github.com/velora-salon/velora-salon/internal/shared"
)

// Account is a login identity bound to one staff member.
type Account struct {
	ID           int64     `json:"id"`
	StaffID      int64     `json:"staff_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the authenticated state stored in Redis under the bearer token.
type Session struct {
	Token     string           `json:"token"`
	Principal shared.Principal `json:"principal"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}
