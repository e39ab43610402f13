package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession is a login audit record capturing the device a user signed in from
type UserSession struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	Browser   string    `json:"browser" db:"browser"`
	OS        string    `json:"os" db:"os"`
	IsMobile  bool      `json:"is_mobile" db:"is_mobile"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
