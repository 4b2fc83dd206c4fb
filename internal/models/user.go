package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account addressable by its email. There is no password
// column on purpose: sign-in happens exclusively through emailed links.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
