package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an authentication identity. The gym's first admin is created
// pre-confirmed during provisioning with the gym id attached as metadata.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email          string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash   string `gorm:"size:255;not null" json:"-"`
	FullName       string `gorm:"size:255" json:"full_name"`
	GymID          string `gorm:"type:uuid;index" json:"gym_id"`
	EmailConfirmed bool   `gorm:"default:false" json:"email_confirmed"`
	Active         bool   `gorm:"default:true" json:"active"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
