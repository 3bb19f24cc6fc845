package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	IsGuest      bool      `gorm:"not null;default:false" json:"is_guest"`
	AvatarURL    string    `gorm:"size:500" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
