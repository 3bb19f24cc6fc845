package models

import "time"

type Room struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	Name               string `gorm:"size:255;not null" json:"name"`
	IsGameOver         bool   `gorm:"not null;default:false" json:"is_game_over"`
	AutoCompleteVoting bool   `gorm:"not null;default:false" json:"auto_complete_voting"`

	CurrentIssueID *uint `gorm:"index" json:"current_issue_id,omitempty"`

	// Auto-reveal countdown state. ScheduledJobID is set only while the
	// countdown is running; both fields are cleared together.
	AutoRevealCountdownStartedAt *time.Time `json:"auto_reveal_countdown_started_at,omitempty"`
	AutoRevealScheduledID        *string    `gorm:"size:36" json:"-"`

	// Ownership and permissions. OwnerID is nullable: legacy rooms have no
	// owner and are never locked down. Nil permission columns mean "everyone".
	OwnerID            *uint   `gorm:"index" json:"owner_id,omitempty"`
	PermRevealCards    *string `gorm:"size:20" json:"-"`
	PermGameFlow       *string `gorm:"size:20" json:"-"`
	PermIssueManage    *string `gorm:"size:20" json:"-"`
	PermRoomSettings   *string `gorm:"size:20" json:"-"`

	ScaleType      string `gorm:"size:20;not null;default:'fibonacci'" json:"scale_type"`
	ScaleCards     string `gorm:"size:500;not null" json:"-"`
	ScaleIsNumeric bool   `gorm:"not null;default:true" json:"scale_is_numeric"`

	NextIssueNumber int       `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	LastActivityAt  time.Time `gorm:"index" json:"last_activity_at"`

	Memberships []Membership `gorm:"foreignKey:RoomID" json:"memberships,omitempty"`
	Issues      []Issue      `gorm:"foreignKey:RoomID" json:"issues,omitempty"`
}
