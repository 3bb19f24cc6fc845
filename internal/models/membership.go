package models

import "time"

type Membership struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	RoomID uint `gorm:"not null;uniqueIndex:idx_room_user" json:"room_id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_room_user;index" json:"user_id"`

	// Nil role means participant (legacy memberships predate roles).
	Role        *string   `gorm:"size:20" json:"role,omitempty"`
	IsSpectator bool      `gorm:"not null;default:false" json:"is_spectator"`
	IsBot       bool      `gorm:"not null;default:false" json:"is_bot"`
	JoinedAt    time.Time `json:"joined_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

const (
	RoleOwner       = "owner"
	RoleFacilitator = "facilitator"
	RoleParticipant = "participant"
)

// EffectiveRole resolves the nullable role column to a concrete role.
func (m *Membership) EffectiveRole() string {
	if m.Role == nil {
		return RoleParticipant
	}
	return *m.Role
}
