package services

import (
	"errors"

	"poker-planning-backend/internal/models"

	"gorm.io/gorm"
)

type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// RoleSatisfiesLevel reports whether a role meets a required level:
// everyone passes anything, facilitators needs facilitator or owner,
// owner needs owner exactly.
func RoleSatisfiesLevel(role, level string) bool {
	switch level {
	case models.PermLevelEveryone:
		return true
	case models.PermLevelFacilitators:
		return role == models.RoleFacilitator || role == models.RoleOwner
	case models.PermLevelOwner:
		return role == models.RoleOwner
	}
	return false
}

// CanRemoveMember: owners remove anyone, facilitators remove participants
// only, participants remove nobody.
func CanRemoveMember(actorRole, targetRole string) bool {
	if actorRole == models.RoleOwner {
		return true
	}
	if actorRole == models.RoleFacilitator {
		return targetRole == models.RoleParticipant
	}
	return false
}

// GetMembership loads the (room, user) membership row.
func (s *PermissionService) GetMembership(db *gorm.DB, roomID, userID uint) (*models.Membership, error) {
	var membership models.Membership
	if err := db.Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&membership).Error; err != nil {
		return nil, models.ErrMemberNotFound
	}
	return &membership, nil
}

// IsOwnerAbsent reports whether the room's owner has no active membership.
// Only explicit leave removes a membership, so a network disconnect does
// not count as absence. Legacy rooms without an owner are never absent.
func (s *PermissionService) IsOwnerAbsent(db *gorm.DB, room *models.Room) (bool, error) {
	if room.OwnerID == nil {
		return false, nil
	}

	var membership models.Membership
	err := db.Where("room_id = ? AND user_id = ?", room.ID, *room.OwnerID).
		First(&membership).Error
	if err == nil {
		return false, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	return false, err
}

// RequirePermission gates a mutation on the actor's effective role against
// the room's effective permission level for the category.
//
// Lockdown: when the category requires the owner and the owner is absent,
// every actor is denied — the room freezes owner-gated actions until the
// owner returns or ownership is transferred. Facilitator-level and
// everyone-level actions are unaffected.
func (s *PermissionService) RequirePermission(db *gorm.DB, room *models.Room, membership *models.Membership, category string) error {
	level := room.EffectivePermissions().Level(category)
	role := membership.EffectiveRole()

	if level == models.PermLevelOwner {
		absent, err := s.IsOwnerAbsent(db, room)
		if err != nil {
			return err
		}
		if absent {
			return &models.PermissionDeniedError{
				Category:      category,
				RequiredLevel: level,
				OwnerAbsent:   true,
			}
		}
	}

	if !RoleSatisfiesLevel(role, level) {
		return &models.PermissionDeniedError{Category: category, RequiredLevel: level}
	}
	return nil
}
