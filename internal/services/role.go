package services

import (
	"time"

	"poker-planning-backend/internal/models"

	"gorm.io/gorm"
)

type RoleService struct {
	db    *gorm.DB
	locks *RoomLocks
	perms *PermissionService
	votes *VoteService
}

func NewRoleService(db *gorm.DB, locks *RoomLocks, perms *PermissionService, votes *VoteService) *RoleService {
	return &RoleService{db: db, locks: locks, perms: perms, votes: votes}
}

// Promote raises a participant to facilitator. Owners and facilitators may
// promote; the target must currently be a plain participant.
func (s *RoleService) Promote(roomID, actorID, targetUserID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if !RoleSatisfiesLevel(actor.EffectiveRole(), models.PermLevelFacilitators) {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelFacilitators,
		}
	}

	target, err := s.perms.GetMembership(s.db, roomID, targetUserID)
	if err != nil {
		return err
	}
	if target.EffectiveRole() != models.RoleParticipant {
		return models.InvalidState("can only promote participants to facilitator")
	}

	role := models.RoleFacilitator
	target.Role = &role
	return s.db.Save(target).Error
}

// Demote returns a facilitator to participant. Owner only.
func (s *RoleService) Demote(roomID, actorID, targetUserID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if actor.EffectiveRole() != models.RoleOwner {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelOwner,
		}
	}

	target, err := s.perms.GetMembership(s.db, roomID, targetUserID)
	if err != nil {
		return err
	}
	if target.EffectiveRole() != models.RoleFacilitator {
		return models.InvalidState("target user is not a facilitator")
	}

	role := models.RoleParticipant
	target.Role = &role
	return s.db.Save(target).Error
}

// TransferOwnership moves the owner role to another member. The three-way
// swap (old owner demoted, new owner promoted, room.OwnerID repointed) is
// one transaction — a reader never observes two owners or zero owners.
func (s *RoleService) TransferOwnership(roomID, actorID, targetUserID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.ErrRoomNotFound
	}

	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if actor.EffectiveRole() != models.RoleOwner {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelOwner,
		}
	}
	// room.OwnerID is authoritative; a stale owner membership is not enough.
	if room.OwnerID == nil || *room.OwnerID != actorID {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelOwner,
		}
	}
	if targetUserID == actorID {
		return models.InvalidState("cannot transfer ownership to yourself")
	}

	target, err := s.perms.GetMembership(s.db, roomID, targetUserID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		participant := models.RoleParticipant
		owner := models.RoleOwner

		if err := tx.Model(&models.Membership{}).Where("id = ?", actor.ID).
			Update("role", participant).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Membership{}).Where("id = ?", target.ID).
			Update("role", owner).Error; err != nil {
			return err
		}
		return tx.Model(&models.Room{}).Where("id = ?", roomID).
			Updates(map[string]any{
				"owner_id":         targetUserID,
				"last_activity_at": time.Now(),
			}).Error
	})
}

// UpdatePermissions replaces the room's permission settings wholesale.
// Owner only.
func (s *RoleService) UpdatePermissions(roomID, actorID uint, perms models.RoomPermissions) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.ErrRoomNotFound
	}

	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if actor.EffectiveRole() != models.RoleOwner {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelOwner,
		}
	}

	for _, level := range []string{perms.RevealCards, perms.GameFlow, perms.IssueManagement, perms.RoomSettings} {
		if !models.ValidPermLevel(level) {
			return models.InvalidState("invalid permission level %q", level)
		}
	}

	room.PermRevealCards = &perms.RevealCards
	room.PermGameFlow = &perms.GameFlow
	room.PermIssueManage = &perms.IssueManagement
	room.PermRoomSettings = &perms.RoomSettings
	room.LastActivityAt = time.Now()
	return s.db.Save(&room).Error
}

// RemoveMember kicks a member from the room. Owners can remove anyone,
// facilitators only participants. Cleanup order matters: votes first, then
// the membership, then the countdown re-check against the smaller roster.
func (s *RoleService) RemoveMember(roomID, actorID, targetUserID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.ErrRoomNotFound
	}

	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	target, err := s.perms.GetMembership(s.db, roomID, targetUserID)
	if err != nil {
		return err
	}
	if !CanRemoveMember(actor.EffectiveRole(), target.EffectiveRole()) {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelFacilitators,
		}
	}

	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, targetUserID).
		Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.Membership{}, target.ID).Error; err != nil {
		return err
	}

	room.LastActivityAt = time.Now()
	if err := s.votes.reevaluateCountdownLocked(&room); err != nil {
		return err
	}
	return s.db.Save(&room).Error
}
