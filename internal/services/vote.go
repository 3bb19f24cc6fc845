package services

import (
	"time"

	"poker-planning-backend/internal/models"

	"gorm.io/gorm"
)

type VoteService struct {
	db          *gorm.DB
	locks       *RoomLocks
	perms       *PermissionService
	issues      *IssueService
	scheduler   *Scheduler
	revealDelay time.Duration
}

func NewVoteService(db *gorm.DB, locks *RoomLocks, perms *PermissionService, issues *IssueService, scheduler *Scheduler, revealDelay time.Duration) *VoteService {
	return &VoteService{
		db:          db,
		locks:       locks,
		perms:       perms,
		issues:      issues,
		scheduler:   scheduler,
		revealDelay: revealDelay,
	}
}

// PickCard records or updates the actor's own vote. When the ledger just
// became complete on an auto-complete room, the reveal countdown is armed —
// at most one job per completion event, enforced by the room lock.
func (s *VoteService) PickCard(roomID, userID uint, cardLabel string, cardValue float64) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.issues.loadRoom(roomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, userID)
	if err != nil {
		return err
	}
	if membership.IsSpectator {
		return models.InvalidState("spectators cannot vote")
	}
	if !room.Scale().HasCard(cardLabel) {
		return models.InvalidState("card %q is not part of the room's voting scale", cardLabel)
	}

	return s.castLocked(room, userID, cardLabel, cardValue)
}

// PickCardForBot lets a facilitator or owner cast a vote on behalf of a bot
// member. Bots count toward completeness like any other participant, so
// someone has to vote for them explicitly.
func (s *VoteService) PickCardForBot(roomID, actorID, botUserID uint, cardLabel string, cardValue float64) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.issues.loadRoom(roomID)
	if err != nil {
		return err
	}
	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if !RoleSatisfiesLevel(actor.EffectiveRole(), models.PermLevelFacilitators) {
		return &models.PermissionDeniedError{
			Category:      models.PermCategoryGameFlow,
			RequiredLevel: models.PermLevelFacilitators,
		}
	}

	target, err := s.perms.GetMembership(s.db, roomID, botUserID)
	if err != nil {
		return err
	}
	if !target.IsBot {
		return models.ErrIdentityMismatch
	}
	if !room.Scale().HasCard(cardLabel) {
		return models.InvalidState("card %q is not part of the room's voting scale", cardLabel)
	}

	return s.castLocked(room, botUserID, cardLabel, cardValue)
}

// castLocked upserts the vote row and evaluates the auto-reveal rule.
// Caller holds the room lock.
func (s *VoteService) castLocked(room *models.Room, userID uint, cardLabel string, cardValue float64) error {
	var existing models.Vote
	err := s.db.Where("room_id = ? AND user_id = ?", room.ID, userID).
		First(&existing).Error
	if err == nil {
		existing.CardLabel = cardLabel
		existing.CardValue = cardValue
		if err := s.db.Save(&existing).Error; err != nil {
			return err
		}
	} else {
		vote := models.Vote{
			RoomID:    room.ID,
			UserID:    userID,
			CardLabel: cardLabel,
			CardValue: cardValue,
		}
		if err := s.db.Create(&vote).Error; err != nil {
			return err
		}
	}

	room.LastActivityAt = time.Now()

	if room.AutoCompleteVoting && !room.IsGameOver && room.AutoRevealCountdownStartedAt == nil {
		complete, err := s.allVotesIn(room.ID)
		if err != nil {
			return err
		}
		if complete {
			now := time.Now()
			roomID := room.ID
			jobID := s.scheduler.ScheduleAfter(s.revealDelay, func(id string) {
				s.issues.AutoReveal(roomID, id)
			})
			room.AutoRevealCountdownStartedAt = &now
			room.AutoRevealScheduledID = &jobID
		}
	}

	return s.db.Save(room).Error
}

// RemoveCard withdraws the actor's vote. If a countdown is armed and the
// ledger is no longer complete, the pending reveal is cancelled.
func (s *VoteService) RemoveCard(roomID, userID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.issues.loadRoom(roomID)
	if err != nil {
		return err
	}
	if _, err := s.perms.GetMembership(s.db, roomID, userID); err != nil {
		return err
	}

	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.Vote{}).Error; err != nil {
		return err
	}

	room.LastActivityAt = time.Now()
	if err := s.reevaluateCountdownLocked(room); err != nil {
		return err
	}
	return s.db.Save(room).Error
}

// ClearVotes empties the ledger for a room. Caller must hold the room lock.
func (s *VoteService) ClearVotes(roomID uint) error {
	return s.db.Where("room_id = ?", roomID).Delete(&models.Vote{}).Error
}

// ListVotes returns the current ledger rows for a room.
func (s *VoteService) ListVotes(roomID uint) ([]models.Vote, error) {
	var votes []models.Vote
	if err := s.db.Where("room_id = ?", roomID).Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// AllVotesIn reports ledger completeness for callers outside the lock.
func (s *VoteService) AllVotesIn(roomID uint) (bool, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()
	return s.allVotesIn(roomID)
}

// allVotesIn is true iff every non-spectator membership has a vote row.
// Bots follow the same rule as everyone else.
func (s *VoteService) allVotesIn(roomID uint) (bool, error) {
	var memberships []models.Membership
	if err := s.db.Where("room_id = ? AND is_spectator = ?", roomID, false).
		Find(&memberships).Error; err != nil {
		return false, err
	}

	var votes []models.Vote
	if err := s.db.Where("room_id = ?", roomID).Find(&votes).Error; err != nil {
		return false, err
	}

	voted := make(map[uint]bool, len(votes))
	for _, v := range votes {
		voted[v.UserID] = true
	}
	for _, m := range memberships {
		if !voted[m.UserID] {
			return false, nil
		}
	}
	return true, nil
}

// reevaluateCountdownLocked cancels an armed countdown when the ledger has
// dropped below complete (withdrawal, spectator switch, member removal).
// The cancel tolerates a job that already fired; the fire handler's own
// checks cover that race. Caller holds the room lock and saves the room.
func (s *VoteService) reevaluateCountdownLocked(room *models.Room) error {
	if room.AutoRevealCountdownStartedAt == nil {
		return nil
	}
	complete, err := s.allVotesIn(room.ID)
	if err != nil {
		return err
	}
	if complete {
		return nil
	}

	if room.AutoRevealScheduledID != nil {
		s.scheduler.Cancel(*room.AutoRevealScheduledID)
	}
	room.AutoRevealCountdownStartedAt = nil
	room.AutoRevealScheduledID = nil
	return nil
}
