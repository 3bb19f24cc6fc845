package services

import (
	"fmt"
	"strings"
	"time"

	"poker-planning-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomService struct {
	db    *gorm.DB
	locks *RoomLocks
	perms *PermissionService
	votes *VoteService
}

func NewRoomService(db *gorm.DB, locks *RoomLocks, perms *PermissionService, votes *VoteService) *RoomService {
	return &RoomService{db: db, locks: locks, perms: perms, votes: votes}
}

type CreateRoomArgs struct {
	Name               string   `json:"name" binding:"required"`
	AutoCompleteVoting bool     `json:"auto_complete_voting"`
	ScaleType          string   `json:"scale_type"`
	CustomCards        []string `json:"custom_cards"`
}

// CreateRoom builds a room with a resolved voting scale and makes the
// creator its owner member.
func (s *RoomService) CreateRoom(ownerUserID uint, args CreateRoomArgs) (*models.Room, error) {
	scale, err := resolveScale(args.ScaleType, args.CustomCards)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ownerRole := models.RoleOwner
	room := models.Room{
		Name:               args.Name,
		AutoCompleteVoting: args.AutoCompleteVoting,
		OwnerID:            &ownerUserID,
		ScaleType:          scale.Type,
		ScaleCards:         strings.Join(scale.Cards, ","),
		ScaleIsNumeric:     scale.IsNumeric,
		LastActivityAt:     now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{
			RoomID:   room.ID,
			UserID:   ownerUserID,
			Role:     &ownerRole,
			JoinedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func resolveScale(scaleType string, customCards []string) (models.VotingScale, error) {
	if scaleType == "" {
		return models.VotingScales[models.ScaleFibonacci], nil
	}
	if scaleType == models.ScaleCustom {
		if len(customCards) == 0 {
			return models.VotingScale{}, models.InvalidState("custom scale requires a non-empty cards list")
		}
		return models.VotingScale{
			Type:      models.ScaleCustom,
			Cards:     customCards,
			IsNumeric: false,
		}, nil
	}
	scale, ok := models.VotingScales[scaleType]
	if !ok {
		return models.VotingScale{}, models.InvalidState("unknown voting scale %q", scaleType)
	}
	return scale, nil
}

// SanitizedVote hides other members' card choices until the reveal; a
// member always sees their own card.
type SanitizedVote struct {
	UserID    uint     `json:"user_id"`
	HasVoted  bool     `json:"has_voted"`
	CardLabel *string  `json:"card_label,omitempty"`
	CardValue *float64 `json:"card_value,omitempty"`
}

type RoomMemberData struct {
	UserID      uint      `json:"user_id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        string    `json:"role"`
	IsSpectator bool      `json:"is_spectator"`
	IsBot       bool      `json:"is_bot"`
	JoinedAt    time.Time `json:"joined_at"`
}

type RoomState struct {
	Room          models.Room             `json:"room"`
	Permissions   models.RoomPermissions  `json:"permissions"`
	Scale         models.VotingScale      `json:"scale"`
	Members       []RoomMemberData        `json:"members"`
	Votes         []SanitizedVote         `json:"votes"`
	CurrentIssue  *models.Issue           `json:"current_issue,omitempty"`
	IsOwnerAbsent bool                    `json:"is_owner_absent"`
	AllVotesIn    bool                    `json:"all_votes_in"`
}

// GetRoomState assembles the full client view of a room.
func (s *RoomService) GetRoomState(roomID, currentUserID uint) (*RoomState, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, models.ErrRoomNotFound
	}

	var memberships []models.Membership
	if err := s.db.Where("room_id = ?", roomID).Preload("User").
		Order("joined_at ASC").Find(&memberships).Error; err != nil {
		return nil, err
	}

	votes, err := s.votes.ListVotes(roomID)
	if err != nil {
		return nil, err
	}

	ownerAbsent, err := s.perms.IsOwnerAbsent(s.db, &room)
	if err != nil {
		return nil, err
	}

	state := &RoomState{
		Room:          room,
		Permissions:   room.EffectivePermissions(),
		Scale:         room.Scale(),
		IsOwnerAbsent: ownerAbsent,
	}

	for _, m := range memberships {
		state.Members = append(state.Members, RoomMemberData{
			UserID:      m.UserID,
			Name:        m.User.Username,
			AvatarURL:   m.User.AvatarURL,
			Role:        m.EffectiveRole(),
			IsSpectator: m.IsSpectator,
			IsBot:       m.IsBot,
			JoinedAt:    m.JoinedAt,
		})
	}

	for _, v := range votes {
		sv := SanitizedVote{UserID: v.UserID, HasVoted: true}
		if room.IsGameOver || v.UserID == currentUserID {
			label := v.CardLabel
			value := v.CardValue
			sv.CardLabel = &label
			sv.CardValue = &value
		}
		state.Votes = append(state.Votes, sv)
	}

	if room.CurrentIssueID != nil {
		var issue models.Issue
		if err := s.db.First(&issue, *room.CurrentIssueID).Error; err == nil {
			state.CurrentIssue = &issue
		}
	}

	complete, err := s.votes.AllVotesIn(roomID)
	if err != nil {
		return nil, err
	}
	state.AllVotesIn = complete

	return state, nil
}

// Join adds the user to the room, or is a no-op when already a member.
// A room that lost its owner record entirely (legacy data) stays ownerless.
func (s *RoomService) Join(roomID, userID uint, isSpectator bool) (*models.Membership, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, models.ErrRoomNotFound
	}

	var existing models.Membership
	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&existing).Error; err == nil {
		return &existing, nil
	}

	membership := models.Membership{
		RoomID:      roomID,
		UserID:      userID,
		IsSpectator: isSpectator,
		JoinedAt:    time.Now(),
	}
	if err := s.db.Create(&membership).Error; err != nil {
		return nil, err
	}

	room.LastActivityAt = time.Now()
	s.db.Save(&room)
	return &membership, nil
}

// Leave removes the user's own membership. Cleanup is ordered: votes go
// first, then the membership, then the countdown re-check — later steps
// query state the earlier ones changed.
func (s *RoomService) Leave(roomID, userID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.ErrRoomNotFound
	}

	membership, err := s.perms.GetMembership(s.db, roomID, userID)
	if err != nil {
		return err
	}

	if err := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if err := s.db.Delete(&models.Membership{}, membership.ID).Error; err != nil {
		return err
	}

	room.LastActivityAt = time.Now()
	if err := s.votes.reevaluateCountdownLocked(&room); err != nil {
		return err
	}
	return s.db.Save(&room).Error
}

// SetSpectator toggles the member's own spectator flag. Becoming a
// spectator withdraws any vote and can release an armed countdown; the
// opposite direction can only make the ledger incomplete, never complete.
func (s *RoomService) SetSpectator(roomID, userID uint, isSpectator bool) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.ErrRoomNotFound
	}

	membership, err := s.perms.GetMembership(s.db, roomID, userID)
	if err != nil {
		return err
	}
	if membership.IsSpectator == isSpectator {
		return nil
	}

	if isSpectator {
		if err := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).
			Delete(&models.Vote{}).Error; err != nil {
			return err
		}
	}

	membership.IsSpectator = isSpectator
	if err := s.db.Save(membership).Error; err != nil {
		return err
	}

	room.LastActivityAt = time.Now()
	if err := s.votes.reevaluateCountdownLocked(&room); err != nil {
		return err
	}
	return s.db.Save(&room).Error
}

// Rename changes the room display name (room-settings category).
func (s *RoomService) Rename(roomID, actorID uint, name string) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.ErrRoomNotFound
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, &room, membership, models.PermCategoryRoomSettings); err != nil {
		return err
	}

	room.Name = name
	room.LastActivityAt = time.Now()
	return s.db.Save(&room).Error
}

// ToggleAutoComplete flips the auto-reveal opt-in. Any running countdown is
// dropped so a half-armed state can't leak across the setting change.
func (s *RoomService) ToggleAutoComplete(roomID, actorID uint) (*models.Room, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, models.ErrRoomNotFound
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequirePermission(s.db, &room, membership, models.PermCategoryRoomSettings); err != nil {
		return nil, err
	}

	if room.AutoRevealScheduledID != nil {
		s.votes.scheduler.Cancel(*room.AutoRevealScheduledID)
	}
	room.AutoCompleteVoting = !room.AutoCompleteVoting
	room.AutoRevealCountdownStartedAt = nil
	room.AutoRevealScheduledID = nil
	room.LastActivityAt = time.Now()
	if err := s.db.Save(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// AddBot creates a simulated participant. Facilitator level: bots are a
// facilitation tool, not something any participant can spawn.
func (s *RoomService) AddBot(roomID, actorID uint, name string) (*models.Membership, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, models.ErrRoomNotFound
	}
	actor, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if !RoleSatisfiesLevel(actor.EffectiveRole(), models.PermLevelFacilitators) {
		return nil, &models.PermissionDeniedError{
			Category:      models.PermCategoryRoomSettings,
			RequiredLevel: models.PermLevelFacilitators,
		}
	}

	botUser := models.User{
		Username: fmt.Sprintf("%s#%s", name, uuid.NewString()[:8]),
		IsGuest:  true,
	}
	membership := models.Membership{
		RoomID:   roomID,
		IsBot:    true,
		JoinedAt: time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&botUser).Error; err != nil {
			return err
		}
		membership.UserID = botUser.ID
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// CleanupInactiveRooms deletes rooms idle for longer than maxAge along with
// everything that hangs off them. Run from the background ticker.
func (s *RoomService) CleanupInactiveRooms(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	var rooms []models.Room
	if err := s.db.Where("last_activity_at < ?", cutoff).Find(&rooms).Error; err != nil {
		return 0
	}

	count := 0
	for _, room := range rooms {
		unlock := s.locks.Lock(room.ID)
		err := s.db.Transaction(func(tx *gorm.DB) error {
			for _, model := range []any{
				&models.Vote{}, &models.IndividualVote{}, &models.VotingRound{},
				&models.Issue{}, &models.Membership{},
			} {
				if err := tx.Where("room_id = ?", room.ID).Delete(model).Error; err != nil {
					return err
				}
			}
			return tx.Delete(&models.Room{}, room.ID).Error
		})
		unlock()
		if err == nil {
			s.locks.Forget(room.ID)
			count++
		}
	}
	return count
}
