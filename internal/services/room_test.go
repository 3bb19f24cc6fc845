package services

import (
	"testing"
	"time"

	"poker-planning-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomDefaultsToFibonacci(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})

	assert.Equal(t, models.ScaleFibonacci, room.ScaleType)
	assert.True(t, room.ScaleIsNumeric)
	assert.True(t, room.Scale().HasCard("13"))
	assert.True(t, room.Scale().HasCard("☕"))
	require.NotNil(t, room.OwnerID)
	assert.Equal(t, owner, *room.OwnerID)
	assert.Equal(t, models.RoleOwner, f.roleOf(t, room.ID, owner))
}

func TestCreateRoomCustomScale(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	room := f.createRoom(t, owner, CreateRoomArgs{
		Name:        "sprint",
		ScaleType:   models.ScaleCustom,
		CustomCards: []string{"low", "mid", "high"},
	})

	assert.Equal(t, models.ScaleCustom, room.ScaleType)
	assert.False(t, room.ScaleIsNumeric)
	assert.Equal(t, []string{"low", "mid", "high"}, room.Scale().Cards)
}

func TestCreateRoomRejectsBadScales(t *testing.T) {
	f := newFixture(t, time.Hour)
	owner := f.createUser(t, "owner")

	var stateErr *models.InvalidStateError

	_, err := f.rooms.CreateRoom(owner, CreateRoomArgs{Name: "sprint", ScaleType: models.ScaleCustom})
	assert.ErrorAs(t, err, &stateErr)

	_, err = f.rooms.CreateRoom(owner, CreateRoomArgs{Name: "sprint", ScaleType: "d20"})
	assert.ErrorAs(t, err, &stateErr)
}

func TestJoinIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	member := f.createUser(t, "member")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})

	first, err := f.rooms.Join(room.ID, member, false)
	require.NoError(t, err)
	again, err := f.rooms.Join(room.ID, member, true)
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	// The second join does not flip the existing membership to spectator.
	assert.False(t, again.IsSpectator)

	var count int64
	require.NoError(t, f.db.Model(&models.Membership{}).
		Where("room_id = ?", room.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRoomStateHidesVotesUntilReveal(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	member := f.createUser(t, "member")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, member)

	require.NoError(t, f.votes.PickCard(room.ID, owner, "3", 3))
	require.NoError(t, f.votes.PickCard(room.ID, member, "5", 5))

	state, err := f.rooms.GetRoomState(room.ID, member)
	require.NoError(t, err)
	require.Len(t, state.Votes, 2)
	for _, v := range state.Votes {
		assert.True(t, v.HasVoted)
		if v.UserID == member {
			require.NotNil(t, v.CardLabel)
			assert.Equal(t, "5", *v.CardLabel)
		} else {
			assert.Nil(t, v.CardLabel)
		}
	}
	assert.True(t, state.AllVotesIn)

	require.NoError(t, f.issues.Reveal(room.ID, owner))

	state, err = f.rooms.GetRoomState(room.ID, member)
	require.NoError(t, err)
	for _, v := range state.Votes {
		assert.NotNil(t, v.CardLabel)
	}
}

func TestRoomStateReportsOwnerAbsence(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	member := f.createUser(t, "member")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, member)

	state, err := f.rooms.GetRoomState(room.ID, member)
	require.NoError(t, err)
	assert.False(t, state.IsOwnerAbsent)

	require.NoError(t, f.rooms.Leave(room.ID, owner))

	state, err = f.rooms.GetRoomState(room.ID, member)
	require.NoError(t, err)
	assert.True(t, state.IsOwnerAbsent)
}

func TestBecomingSpectatorWithdrawsVoteAndCancelsCountdown(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	member := f.createUser(t, "member")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint", AutoCompleteVoting: true})
	f.join(t, room.ID, member)

	require.NoError(t, f.votes.PickCard(room.ID, owner, "3", 3))
	require.NoError(t, f.votes.PickCard(room.ID, member, "5", 5))
	require.Equal(t, 1, f.scheduler.PendingCount())

	require.NoError(t, f.rooms.SetSpectator(room.ID, member, true))

	got := f.reloadRoom(t, room.ID)
	assert.Nil(t, got.AutoRevealCountdownStartedAt)
	assert.Equal(t, 0, f.scheduler.PendingCount())
	assert.Equal(t, int64(1), f.voteCount(t, room.ID))

	// With the member spectating, the owner's lone vote is the whole ledger,
	// but arming only re-evaluates on a cast.
	complete, err := f.votes.AllVotesIn(room.ID)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestToggleAutoCompleteDropsCountdown(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint", AutoCompleteVoting: true})

	require.NoError(t, f.votes.PickCard(room.ID, owner, "3", 3))
	require.Equal(t, 1, f.scheduler.PendingCount())

	got, err := f.rooms.ToggleAutoComplete(room.ID, owner)
	require.NoError(t, err)
	assert.False(t, got.AutoCompleteVoting)
	assert.Nil(t, got.AutoRevealCountdownStartedAt)
	assert.Nil(t, got.AutoRevealScheduledID)
	assert.Equal(t, 0, f.scheduler.PendingCount())
}

func TestAddBotCreatesGuestMember(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	member := f.createUser(t, "member")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, member)

	bot, err := f.rooms.AddBot(room.ID, owner, "estimator")
	require.NoError(t, err)
	assert.True(t, bot.IsBot)

	var botUser models.User
	require.NoError(t, f.db.First(&botUser, bot.UserID).Error)
	assert.True(t, botUser.IsGuest)
	assert.Contains(t, botUser.Username, "estimator#")

	var permErr *models.PermissionDeniedError
	_, err = f.rooms.AddBot(room.ID, member, "rogue")
	assert.ErrorAs(t, err, &permErr)
}

func TestCleanupInactiveRooms(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	stale := f.createRoom(t, owner, CreateRoomArgs{Name: "stale"})
	fresh := f.createRoom(t, owner, CreateRoomArgs{Name: "fresh"})

	issue := f.createIssue(t, stale.ID, owner, "old work")
	require.NoError(t, f.issues.StartVoting(stale.ID, issue.ID, owner))
	require.NoError(t, f.votes.PickCard(stale.ID, owner, "5", 5))

	require.NoError(t, f.db.Model(&models.Room{}).Where("id = ?", stale.ID).
		Update("last_activity_at", time.Now().Add(-48*time.Hour)).Error)

	removed := f.rooms.CleanupInactiveRooms(24 * time.Hour)
	assert.Equal(t, 1, removed)

	var count int64
	require.NoError(t, f.db.Model(&models.Room{}).Where("id = ?", stale.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, f.db.Model(&models.Issue{}).Where("room_id = ?", stale.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, f.db.Model(&models.Vote{}).Where("room_id = ?", stale.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, f.db.Model(&models.Membership{}).Where("room_id = ?", stale.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	require.NoError(t, f.db.Model(&models.Room{}).Where("id = ?", fresh.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
