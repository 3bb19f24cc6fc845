package services

import (
	"testing"
	"time"

	"poker-planning-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Membership{},
		&models.Issue{},
		&models.Vote{},
		&models.VotingRound{},
		&models.IndividualVote{},
	))
	return db
}

type fixture struct {
	db        *gorm.DB
	locks     *RoomLocks
	scheduler *Scheduler
	perms     *PermissionService
	issues    *IssueService
	votes     *VoteService
	rooms     *RoomService
	roles     *RoleService
}

func newFixture(t *testing.T, revealDelay time.Duration) *fixture {
	t.Helper()

	db := newTestDB(t)
	locks := NewRoomLocks()
	scheduler := NewScheduler()
	perms := NewPermissionService(db)
	issues := NewIssueService(db, locks, perms, scheduler)
	votes := NewVoteService(db, locks, perms, issues, scheduler, revealDelay)

	return &fixture{
		db:        db,
		locks:     locks,
		scheduler: scheduler,
		perms:     perms,
		issues:    issues,
		votes:     votes,
		rooms:     NewRoomService(db, locks, perms, votes),
		roles:     NewRoleService(db, locks, perms, votes),
	}
}

func (f *fixture) createUser(t *testing.T, name string) uint {
	t.Helper()
	user := models.User{Username: name, IsGuest: true}
	require.NoError(t, f.db.Create(&user).Error)
	return user.ID
}

func (f *fixture) createRoom(t *testing.T, ownerID uint, args CreateRoomArgs) *models.Room {
	t.Helper()
	room, err := f.rooms.CreateRoom(ownerID, args)
	require.NoError(t, err)
	return room
}

func (f *fixture) join(t *testing.T, roomID, userID uint) {
	t.Helper()
	_, err := f.rooms.Join(roomID, userID, false)
	require.NoError(t, err)
}

func (f *fixture) reloadRoom(t *testing.T, roomID uint) *models.Room {
	t.Helper()
	var room models.Room
	require.NoError(t, f.db.First(&room, roomID).Error)
	return &room
}

func (f *fixture) reloadIssue(t *testing.T, issueID uint) *models.Issue {
	t.Helper()
	var issue models.Issue
	require.NoError(t, f.db.First(&issue, issueID).Error)
	return &issue
}

func (f *fixture) voteCount(t *testing.T, roomID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("room_id = ?", roomID).Count(&count).Error)
	return count
}
