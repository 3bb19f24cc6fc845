package services

import (
	"testing"
	"time"

	"poker-planning-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRevealedRound votes the given cards (one per user, in order) on a fresh
// issue and reveals it.
func runRevealedRound(t *testing.T, f *fixture, roomID, ownerID uint, users []uint, title string, cards []string) {
	t.Helper()
	require.Len(t, cards, len(users))

	issue := f.createIssue(t, roomID, ownerID, title)
	require.NoError(t, f.issues.StartVoting(roomID, issue.ID, ownerID))
	for i, userID := range users {
		require.NoError(t, f.votes.PickCard(roomID, userID, cards[i], 0))
	}
	require.NoError(t, f.issues.Reveal(roomID, ownerID))
}

func TestRoomSummaryAggregatesCompletedIssues(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	alice := f.createUser(t, "alice")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, alice)
	users := []uint{owner, alice}

	runRevealedRound(t, f, room.ID, owner, users, "first", []string{"3", "3"})
	runRevealedRound(t, f, room.ID, owner, users, "second", []string{"5", "8"})

	analytics := NewAnalyticsService(f.db)
	summary, err := analytics.GetRoomSummary(room.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.IssuesCompleted)
	// "3" unanimous, plus "5" winning the 5/8 tie as the smaller value.
	require.NotNil(t, summary.TotalStoryPoints)
	assert.Equal(t, 8.0, *summary.TotalStoryPoints)
	// Agreements 100 and 50 average to 75.
	require.NotNil(t, summary.AverageAgreement)
	assert.Equal(t, 75.0, *summary.AverageAgreement)
}

func TestRoomSummaryNonNumericScaleHasNoStoryPoints(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint", ScaleType: models.ScaleTShirt})

	runRevealedRound(t, f, room.ID, owner, []uint{owner}, "shirts", []string{"L"})

	analytics := NewAnalyticsService(f.db)
	summary, err := analytics.GetRoomSummary(room.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.IssuesCompleted)
	assert.Nil(t, summary.TotalStoryPoints)
}

func TestAgreementOverTimeOrdersByCompletion(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	alice := f.createUser(t, "alice")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, alice)
	users := []uint{owner, alice}

	runRevealedRound(t, f, room.ID, owner, users, "first", []string{"3", "3"})
	runRevealedRound(t, f, room.ID, owner, users, "second", []string{"5", "8"})

	analytics := NewAnalyticsService(f.db)
	points, err := analytics.GetAgreementOverTime(room.ID)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, "first", points[0].IssueTitle)
	assert.Equal(t, 100, points[0].Agreement)
	assert.Equal(t, "second", points[1].IssueTitle)
	assert.Equal(t, 50, points[1].Agreement)
}

func TestVoteDistributionCountsSnapshots(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	alice := f.createUser(t, "alice")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, alice)
	users := []uint{owner, alice}

	runRevealedRound(t, f, room.ID, owner, users, "first", []string{"3", "3"})
	runRevealedRound(t, f, room.ID, owner, users, "second", []string{"3", "8"})

	analytics := NewAnalyticsService(f.db)
	items, err := analytics.GetVoteDistribution(room.ID)
	require.NoError(t, err)

	byLabel := make(map[string]VoteDistributionItem)
	for _, item := range items {
		byLabel[item.Label] = item
	}
	require.Len(t, byLabel, 2)
	assert.Equal(t, 3, byLabel["3"].Count)
	assert.Equal(t, 75, byLabel["3"].Percentage)
	assert.Equal(t, 1, byLabel["8"].Count)
	assert.Equal(t, 25, byLabel["8"].Percentage)
}

func TestVoterAlignmentAveragesDeltaSteps(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	alice := f.createUser(t, "alice")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint"})
	f.join(t, room.ID, alice)
	users := []uint{owner, alice}

	// Owner always on consensus; alice one step above it both rounds.
	runRevealedRound(t, f, room.ID, owner, users, "first", []string{"3", "5"})
	runRevealedRound(t, f, room.ID, owner, users, "second", []string{"8", "13"})

	analytics := NewAnalyticsService(f.db)
	alignment, err := analytics.GetVoterAlignment(room.ID)
	require.NoError(t, err)
	require.Len(t, alignment, 2)

	byUser := make(map[uint]VoterAlignment)
	for _, a := range alignment {
		byUser[a.UserID] = a
	}

	ownerRow := byUser[owner]
	assert.Equal(t, 2, ownerRow.VotesRecorded)
	require.NotNil(t, ownerRow.AvgDeltaSteps)
	assert.Equal(t, 0.0, *ownerRow.AvgDeltaSteps)

	aliceRow := byUser[alice]
	assert.Equal(t, 2, aliceRow.VotesRecorded)
	require.NotNil(t, aliceRow.AvgDeltaSteps)
	assert.Equal(t, 1.0, *aliceRow.AvgDeltaSteps)
}

func TestVoterAlignmentWithoutDeltaData(t *testing.T) {
	f := newFixture(t, time.Hour)

	owner := f.createUser(t, "owner")
	room := f.createRoom(t, owner, CreateRoomArgs{Name: "sprint", ScaleType: models.ScaleTShirt})

	runRevealedRound(t, f, room.ID, owner, []uint{owner}, "shirts", []string{"M"})

	analytics := NewAnalyticsService(f.db)
	alignment, err := analytics.GetVoterAlignment(room.ID)
	require.NoError(t, err)
	require.Len(t, alignment, 1)
	assert.Equal(t, 1, alignment[0].VotesRecorded)
	assert.Nil(t, alignment[0].AvgDeltaSteps)
}
