package services

import (
	"testing"

	"poker-planning-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func votesFor(labels ...string) []models.Vote {
	votes := make([]models.Vote, len(labels))
	for i, label := range labels {
		votes[i] = models.Vote{UserID: uint(i + 1), CardLabel: label}
	}
	return votes
}

func TestConsensusMode(t *testing.T) {
	got := Consensus(votesFor("3", "3", "5"))
	require.NotNil(t, got)
	assert.Equal(t, "3", *got)
}

func TestConsensusTieBreaksToSmallestNumeric(t *testing.T) {
	// 3 and 5 both appear twice; the smaller value wins regardless of the
	// order the votes arrived in.
	got := Consensus(votesFor("5", "5", "3", "3", "2"))
	require.NotNil(t, got)
	assert.Equal(t, "3", *got)

	got = Consensus(votesFor("3", "3", "5", "5", "2"))
	require.NotNil(t, got)
	assert.Equal(t, "3", *got)
}

func TestConsensusTieBreaksAlphabeticallyWithoutNumbers(t *testing.T) {
	got := Consensus(votesFor("M", "M", "L", "L"))
	require.NotNil(t, got)
	assert.Equal(t, "L", *got)
}

func TestConsensusNilWithoutValidVotes(t *testing.T) {
	assert.Nil(t, Consensus(nil))
	assert.Nil(t, Consensus(votesFor()))
	assert.Nil(t, Consensus(votesFor("?", "☕", "∞")))
}

func TestConsensusIgnoresSpecialCards(t *testing.T) {
	// Two "?" votes outnumber the single "8", but placeholders never win.
	got := Consensus(votesFor("?", "?", "8"))
	require.NotNil(t, got)
	assert.Equal(t, "8", *got)
}

func TestVoteStatsBasic(t *testing.T) {
	stats := CalculateVoteStats(votesFor("3", "3", "5"))

	require.NotNil(t, stats.Average)
	assert.InDelta(t, 11.0/3.0, *stats.Average, 1e-9)
	require.NotNil(t, stats.Median)
	assert.Equal(t, 3.0, *stats.Median)
	assert.Equal(t, 67, stats.Agreement)
	assert.Equal(t, 3, stats.VoteCount)
}

func TestVoteStatsMedianEvenCount(t *testing.T) {
	stats := CalculateVoteStats(votesFor("2", "3", "5", "8"))
	require.NotNil(t, stats.Median)
	assert.Equal(t, 4.0, *stats.Median)
}

func TestVoteStatsUnanimity(t *testing.T) {
	stats := CalculateVoteStats(votesFor("8", "8", "8", "8"))
	assert.Equal(t, 100, stats.Agreement)
	assert.Equal(t, 4, stats.VoteCount)
}

func TestVoteStatsExcludesSpecialCards(t *testing.T) {
	// "?" drops out entirely: not counted, not averaged.
	stats := CalculateVoteStats(votesFor("5", "5", "?"))

	assert.Equal(t, 2, stats.VoteCount)
	require.NotNil(t, stats.Average)
	assert.Equal(t, 5.0, *stats.Average)
	assert.Equal(t, 100, stats.Agreement)
}

func TestVoteStatsNonNumericScale(t *testing.T) {
	stats := CalculateVoteStats(votesFor("M", "M", "L"))

	assert.Nil(t, stats.Average)
	assert.Nil(t, stats.Median)
	assert.Equal(t, 67, stats.Agreement)
	assert.Equal(t, 3, stats.VoteCount)
}

func TestVoteStatsEmpty(t *testing.T) {
	stats := CalculateVoteStats(nil)
	assert.Nil(t, stats.Average)
	assert.Nil(t, stats.Median)
	assert.Equal(t, 0, stats.Agreement)
	assert.Equal(t, 0, stats.VoteCount)
}
