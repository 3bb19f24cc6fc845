package models

import "time"

type Issue struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RoomID       uint   `gorm:"not null;index" json:"room_id"`
	SequentialID int    `gorm:"not null" json:"sequential_id"`
	Title        string `gorm:"size:500;not null" json:"title"`
	Status       string `gorm:"size:20;not null;default:'pending'" json:"status"`
	OrderNum     int    `gorm:"not null;default:0" json:"order_num"`
	Notes        string `gorm:"type:text" json:"notes,omitempty"`

	// Frozen at reveal time. Nil until the issue completes a vote; average
	// and median stay nil for non-numeric scales.
	FinalEstimate      *string    `gorm:"size:50" json:"final_estimate,omitempty"`
	StatAverage        *float64   `json:"stat_average,omitempty"`
	StatMedian         *float64   `json:"stat_median,omitempty"`
	StatAgreement      *int       `json:"stat_agreement,omitempty"`
	StatVoteCount      *int       `json:"stat_vote_count,omitempty"`
	TimeToConsensusMs  *int64     `json:"time_to_consensus_ms,omitempty"`
	VotedAt            *time.Time `json:"voted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

const (
	IssueStatusPending   = "pending"
	IssueStatusVoting    = "voting"
	IssueStatusCompleted = "completed"
)

// VotingRound records one pending->voting stretch for an issue, used to
// accumulate time-to-consensus across re-votes.
type VotingRound struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	RoomID          uint       `gorm:"not null;index" json:"room_id"`
	IssueID         uint       `gorm:"not null;index" json:"issue_id"`
	RoundNumber     int        `gorm:"not null" json:"round_number"`
	VotingStartedAt time.Time  `json:"voting_started_at"`
	VotingEndedAt   *time.Time `json:"voting_ended_at,omitempty"`
	DurationMs      *int64     `json:"duration_ms,omitempty"`
}
