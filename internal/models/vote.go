package models

import "time"

// Vote is the live ledger row: one per (room, user). Rows are cleared when
// a new round starts; IndividualVote keeps the audit copy from the reveal.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;uniqueIndex:idx_vote_room_user" json:"room_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_room_user" json:"user_id"`
	CardLabel string    `gorm:"size:50;not null" json:"card_label"`
	CardValue float64   `gorm:"not null;default:0" json:"card_value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IndividualVote is the append-only per-participant snapshot taken at
// reveal, for voter-alignment analytics. DeltaSteps is the scale-position
// distance from the consensus card; nil on non-numeric scales.
type IndividualVote struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RoomID         uint      `gorm:"not null;index" json:"room_id"`
	IssueID        uint      `gorm:"not null;index" json:"issue_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	CardLabel      string    `gorm:"size:50;not null" json:"card_label"`
	CardValue      float64   `gorm:"not null;default:0" json:"card_value"`
	ConsensusLabel *string   `gorm:"size:50" json:"consensus_label,omitempty"`
	DeltaSteps     *int      `json:"delta_steps,omitempty"`
	VotedAt        time.Time `json:"voted_at"`
}
