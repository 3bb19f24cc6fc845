package services

import (
	"log"
	"time"

	"poker-planning-backend/internal/models"

	"gorm.io/gorm"
)

type IssueService struct {
	db        *gorm.DB
	locks     *RoomLocks
	perms     *PermissionService
	scheduler *Scheduler
}

func NewIssueService(db *gorm.DB, locks *RoomLocks, perms *PermissionService, scheduler *Scheduler) *IssueService {
	return &IssueService{db: db, locks: locks, perms: perms, scheduler: scheduler}
}

func (s *IssueService) loadRoom(roomID uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, models.ErrRoomNotFound
	}
	return &room, nil
}

func (s *IssueService) List(roomID uint) ([]models.Issue, error) {
	var issues []models.Issue
	if err := s.db.Where("room_id = ?", roomID).
		Order("order_num ASC").
		Find(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *IssueService) Get(issueID uint) (*models.Issue, error) {
	var issue models.Issue
	if err := s.db.First(&issue, issueID).Error; err != nil {
		return nil, models.ErrIssueNotFound
	}
	return &issue, nil
}

func (s *IssueService) Create(roomID, actorID uint, title string) (*models.Issue, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryIssueManagement); err != nil {
		return nil, err
	}

	var maxOrder int
	s.db.Model(&models.Issue{}).Where("room_id = ?", roomID).
		Select("COALESCE(MAX(order_num), 0)").Scan(&maxOrder)

	issue := models.Issue{
		RoomID:       roomID,
		SequentialID: room.NextIssueNumber + 1,
		Title:        title,
		Status:       models.IssueStatusPending,
		OrderNum:     maxOrder + 1,
	}
	if err := s.db.Create(&issue).Error; err != nil {
		return nil, err
	}

	room.NextIssueNumber++
	room.LastActivityAt = time.Now()
	s.db.Save(room)

	return &issue, nil
}

func (s *IssueService) UpdateTitle(issueID, actorID uint, title string) (*models.Issue, error) {
	issue, err := s.Get(issueID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(issue.RoomID)
	defer unlock()

	room, err := s.loadRoom(issue.RoomID)
	if err != nil {
		return nil, err
	}
	membership, err := s.perms.GetMembership(s.db, room.ID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryIssueManagement); err != nil {
		return nil, err
	}

	issue.Title = title
	if err := s.db.Save(issue).Error; err != nil {
		return nil, err
	}
	s.touchRoom(room)
	return issue, nil
}

// SetEstimate applies a manual estimate override. When the override confirms
// a revealed round, the issue converges on the same completed state the
// auto-reveal path produces.
func (s *IssueService) SetEstimate(issueID, actorID uint, estimate string) (*models.Issue, error) {
	issue, err := s.Get(issueID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(issue.RoomID)
	defer unlock()

	room, err := s.loadRoom(issue.RoomID)
	if err != nil {
		return nil, err
	}
	membership, err := s.perms.GetMembership(s.db, room.ID, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryIssueManagement); err != nil {
		return nil, err
	}

	issue.FinalEstimate = &estimate
	if issue.Status == models.IssueStatusVoting && room.IsGameOver {
		now := time.Now()
		issue.Status = models.IssueStatusCompleted
		issue.VotedAt = &now
	}
	if err := s.db.Save(issue).Error; err != nil {
		return nil, err
	}
	s.touchRoom(room)
	return issue, nil
}

// StartVoting selects an issue for estimation. A previously voting issue
// drops back to pending and its in-flight votes are discarded — switching
// issues always clears the ledger.
func (s *IssueService) StartVoting(roomID, issueID, actorID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryIssueManagement); err != nil {
		return err
	}

	var issue models.Issue
	if err := s.db.Where("id = ? AND room_id = ?", issueID, roomID).
		First(&issue).Error; err != nil {
		return models.ErrIssueNotFound
	}

	if room.CurrentIssueID != nil && *room.CurrentIssueID != issueID {
		var previous models.Issue
		if err := s.db.First(&previous, *room.CurrentIssueID).Error; err == nil &&
			previous.Status == models.IssueStatusVoting {
			s.closeOpenRound(previous.ID, time.Now())
			previous.Status = models.IssueStatusPending
			s.db.Save(&previous)
		}
	}

	issue.Status = models.IssueStatusVoting
	if err := s.db.Save(&issue).Error; err != nil {
		return err
	}

	s.cancelScheduledReveal(room)
	room.CurrentIssueID = &issue.ID
	room.IsGameOver = false
	room.AutoRevealCountdownStartedAt = nil
	room.AutoRevealScheduledID = nil
	room.LastActivityAt = time.Now()
	if err := s.db.Save(room).Error; err != nil {
		return err
	}

	if err := s.db.Where("room_id = ?", roomID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}

	var roundCount int64
	s.db.Model(&models.VotingRound{}).Where("issue_id = ?", issueID).Count(&roundCount)
	return s.db.Create(&models.VotingRound{
		RoomID:          roomID,
		IssueID:         issueID,
		RoundNumber:     int(roundCount) + 1,
		VotingStartedAt: time.Now(),
	}).Error
}

// Reveal shows all cards and freezes statistics onto the current issue.
func (s *IssueService) Reveal(roomID, actorID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryRevealCards); err != nil {
		return err
	}

	return s.revealLocked(room)
}

// AutoReveal is the countdown fire handler. It re-checks everything under
// the room lock and silently no-ops when the room changed from under the
// scheduled job: manual reveal, reset, issue switch, or a stale handle.
func (s *IssueService) AutoReveal(roomID uint, jobID string) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		log.Printf("auto-reveal: room %d gone, skipping", roomID)
		return
	}
	if room.IsGameOver {
		log.Printf("auto-reveal: room %d already revealed, skipping", roomID)
		return
	}
	if room.AutoRevealCountdownStartedAt == nil ||
		room.AutoRevealScheduledID == nil || *room.AutoRevealScheduledID != jobID {
		log.Printf("auto-reveal: countdown for room %d no longer armed, skipping", roomID)
		return
	}

	if err := s.revealLocked(room); err != nil {
		log.Printf("auto-reveal: reveal failed for room %d: %v", roomID, err)
	}
}

// ResetRound clears the revealed state and the ledger for a re-vote of the
// same issue. The current issue pointer is left untouched.
func (s *IssueService) ResetRound(roomID, actorID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryGameFlow); err != nil {
		return err
	}

	if room.CurrentIssueID != nil {
		var current models.Issue
		if err := s.db.First(&current, *room.CurrentIssueID).Error; err == nil &&
			current.Status == models.IssueStatusVoting {
			current.Status = models.IssueStatusPending
			s.db.Save(&current)
		}
	}

	s.cancelScheduledReveal(room)
	room.IsGameOver = false
	room.AutoRevealCountdownStartedAt = nil
	room.AutoRevealScheduledID = nil
	room.LastActivityAt = time.Now()
	if err := s.db.Save(room).Error; err != nil {
		return err
	}

	return s.db.Where("room_id = ?", roomID).Delete(&models.Vote{}).Error
}

// SwitchToAdHoc leaves issue mode for a quick vote: the voting issue drops
// back to pending and the current issue pointer is cleared.
func (s *IssueService) SwitchToAdHoc(roomID, actorID uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryGameFlow); err != nil {
		return err
	}

	if room.CurrentIssueID != nil {
		var current models.Issue
		if err := s.db.First(&current, *room.CurrentIssueID).Error; err == nil &&
			current.Status == models.IssueStatusVoting {
			s.closeOpenRound(current.ID, time.Now())
			current.Status = models.IssueStatusPending
			s.db.Save(&current)
		}
	}

	s.cancelScheduledReveal(room)
	room.CurrentIssueID = nil
	room.IsGameOver = false
	room.AutoRevealCountdownStartedAt = nil
	room.AutoRevealScheduledID = nil
	room.LastActivityAt = time.Now()
	if err := s.db.Save(room).Error; err != nil {
		return err
	}

	return s.db.Where("room_id = ?", roomID).Delete(&models.Vote{}).Error
}

// Delete removes an issue. A current issue is unpointed first so the room
// never references a deleted row.
func (s *IssueService) Delete(issueID, actorID uint) error {
	issue, err := s.Get(issueID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(issue.RoomID)
	defer unlock()

	room, err := s.loadRoom(issue.RoomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, room.ID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryIssueManagement); err != nil {
		return err
	}

	if room.CurrentIssueID != nil && *room.CurrentIssueID == issueID {
		s.cancelScheduledReveal(room)
		room.CurrentIssueID = nil
		room.AutoRevealCountdownStartedAt = nil
		room.AutoRevealScheduledID = nil
		room.LastActivityAt = time.Now()
		if err := s.db.Save(room).Error; err != nil {
			return err
		}
	}

	s.db.Where("issue_id = ?", issueID).Delete(&models.VotingRound{})
	return s.db.Delete(&models.Issue{}, issueID).Error
}

// Reorder rewrites display order from the given id sequence.
func (s *IssueService) Reorder(roomID, actorID uint, issueIDs []uint) error {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	membership, err := s.perms.GetMembership(s.db, roomID, actorID)
	if err != nil {
		return err
	}
	if err := s.perms.RequirePermission(s.db, room, membership, models.PermCategoryIssueManagement); err != nil {
		return err
	}

	for i, id := range issueIDs {
		if err := s.db.Model(&models.Issue{}).
			Where("id = ? AND room_id = ?", id, roomID).
			Update("order_num", i+1).Error; err != nil {
			return err
		}
	}
	s.touchRoom(room)
	return nil
}

// revealLocked performs the reveal effect. Caller holds the room lock.
func (s *IssueService) revealLocked(room *models.Room) error {
	s.cancelScheduledReveal(room)

	now := time.Now()
	room.IsGameOver = true
	room.AutoRevealCountdownStartedAt = nil
	room.AutoRevealScheduledID = nil
	room.LastActivityAt = now
	if err := s.db.Save(room).Error; err != nil {
		return err
	}

	if room.CurrentIssueID == nil {
		return nil
	}

	var votes []models.Vote
	if err := s.db.Where("room_id = ?", room.ID).Find(&votes).Error; err != nil {
		return err
	}

	consensus := Consensus(votes)
	stats := CalculateVoteStats(votes)

	if err := s.snapshotVotes(room, *room.CurrentIssueID, votes, consensus, now); err != nil {
		return err
	}

	if consensus == nil {
		return nil
	}
	return s.completeIssueVoting(*room.CurrentIssueID, *consensus, stats, now)
}

// snapshotVotes freezes the per-participant votes for analytics. Re-running
// for the same issue discards the previous snapshot first, so a double fire
// cannot duplicate rows. DeltaSteps is only meaningful on numeric scales;
// other scales degrade to no delta data.
func (s *IssueService) snapshotVotes(room *models.Room, issueID uint, votes []models.Vote, consensus *string, now time.Time) error {
	if err := s.db.Where("issue_id = ?", issueID).
		Delete(&models.IndividualVote{}).Error; err != nil {
		return err
	}

	scale := room.Scale()
	consensusIdx := -1
	if consensus != nil && scale.IsNumeric {
		consensusIdx = scale.CardIndex(*consensus)
	}

	for _, v := range votes {
		iv := models.IndividualVote{
			RoomID:         room.ID,
			IssueID:        issueID,
			UserID:         v.UserID,
			CardLabel:      v.CardLabel,
			CardValue:      v.CardValue,
			ConsensusLabel: consensus,
			VotedAt:        now,
		}
		if consensusIdx >= 0 {
			if idx := scale.CardIndex(v.CardLabel); idx >= 0 {
				delta := idx - consensusIdx
				iv.DeltaSteps = &delta
			}
		}
		if err := s.db.Create(&iv).Error; err != nil {
			return err
		}
	}
	return nil
}

// completeIssueVoting stamps the frozen estimate and stats onto the issue
// and closes the open voting round for time-to-consensus accounting.
func (s *IssueService) completeIssueVoting(issueID uint, estimate string, stats VoteStats, now time.Time) error {
	var rounds []models.VotingRound
	s.db.Where("issue_id = ?", issueID).Order("round_number ASC").Find(&rounds)

	var totalMs int64
	for _, r := range rounds {
		if r.DurationMs != nil {
			totalMs += *r.DurationMs
		}
	}

	var timeToConsensus *int64
	if len(rounds) > 0 {
		latest := rounds[len(rounds)-1]
		if latest.VotingEndedAt == nil {
			duration := now.Sub(latest.VotingStartedAt).Milliseconds()
			latest.VotingEndedAt = &now
			latest.DurationMs = &duration
			s.db.Save(&latest)
			totalMs += duration
			timeToConsensus = &totalMs
		} else if totalMs > 0 {
			timeToConsensus = &totalMs
		}
	}

	return s.db.Model(&models.Issue{}).Where("id = ?", issueID).Updates(map[string]any{
		"status":               models.IssueStatusCompleted,
		"final_estimate":       estimate,
		"voted_at":             now,
		"stat_average":         stats.Average,
		"stat_median":          stats.Median,
		"stat_agreement":       stats.Agreement,
		"stat_vote_count":      stats.VoteCount,
		"time_to_consensus_ms": timeToConsensus,
	}).Error
}

// closeOpenRound ends the latest voting round if it is still open. Called
// when an issue is abandoned without completing.
func (s *IssueService) closeOpenRound(issueID uint, now time.Time) {
	var round models.VotingRound
	if err := s.db.Where("issue_id = ?", issueID).
		Order("round_number DESC").First(&round).Error; err != nil {
		return
	}
	if round.VotingEndedAt == nil {
		duration := now.Sub(round.VotingStartedAt).Milliseconds()
		round.VotingEndedAt = &now
		round.DurationMs = &duration
		s.db.Save(&round)
	}
}

func (s *IssueService) cancelScheduledReveal(room *models.Room) {
	if room.AutoRevealScheduledID != nil {
		s.scheduler.Cancel(*room.AutoRevealScheduledID)
	}
}

func (s *IssueService) touchRoom(room *models.Room) {
	room.LastActivityAt = time.Now()
	s.db.Save(room)
}

// ExportableIssue is the flattened row handed to the export collaborator.
type ExportableIssue struct {
	Title         string   `json:"title"`
	FinalEstimate *string  `json:"final_estimate"`
	Status        string   `json:"status"`
	VotedAt       *string  `json:"voted_at"`
	Average       *float64 `json:"average"`
	Median        *float64 `json:"median"`
	Agreement     *int     `json:"agreement"`
	VoteCount     *int     `json:"vote_count"`
	Notes         *string  `json:"notes"`
}

// ExportRows flattens a room's issues with their frozen stats for export.
func (s *IssueService) ExportRows(roomID uint) ([]ExportableIssue, error) {
	issues, err := s.List(roomID)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportableIssue, len(issues))
	for i, issue := range issues {
		row := ExportableIssue{
			Title:         issue.Title,
			FinalEstimate: issue.FinalEstimate,
			Status:        issue.Status,
			Average:       issue.StatAverage,
			Median:        issue.StatMedian,
			Agreement:     issue.StatAgreement,
			VoteCount:     issue.StatVoteCount,
		}
		if issue.VotedAt != nil {
			ts := issue.VotedAt.UTC().Format(time.RFC3339)
			row.VotedAt = &ts
		}
		if issue.Notes != "" {
			notes := issue.Notes
			row.Notes = &notes
		}
		rows[i] = row
	}
	return rows, nil
}
