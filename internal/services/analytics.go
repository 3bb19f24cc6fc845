package services

import (
	"math"
	"strconv"
	"time"

	"poker-planning-backend/internal/models"

	"gorm.io/gorm"
)

// AnalyticsService reads frozen vote stats and reveal snapshots. It never
// mutates engine state.
type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

type RoomSummary struct {
	RoomID           uint     `json:"room_id"`
	RoomName         string   `json:"room_name"`
	IssuesCompleted  int      `json:"issues_completed"`
	TotalStoryPoints *float64 `json:"total_story_points"`
	AverageAgreement *float64 `json:"average_agreement"`
}

// GetRoomSummary aggregates completed issues for one room. Story points
// stay nil on non-numeric scales.
func (s *AnalyticsService) GetRoomSummary(roomID uint) (*RoomSummary, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, models.ErrRoomNotFound
	}

	var issues []models.Issue
	if err := s.db.Where("room_id = ? AND status = ?", roomID, models.IssueStatusCompleted).
		Find(&issues).Error; err != nil {
		return nil, err
	}

	summary := &RoomSummary{
		RoomID:          room.ID,
		RoomName:        room.Name,
		IssuesCompleted: len(issues),
	}

	var points float64
	pointsFound := false
	var agreementSum, agreementCount float64
	for _, issue := range issues {
		if issue.FinalEstimate != nil {
			if n, ok := parseEstimate(*issue.FinalEstimate); ok {
				points += n
				pointsFound = true
			}
		}
		if issue.StatAgreement != nil {
			agreementSum += float64(*issue.StatAgreement)
			agreementCount++
		}
	}
	if pointsFound {
		summary.TotalStoryPoints = &points
	}
	if agreementCount > 0 {
		avg := math.Round(agreementSum/agreementCount*10) / 10
		summary.AverageAgreement = &avg
	}
	return summary, nil
}

type AgreementPoint struct {
	Date       string `json:"date"`
	Agreement  int    `json:"agreement"`
	IssueTitle string `json:"issue_title"`
}

// GetAgreementOverTime lists agreement percentages of completed issues in
// completion order.
func (s *AnalyticsService) GetAgreementOverTime(roomID uint) ([]AgreementPoint, error) {
	var issues []models.Issue
	if err := s.db.Where("room_id = ? AND status = ? AND voted_at IS NOT NULL",
		roomID, models.IssueStatusCompleted).
		Order("voted_at ASC").Find(&issues).Error; err != nil {
		return nil, err
	}

	points := make([]AgreementPoint, 0, len(issues))
	for _, issue := range issues {
		if issue.StatAgreement == nil {
			continue
		}
		points = append(points, AgreementPoint{
			Date:       issue.VotedAt.UTC().Format(time.RFC3339),
			Agreement:  *issue.StatAgreement,
			IssueTitle: issue.Title,
		})
	}
	return points, nil
}

type VoteDistributionItem struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// GetVoteDistribution counts how often each card was played across all of
// a room's revealed rounds.
func (s *AnalyticsService) GetVoteDistribution(roomID uint) ([]VoteDistributionItem, error) {
	var snapshots []models.IndividualVote
	if err := s.db.Where("room_id = ?", roomID).Find(&snapshots).Error; err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return []VoteDistributionItem{}, nil
	}

	counts := make(map[string]int)
	for _, v := range snapshots {
		counts[v.CardLabel]++
	}

	items := make([]VoteDistributionItem, 0, len(counts))
	for label, count := range counts {
		items = append(items, VoteDistributionItem{
			Label:      label,
			Count:      count,
			Percentage: int(math.Round(float64(count) / float64(len(snapshots)) * 100)),
		})
	}
	return items, nil
}

type VoterAlignment struct {
	UserID        uint     `json:"user_id"`
	VotesRecorded int      `json:"votes_recorded"`
	AvgDeltaSteps *float64 `json:"avg_delta_steps"`
}

// GetVoterAlignment averages each member's distance from consensus over the
// room's reveal snapshots. Members with no delta data (non-numeric scales)
// report a nil average.
func (s *AnalyticsService) GetVoterAlignment(roomID uint) ([]VoterAlignment, error) {
	var snapshots []models.IndividualVote
	if err := s.db.Where("room_id = ?", roomID).Find(&snapshots).Error; err != nil {
		return nil, err
	}

	type acc struct {
		votes  int
		deltas int
		sum    float64
	}
	byUser := make(map[uint]*acc)
	var order []uint
	for _, v := range snapshots {
		a, ok := byUser[v.UserID]
		if !ok {
			a = &acc{}
			byUser[v.UserID] = a
			order = append(order, v.UserID)
		}
		a.votes++
		if v.DeltaSteps != nil {
			a.deltas++
			a.sum += math.Abs(float64(*v.DeltaSteps))
		}
	}

	result := make([]VoterAlignment, 0, len(order))
	for _, userID := range order {
		a := byUser[userID]
		va := VoterAlignment{UserID: userID, VotesRecorded: a.votes}
		if a.deltas > 0 {
			avg := math.Round(a.sum/float64(a.deltas)*100) / 100
			va.AvgDeltaSteps = &avg
		}
		result = append(result, va)
	}
	return result, nil
}

func parseEstimate(estimate string) (float64, bool) {
	if !models.IsNumericCard(estimate) {
		return 0, false
	}
	n, err := strconv.ParseFloat(estimate, 64)
	return n, err == nil
}
