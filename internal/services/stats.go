package services

import (
	"math"
	"sort"
	"strconv"

	"poker-planning-backend/internal/models"
)

// VoteStats is the frozen statistics snapshot stamped onto an issue at
// reveal time. Average and median are nil when no numeric votes exist.
type VoteStats struct {
	Average   *float64 `json:"average"`
	Median    *float64 `json:"median"`
	Agreement int      `json:"agreement"`
	VoteCount int      `json:"vote_count"`
}

// validVotes filters out special placeholder cards ("?", "∞", "☕").
func validVotes(votes []models.Vote) []models.Vote {
	valid := make([]models.Vote, 0, len(votes))
	for _, v := range votes {
		if v.CardLabel != "" && !models.IsSpecialCard(v.CardLabel) {
			valid = append(valid, v)
		}
	}
	return valid
}

func countByLabel(votes []models.Vote) map[string]int {
	counts := make(map[string]int)
	for _, v := range votes {
		counts[v.CardLabel]++
	}
	return counts
}

// Consensus returns the most common vote label, or nil when there are no
// valid votes. Ties break toward the smallest numeric value among the tied
// labels; if none parse as a number, the alphabetically first label wins.
// The result is deterministic for any input multiset.
func Consensus(votes []models.Vote) *string {
	valid := validVotes(votes)
	if len(valid) == 0 {
		return nil
	}

	counts := countByLabel(valid)

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var modes []string
	for label, c := range counts {
		if c == maxCount {
			modes = append(modes, label)
		}
	}

	if len(modes) == 1 {
		return &modes[0]
	}

	// Tie-break: smallest numeric value wins.
	best := math.Inf(1)
	found := false
	for _, m := range modes {
		if n, err := strconv.ParseFloat(m, 64); err == nil && n < best {
			best = n
			found = true
		}
	}
	if found {
		label := strconv.FormatFloat(best, 'f', -1, 64)
		return &label
	}

	sort.Strings(modes)
	return &modes[0]
}

// CalculateVoteStats computes average, median, and agreement over a vote
// snapshot. Numeric aggregates only consider labels that parse as numbers;
// agreement counts every valid label, numeric or not.
func CalculateVoteStats(votes []models.Vote) VoteStats {
	valid := validVotes(votes)
	if len(valid) == 0 {
		return VoteStats{Agreement: 0, VoteCount: 0}
	}

	var numeric []float64
	for _, v := range valid {
		if n, err := strconv.ParseFloat(v.CardLabel, 64); err == nil {
			numeric = append(numeric, n)
		}
	}

	stats := VoteStats{VoteCount: len(valid)}

	if len(numeric) > 0 {
		sum := 0.0
		for _, n := range numeric {
			sum += n
		}
		avg := sum / float64(len(numeric))
		stats.Average = &avg

		sort.Float64s(numeric)
		mid := len(numeric) / 2
		var med float64
		if len(numeric)%2 != 0 {
			med = numeric[mid]
		} else {
			med = (numeric[mid-1] + numeric[mid]) / 2
		}
		stats.Median = &med
	}

	counts := countByLabel(valid)
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	stats.Agreement = int(math.Round(float64(maxCount) / float64(len(valid)) * 100))

	return stats
}
