package models

import (
	"strconv"
	"strings"
)

// VotingScale defines the deck of card labels a room votes with.
type VotingScale struct {
	Type      string   `json:"type"`
	Label     string   `json:"label"`
	Cards     []string `json:"cards"`
	IsNumeric bool     `json:"is_numeric"`
}

const (
	ScaleFibonacci = "fibonacci"
	ScaleStandard  = "standard"
	ScaleTShirt    = "tshirt"
	ScaleCustom    = "custom"
)

var VotingScales = map[string]VotingScale{
	ScaleFibonacci: {
		Type:      ScaleFibonacci,
		Label:     "Fibonacci",
		Cards:     []string{"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "∞", "?", "☕"},
		IsNumeric: true,
	},
	ScaleStandard: {
		Type:      ScaleStandard,
		Label:     "Standard",
		Cards:     []string{"0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100", "?", "☕"},
		IsNumeric: true,
	},
	ScaleTShirt: {
		Type:      ScaleTShirt,
		Label:     "T-Shirt Sizes",
		Cards:     []string{"XS", "S", "M", "L", "XL", "XXL", "?", "☕"},
		IsNumeric: false,
	},
}

// SpecialCards are placeholder labels excluded from numeric aggregates.
var SpecialCards = []string{"∞", "?", "☕", "coffee"}

func IsSpecialCard(label string) bool {
	for _, c := range SpecialCards {
		if c == label {
			return true
		}
	}
	return false
}

// IsNumericCard reports whether a card label parses as a number.
// Special cards are never numeric.
func IsNumericCard(label string) bool {
	if IsSpecialCard(label) {
		return false
	}
	_, err := strconv.ParseFloat(label, 64)
	return err == nil
}

// Scale reconstructs the room's voting scale from its stored columns.
func (r *Room) Scale() VotingScale {
	return VotingScale{
		Type:      r.ScaleType,
		Cards:     strings.Split(r.ScaleCards, ","),
		IsNumeric: r.ScaleIsNumeric,
	}
}

// HasCard reports whether label is part of the scale.
func (s VotingScale) HasCard(label string) bool {
	for _, c := range s.Cards {
		if c == label {
			return true
		}
	}
	return false
}

// CardIndex returns label's position in the scale, or -1.
func (s VotingScale) CardIndex(label string) int {
	for i, c := range s.Cards {
		if c == label {
			return i
		}
	}
	return -1
}
