package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSpecialCard(t *testing.T) {
	for _, label := range []string{"∞", "?", "☕", "coffee"} {
		assert.True(t, IsSpecialCard(label), label)
	}
	assert.False(t, IsSpecialCard("5"))
	assert.False(t, IsSpecialCard("M"))
	assert.False(t, IsSpecialCard(""))
}

func TestIsNumericCard(t *testing.T) {
	assert.True(t, IsNumericCard("5"))
	assert.True(t, IsNumericCard("0.5"))
	assert.False(t, IsNumericCard("M"))
	assert.False(t, IsNumericCard("∞"))
	assert.False(t, IsNumericCard(""))
}

func TestRoomScaleRoundTrip(t *testing.T) {
	room := Room{
		ScaleType:      ScaleFibonacci,
		ScaleCards:     "0,1,2,3,5,8,13,21,34,55,89,∞,?,☕",
		ScaleIsNumeric: true,
	}
	scale := room.Scale()

	assert.Equal(t, VotingScales[ScaleFibonacci].Cards, scale.Cards)
	assert.True(t, scale.HasCard("13"))
	assert.False(t, scale.HasCard("14"))
	assert.Equal(t, 3, scale.CardIndex("3"))
	assert.Equal(t, -1, scale.CardIndex("nope"))
}

func TestEffectivePermissionsFallsBackToDefaults(t *testing.T) {
	var room Room
	assert.Equal(t, DefaultPermissions(), room.EffectivePermissions())

	level := PermLevelOwner
	room.PermRoomSettings = &level
	got := room.EffectivePermissions()
	assert.Equal(t, PermLevelOwner, got.RoomSettings)
	assert.Equal(t, PermLevelEveryone, got.RevealCards)
}

func TestEffectiveRoleDefaultsToParticipant(t *testing.T) {
	var m Membership
	assert.Equal(t, RoleParticipant, m.EffectiveRole())

	role := RoleOwner
	m.Role = &role
	assert.Equal(t, RoleOwner, m.EffectiveRole())
}
