package models

const (
	PermLevelEveryone     = "everyone"
	PermLevelFacilitators = "facilitators"
	PermLevelOwner        = "owner"
)

const (
	PermCategoryRevealCards     = "revealCards"
	PermCategoryGameFlow        = "gameFlow"
	PermCategoryIssueManagement = "issueManagement"
	PermCategoryRoomSettings    = "roomSettings"
)

// RoomPermissions maps each action category to its required level.
type RoomPermissions struct {
	RevealCards     string `json:"reveal_cards"`
	GameFlow        string `json:"game_flow"`
	IssueManagement string `json:"issue_management"`
	RoomSettings    string `json:"room_settings"`
}

func DefaultPermissions() RoomPermissions {
	return RoomPermissions{
		RevealCards:     PermLevelEveryone,
		GameFlow:        PermLevelEveryone,
		IssueManagement: PermLevelEveryone,
		RoomSettings:    PermLevelEveryone,
	}
}

// EffectivePermissions resolves the room's nullable permission columns,
// falling back to the defaults for legacy rooms.
func (r *Room) EffectivePermissions() RoomPermissions {
	p := DefaultPermissions()
	if r.PermRevealCards != nil {
		p.RevealCards = *r.PermRevealCards
	}
	if r.PermGameFlow != nil {
		p.GameFlow = *r.PermGameFlow
	}
	if r.PermIssueManage != nil {
		p.IssueManagement = *r.PermIssueManage
	}
	if r.PermRoomSettings != nil {
		p.RoomSettings = *r.PermRoomSettings
	}
	return p
}

// Level returns the required level for a category.
func (p RoomPermissions) Level(category string) string {
	switch category {
	case PermCategoryRevealCards:
		return p.RevealCards
	case PermCategoryGameFlow:
		return p.GameFlow
	case PermCategoryIssueManagement:
		return p.IssueManagement
	case PermCategoryRoomSettings:
		return p.RoomSettings
	}
	return PermLevelEveryone
}

func ValidPermLevel(level string) bool {
	return level == PermLevelEveryone || level == PermLevelFacilitators || level == PermLevelOwner
}
