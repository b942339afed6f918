// internal/models/game_action.go
package models

// AskAction is a player's request for a specific card from another player.
type AskAction struct {
	AskerID        string `json:"askerId"`
	TargetPlayerID string `json:"targetPlayerId"`
	FamilyID       string `json:"familyId"`
	MemberID       string `json:"memberId"`
}
