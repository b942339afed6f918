// internal/models/player.go
package models

// Player is a roster entry in a game session. The ID is scoped to a single transport
// connection; names are unique within a session.
type Player struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Ready        bool   `json:"ready"`
	Disconnected bool   `json:"disconnected,omitempty"`
}

// CompletedFamily is a finished six-card set credited to one player. It never re-enters play.
type CompletedFamily struct {
	FamilyID   string `json:"familyId"`
	FamilyName string `json:"familyName"`
	Cards      []Card `json:"cards"`
}
