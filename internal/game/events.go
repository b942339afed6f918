// internal/game/events.go
package game

import (
	"time"

	"github.com/jason-s-yu/happyfamilies/internal/models"
)

// EventType names a message the session pushes to the room.
type EventType string

const (
	EventPlayerJoined       EventType = "playerJoined"
	EventPlayerLeft         EventType = "playerLeft"
	EventPlayerReady        EventType = "playerReady"
	EventGameStarted        EventType = "gameStarted"        // private: carries the recipient's View
	EventGameUpdate         EventType = "gameUpdate"         // private: carries the recipient's View
	EventPlayerDisconnected EventType = "playerDisconnected" // public roster update while playing
	EventPreparingGame      EventType = "preparingGame"      // progress: families selected, dealing soon
	EventGeneratingImages   EventType = "generatingImages"   // progress: per-family artwork warm-up
	EventAddingNewFamilies  EventType = "addingNewFamilies"  // progress: injection in flight
)

// Event is the envelope delivered to a single connected player.
// State is only set for per-player projections.
type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *View                  `json:"state,omitempty"`
}

// ActionType classifies the outcome of the most recent card request.
type ActionType string

const (
	ActionSuccess ActionType = "success" // target handed over the card
	ActionFail    ActionType = "fail"    // target did not hold the card
)

// ActionEvent is the shared narration of the last turn resolution, visible to every player.
type ActionEvent struct {
	Type              ActionType   `json:"type"`
	Asker             string       `json:"asker"`
	AskerID           string       `json:"askerId"`
	Target            string       `json:"target"`
	TargetID          string       `json:"targetId"`
	Family            string       `json:"family"`
	FamilyID          string       `json:"familyId"`
	Member            string       `json:"member"`
	MemberID          string       `json:"memberId"`
	Card              *models.Card `json:"card,omitempty"` // transferred card, success only
	DrewRequestedCard bool         `json:"drewRequestedCard,omitempty"`
	EmptyDeck         bool         `json:"emptyDeck,omitempty"`
	FamilyCompleted   string       `json:"familyCompleted,omitempty"`
	NewFamiliesAdded  []string     `json:"newFamiliesAdded,omitempty"`
	GameOver          bool         `json:"gameOver,omitempty"`
}

// AskResult is the synchronous acknowledgement returned to the asker.
type AskResult struct {
	GotCard           bool         `json:"gotCard"`
	DrewRequestedCard bool         `json:"drewRequestedCard,omitempty"`
	EmptyDeck         bool         `json:"emptyDeck,omitempty"`
	StolenCard        *models.Card `json:"stolenCard,omitempty"`
	FromPlayerID      string       `json:"fromPlayerId,omitempty"`
	DrawnCard         *models.Card `json:"drawnCard,omitempty"`
	FamilyCompleted   string       `json:"familyCompleted,omitempty"`
	NewFamiliesAdded  []string     `json:"newFamiliesAdded,omitempty"`
	GameOver          bool         `json:"gameOver,omitempty"`
}

// ActionRecord is the operator-facing log entry emitted for every state-changing action.
type ActionRecord struct {
	SessionID   string                 `json:"session_id"`
	SessionCode string                 `json:"session_code"`
	ActionIndex int                    `json:"action_index"`
	ActorID     string                 `json:"actor_id,omitempty"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"action_payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}
