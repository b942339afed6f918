// internal/game/errors.go
package game

import "errors"

// Validation errors. They are returned to the caller only and never mutate session state.
var (
	ErrSessionNotFound    = errors.New("game not found")
	ErrAlreadyInSession   = errors.New("player is already in a game")
	ErrInvalidName        = errors.New("player name is required")
	ErrGameNotWaiting     = errors.New("game has already started")
	ErrGameNotPlaying     = errors.New("game is not in progress")
	ErrRoomFull           = errors.New("game is full")
	ErrNameTaken          = errors.New("name is already taken")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrStartInProgress    = errors.New("game is already being prepared")
	ErrNoFamilies         = errors.New("no families available")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrFamilyNotHeld      = errors.New("you must hold at least one card of that family")
	ErrUnknownFamily      = errors.New("family is not part of this game")
	ErrUnknownMember      = errors.New("unknown family member")
	ErrTargetNotFound     = errors.New("target player not found")
	ErrSelfTarget         = errors.New("cannot ask yourself for a card")
	ErrTargetDisconnected = errors.New("target player is disconnected")
	ErrCodeSpaceExhausted = errors.New("could not allocate a join code")
)
