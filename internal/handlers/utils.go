// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/happyfamilies/internal/game"
)

// errorCodes maps validation errors to stable identifiers clients can switch on.
var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrSessionNotFound, "game_not_found"},
	{game.ErrAlreadyInSession, "already_in_game"},
	{game.ErrInvalidName, "invalid_name"},
	{game.ErrGameNotWaiting, "game_started"},
	{game.ErrGameNotPlaying, "game_not_playing"},
	{game.ErrRoomFull, "game_full"},
	{game.ErrNameTaken, "name_taken"},
	{game.ErrNotHost, "not_host"},
	{game.ErrNotEnoughPlayers, "not_enough_players"},
	{game.ErrStartInProgress, "start_in_progress"},
	{game.ErrNoFamilies, "no_families"},
	{game.ErrPlayerNotFound, "player_not_found"},
	{game.ErrNotYourTurn, "not_your_turn"},
	{game.ErrFamilyNotHeld, "family_not_held"},
	{game.ErrUnknownFamily, "unknown_family"},
	{game.ErrUnknownMember, "unknown_member"},
	{game.ErrTargetNotFound, "target_not_found"},
	{game.ErrSelfTarget, "self_target"},
	{game.ErrTargetDisconnected, "target_disconnected"},
	{game.ErrCodeSpaceExhausted, "no_code_available"},
}

// errorCode returns the stable identifier for err, or "internal" for unexpected errors.
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// baseURL returns the externally visible origin of the server. A configured public URL wins;
// otherwise it is rebuilt from the request, honoring X-Forwarded-Proto behind a proxy.
func baseURL(publicURL string, r *http.Request) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + r.Host
}
