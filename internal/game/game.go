// internal/game/game.go
package game

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
)

// Status is the lifecycle phase of a session. Transitions only move forward:
// waiting -> playing -> finished.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// FamilyProvider supplies family definitions and can grow the catalog on demand.
// GenerateMore is best effort: it may return fewer than n families, or none, but never fails.
type FamilyProvider interface {
	AllFamilies() []models.Family
	SelectRandom(ctx context.Context, n int) []models.Family
	GenerateMore(ctx context.Context, n int) []models.Family
}

// Illustrator is optionally implemented by a FamilyProvider that prepares artwork for
// a family before its cards are dealt.
type Illustrator interface {
	Illustrate(ctx context.Context, f models.Family) error
}

// Session holds the authoritative state of one room, from creation to the end of the game.
type Session struct {
	// ID is unique across the process lifetime; Code is only unique among live sessions.
	ID        string
	Code      string
	HostID    string
	CreatedAt time.Time
	Rules     Rules

	Status             Status
	Players            []*models.Player
	Hands              map[string][]models.Card
	DrawPile           []models.Card
	Completed          map[string][]models.CompletedFamily
	CurrentPlayerIndex int

	// Families is the subset of the catalog in play, including injected families.
	Families               []models.Family
	TotalFamiliesInGame    int
	FamiliesCompleted      int
	FirstFamilyCompletedBy string // recorded for a tie-break rule that ranking does not use
	LastAction             *ActionEvent

	// preparing is set while Start is talking to the catalog.
	preparing bool
	// pendingNewFamilies is set while an injection is talking to the catalog.
	pendingNewFamilies bool
	actionIndex        int

	provider FamilyProvider
	rng      Rand
	log      *logrus.Entry

	// BroadcastToPlayerFn delivers an event to one connected player. If nil, nothing is sent.
	BroadcastToPlayerFn func(playerID string, ev Event)

	// ActionLogFn receives an operator record for every state-changing action.
	ActionLogFn func(rec ActionRecord)

	// OnEmpty is invoked (with the lock held) when the last player leaves a waiting room or
	// the last connected player drops out of a started one.
	OnEmpty func(code string)

	mu sync.Mutex
	// actionMu serializes turn resolutions, including the slow injection step.
	actionMu sync.Mutex
}

// NewSession creates a waiting session with host as its only roster member.
func NewSession(code string, host *models.Player, provider FamilyProvider, rules Rules, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		ID:        uuid.NewString(),
		Code:      code,
		HostID:    host.ID,
		CreatedAt: time.Now(),
		Rules:     rules,
		Status:    StatusWaiting,
		Players:   []*models.Player{host},
		Hands:     make(map[string][]models.Card),
		Completed: make(map[string][]models.CompletedFamily),
		provider:  provider,
		rng:       newRand(),
		log:       logger.WithField("session", code),
	}
}

// SetRand replaces the shuffle source. Intended for deterministic tests.
func (s *Session) SetRand(rng Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rng
}

// CurrentStatus returns the lifecycle phase.
func (s *Session) CurrentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status
}

// Roster returns a copy of the players in seat order.
func (s *Session) Roster() []models.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

// Join appends a new, not-ready player to a waiting session.
func (s *Session) Join(playerID, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != StatusWaiting {
		return ErrGameNotWaiting
	}
	if len(s.Players) == 0 {
		// emptied and already dropped from the store
		return ErrSessionNotFound
	}
	if len(s.Players) >= s.Rules.MaxPlayers {
		return fmt.Errorf("%w (%d players max)", ErrRoomFull, s.Rules.MaxPlayers)
	}
	for _, p := range s.Players {
		if p.Name == name {
			return ErrNameTaken
		}
		if p.ID == playerID {
			return ErrAlreadyInSession
		}
	}

	s.Players = append(s.Players, &models.Player{ID: playerID, Name: name})
	s.log.WithField("player", name).Info("player joined")
	s.logAction(playerID, "player_join", map[string]interface{}{"name": name})

	s.fireEvent(Event{
		Type: EventPlayerJoined,
		Payload: map[string]interface{}{
			"players":   s.rosterLocked(),
			"newPlayer": name,
		},
	})
	return nil
}

// SetReady updates a player's advisory ready flag. It never gates Start.
func (s *Session) SetReady(playerID string, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.playerLocked(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.Ready = ready
	s.logAction(playerID, "player_ready", map[string]interface{}{"ready": ready})

	s.fireEvent(Event{
		Type: EventPlayerReady,
		Payload: map[string]interface{}{
			"playerId": playerID,
			"ready":    ready,
			"players":  s.rosterLocked(),
		},
	})
	return nil
}

// Start selects the initial families, deals hands and moves the session to playing.
// Only the host may start, and only one Start may be in flight per session. The state lock
// is released while the catalog is consulted, so the roster is re-checked before dealing.
func (s *Session) Start(ctx context.Context, callerID string) error {
	s.mu.Lock()
	if s.Status != StatusWaiting {
		s.mu.Unlock()
		return ErrGameNotWaiting
	}
	if callerID != s.HostID {
		s.mu.Unlock()
		return ErrNotHost
	}
	if len(s.Players) < s.Rules.MinPlayers {
		s.mu.Unlock()
		return fmt.Errorf("%w (need at least %d)", ErrNotEnoughPlayers, s.Rules.MinPlayers)
	}
	if s.preparing {
		s.mu.Unlock()
		return ErrStartInProgress
	}
	s.preparing = true
	count := s.Rules.InitialFamilies
	s.mu.Unlock()

	catalogCtx, cancel := s.catalogContext(ctx)
	defer cancel()

	families := s.selectFamilies(catalogCtx, count)
	if len(families) == 0 {
		s.mu.Lock()
		s.preparing = false
		s.mu.Unlock()
		return ErrNoFamilies
	}

	s.mu.Lock()
	s.fireEvent(Event{
		Type: EventPreparingGame,
		Payload: map[string]interface{}{
			"message":       "Preparing the cards...",
			"familiesCount": len(families),
		},
	})
	s.mu.Unlock()

	s.illustrate(catalogCtx, families)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.preparing = false

	if s.Status != StatusWaiting {
		return ErrGameNotWaiting
	}
	if len(s.Players) < s.Rules.MinPlayers {
		return fmt.Errorf("%w (need at least %d)", ErrNotEnoughPlayers, s.Rules.MinPlayers)
	}

	s.Families = append([]models.Family(nil), families...)
	s.TotalFamiliesInGame = len(families)
	s.deal(Shuffle(BuildDeck(families), s.rng))
	s.Status = StatusPlaying
	s.CurrentPlayerIndex = 0

	s.log.WithFields(logrus.Fields{
		"players":  len(s.Players),
		"families": strings.Join(models.FamilyNames(families), ", "),
	}).Info("game started")
	s.logAction(callerID, "game_start", map[string]interface{}{
		"families": models.FamilyIDs(families),
		"players":  len(s.Players),
	})

	s.publishState(EventGameStarted)
	return nil
}

// deal hands out CardsPerPlayer cards per player in roster order; the rest is the draw pile.
// Assumes lock is held.
func (s *Session) deal(deck []models.Card) {
	per := s.Rules.CardsPerPlayer
	for i, p := range s.Players {
		lo := min(i*per, len(deck))
		hi := min((i+1)*per, len(deck))
		s.Hands[p.ID] = append([]models.Card(nil), deck[lo:hi]...)
		s.Completed[p.ID] = []models.CompletedFamily{}
	}
	rest := min(len(s.Players)*per, len(deck))
	s.DrawPile = append([]models.Card(nil), deck[rest:]...)
}

// Disconnect handles a lost connection. While waiting the player leaves the roster (and the
// session is emptied out when nobody remains); while playing the player is only flagged so
// seat indices and ledger ownership stay stable. Repeated calls are no-ops.
// It returns true when the player was removed from the roster.
func (s *Session) Disconnect(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, idx := s.playerLocked(playerID)
	if p == nil {
		return false
	}

	if s.Status == StatusWaiting {
		s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
		s.logAction(playerID, "player_leave", map[string]interface{}{"name": p.Name})

		if len(s.Players) == 0 {
			s.log.Info("session emptied")
			s.logAction("", "session_closed", nil)
			if s.OnEmpty != nil {
				s.OnEmpty(s.Code)
			}
			return true
		}
		if s.HostID == playerID {
			s.HostID = s.Players[0].ID
			s.log.WithField("host", s.Players[0].Name).Info("host left, leadership transferred")
		}
		s.fireEvent(Event{
			Type: EventPlayerLeft,
			Payload: map[string]interface{}{
				"playerName": p.Name,
				"players":    s.rosterLocked(),
				"newHost":    s.HostID,
			},
		})
		return true
	}

	if p.Disconnected {
		return false
	}
	p.Disconnected = true
	s.log.WithField("player", p.Name).Info("player disconnected")
	s.logAction(playerID, "player_disconnect", nil)

	if s.Status == StatusPlaying && s.CurrentPlayerIndex == idx {
		s.advanceTurn()
	}

	if s.allDisconnected() {
		s.log.Info("every player disconnected, session abandoned")
		s.logAction("", "session_abandoned", nil)
		if s.OnEmpty != nil {
			s.OnEmpty(s.Code)
		}
		return false
	}

	s.checkGameOver()
	s.fireEvent(Event{
		Type: EventPlayerDisconnected,
		Payload: map[string]interface{}{
			"playerName": p.Name,
			"players":    s.rosterLocked(),
		},
	})
	s.publishState(EventGameUpdate)
	return false
}

// allDisconnected reports whether no roster member is still connected. Assumes lock is held.
func (s *Session) allDisconnected() bool {
	for _, p := range s.Players {
		if !p.Disconnected {
			return false
		}
	}
	return true
}

// advanceTurn moves the turn pointer to the next seat, wrapping around. Seats whose player is
// disconnected, or who cannot act (empty hand and empty draw pile), are skipped. When no seat
// qualifies the pointer simply moves one seat forward.
// Assumes lock is held.
func (s *Session) advanceTurn() {
	n := len(s.Players)
	if n == 0 {
		return
	}
	for step := 1; step <= n; step++ {
		idx := (s.CurrentPlayerIndex + step) % n
		if s.canAct(idx) {
			s.CurrentPlayerIndex = idx
			s.replenish()
			return
		}
	}
	s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % n
}

// canAct reports whether the seat can make a request on its turn.
// Assumes lock is held.
func (s *Session) canAct(idx int) bool {
	p := s.Players[idx]
	if p.Disconnected {
		return false
	}
	return len(s.Hands[p.ID]) > 0 || len(s.DrawPile) > 0
}

// replenish draws one card for the current player when their hand is empty, so that they hold
// a family to ask about. Assumes lock is held.
func (s *Session) replenish() {
	if len(s.Players) == 0 || len(s.DrawPile) == 0 {
		return
	}
	id := s.Players[s.CurrentPlayerIndex].ID
	if len(s.Hands[id]) > 0 {
		return
	}
	card := s.DrawPile[len(s.DrawPile)-1]
	s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
	s.Hands[id] = append(s.Hands[id], card)
	s.logAction(id, "player_replenish", map[string]interface{}{"cardId": card.ID})
}

// checkGameOver finishes the game once the draw pile is empty and at most one connected player
// still holds cards (nobody can make a productive request any more). Cards held by disconnected
// players cannot be requested, so they do not keep the game alive.
// Assumes lock is held.
func (s *Session) checkGameOver() bool {
	if s.Status != StatusPlaying || len(s.DrawPile) > 0 {
		return false
	}
	// full sets can still sit in a hand straight from the deal
	for _, p := range s.Players {
		s.completeHeld(p.ID)
	}
	s.countCompleted()

	holders := 0
	for _, p := range s.Players {
		if !p.Disconnected && len(s.Hands[p.ID]) > 0 {
			holders++
		}
	}
	if holders > 1 {
		return false
	}
	s.Status = StatusFinished
	s.log.WithField("completed", s.FamiliesCompleted).Info("game finished")
	s.logAction("", "game_end", map[string]interface{}{"scores": s.scores()})
	return true
}

// countCompleted recomputes the number of completed families across all players.
// Assumes lock is held.
func (s *Session) countCompleted() int {
	total := 0
	for _, entries := range s.Completed {
		total += len(entries)
	}
	s.FamiliesCompleted = total
	return total
}

// scores maps player id to completed-family count. Assumes lock is held.
func (s *Session) scores() map[string]int {
	out := make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		out[p.ID] = len(s.Completed[p.ID])
	}
	return out
}

// playerLocked finds a roster entry and its seat index. Assumes lock is held.
func (s *Session) playerLocked(id string) (*models.Player, int) {
	for i, p := range s.Players {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

// rosterLocked copies the roster for publication. Assumes lock is held.
func (s *Session) rosterLocked() []models.Player {
	out := make([]models.Player, len(s.Players))
	for i, p := range s.Players {
		out[i] = *p
	}
	return out
}

// fireEvent sends ev to every connected roster member. Assumes lock is held.
func (s *Session) fireEvent(ev Event) {
	for _, p := range s.Players {
		s.fireEventToPlayer(p, ev)
	}
}

// fireEventToPlayer sends ev to one player if they are still connected. Assumes lock is held.
func (s *Session) fireEventToPlayer(p *models.Player, ev Event) {
	if s.BroadcastToPlayerFn == nil || p.Disconnected {
		return
	}
	s.BroadcastToPlayerFn(p.ID, ev)
}

// publishState sends every connected player their own projection. Assumes lock is held.
func (s *Session) publishState(t EventType) {
	for _, p := range s.Players {
		if p.Disconnected {
			continue
		}
		view := s.viewLocked(p.ID)
		s.fireEventToPlayer(p, Event{Type: t, State: &view})
	}
}

// logAction emits an operator record through ActionLogFn. Assumes lock is held.
func (s *Session) logAction(actorID, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if s.ActionLogFn == nil {
		return
	}
	s.ActionLogFn(ActionRecord{
		SessionID:   s.ID,
		SessionCode: s.Code,
		ActionIndex: s.actionIndex,
		ActorID:     actorID,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now(),
	})
}

// catalogContext bounds a catalog interaction by Rules.CatalogTimeout.
func (s *Session) catalogContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Rules.CatalogTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Rules.CatalogTimeout)
}

// selectFamilies asks the provider for the initial families, treating a panic as "none".
// Must be called without the lock.
func (s *Session) selectFamilies(ctx context.Context, n int) (families []models.Family) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("family provider failed during start")
			families = nil
		}
	}()
	return dedupeFamilies(s.provider.SelectRandom(ctx, n), nil)
}

// illustrate warms artwork for each family, notifying the room of progress. Failures are logged
// and ignored. Must be called without the lock.
func (s *Session) illustrate(ctx context.Context, families []models.Family) {
	il, ok := s.provider.(Illustrator)
	if !ok {
		return
	}
	for i, f := range families {
		s.mu.Lock()
		s.fireEvent(Event{
			Type: EventGeneratingImages,
			Payload: map[string]interface{}{
				"familyName": f.Name,
				"current":    i + 1,
				"total":      len(families),
				"message":    fmt.Sprintf("Drawing cards: %s (%d/%d)", f.Name, i+1, len(families)),
			},
		})
		s.mu.Unlock()

		if err := il.Illustrate(ctx, f); err != nil {
			s.log.WithError(err).WithField("family", f.ID).Warn("artwork warm-up failed")
		}
	}
}

// dedupeFamilies drops families with an empty id, ids already in taken, and repeats.
func dedupeFamilies(families []models.Family, taken map[string]bool) []models.Family {
	seen := make(map[string]bool, len(families))
	out := make([]models.Family, 0, len(families))
	for _, f := range families {
		if f.ID == "" || taken[f.ID] || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}
