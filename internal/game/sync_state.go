// internal/game/sync_state.go
package game

import (
	"sort"

	"github.com/jason-s-yu/happyfamilies/internal/models"
)

// View is the projection of a session for one player: their own hand in full, everyone
// else's hand as a count only. Completed families and the last action are public.
type View struct {
	Code                  string                              `json:"code"`
	Status                Status                              `json:"status"`
	HostID                string                              `json:"hostId"`
	Players               []models.Player                     `json:"players"`
	CurrentPlayerIndex    int                                 `json:"currentPlayerIndex"`
	CurrentPlayerID       string                              `json:"currentPlayerId,omitempty"`
	MyHand                []models.Card                       `json:"myHand"`
	OtherPlayersCardCount map[string]int                      `json:"otherPlayersCardCount"`
	DrawPileCount         int                                 `json:"drawPileCount"`
	CompletedFamilies     map[string][]models.CompletedFamily `json:"completedFamilies"`
	LastAction            *ActionEvent                        `json:"lastAction,omitempty"`
	Families              []models.Family                     `json:"families"`
	Members               []models.Member                     `json:"members"`
	IsMyTurn              bool                                `json:"isMyTurn"`
	TotalFamiliesInGame   int                                 `json:"totalFamiliesInGame"`
	FamiliesCompleted     int                                 `json:"familiesCompleted"`
	Standings             []Standing                          `json:"standings,omitempty"`
}

// Standing is one row of the final scoreboard.
type Standing struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Families int    `json:"families"`
}

// ViewFor returns the projection of the session for playerID.
func (s *Session) ViewFor(playerID string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(playerID)
}

// viewLocked builds a projection that shares no mutable memory with the session, so it can be
// marshaled after the lock is released. Assumes lock is held.
func (s *Session) viewLocked(playerID string) View {
	v := View{
		Code:                  s.Code,
		Status:                s.Status,
		HostID:                s.HostID,
		Players:               s.rosterLocked(),
		CurrentPlayerIndex:    s.CurrentPlayerIndex,
		MyHand:                append([]models.Card{}, s.Hands[playerID]...),
		OtherPlayersCardCount: make(map[string]int, len(s.Players)),
		DrawPileCount:         len(s.DrawPile),
		CompletedFamilies:     make(map[string][]models.CompletedFamily, len(s.Completed)),
		Families:              append([]models.Family{}, s.Families...),
		Members:               append([]models.Member{}, models.Members[:]...),
		TotalFamiliesInGame:   s.TotalFamiliesInGame,
		FamiliesCompleted:     s.FamiliesCompleted,
	}

	if s.CurrentPlayerIndex >= 0 && s.CurrentPlayerIndex < len(s.Players) {
		v.CurrentPlayerID = s.Players[s.CurrentPlayerIndex].ID
	}
	v.IsMyTurn = s.Status == StatusPlaying && v.CurrentPlayerID == playerID

	for _, p := range s.Players {
		if p.ID != playerID {
			v.OtherPlayersCardCount[p.ID] = len(s.Hands[p.ID])
		}
	}
	for id, entries := range s.Completed {
		v.CompletedFamilies[id] = append([]models.CompletedFamily{}, entries...)
	}
	if s.LastAction != nil {
		last := *s.LastAction
		last.NewFamiliesAdded = append([]string(nil), s.LastAction.NewFamiliesAdded...)
		v.LastAction = &last
	}
	if s.Status == StatusFinished {
		v.Standings = s.standingsLocked()
	}
	return v
}

// Standings ranks players by completed families, highest first.
func (s *Session) Standings() []Standing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.standingsLocked()
}

// standingsLocked sorts by completed-family count; ties keep roster order. The first player to
// complete a family is tracked on the session but deliberately not used here.
// Assumes lock is held.
func (s *Session) standingsLocked() []Standing {
	rows := make([]Standing, 0, len(s.Players))
	for _, p := range s.Players {
		rows = append(rows, Standing{PlayerID: p.ID, Name: p.Name, Families: len(s.Completed[p.ID])})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Families > rows[j].Families })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
