// internal/game/turn.go
package game

import (
	"context"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
)

// AskCard resolves one "ask player X for card Y" request.
//
// A successful request, or a draw that yields the requested card, keeps the turn with the
// asker; otherwise the turn passes. Any completed family is moved to the asker's ledger, the
// injection policy is evaluated, the end of the game is checked, and every connected player
// receives their own projection. Validation failures return an error and leave state untouched.
func (s *Session) AskCard(ctx context.Context, action models.AskAction) (AskResult, error) {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	s.mu.Lock()
	res, err := s.resolveAsk(action)
	if err != nil {
		s.mu.Unlock()
		return AskResult{}, err
	}
	inject := s.shouldInject()
	s.mu.Unlock()

	if inject {
		if added := s.injectFamilies(ctx); len(added) > 0 {
			names := models.FamilyNames(added)
			res.NewFamiliesAdded = names
			s.mu.Lock()
			if s.LastAction != nil {
				s.LastAction.NewFamiliesAdded = names
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkGameOver() {
		res.GameOver = true
		if s.LastAction != nil {
			s.LastAction.GameOver = true
		}
	}

	s.publishState(EventGameUpdate)
	return res, nil
}

// resolveAsk validates the request and applies the core card movement.
// Every check runs before the first mutation. Assumes lock is held.
func (s *Session) resolveAsk(a models.AskAction) (AskResult, error) {
	if s.Status != StatusPlaying {
		return AskResult{}, ErrGameNotPlaying
	}
	if len(s.Players) == 0 || s.Players[s.CurrentPlayerIndex].ID != a.AskerID {
		return AskResult{}, ErrNotYourTurn
	}
	asker := s.Players[s.CurrentPlayerIndex]

	if a.TargetPlayerID == a.AskerID {
		return AskResult{}, ErrSelfTarget
	}
	target, _ := s.playerLocked(a.TargetPlayerID)
	if target == nil {
		return AskResult{}, ErrTargetNotFound
	}
	if target.Disconnected {
		return AskResult{}, ErrTargetDisconnected
	}

	family, ok := s.familyLocked(a.FamilyID)
	if !ok {
		return AskResult{}, ErrUnknownFamily
	}
	member, ok := models.MemberByID(a.MemberID)
	if !ok {
		return AskResult{}, ErrUnknownMember
	}

	askerHand := s.Hands[asker.ID]
	if !hasFamilyCard(askerHand, family.ID) {
		return AskResult{}, ErrFamilyNotHeld
	}

	ev := &ActionEvent{
		Asker:    asker.Name,
		AskerID:  asker.ID,
		Target:   target.Name,
		TargetID: target.ID,
		Family:   family.Name,
		FamilyID: family.ID,
		Member:   member.Name,
		MemberID: member.ID,
	}
	var res AskResult

	targetHand := s.Hands[target.ID]
	if idx := indexOfCard(targetHand, family.ID, member.ID); idx >= 0 {
		card := targetHand[idx]
		s.Hands[target.ID] = append(targetHand[:idx:idx], targetHand[idx+1:]...)
		s.Hands[asker.ID] = append(askerHand, card)

		ev.Type = ActionSuccess
		ev.Card = &card
		res.GotCard = true
		res.StolenCard = &card
		res.FromPlayerID = target.ID
	} else {
		ev.Type = ActionFail
		if len(s.DrawPile) > 0 {
			drawn := s.DrawPile[len(s.DrawPile)-1]
			s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
			s.Hands[asker.ID] = append(askerHand, drawn)
			res.DrawnCard = &drawn

			if drawn.Matches(family.ID, member.ID) {
				ev.DrewRequestedCard = true
				res.GotCard = true
				res.DrewRequestedCard = true
			}
		} else {
			ev.EmptyDeck = true
			res.EmptyDeck = true
		}
	}

	if s.completeFamily(asker.ID, family) {
		ev.FamilyCompleted = family.Name
		res.FamilyCompleted = family.Name
	}
	// a drawn card can finish a family other than the requested one
	if others := s.completeHeld(asker.ID); len(others) > 0 && ev.FamilyCompleted == "" {
		ev.FamilyCompleted = others[0]
		res.FamilyCompleted = others[0]
	}
	s.countCompleted()

	if res.GotCard {
		// The asker keeps the turn but may have emptied their hand by completing a family.
		s.replenish()
		if !s.canAct(s.CurrentPlayerIndex) {
			s.advanceTurn()
		}
	} else {
		s.advanceTurn()
	}

	s.LastAction = ev
	s.log.WithFields(logrus.Fields{
		"asker":     asker.Name,
		"target":    target.Name,
		"card":      models.CardID(family.ID, member.ID),
		"outcome":   ev.Type,
		"completed": ev.FamilyCompleted,
	}).Debug("card request resolved")
	s.logAction(asker.ID, "ask_card", map[string]interface{}{
		"targetId":          target.ID,
		"familyId":          family.ID,
		"memberId":          member.ID,
		"outcome":           string(ev.Type),
		"drewRequestedCard": ev.DrewRequestedCard,
		"emptyDeck":         ev.EmptyDeck,
		"familyCompleted":   ev.FamilyCompleted,
	})
	return res, nil
}

// completeFamily moves all six cards of family from the player's hand into a new ledger
// entry when the hand holds the full set. Assumes lock is held.
func (s *Session) completeFamily(playerID string, family models.Family) bool {
	hand := s.Hands[playerID]
	if countFamily(hand, family.ID) != models.MembersPerFamily {
		return false
	}
	cards, rest := extractFamily(hand, family.ID)
	s.Hands[playerID] = rest
	s.Completed[playerID] = append(s.Completed[playerID], models.CompletedFamily{
		FamilyID:   family.ID,
		FamilyName: family.Name,
		Cards:      cards,
	})
	if s.FirstFamilyCompletedBy == "" {
		s.FirstFamilyCompletedBy = playerID
	}
	s.log.WithFields(logrus.Fields{"player": playerID, "family": family.Name}).Info("family completed")
	return true
}

// completeHeld moves every full set in the player's hand into their ledger and returns the
// names of the families completed. Assumes lock is held.
func (s *Session) completeHeld(playerID string) []string {
	var names []string
	for _, f := range s.Families {
		if s.completeFamily(playerID, f) {
			names = append(names, f.Name)
		}
	}
	return names
}

// familyLocked finds an active family by id. Assumes lock is held.
func (s *Session) familyLocked(id string) (models.Family, bool) {
	for _, f := range s.Families {
		if f.ID == id {
			return f, true
		}
	}
	return models.Family{}, false
}
