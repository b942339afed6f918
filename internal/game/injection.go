// internal/game/injection.go
package game

import (
	"context"
	"strings"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
)

// shouldInject reports whether unclaimed families have run low enough to grow the deck.
// Injection only makes sense while cards are still being drawn.
// Assumes lock is held.
func (s *Session) shouldInject() bool {
	if s.Status != StatusPlaying || len(s.DrawPile) == 0 || s.Rules.NewFamiliesToAdd <= 0 {
		return false
	}
	remaining := s.TotalFamiliesInGame - s.countCompleted()
	return remaining <= s.Rules.NewFamiliesThreshold
}

// injectFamilies asks the catalog for new families and shuffles their cards into the draw
// pile. Only one injection runs per session at a time; an overlapping call returns nil
// without touching state. Catalog failures and empty results leave the game unchanged.
// Must be called without the lock.
func (s *Session) injectFamilies(ctx context.Context) []models.Family {
	s.mu.Lock()
	if s.pendingNewFamilies || s.Status != StatusPlaying {
		s.mu.Unlock()
		return nil
	}
	s.pendingNewFamilies = true
	count := s.Rules.NewFamiliesToAdd
	s.mu.Unlock()

	catalogCtx, cancel := s.catalogContext(ctx)
	defer cancel()

	generated := s.generateFamilies(catalogCtx, count)

	s.mu.Lock()
	fresh := dedupeFamilies(generated, s.activeFamilyIDs())
	if len(fresh) > count {
		fresh = fresh[:count]
	}
	if len(fresh) == 0 {
		s.pendingNewFamilies = false
		s.mu.Unlock()
		s.log.Info("no new families available")
		return nil
	}
	s.fireEvent(Event{
		Type: EventAddingNewFamilies,
		Payload: map[string]interface{}{
			"message": "New families are on their way...",
			"count":   len(fresh),
		},
	})
	s.mu.Unlock()

	s.illustrate(catalogCtx, fresh)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingNewFamilies = false

	if s.Status != StatusPlaying {
		return nil
	}
	// Families only change here, under pendingNewFamilies, but filter again so the
	// active set can never hold the same id twice.
	fresh = dedupeFamilies(fresh, s.activeFamilyIDs())
	if len(fresh) == 0 {
		return nil
	}

	s.Families = append(s.Families, fresh...)
	s.TotalFamiliesInGame += len(fresh)
	pile := append(s.DrawPile, Shuffle(BuildDeck(fresh), s.rng)...)
	s.DrawPile = Shuffle(pile, s.rng)

	s.log.WithFields(logrus.Fields{
		"added":    strings.Join(models.FamilyNames(fresh), ", "),
		"total":    s.TotalFamiliesInGame,
		"drawPile": len(s.DrawPile),
	}).Info("new families added")
	s.logAction("", "families_added", map[string]interface{}{
		"families": models.FamilyIDs(fresh),
		"total":    s.TotalFamiliesInGame,
	})
	return fresh
}

// generateFamilies calls the provider, treating a panic as an empty result.
// Must be called without the lock.
func (s *Session) generateFamilies(ctx context.Context, n int) (families []models.Family) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("family provider failed during injection")
			families = nil
		}
	}()
	return s.provider.GenerateMore(ctx, n)
}

// activeFamilyIDs returns the set of family ids in play. Assumes lock is held.
func (s *Session) activeFamilyIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Families))
	for _, f := range s.Families {
		ids[f.ID] = true
	}
	return ids
}
