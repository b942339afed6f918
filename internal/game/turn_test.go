// internal/game/turn_test.go
package game

import (
	"context"
	"math/rand"
	"testing"

	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setState overwrites hands and the draw pile and hands the turn to seat 0.
func setState(s *Session, hands map[string][]models.Card, pile []models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.Hands {
		s.Hands[id] = nil
	}
	for id, h := range hands {
		s.Hands[id] = h
	}
	s.DrawPile = pile
	s.CurrentPlayerIndex = 0
}

func ask(asker, target, family, member string) models.AskAction {
	return models.AskAction{AskerID: asker, TargetPlayerID: target, FamilyID: family, MemberID: member}
}

func TestAskSuccessKeepsTurn(t *testing.T) {
	s, mb, _ := setupStartedSession(t, 2, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather"),
		"p1": cards(t, s, "baker", "grandmother", "father"),
	}, cards(t, s, "astronaut", "son", "daughter"))

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "grandmother"))
	require.NoError(t, err)

	assert.True(t, res.GotCard)
	require.NotNil(t, res.StolenCard)
	assert.Equal(t, "baker-grandmother", res.StolenCard.ID)
	assert.Equal(t, "p1", res.FromPlayerID)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Len(t, s.Hands["p0"], 2)
	assert.Len(t, s.Hands["p1"], 1)
	assert.Len(t, s.DrawPile, 2, "no draw on success")

	require.NotNil(t, s.LastAction)
	assert.Equal(t, ActionSuccess, s.LastAction.Type)
	assert.Equal(t, "Player 0", s.LastAction.Asker)
	assert.Equal(t, "Player 1", s.LastAction.Target)

	ev := mb.last("p1")
	require.NotNil(t, ev)
	assert.Equal(t, EventGameUpdate, ev.Type)
	require.NotNil(t, ev.State)
	assert.Len(t, ev.State.MyHand, 1)
	assert.Equal(t, 2, ev.State.OtherPlayersCardCount["p0"])
}

func TestAskMissDrawsAndPassesTurn(t *testing.T) {
	s, _, _ := setupStartedSession(t, 3, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather"),
		"p1": cards(t, s, "baker", "grandmother"),
		"p2": cards(t, s, "baker", "father"),
	}, cards(t, s, "astronaut", "grandfather", "grandmother", "father", "mother", "son", "daughter"))

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "mother"))
	require.NoError(t, err)
	assert.False(t, res.GotCard)
	require.NotNil(t, res.DrawnCard)
	assert.Equal(t, "astronaut-daughter", res.DrawnCard.ID, "draws from the top of the pile")
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, ActionFail, s.LastAction.Type)
	assert.Nil(t, s.LastAction.Card)

	_, err = s.AskCard(context.Background(), ask("p1", "p2", "baker", "mother"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentPlayerIndex)

	_, err = s.AskCard(context.Background(), ask("p2", "p0", "baker", "mother"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentPlayerIndex, "turn wraps around")
}

func TestAskMissDrawingRequestedCardKeepsTurn(t *testing.T) {
	s, _, _ := setupStartedSession(t, 2, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather"),
		"p1": cards(t, s, "astronaut", "grandfather"),
	}, cards(t, s, "astronaut", "son", "daughter", "baker", "mother"))

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "mother"))
	require.NoError(t, err)

	assert.True(t, res.GotCard)
	assert.True(t, res.DrewRequestedCard)
	assert.Nil(t, res.StolenCard)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Equal(t, ActionFail, s.LastAction.Type)
	assert.True(t, s.LastAction.DrewRequestedCard)
}

func TestAskMissOnEmptyPile(t *testing.T) {
	s, _, _ := setupStartedSession(t, 3, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather"),
		"p1": cards(t, s, "baker", "grandmother"),
		"p2": cards(t, s, "baker", "father"),
	}, nil)

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "mother"))
	require.NoError(t, err)
	assert.True(t, res.EmptyDeck)
	assert.Nil(t, res.DrawnCard)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, StatusPlaying, s.CurrentStatus(), "three players still hold cards")
}

func TestAskValidationLeavesStateUntouched(t *testing.T) {
	s, _, _ := setupStartedSession(t, 2, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather"),
		"p1": cards(t, s, "astronaut", "grandfather"),
	}, cards(t, s, "astronaut", "son"))

	cases := []struct {
		name   string
		action models.AskAction
		want   error
	}{
		{"not your turn", ask("p1", "p0", "astronaut", "son"), ErrNotYourTurn},
		{"self target", ask("p0", "p0", "baker", "son"), ErrSelfTarget},
		{"unknown target", ask("p0", "ghost", "baker", "son"), ErrTargetNotFound},
		{"inactive family", ask("p0", "p1", "sailor", "son"), ErrUnknownFamily},
		{"unknown member", ask("p0", "p1", "baker", "cousin"), ErrUnknownMember},
		{"family not held", ask("p0", "p1", "astronaut", "grandfather"), ErrFamilyNotHeld},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AskCard(context.Background(), tc.action)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, 0, s.CurrentPlayerIndex)
			assert.Len(t, s.Hands["p0"], 1)
			assert.Len(t, s.Hands["p1"], 1)
			assert.Len(t, s.DrawPile, 1)
			assert.Nil(t, s.LastAction)
		})
	}
}

func TestAskBeforeStartIsRejected(t *testing.T) {
	s, _, _ := setupTestSession(t, 2, DefaultRules())
	_, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "son"))
	assert.ErrorIs(t, err, ErrGameNotPlaying)
}

func TestCompletingBakerFamily(t *testing.T) {
	s, mb, _ := setupStartedSession(t, 3, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": append(cards(t, s, "baker", "grandfather", "grandmother", "father", "mother", "son"),
			card(t, s, "astronaut", "grandfather")),
		"p1": cards(t, s, "astronaut", "grandmother"),
		"p2": append(cards(t, s, "baker", "daughter"), card(t, s, "magician", "grandfather")),
	}, cards(t, s, "magician", "grandmother", "father"))

	res, err := s.AskCard(context.Background(), ask("p0", "p2", "baker", "daughter"))
	require.NoError(t, err)

	assert.True(t, res.GotCard)
	assert.Equal(t, "Baker", res.FamilyCompleted)
	assert.Equal(t, 0, s.CurrentPlayerIndex)

	for _, c := range s.Hands["p0"] {
		assert.NotEqual(t, "baker", c.FamilyID, "completed cards leave the hand")
	}
	assert.Len(t, s.Hands["p0"], 1)
	require.Len(t, s.Completed["p0"], 1)
	assert.Equal(t, "baker", s.Completed["p0"][0].FamilyID)
	assert.Len(t, s.Completed["p0"][0].Cards, models.MembersPerFamily)
	assert.Equal(t, 1, s.FamiliesCompleted)
	assert.Equal(t, "p0", s.FirstFamilyCompletedBy)

	for i := 0; i < 3; i++ {
		ev := mb.last(playerID(i))
		require.NotNil(t, ev)
		require.NotNil(t, ev.State)
		require.NotNil(t, ev.State.LastAction)
		assert.Equal(t, "Baker", ev.State.LastAction.FamilyCompleted)
		assert.Len(t, ev.State.CompletedFamilies["p0"], 1)
	}
}

func TestCompletingLastCardsEndsGame(t *testing.T) {
	s, _, _ := setupStartedSession(t, 2, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather", "grandmother", "father", "mother", "son"),
		"p1": cards(t, s, "baker", "daughter"),
	}, nil)

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "daughter"))
	require.NoError(t, err)

	assert.True(t, res.GameOver)
	assert.Equal(t, StatusFinished, s.CurrentStatus())
	assert.True(t, s.LastAction.GameOver)

	_, err = s.AskCard(context.Background(), ask("p1", "p0", "baker", "son"))
	assert.ErrorIs(t, err, ErrGameNotPlaying)

	standings := s.Standings()
	require.Len(t, standings, 2)
	assert.Equal(t, Standing{Rank: 1, PlayerID: "p0", Name: "Player 0", Families: 1}, standings[0])
	assert.Equal(t, Standing{Rank: 2, PlayerID: "p1", Name: "Player 1", Families: 0}, standings[1])
	assert.Equal(t, standings, s.ViewFor("p1").Standings)
}

func TestGameOverCreditsSetsLeftInHand(t *testing.T) {
	s, _, _ := setupStartedSession(t, 2, DefaultRules())
	hand := cards(t, s, "baker", "grandfather", "grandmother", "father", "mother", "son")
	hand = append(hand, cards(t, s, "astronaut", "grandfather", "grandmother", "father", "mother", "son", "daughter")...)
	setState(s, map[string][]models.Card{
		"p0": hand,
		"p1": cards(t, s, "baker", "daughter"),
	}, nil)

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "daughter"))
	require.NoError(t, err)

	assert.True(t, res.GameOver)
	assert.Equal(t, "Baker", res.FamilyCompleted)
	assert.Empty(t, s.Hands["p0"])
	assert.Len(t, s.Completed["p0"], 2)
	assert.Equal(t, 2, s.FamiliesCompleted)

	standings := s.Standings()
	require.Len(t, standings, 2)
	assert.Equal(t, "p0", standings[0].PlayerID)
	assert.Equal(t, 2, standings[0].Families)
}

func TestDrawnCardCompletesOtherFamily(t *testing.T) {
	s, _, _ := setupStartedSession(t, 2, DefaultRules())
	hand := cards(t, s, "baker", "grandfather")
	hand = append(hand, cards(t, s, "astronaut", "grandfather", "grandmother", "father", "mother", "son")...)
	setState(s, map[string][]models.Card{
		"p0": hand,
		"p1": cards(t, s, "baker", "father"),
	}, cards(t, s, "astronaut", "daughter"))

	res, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "mother"))
	require.NoError(t, err)

	assert.False(t, res.GotCard)
	assert.Equal(t, "Astronaut", res.FamilyCompleted)
	assert.Equal(t, "Astronaut", s.LastAction.FamilyCompleted)
	require.Len(t, s.Completed["p0"], 1)
	assert.Equal(t, "astronaut", s.Completed["p0"][0].FamilyID)
	assert.Len(t, s.Hands["p0"], 1)
	assert.Equal(t, 1, s.CurrentPlayerIndex)
	assert.Equal(t, StatusPlaying, s.CurrentStatus())
}

func TestEmptyHandIsReplenishedOnTurn(t *testing.T) {
	s, _, _ := setupStartedSession(t, 2, DefaultRules())
	setState(s, map[string][]models.Card{
		"p0": cards(t, s, "baker", "grandfather"),
	}, cards(t, s, "astronaut", "son", "daughter", "magician", "father"))

	_, err := s.AskCard(context.Background(), ask("p0", "p1", "baker", "mother"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.CurrentPlayerIndex)
	require.Len(t, s.Hands["p1"], 1, "p1 drew one card when the turn reached them")
	assert.Equal(t, "astronaut-daughter", s.Hands["p1"][0].ID)
}

// TestRandomPlayConservesCards drives a full game with legal requests and checks after every
// action that no card is created or lost.
func TestRandomPlayConservesCards(t *testing.T) {
	s, _, _ := setupTestSession(t, 3, DefaultRules())
	s.SetRand(rand.New(rand.NewSource(7)))
	require.NoError(t, s.Start(context.Background(), "p0"))

	for step := 0; step < 10000 && s.CurrentStatus() == StatusPlaying; step++ {
		action := nextLegalAsk(t, s)
		_, err := s.AskCard(context.Background(), action)
		require.NoError(t, err, "step %d", step)

		assert.Equal(t, models.MembersPerFamily*s.TotalFamiliesInGame, totalCards(s), "step %d", step)
		assertUniqueCards(t, s)
	}

	assert.Equal(t, StatusFinished, s.CurrentStatus())

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Players {
		for _, f := range s.Families {
			assert.Less(t, countFamily(s.Hands[p.ID], f.ID), models.MembersPerFamily,
				"%s still holds every %s card", p.Name, f.Name)
		}
	}
}

// nextLegalAsk prefers a card another player actually holds, falling back to a miss.
func nextLegalAsk(t *testing.T, s *Session) models.AskAction {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.Players)
	asker := s.Players[s.CurrentPlayerIndex]
	hand := s.Hands[asker.ID]
	require.NotEmpty(t, hand, "current player must hold a card")

	held := make(map[string]bool)
	for _, c := range hand {
		held[c.FamilyID] = true
	}
	for step := 1; step < n; step++ {
		target := s.Players[(s.CurrentPlayerIndex+step)%n]
		for _, c := range s.Hands[target.ID] {
			if held[c.FamilyID] {
				return ask(asker.ID, target.ID, c.FamilyID, c.MemberID)
			}
		}
	}

	target := s.Players[(s.CurrentPlayerIndex+1)%n]
	family := hand[0].FamilyID
	for _, m := range models.Members {
		if indexOfCard(hand, family, m.ID) < 0 {
			return ask(asker.ID, target.ID, family, m.ID)
		}
	}
	return ask(asker.ID, target.ID, family, hand[0].MemberID)
}

func assertUniqueCards(t *testing.T, s *Session) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	check := func(c models.Card) {
		assert.False(t, seen[c.ID], "card %s appears twice", c.ID)
		seen[c.ID] = true
	}
	for _, c := range s.DrawPile {
		check(c)
	}
	for _, h := range s.Hands {
		for _, c := range h {
			check(c)
		}
	}
	for _, entries := range s.Completed {
		for _, e := range entries {
			for _, c := range e.Cards {
				check(c)
			}
		}
	}
}
