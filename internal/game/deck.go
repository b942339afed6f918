// internal/game/deck.go
package game

import "github.com/jason-s-yu/happyfamilies/internal/models"

// Rand is the subset of *math/rand.Rand used for shuffling. Any source works as long as
// Intn(n) returns every value in [0, n) with non-zero probability.
type Rand interface {
	Intn(n int) int
}

// BuildDeck returns one card per member for every family, ordered by family then member.
// The result always holds exactly MembersPerFamily × len(families) cards.
func BuildDeck(families []models.Family) []models.Card {
	deck := make([]models.Card, 0, len(families)*models.MembersPerFamily)
	for _, f := range families {
		for _, m := range models.Members {
			deck = append(deck, models.NewCard(f, m))
		}
	}
	return deck
}

// Shuffle returns a Fisher-Yates permutation of deck. The input is left untouched.
func Shuffle(deck []models.Card, rng Rand) []models.Card {
	shuffled := make([]models.Card, len(deck))
	copy(shuffled, deck)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// hasFamilyCard reports whether hand holds at least one card of familyID.
func hasFamilyCard(hand []models.Card, familyID string) bool {
	for _, c := range hand {
		if c.FamilyID == familyID {
			return true
		}
	}
	return false
}

// indexOfCard returns the position of the exact (family, member) card in hand, or -1.
func indexOfCard(hand []models.Card, familyID, memberID string) int {
	for i, c := range hand {
		if c.Matches(familyID, memberID) {
			return i
		}
	}
	return -1
}

// countFamily counts the cards of familyID in hand.
func countFamily(hand []models.Card, familyID string) int {
	n := 0
	for _, c := range hand {
		if c.FamilyID == familyID {
			n++
		}
	}
	return n
}

// extractFamily splits hand into the cards of familyID and everything else.
func extractFamily(hand []models.Card, familyID string) (family, rest []models.Card) {
	rest = make([]models.Card, 0, len(hand))
	for _, c := range hand {
		if c.FamilyID == familyID {
			family = append(family, c)
		} else {
			rest = append(rest, c)
		}
	}
	return family, rest
}
