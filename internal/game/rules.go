// internal/game/rules.go
package game

import (
	"fmt"
	"time"
)

// Rules holds the tunable parameters of a Happy Families session.
type Rules struct {
	InitialFamilies      int           `json:"initialFamilies"`      // families selected when the game starts
	CardsPerPlayer       int           `json:"cardsPerPlayer"`       // hand size dealt to each player
	MinPlayers           int           `json:"minPlayers"`           // roster size required to start
	MaxPlayers           int           `json:"maxPlayers"`           // roster capacity
	NewFamiliesThreshold int           `json:"newFamiliesThreshold"` // inject when unclaimed families drop to this many
	NewFamiliesToAdd     int           `json:"newFamiliesToAdd"`     // families requested per injection
	CatalogTimeout       time.Duration `json:"-"`                    // upper bound on a single catalog call
}

// DefaultRules returns the standard game configuration.
func DefaultRules() Rules {
	return Rules{
		InitialFamilies:      7,
		CardsPerPlayer:       7,
		MinPlayers:           2,
		MaxPlayers:           6,
		NewFamiliesThreshold: 1,
		NewFamiliesToAdd:     3,
		CatalogTimeout:       2 * time.Minute,
	}
}

// Validate checks that the rules describe a playable game.
func (r Rules) Validate() error {
	if r.InitialFamilies < 1 {
		return fmt.Errorf("initialFamilies must be positive, got %d", r.InitialFamilies)
	}
	if r.CardsPerPlayer < 1 {
		return fmt.Errorf("cardsPerPlayer must be positive, got %d", r.CardsPerPlayer)
	}
	if r.MinPlayers < 2 {
		return fmt.Errorf("minPlayers must be at least 2, got %d", r.MinPlayers)
	}
	if r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("maxPlayers (%d) must not be below minPlayers (%d)", r.MaxPlayers, r.MinPlayers)
	}
	if r.NewFamiliesThreshold < 0 {
		return fmt.Errorf("newFamiliesThreshold must be non-negative, got %d", r.NewFamiliesThreshold)
	}
	if r.NewFamiliesToAdd < 0 {
		return fmt.Errorf("newFamiliesToAdd must be non-negative, got %d", r.NewFamiliesToAdd)
	}
	return nil
}
