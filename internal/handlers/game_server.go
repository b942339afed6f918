// internal/handlers/game_server.go
package handlers

import (
	"github.com/jason-s-yu/happyfamilies/internal/catalog"
	"github.com/jason-s-yu/happyfamilies/internal/game"
	"github.com/sirupsen/logrus"
)

// GameServer is a high-level struct that holds the session store, the family catalog and
// the hub of connected sockets shared by every handler.
type GameServer struct {
	Sessions *game.SessionStore
	Catalog  *catalog.Catalog
	Hub      *Hub
	Logger   *logrus.Logger

	// PublicURL is the base used in join links. When empty it is derived from the request.
	PublicURL string
}

// NewGameServer wires a session store to a new hub so session events reach the sockets.
func NewGameServer(cat *catalog.Catalog, rules game.Rules, logger *logrus.Logger) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	hub := NewHub(logger)
	store := game.NewSessionStore(cat, rules, logger)
	store.SendFn = hub.Send
	return &GameServer{
		Sessions: store,
		Catalog:  cat,
		Hub:      hub,
		Logger:   logger,
	}
}
