// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/happyfamilies/internal/game"
	"github.com/jason-s-yu/happyfamilies/internal/middleware"
	"github.com/jason-s-yu/happyfamilies/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	maxMessageSize = 8 << 10
	pingInterval   = 30 * time.Second
	writeTimeout   = 5 * time.Second
)

var errInternal = errors.New("internal server error")

// clientCommand is one JSON message sent by a player.
type clientCommand struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`

	PlayerName string `json:"playerName,omitempty"`
	GameCode   string `json:"gameCode,omitempty"`
	Ready      bool   `json:"ready,omitempty"`

	TargetPlayerID string `json:"targetPlayerId,omitempty"`
	FamilyID       string `json:"familyId,omitempty"`
	MemberID       string `json:"memberId,omitempty"`
}

// ackMessage answers a single command. AskResult fields are inlined for askCard.
type ackMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`

	GameCode   string     `json:"gameCode,omitempty"`
	PlayerID   string     `json:"playerId,omitempty"`
	Game       *game.View `json:"game,omitempty"`
	ServerTime int64      `json:"serverTime,omitempty"`
	*game.AskResult
}

func ack(requestID string) ackMessage {
	return ackMessage{Type: "ack", RequestID: requestID, Success: true}
}

func nack(requestID string, err error) ackMessage {
	return ackMessage{Type: "ack", RequestID: requestID, Error: err.Error(), ErrorCode: errorCode(err)}
}

// RoomWSHandler upgrades the request and runs one player's command loop. Each connection
// gets a fresh player id; closing the socket disconnects the player from their session.
func RoomWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		requestedProtocol := r.Header.Get("Sec-WebSocket-Protocol")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if requestedProtocol != "" && c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the happyfamilies subprotocol")
			return
		}
		c.SetReadLimit(maxMessageSize)

		connID := uuid.NewString()
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := gs.Hub.Register(connID)
		middleware.LogWebSocketConnect(logger, remoteAddr, connID)
		client.Write(map[string]interface{}{"type": "connected", "playerId": connID})

		go writePump(ctx, c, client, logger)

		readErr := readPump(ctx, c, gs, client, logger)

		// ---- Cleanup after readPump exits ----
		gs.Hub.Unregister(connID)
		gs.Sessions.Leave(connID)
		middleware.LogWebSocketDisconnect(logger, remoteAddr, connID, readErr)
		if readErr != nil && websocket.CloseStatus(readErr) == -1 && !errors.Is(readErr, context.Canceled) {
			c.Close(HandlerFailureError, "connection loop failed")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump handles incoming commands until the socket closes. It returns the read error for
// unexpected failures and nil for a normal close.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, client *Client, logger *logrus.Logger) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Warnf("read error for conn %s: %v (CloseStatus: %d)", client.ID, err, closeStatus)
			return err
		}

		if typ != websocket.MessageText {
			logger.Warnf("received non-text message type %d from conn %s, ignoring", typ, client.ID)
			continue
		}

		var cmd clientCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			logger.Warnf("invalid json from conn %s: %v", client.ID, err)
			client.WriteError("Invalid JSON format")
			continue
		}

		handleCommand(ctx, gs, client, cmd, logger)
	}
}

// handleCommand dispatches one command. startGame and askCard may wait on the family catalog,
// so they run on their own goroutine and answer through the client queue when done.
func handleCommand(ctx context.Context, gs *GameServer, client *Client, cmd clientCommand, logger *logrus.Logger) {
	log := logger.WithFields(logrus.Fields{"conn": client.ID, "command": cmd.Type})

	switch cmd.Type {
	case "createGame":
		guarded(log, client, cmd, func() ackMessage {
			s, err := gs.Sessions.Create(client.ID, cmd.PlayerName)
			if err != nil {
				return nack(cmd.RequestID, err)
			}
			view := s.ViewFor(client.ID)
			res := ack(cmd.RequestID)
			res.GameCode = s.Code
			res.PlayerID = client.ID
			res.Game = &view
			return res
		})

	case "joinGame":
		guarded(log, client, cmd, func() ackMessage {
			s, err := gs.Sessions.Join(cmd.GameCode, client.ID, cmd.PlayerName)
			if err != nil {
				return nack(cmd.RequestID, err)
			}
			view := s.ViewFor(client.ID)
			res := ack(cmd.RequestID)
			res.GameCode = s.Code
			res.PlayerID = client.ID
			res.Game = &view
			return res
		})

	case "setReady":
		guarded(log, client, cmd, func() ackMessage {
			s, ok := gs.Sessions.FindByPlayer(client.ID)
			if !ok {
				return nack(cmd.RequestID, game.ErrSessionNotFound)
			}
			if err := s.SetReady(client.ID, cmd.Ready); err != nil {
				return nack(cmd.RequestID, err)
			}
			return ack(cmd.RequestID)
		})

	case "startGame":
		s, ok := gs.Sessions.FindByPlayer(client.ID)
		if !ok {
			client.Write(nack(cmd.RequestID, game.ErrSessionNotFound))
			return
		}
		go guarded(log, client, cmd, func() ackMessage {
			if err := s.Start(ctx, client.ID); err != nil {
				return nack(cmd.RequestID, err)
			}
			return ack(cmd.RequestID)
		})

	case "askCard":
		s, ok := gs.Sessions.FindByPlayer(client.ID)
		if !ok {
			client.Write(nack(cmd.RequestID, game.ErrSessionNotFound))
			return
		}
		action := models.AskAction{
			AskerID:        client.ID,
			TargetPlayerID: cmd.TargetPlayerID,
			FamilyID:       cmd.FamilyID,
			MemberID:       cmd.MemberID,
		}
		// The turn belongs to the whole room; it must finish even if the asker drops.
		askCtx := context.WithoutCancel(ctx)
		go guarded(log, client, cmd, func() ackMessage {
			result, err := s.AskCard(askCtx, action)
			if err != nil {
				return nack(cmd.RequestID, err)
			}
			res := ack(cmd.RequestID)
			res.AskResult = &result
			return res
		})

	case "ping":
		res := ack(cmd.RequestID)
		res.ServerTime = time.Now().UnixMilli()
		client.Write(res)

	default:
		log.Warn("unknown command")
		client.Write(nack(cmd.RequestID, fmt.Errorf("unknown command type: %s", cmd.Type)))
	}
}

// guarded runs fn and queues its ack. A panic is logged and answered with an error ack.
func guarded(log *logrus.Entry, client *Client, cmd clientCommand, fn func() ackMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("command handler panicked")
			client.Write(nack(cmd.RequestID, errInternal))
		}
	}()
	res := fn()
	if !res.Success {
		log.WithField("error", res.Error).Debug("command rejected")
	}
	if !client.Write(res) {
		log.Warn("outbound buffer full, dropping ack")
	}
}

// writePump drains the client queue onto the socket and keeps the connection alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, client *Client, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-client.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("failed to marshal outgoing msg for conn %s: %v", client.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				// readPump notices the broken connection on its own.
				logger.Warnf("failed to write to websocket for conn %s: %v", client.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("failed to send ping to conn %s: %v. Assuming disconnect.", client.ID, err)
				return
			}
		}
	}
}
