// internal/handlers/ws_codes.go
package handlers

// Subprotocol is the optional WebSocket subprotocol spoken on /ws.
const Subprotocol = "happyfamilies"

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError = 3000 // Client asked for a subprotocol other than Subprotocol.
	HandlerFailureError = 3001 // The connection loop failed unexpectedly and was torn down.
)
