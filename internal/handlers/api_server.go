// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"net/url"

	"github.com/jason-s-yu/happyfamilies/internal/middleware"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320 // mobile-friendly size

// NewRouter registers every HTTP and WebSocket route and wraps them in request logging.
func NewRouter(gs *GameServer) http.Handler {
	mux := httprouter.New()

	mux.GET("/health", healthHandler(gs))
	mux.GET("/api/families", familiesHandler(gs))
	mux.GET("/api/rooms/:code", roomHandler(gs))
	mux.GET("/api/rooms/:code/qr", qrHandler(gs))
	mux.Handler(http.MethodGet, "/ws", RoomWSHandler(gs.Logger, gs))

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		gs.Logger.WithFields(logrus.Fields{"path": r.URL.Path, "panic": v}).Error("http handler panicked")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "internal server error"})
	}

	return middleware.LogMiddleware(gs.Logger)(mux)
}

func healthHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"games":  gs.Sessions.Len(),
		})
	}
}

func familiesHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"families": gs.Catalog.AllFamilies(),
		})
	}
}

// roomHandler describes a room for a join screen: its status, roster and share link.
func roomHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, ok := gs.Sessions.Get(ps.ByName("code"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "game not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"code":    s.Code,
			"status":  s.CurrentStatus(),
			"players": s.Roster(),
			"joinUrl": joinURL(baseURL(gs.PublicURL, r), s.Code),
		})
	}
}

// qrHandler generates a PNG QR code for the room's join link using go-qrcode.
func qrHandler(gs *GameServer) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, ok := gs.Sessions.Get(ps.ByName("code"))
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(joinURL(baseURL(gs.PublicURL, r), s.Code), qrcode.Medium, qrSize)
		if err != nil {
			gs.Logger.WithError(err).Warn("qr generation failed")
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

// joinURL is the link that opens the client with the join form pre-filled.
func joinURL(base, code string) string {
	return base + "/?code=" + url.QueryEscape(code)
}
