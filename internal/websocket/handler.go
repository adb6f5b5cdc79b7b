package websocket

import (
	"log"
	"net/http"

	"wheels-backend/internal/auth"
	"wheels-backend/internal/database"
	"wheels-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Token auth guards the connection; origins are left open for the
		// mobile clients.
		return true
	},
}

// HandleTripBoard upgrades an authenticated request to a trip-board
// WebSocket connection. Browsers cannot set headers on the upgrade
// request, so the token travels as a query parameter.
func HandleTripBoard(hub *Hub, db *sqlx.DB, tokens *auth.TokenManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		active, err := database.IsTokenActive(db, claims.UserID, tokenString)
		if err != nil || !active {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		var user models.User
		if err := db.Get(&user, "SELECT * FROM users WHERE id = $1", claims.UserID); err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if !user.Active {
			http.Error(w, "Account deactivated", http.StatusForbidden)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := NewClient(user.ID, user.Role, conn, hub)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
