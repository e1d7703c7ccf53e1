package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vireoapp/vireo/models"
	"github.com/vireoapp/vireo/service"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == requiredOrigin
		},
		Subprotocols: []string{"vireo-v1"},
	}
}

// ServeWS handles websocket requests from the peer. The JWT rides in
// as the second entry of Sec-WebSocket-Protocol, since browsers cannot
// set an Authorization header on websocket upgrades.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	protocols := r.Header.Get("Sec-WebSocket-Protocol")
	protocolsSplit := strings.Split(protocols, ",")

	if len(protocolsSplit) != 2 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token := strings.TrimSpace(protocolsSplit[1])

	user, authErr := h.Service.AuthenticateToken(r.Context(), token)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	// Must upgrade the connection in order to be able to send custom close message
	if authErr != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Unauthenticated"),
		)
		conn.Close()
		return
	}

	client := NewClient(h.Hub, conn, user, h.HandleWsMessage)

	h.Hub.OpenCh <- client

	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type statsMessage struct {
	Kind models.StatsKind `json:"kind"`
}

type responseMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	var resp responseMessage

	switch msg.Type {
	case "stats":
		var statsMsg statsMessage
		if err := json.Unmarshal(msg.Data, &statsMsg); err != nil {
			log.Printf("Invalid stats data: %v", err)
			return
		}
		resp = h.handleStats(client, statsMsg)

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}

	if resp.Type != "" {
		respBytes, err := json.Marshal(resp)
		if err != nil {
			log.Printf("Error marshaling response JSON: %v", err)
			return
		}
		client.Send <- respBytes
	}
}

// handleStats answers a live stats refresh. Clients poll this after
// creating entries or check-ins instead of hitting the REST route.
func (h *Handler) handleStats(client *Client, statsMsg statsMessage) responseMessage {
	resp := responseMessage{
		Type: "stats_response",
	}

	stats, err := h.Service.GetStats(context.Background(), client.user, statsMsg.Kind)
	if err != nil {
		log.Printf("GetStats failed: %v", err)
		resp.Data = map[string]any{"success": false, "kind": statsMsg.Kind}
		return resp
	}

	resp.Data = map[string]any{"success": true, "kind": statsMsg.Kind, "stats": stats}
	return resp
}
