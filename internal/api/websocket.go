// Package api - WebSocket and SSE handlers for remote devices
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fruitcab/cabinet/internal/game"
	"github.com/fruitcab/cabinet/internal/remote"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSClient represents a connected remote device
type WSClient struct {
	conn *websocket.Conn
	send chan []byte
}

// HandleWebSocket handles GET /api/v1/remote/ws
// The grant was already validated by GrantMiddleware. The device
// receives cabinet events and can send commands on the same socket.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan []byte, 256),
	}

	sub := h.hub.Subscribe(h.cabinetID)

	go client.writePump()
	go forwardEvents(client, sub)
	go h.readPump(client, sub)
}

// forwardEvents copies hub events onto the client's send channel.
// Ends when the subscriber is unsubscribed and its channel closes;
// it owns the send channel and closes it on the way out.
func forwardEvents(c *WSClient, sub *remote.Subscriber) {
	defer close(c.send)
	for event := range sub.C {
		msgBytes, _ := json.Marshal(WSMessage{Type: event.Type, Payload: event.Payload})
		select {
		case c.send <- msgBytes:
		default:
			// Channel full, drop event
		}
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			w.Close()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the handler
func (h *Handler) readPump(c *WSClient, sub *remote.Subscriber) {
	defer func() {
		h.hub.Unsubscribe(sub)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	h.sendMessage(c, "connected", map[string]interface{}{
		"cabinet_id": h.cabinetID,
		"message":    "Connected to cabinet",
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.sendError(c, "INVALID_MESSAGE", "Invalid message format")
			continue
		}

		h.handleWSMessage(c, &msg)
	}
}

// handleWSMessage processes incoming WebSocket messages
func (h *Handler) handleWSMessage(c *WSClient, msg *WSMessage) {
	ctx := context.Background()

	switch msg.Type {
	case "spin":
		h.handleSpinMessage(c, msg)

	case "balance":
		balance, err := h.wallet.GetBalance(ctx, h.cabinetID)
		if err != nil {
			h.sendError(c, "BALANCE_ERROR", "Failed to get balance")
			return
		}
		h.sendMessage(c, "balance", map[string]interface{}{
			"credits":  balance.Credits.Float64(),
			"currency": balance.Credits.Currency,
		})

	case "history":
		history, err := h.game.GetHistory(ctx, h.cabinetID, 10)
		if err != nil {
			h.sendError(c, "HISTORY_ERROR", "Failed to get history")
			return
		}
		h.sendMessage(c, "history", history)

	case "status":
		h.sendMessage(c, "status", h.control.Status())

	case "ping":
		h.sendMessage(c, "pong", map[string]interface{}{
			"timestamp": time.Now().Unix(),
		})

	default:
		h.sendError(c, "UNKNOWN_MESSAGE", "Unknown message type: "+msg.Type)
	}
}

// handleSpinMessage processes spin commands from a remote device
func (h *Handler) handleSpinMessage(c *WSClient, msg *WSMessage) {
	ctx := context.Background()

	var payload struct {
		Variant string `json:"variant"`
		Bet     int64  `json:"bet"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.sendError(c, "INVALID_PAYLOAD", "Invalid spin payload")
		return
	}
	if payload.Variant == "" {
		payload.Variant = game.VariantStandard
	}

	result, err := h.game.Play(ctx, &game.PlayRequest{
		CabinetID: h.cabinetID,
		Variant:   payload.Variant,
		Bet:       payload.Bet,
	})
	if err != nil {
		switch err {
		case game.ErrInsufficientBalance:
			h.sendError(c, "INSUFFICIENT_BALANCE", "Insufficient balance")
		case game.ErrInvalidBet:
			h.sendError(c, "INVALID_BET", "Bet is outside the allowed range")
		case game.ErrVariantNotFound:
			h.sendError(c, "VARIANT_NOT_FOUND", "Game variant not found")
		default:
			h.sendError(c, "GAME_ERROR", err.Error())
		}
		return
	}

	h.sendMessage(c, "outcome", map[string]interface{}{
		"spin_id":    result.SpinID,
		"settlement": result.Settlement,
		"bet":        result.Bet.Float64(),
		"win":        result.Win.Float64(),
		"balance":    result.Balance.Float64(),
		"is_win":     result.Settlement.IsWin,
	})
}

// sendMessage sends a message to the client
func (h *Handler) sendMessage(c *WSClient, msgType string, payload interface{}) {
	payloadBytes, _ := json.Marshal(payload)
	msg := WSMessage{
		Type:    msgType,
		Payload: payloadBytes,
	}
	msgBytes, _ := json.Marshal(msg)

	select {
	case c.send <- msgBytes:
	default:
		// Channel full, drop message
	}
}

// sendError sends an error message to the client
func (h *Handler) sendError(c *WSClient, code, message string) {
	h.sendMessage(c, "error", map[string]string{
		"code":    code,
		"message": message,
	})
}

// HandleSSE handles GET /api/v1/remote/events
// Fallback event stream for devices without WebSocket support.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.hub.Subscribe(h.cabinetID)
	defer h.hub.Unsubscribe(sub)

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}
