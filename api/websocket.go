package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return isAllowedOrigin(r.Header.Get("Origin")) },
}

// WebSocketClient bridges one browser connection to the Broadcaster.
type WebSocketClient struct {
	conn         *websocket.Conn
	send         chan BroadcastEvent
	subscription *Subscription
	broadcaster  *Broadcaster
	mu           sync.Mutex
}

// SubscriptionRequest is the JSON message a client sends to (re)subscribe.
type SubscriptionRequest struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"sessionId"`
	EventTypes []string `json:"events"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	client := &WebSocketClient{conn: conn, send: make(chan BroadcastEvent, 256), broadcaster: s.broadcaster}
	go client.writePump()
	go client.readPump()
}

func (c *WebSocketClient) readPump() {
	defer c.cleanup()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var req SubscriptionRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		if req.Type != "subscribe" {
			continue
		}
		c.resubscribe(req)
	}
}

func (c *WebSocketClient) resubscribe(req SubscriptionRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscription != nil {
		c.broadcaster.Unsubscribe(c.subscription)
	}
	types := make(map[EventType]bool, len(req.EventTypes))
	for _, t := range req.EventTypes {
		types[EventType(t)] = true
	}
	sub := &Subscription{SessionID: req.SessionID, EventTypes: types, Channel: make(chan BroadcastEvent, 64)}
	c.subscription = sub
	c.broadcaster.Subscribe(sub)
	go c.forward(sub)
}

func (c *WebSocketClient) forward(sub *Subscription) {
	for event := range sub.Channel {
		select {
		case c.send <- event:
		default:
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscription != nil {
		c.broadcaster.Unsubscribe(c.subscription)
		c.subscription = nil
	}
	_ = c.conn.Close()
}
