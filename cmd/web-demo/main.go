// Command web-demo runs a self-playing demo match and streams its
// state over a websocket, for trying out board clients without a full
// lobby flow.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codeopoly/codeopoly-server-go/internal/board"
	"github.com/codeopoly/codeopoly-server-go/internal/game"
	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
	"github.com/codeopoly/codeopoly-server-go/internal/judge"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for demo
	},
}

type WSMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	engine  *game.Engine
	matchID string
}

func newHub(engine *game.Engine, matchID string) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		engine:     engine,
		matchID:    matchID,
	}
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			// New clients get the current state immediately.
			h.sendState(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) sendState(client *Client) {
	view, err := h.engine.View(h.matchID)
	if err != nil {
		return
	}
	payload, _ := json.Marshal(WSMessage{Type: "match_state", Data: view})
	select {
	case client.send <- payload:
	default:
	}
}

func (h *Hub) broadcastState() {
	view, err := h.engine.View(h.matchID)
	if err != nil {
		return
	}
	payload, _ := json.Marshal(WSMessage{Type: "match_state", Data: view})
	h.broadcast <- payload
}

func (h *Hub) broadcastEvent(ev rules.Event) {
	payload, _ := json.Marshal(WSMessage{Type: "event", Data: ev})
	h.broadcast <- payload
}

// autoPlay advances the demo match one intent per tick. Every buy
// offer is accepted while cash lasts, everything else resolves to its
// default action.
func autoPlay(engine *game.Engine, matchID string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// The demo players always "solve" their problems.
	scripted := &judge.ScriptedJudge{Default: true}

	for range ticker.C {
		view, err := engine.View(matchID)
		if err != nil || view.Status == "FINISHED" {
			return
		}
		player := view.CurrentPlayer

		switch view.Phase {
		case "WAITING_FOR_ROLL":
			engine.RollDice(matchID, player)
		case "AWAITING_BUY_DECISION":
			spaceID := spaceAt(view)
			verdict, _ := scripted.Validate(context.Background(), judge.Submission{ProblemID: spaceID})
			if spaceID == "" || engine.BuyProperty(matchID, player, spaceID, verdict) != nil {
				engine.DeclineBuy(matchID, player)
			}
		default:
			engine.EndTurn(matchID, player)
		}
	}
}

// spaceAt finds the space id under the current player.
func spaceAt(view game.MatchView) string {
	registry := board.NewRegistry()
	for _, p := range view.Players {
		if p.ID != view.CurrentPlayer {
			continue
		}
		if sp, ok := registry.SpaceAt(p.Position); ok {
			return sp.ID
		}
	}
	return ""
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	hub.register <- client

	go client.writePump()
	go client.readPump(hub)
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	engine := game.NewEngine(board.NewRegistry(), game.Options{}, logger)

	const matchID = "demo-match"
	seats := []game.Seat{
		{PlayerID: "alice", DisplayName: "Alice"},
		{PlayerID: "bob", DisplayName: "Bob"},
	}
	if err := engine.CreateMatch(matchID, "DEMO01", seats, 1500); err != nil {
		log.Fatal(err)
	}

	hub := newHub(engine, matchID)
	go hub.run()

	bus, err := engine.EventBus(matchID)
	if err != nil {
		log.Fatal(err)
	}
	bus.Subscribe(func(ev rules.Event) {
		hub.broadcastEvent(ev)
		hub.broadcastState()
	})

	if err := engine.StartMatch(matchID); err != nil {
		log.Fatal(err)
	}
	go autoPlay(engine, matchID, 2*time.Second)

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})

	log.Println("Demo match server starting on :8080")
	log.Println("WebSocket endpoint: ws://localhost:8080/ws")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
