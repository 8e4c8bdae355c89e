// Package server is the real-time transport boundary: it maps inbound
// websocket intents to engine and room calls and fans state deltas out
// to every session in a match.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codeopoly/codeopoly-server-go/internal/config"
	"github.com/codeopoly/codeopoly-server-go/internal/game"
	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
	"github.com/codeopoly/codeopoly-server-go/internal/judge"
	"github.com/codeopoly/codeopoly-server-go/internal/repository"
	"github.com/codeopoly/codeopoly-server-go/internal/room"
	"github.com/codeopoly/codeopoly-server-go/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browsers connect from arbitrary origins; auth happens at hello.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected websocket.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID string
	session  *session.Session

	mu          sync.Mutex
	roomCode    string
	matchID     string
	displayName string
	avatar      string
}

func (c *Client) setRoom(roomCode string) {
	c.mu.Lock()
	c.roomCode = roomCode
	c.mu.Unlock()
}

func (c *Client) setMatch(matchID string) {
	c.mu.Lock()
	c.matchID = matchID
	c.mu.Unlock()
}

func (c *Client) currentMatch() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchID
}

func (c *Client) currentRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

// Gateway owns the websocket hub and the intent dispatch.
type Gateway struct {
	cfg     config.ServerConfig
	gameCfg config.GameConfig
	logger  *zap.Logger

	engine    *game.Engine
	rooms     *room.Manager
	sessions  *session.Manager
	judge     judge.Judge
	matchRepo *repository.MatchRepository

	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewGateway creates the gateway. matchRepo may be nil; snapshots are
// then kept in memory only.
func NewGateway(
	cfg config.ServerConfig,
	gameCfg config.GameConfig,
	engine *game.Engine,
	rooms *room.Manager,
	sessions *session.Manager,
	j judge.Judge,
	matchRepo *repository.MatchRepository,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		cfg:        cfg,
		gameCfg:    gameCfg,
		logger:     logger,
		engine:     engine,
		rooms:      rooms,
		sessions:   sessions,
		judge:      j,
		matchRepo:  matchRepo,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run processes client registration until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-g.register:
			g.mu.Lock()
			g.clients[client] = true
			g.mu.Unlock()

		case client := <-g.unregister:
			g.mu.Lock()
			if _, ok := g.clients[client]; ok {
				delete(g.clients, client)
				close(client.send)
			}
			g.mu.Unlock()
			if client.session != nil {
				g.sessions.Close(client.session.ID)
			}
			g.logger.Info("client disconnected",
				zap.String("player_id", client.playerID),
			)
		}
	}
}

// Handler returns the websocket upgrade handler.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(g.cfg.WebSocket.Path, g.serveWS)
	return mux
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
	g.register <- client

	go client.writePump(g)
	go client.readPump(g)
}

func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(g.cfg.WebSocket.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(g.cfg.WebSocket.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(g.cfg.WebSocket.PongTimeout))
		if c.session != nil {
			g.sessions.Renew(c.session.ID)
		}
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			g.sendError(c, "", "malformed message")
			continue
		}
		g.handleMessage(c, msg)
	}
}

func (c *Client) writePump(g *Gateway) {
	ticker := time.NewTicker(g.cfg.WebSocket.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(g.cfg.WebSocket.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(g.cfg.WebSocket.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) send(c *Client, msg ServerMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		g.logger.Error("marshal outbound frame", zap.Error(err))
		return
	}
	select {
	case c.send <- raw:
	default:
		// Slow consumer: drop the frame rather than block the hub.
		g.logger.Warn("dropping frame for slow client",
			zap.String("player_id", c.playerID),
			zap.String("type", msg.Type),
		)
	}
}

func (g *Gateway) sendError(c *Client, requestID, message string) {
	g.send(c, ServerMessage{Type: MsgError, RequestID: requestID, Error: message})
}

// broadcastToMatch delivers a frame to every client in the match.
func (g *Gateway) broadcastToMatch(matchID string, msg ServerMessage) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for client := range g.clients {
		if client.currentMatch() == matchID {
			g.send(client, msg)
		}
	}
}

// broadcastToRoom delivers a frame to every client in the lobby.
func (g *Gateway) broadcastToRoom(roomCode string, msg ServerMessage) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for client := range g.clients {
		if client.currentRoom() == roomCode {
			g.send(client, msg)
		}
	}
}

// broadcastMatchState fetches a fresh view and fans it out.
func (g *Gateway) broadcastMatchState(matchID string) {
	view, err := g.engine.View(matchID)
	if err != nil {
		g.logger.Warn("match view unavailable",
			zap.String("match_id", matchID),
			zap.Error(err),
		)
		return
	}
	g.broadcastToMatch(matchID, ServerMessage{Type: MsgMatchState, Data: view})
}

// AttachMatch wires event fanout for a match created outside the
// lobby flow, such as one restored from a snapshot.
func (g *Gateway) AttachMatch(matchID string) error {
	return g.attachMatchFanout(matchID)
}

// attachMatchFanout subscribes the gateway to a match's event bus so
// every engine mutation reaches the clients, whether it came from an
// intent, a timer, or a duel resolution.
func (g *Gateway) attachMatchFanout(matchID string) error {
	bus, err := g.engine.EventBus(matchID)
	if err != nil {
		return err
	}
	bus.Subscribe(func(ev rules.Event) {
		g.broadcastToMatch(matchID, ServerMessage{Type: MsgEvent, Data: ev})
		g.broadcastMatchState(matchID)
		g.persistSnapshot(matchID, ev)
		if ev.Type == rules.EventGameOver {
			g.finishMatch(matchID)
		}
	})
	return nil
}

// finishMatch tears down a concluded match: the lobby closes, clients
// are unbound and the engine releases the state.
func (g *Gateway) finishMatch(matchID string) {
	g.mu.RLock()
	var roomCode string
	for client := range g.clients {
		if client.currentMatch() == matchID {
			roomCode = client.currentRoom()
			client.setMatch("")
		}
	}
	g.mu.RUnlock()

	if roomCode != "" {
		if r, ok := g.rooms.GetRoom(roomCode); ok {
			r.Close()
			g.rooms.RemoveRoom(roomCode)
		}
	}
	g.engine.RemoveMatch(matchID)
	g.logger.Info("match concluded", zap.String("match_id", matchID))
}

// persistSnapshot saves the match after meaningful transitions so a
// restart can restore it.
func (g *Gateway) persistSnapshot(matchID string, ev rules.Event) {
	if g.matchRepo == nil {
		return
	}
	switch ev.Type {
	case rules.EventDiceRolled, rules.EventLandedOnSpace, rules.EventDuelSubmitted:
		// High-frequency events; the turn boundary snapshot covers them.
		return
	case rules.EventGameOver:
		// A finished match has nothing left to restore.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.matchRepo.DeleteSnapshot(ctx, matchID); err != nil {
			g.logger.Warn("snapshot delete failed", zap.String("match_id", matchID), zap.Error(err))
		}
		return
	}

	record, err := g.engine.Snapshot(matchID)
	if err != nil {
		g.logger.Warn("snapshot failed", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.matchRepo.SaveSnapshot(ctx, record); err != nil {
		g.logger.Warn("snapshot persist failed", zap.String("match_id", matchID), zap.Error(err))
	}
}

// StartWebSocketServer runs the gateway's HTTP listener until the
// server errors out.
func StartWebSocketServer(cfg config.ServerConfig, g *Gateway, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:    cfg.WebSocket.Address,
		Handler: g.Handler(),
	}
	logger.Info("starting websocket server",
		zap.String("address", cfg.WebSocket.Address),
		zap.String("path", cfg.WebSocket.Path),
	)
	return srv.ListenAndServe()
}
