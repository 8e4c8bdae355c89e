package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeopoly/codeopoly-server-go/internal/game"
	"github.com/codeopoly/codeopoly-server-go/internal/judge"
	"github.com/codeopoly/codeopoly-server-go/internal/room"
)

// handleMessage routes one inbound intent. Engine errors are returned
// to the sender as a rejection of that specific intent; state changes
// reach everyone through the match fanout.
func (g *Gateway) handleMessage(c *Client, msg ClientMessage) {
	if msg.Type == MsgHello {
		g.handleHello(c, msg)
		return
	}
	if c.playerID == "" {
		g.sendError(c, msg.RequestID, "hello required before any other intent")
		return
	}

	switch msg.Type {
	case MsgPing:
		if c.session != nil {
			g.sessions.Renew(c.session.ID)
		}
		g.send(c, ServerMessage{Type: MsgPong, RequestID: msg.RequestID})

	case MsgCreateRoom:
		g.handleCreateRoom(c, msg)
	case MsgJoinRoom:
		g.handleJoinRoom(c, msg)
	case MsgLeaveRoom:
		g.handleLeaveRoom(c, msg)
	case MsgSetReady:
		g.handleSetReady(c, msg)
	case MsgLaunchMatch:
		g.handleLaunchMatch(c, msg)

	case MsgRoll:
		g.handleRoll(c, msg)
	case MsgBuyProperty:
		g.handleBuy(c, msg)
	case MsgDeclineBuy:
		g.matchIntent(c, msg, func(matchID string) error {
			return g.engine.DeclineBuy(matchID, c.playerID)
		})
	case MsgPayRent:
		g.matchIntent(c, msg, func(matchID string) error {
			return g.engine.PayRent(matchID, c.playerID)
		})
	case MsgUpgrade:
		g.handleUpgrade(c, msg)
	case MsgSkipUpgrade:
		g.matchIntent(c, msg, func(matchID string) error {
			return g.engine.SkipUpgrade(matchID, c.playerID)
		})
	case MsgChallengeDuel:
		g.handleChallengeDuel(c, msg)
	case MsgSubmitDuel:
		g.handleSubmitDuel(c, msg)
	case MsgEndTurn:
		g.matchIntent(c, msg, func(matchID string) error {
			return g.engine.EndTurn(matchID, c.playerID)
		})

	default:
		g.sendError(c, msg.RequestID, "unknown intent: "+msg.Type)
	}
}

func (g *Gateway) handleHello(c *Client, msg ClientMessage) {
	var payload HelloPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.PlayerID == "" {
		g.sendError(c, msg.RequestID, "hello requires a playerId")
		return
	}

	s, err := g.sessions.Register(payload.PlayerID, c.conn.RemoteAddr().String())
	if err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}

	c.playerID = payload.PlayerID
	c.session = s
	c.mu.Lock()
	c.displayName = payload.DisplayName
	c.avatar = payload.Avatar
	c.mu.Unlock()

	g.logger.Info("client authenticated",
		zap.String("player_id", payload.PlayerID),
		zap.String("session_id", s.ID),
	)
	g.send(c, ServerMessage{Type: MsgWelcome, RequestID: msg.RequestID, Data: map[string]string{
		"sessionId": s.ID,
		"playerId":  payload.PlayerID,
	}})
}

func (g *Gateway) handleCreateRoom(c *Client, msg ClientMessage) {
	c.mu.Lock()
	name, avatar := c.displayName, c.avatar
	c.mu.Unlock()

	r := g.rooms.CreateRoom(c.playerID, name, avatar)
	c.setRoom(r.Code)
	g.send(c, ServerMessage{Type: MsgRoomState, RequestID: msg.RequestID, Data: r.Snapshot()})
}

func (g *Gateway) handleJoinRoom(c *Client, msg ClientMessage) {
	var payload JoinRoomPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.RoomCode == "" {
		g.sendError(c, msg.RequestID, "join_room requires a roomCode")
		return
	}

	r, ok := g.rooms.GetRoom(payload.RoomCode)
	if !ok {
		g.sendError(c, msg.RequestID, "room not found")
		return
	}

	snap := r.Snapshot()
	rejoining := false
	for _, m := range snap.Members {
		if m.PlayerID == c.playerID {
			rejoining = true
			break
		}
	}
	if !rejoining {
		c.mu.Lock()
		name, avatar := c.displayName, c.avatar
		c.mu.Unlock()
		if err := r.Join(c.playerID, name, avatar); err != nil {
			g.sendError(c, msg.RequestID, err.Error())
			return
		}
	}

	c.setRoom(r.Code)
	snap = r.Snapshot()
	if snap.State == room.RoomStateInMatch && rejoining {
		// Reconnect into the running match.
		c.setMatch(snap.MatchID)
		g.send(c, ServerMessage{Type: MsgRoomState, RequestID: msg.RequestID, Data: snap})
		if view, err := g.engine.View(snap.MatchID); err == nil {
			g.send(c, ServerMessage{Type: MsgMatchState, Data: view})
		}
		return
	}
	g.broadcastToRoom(r.Code, ServerMessage{Type: MsgRoomState, Data: snap})
}

func (g *Gateway) handleLeaveRoom(c *Client, msg ClientMessage) {
	code := c.currentRoom()
	if code == "" {
		g.sendError(c, msg.RequestID, "not in a room")
		return
	}
	r, ok := g.rooms.GetRoom(code)
	if !ok {
		c.setRoom("")
		return
	}
	if err := r.Leave(c.playerID); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	c.setRoom("")
	if r.MemberCount() == 0 {
		g.rooms.RemoveRoom(code)
		return
	}
	g.broadcastToRoom(code, ServerMessage{Type: MsgRoomState, Data: r.Snapshot()})
}

func (g *Gateway) handleSetReady(c *Client, msg ClientMessage) {
	var payload ReadyPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		g.sendError(c, msg.RequestID, "malformed set_ready payload")
		return
	}
	code := c.currentRoom()
	r, ok := g.rooms.GetRoom(code)
	if !ok {
		g.sendError(c, msg.RequestID, "not in a room")
		return
	}
	if err := r.SetReady(c.playerID, payload.Ready); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.broadcastToRoom(code, ServerMessage{Type: MsgRoomState, Data: r.Snapshot()})
}

func (g *Gateway) handleLaunchMatch(c *Client, msg ClientMessage) {
	code := c.currentRoom()
	r, ok := g.rooms.GetRoom(code)
	if !ok {
		g.sendError(c, msg.RequestID, "not in a room")
		return
	}

	matchID := uuid.New().String()
	if err := r.Launch(c.playerID, matchID); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}

	snap := r.Snapshot()
	seats := make([]game.Seat, 0, len(snap.Members))
	for _, m := range snap.Members {
		seats = append(seats, game.Seat{
			PlayerID:    m.PlayerID,
			DisplayName: m.DisplayName,
			Avatar:      m.Avatar,
		})
	}

	if err := g.engine.CreateMatch(matchID, code, seats, g.gameCfg.StartingCash); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	if err := g.attachMatchFanout(matchID); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}

	// Bind every lobby member's connection to the match before the
	// start event fires, so nobody misses the first broadcast.
	g.mu.RLock()
	for client := range g.clients {
		if client.currentRoom() == code {
			client.setMatch(matchID)
		}
	}
	g.mu.RUnlock()

	if err := g.engine.StartMatch(matchID); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}

	g.logger.Info("match launched",
		zap.String("match_id", matchID),
		zap.String("room_code", code),
		zap.Int("players", len(seats)),
	)
	g.broadcastToRoom(code, ServerMessage{Type: MsgRoomState, Data: r.Snapshot()})
}

// matchIntent runs a simple engine call for the client's match and
// acks or rejects it.
func (g *Gateway) matchIntent(c *Client, msg ClientMessage, fn func(matchID string) error) {
	matchID := c.currentMatch()
	if matchID == "" {
		g.sendError(c, msg.RequestID, "not in a match")
		return
	}
	if err := fn(matchID); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.send(c, ServerMessage{Type: MsgAck, RequestID: msg.RequestID})
}

func (g *Gateway) handleRoll(c *Client, msg ClientMessage) {
	matchID := c.currentMatch()
	if matchID == "" {
		g.sendError(c, msg.RequestID, "not in a match")
		return
	}
	result, err := g.engine.RollDice(matchID, c.playerID)
	if err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.send(c, ServerMessage{Type: MsgRollResult, RequestID: msg.RequestID, Data: result})
}

// judgeCode runs a submission through the judge and returns its
// verdict. The verdict, not the client, decides authorization.
func (g *Gateway) judgeCode(problemID string, payload CodePayload) (judge.Verdict, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return g.judge.Validate(ctx, judge.Submission{
		ProblemID: problemID,
		Language:  payload.Language,
		Code:      payload.Code,
	})
}

func (g *Gateway) handleBuy(c *Client, msg ClientMessage) {
	matchID := c.currentMatch()
	if matchID == "" {
		g.sendError(c, msg.RequestID, "not in a match")
		return
	}
	var payload CodePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.SpaceID == "" {
		g.sendError(c, msg.RequestID, "buy_property requires a spaceId and code")
		return
	}

	verdict, err := g.judgeCode(payload.SpaceID, payload)
	if err != nil {
		g.sendError(c, msg.RequestID, "judge unavailable: "+err.Error())
		return
	}
	if err := g.engine.BuyProperty(matchID, c.playerID, payload.SpaceID, verdict); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.send(c, ServerMessage{Type: MsgAck, RequestID: msg.RequestID, Data: verdict.Results()})
}

func (g *Gateway) handleUpgrade(c *Client, msg ClientMessage) {
	matchID := c.currentMatch()
	if matchID == "" {
		g.sendError(c, msg.RequestID, "not in a match")
		return
	}
	var payload CodePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.SpaceID == "" {
		g.sendError(c, msg.RequestID, "upgrade_property requires a spaceId and code")
		return
	}

	verdict, err := g.judgeCode(payload.SpaceID, payload)
	if err != nil {
		g.sendError(c, msg.RequestID, "judge unavailable: "+err.Error())
		return
	}
	if err := g.engine.UpgradeProperty(matchID, c.playerID, payload.SpaceID, verdict); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.send(c, ServerMessage{Type: MsgAck, RequestID: msg.RequestID, Data: verdict.Results()})
}

func (g *Gateway) handleChallengeDuel(c *Client, msg ClientMessage) {
	matchID := c.currentMatch()
	if matchID == "" {
		g.sendError(c, msg.RequestID, "not in a match")
		return
	}
	duelID, err := g.engine.StartDuel(matchID, c.playerID)
	if err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.send(c, ServerMessage{Type: MsgAck, RequestID: msg.RequestID, Data: map[string]string{"duelId": duelID}})
}

func (g *Gateway) handleSubmitDuel(c *Client, msg ClientMessage) {
	matchID := c.currentMatch()
	if matchID == "" {
		g.sendError(c, msg.RequestID, "not in a match")
		return
	}
	var payload CodePayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		g.sendError(c, msg.RequestID, "malformed submit_duel_code payload")
		return
	}

	view, err := g.engine.View(matchID)
	if err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	if view.ActiveDuel == nil {
		g.sendError(c, msg.RequestID, "no active duel")
		return
	}

	// Elapsed time is measured server-side from the duel start; a
	// client-supplied timing is never trusted.
	elapsed := time.Since(view.ActiveDuel.StartedAt)

	verdict, err := g.judgeCode(view.ActiveDuel.SpaceID, payload)
	if err != nil {
		g.sendError(c, msg.RequestID, "judge unavailable: "+err.Error())
		return
	}

	if err := g.engine.SubmitDuel(matchID, c.playerID, verdict.AllPassed(), elapsed); err != nil {
		g.sendError(c, msg.RequestID, err.Error())
		return
	}
	g.send(c, ServerMessage{Type: MsgDuelResult, RequestID: msg.RequestID, Data: map[string]any{
		"solved":  verdict.AllPassed(),
		"results": verdict.Results(),
	}})
}
