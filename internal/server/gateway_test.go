package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/codeopoly/codeopoly-server-go/internal/board"
	"github.com/codeopoly/codeopoly-server-go/internal/config"
	"github.com/codeopoly/codeopoly-server-go/internal/game"
	"github.com/codeopoly/codeopoly-server-go/internal/judge"
	"github.com/codeopoly/codeopoly-server-go/internal/room"
	"github.com/codeopoly/codeopoly-server-go/internal/session"
)

type scriptRoller struct {
	rolls [][2]int
	next  int
}

func (r *scriptRoller) Roll() (int, int) {
	if r.next >= len(r.rolls) {
		return 1, 2
	}
	roll := r.rolls[r.next]
	r.next++
	return roll[0], roll[1]
}

type gatewayEnv struct {
	gateway *Gateway
	engine  *game.Engine
	ts      *httptest.Server
}

func newGatewayEnv(t *testing.T, outcomes map[string]bool, rolls ...[2]int) *gatewayEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	serverCfg := config.ServerConfig{
		WebSocket: config.WebSocketConfig{
			Path:            "/ws",
			WriteTimeout:    5 * time.Second,
			PongTimeout:     time.Minute,
			PingInterval:    30 * time.Second,
			MaxMessageBytes: 1 << 20,
		},
		LeasePeriod: time.Minute,
		MaxSessions: 100,
	}
	gameCfg := config.GameConfig{StartingCash: 1500, DuelTimeLimit: time.Minute}

	engine := game.NewEngine(board.NewRegistry(), game.Options{
		DuelTimeLimit: time.Minute,
		Roller:        &scriptRoller{rolls: rolls},
	}, logger)
	rooms := room.NewManager(logger)
	sessions := session.NewManager(serverCfg.LeasePeriod, logger)

	g := NewGateway(serverCfg, gameCfg, engine, rooms, sessions, &judge.ScriptedJudge{Outcomes: outcomes}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go g.Run(ctx)

	ts := httptest.NewServer(g.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		sessions.CloseAll()
	})

	return &gatewayEnv{gateway: g, engine: engine, ts: ts}
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func (env *gatewayEnv) dial(t *testing.T) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) intent(msgType, requestID string, payload any) {
	c.t.Helper()
	msg := map[string]any{"type": msgType}
	if requestID != "" {
		msg["requestId"] = requestID
	}
	if payload != nil {
		msg["data"] = payload
	}
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// await reads frames until one of the wanted type arrives, skipping
// fanout frames of other types.
func (c *wsClient) await(msgType string) ServerMessage {
	c.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		var msg ServerMessage
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %q", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

func dataMap(t *testing.T, msg ServerMessage) map[string]any {
	t.Helper()
	raw, err := json.Marshal(msg.Data)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// joinLobby runs the hello, room and ready handshake for two players
// and returns their connections plus the room code.
func joinLobby(t *testing.T, env *gatewayEnv) (alice, bob *wsClient, roomCode string) {
	t.Helper()

	alice = env.dial(t)
	alice.intent(MsgHello, "h1", HelloPayload{PlayerID: "alice", DisplayName: "Alice"})
	welcome := alice.await(MsgWelcome)
	assert.Equal(t, "h1", welcome.RequestID)

	alice.intent(MsgCreateRoom, "c1", nil)
	created := alice.await(MsgRoomState)
	roomCode = dataMap(t, created)["Code"].(string)
	require.NotEmpty(t, roomCode)

	bob = env.dial(t)
	bob.intent(MsgHello, "h2", HelloPayload{PlayerID: "bob", DisplayName: "Bob"})
	bob.await(MsgWelcome)
	bob.intent(MsgJoinRoom, "j1", JoinRoomPayload{RoomCode: roomCode})
	bob.await(MsgRoomState)

	bob.intent(MsgSetReady, "r1", ReadyPayload{Ready: true})
	bob.await(MsgRoomState)
	return alice, bob, roomCode
}

func TestHelloRequired(t *testing.T) {
	env := newGatewayEnv(t, nil)
	c := env.dial(t)

	c.intent(MsgCreateRoom, "c1", nil)
	msg := c.await(MsgError)
	assert.Contains(t, msg.Error, "hello required")
}

func TestHelloWithoutPlayerIDRejected(t *testing.T) {
	env := newGatewayEnv(t, nil)
	c := env.dial(t)

	c.intent(MsgHello, "h1", HelloPayload{DisplayName: "Nobody"})
	msg := c.await(MsgError)
	assert.Contains(t, msg.Error, "playerId")
}

func TestPingPong(t *testing.T) {
	env := newGatewayEnv(t, nil)
	c := env.dial(t)
	c.intent(MsgHello, "h1", HelloPayload{PlayerID: "alice"})
	c.await(MsgWelcome)

	c.intent(MsgPing, "p1", nil)
	msg := c.await(MsgPong)
	assert.Equal(t, "p1", msg.RequestID)
}

func TestLaunchMatchBroadcastsState(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice, bob, _ := joinLobby(t, env)

	alice.intent(MsgLaunchMatch, "l1", nil)

	state := alice.await(MsgMatchState)
	data := dataMap(t, state)
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, "alice", data["currentPlayer"])

	bobState := bob.await(MsgMatchState)
	assert.Equal(t, "ACTIVE", dataMap(t, bobState)["status"])
}

func TestLaunchRequiresHost(t *testing.T) {
	env := newGatewayEnv(t, nil)
	_, bob, _ := joinLobby(t, env)

	bob.intent(MsgLaunchMatch, "l1", nil)
	msg := bob.await(MsgError)
	assert.Contains(t, msg.Error, "host")
}

func TestRollAndBuyOverWebsocket(t *testing.T) {
	// Dice 1+2 land the first player on a purchasable space.
	env := newGatewayEnv(t, map[string]bool{"fortran-flats": true}, [2]int{1, 2})
	alice, _, _ := joinLobby(t, env)

	alice.intent(MsgLaunchMatch, "l1", nil)
	alice.await(MsgMatchState)

	alice.intent(MsgRoll, "roll1", nil)
	result := alice.await(MsgRollResult)
	data := dataMap(t, result)
	assert.Equal(t, float64(3), data["total"])

	alice.intent(MsgBuyProperty, "buy1", CodePayload{SpaceID: "fortran-flats", Language: "go", Code: "func solve() {}"})

	// Ownership shows up in the fanout state, which is written before
	// the ack frame.
	state := alice.await(MsgMatchState)
	stateData := dataMap(t, state)
	spaces, ok := stateData["spaces"].([]any)
	require.True(t, ok)
	require.Len(t, spaces, 1)
	space := spaces[0].(map[string]any)
	assert.Equal(t, "fortran-flats", space["spaceId"])
	assert.Equal(t, "alice", space["ownerId"])

	ack := alice.await(MsgAck)
	assert.Equal(t, "buy1", ack.RequestID)
}

func TestBuyWithFailingCodeRejected(t *testing.T) {
	env := newGatewayEnv(t, map[string]bool{}, [2]int{1, 2})
	alice, _, _ := joinLobby(t, env)

	alice.intent(MsgLaunchMatch, "l1", nil)
	alice.await(MsgMatchState)
	alice.intent(MsgRoll, "roll1", nil)
	alice.await(MsgRollResult)

	alice.intent(MsgBuyProperty, "buy1", CodePayload{SpaceID: "fortran-flats", Language: "go", Code: "broken"})
	msg := alice.await(MsgError)
	assert.Equal(t, "buy1", msg.RequestID)
	assert.NotEmpty(t, msg.Error)
}

func TestOutOfTurnRollRejected(t *testing.T) {
	env := newGatewayEnv(t, nil)
	_, bob, _ := joinLobby(t, env)

	bob.intent(MsgRoll, "roll1", nil)
	msg := bob.await(MsgError)
	assert.Contains(t, msg.Error, "not in a match")
}

func TestReconnectRejoinsMatch(t *testing.T) {
	env := newGatewayEnv(t, nil)
	alice, _, roomCode := joinLobby(t, env)

	alice.intent(MsgLaunchMatch, "l1", nil)
	alice.await(MsgMatchState)

	// A fresh connection for the same player rejoins the room and
	// receives the current match state directly.
	alice2 := env.dial(t)
	alice2.intent(MsgHello, "h1", HelloPayload{PlayerID: "alice", DisplayName: "Alice"})
	alice2.await(MsgWelcome)
	alice2.intent(MsgJoinRoom, "j1", JoinRoomPayload{RoomCode: roomCode})
	alice2.await(MsgRoomState)

	state := alice2.await(MsgMatchState)
	assert.Equal(t, "ACTIVE", dataMap(t, state)["status"])
}

func TestJoinUnknownRoom(t *testing.T) {
	env := newGatewayEnv(t, nil)
	c := env.dial(t)
	c.intent(MsgHello, "h1", HelloPayload{PlayerID: "alice"})
	c.await(MsgWelcome)

	c.intent(MsgJoinRoom, "j1", JoinRoomPayload{RoomCode: "NOSUCH"})
	msg := c.await(MsgError)
	assert.Contains(t, msg.Error, "room not found")
}
