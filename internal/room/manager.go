// Package room manages pre-match lobbies: players gather under a short
// join code, flag ready, and the host launches the match.
package room

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoomState represents the lifecycle state of a room
type RoomState int

const (
	RoomStateWaiting RoomState = iota
	RoomStateInMatch
	RoomStateClosed
)

func (s RoomState) String() string {
	switch s {
	case RoomStateWaiting:
		return "WAITING"
	case RoomStateInMatch:
		return "IN_MATCH"
	case RoomStateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

const (
	// MaxMembers caps the seats at a board.
	MaxMembers = 6
	// MinMembers is the smallest playable match.
	MinMembers = 2

	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// Member is one seated player in a room.
type Member struct {
	PlayerID    string
	DisplayName string
	Avatar      string
	Ready       bool
}

// MemberSnapshot captures member data for external use.
type MemberSnapshot struct {
	PlayerID    string
	DisplayName string
	Avatar      string
	Ready       bool
	IsHost      bool
}

// RoomSnapshot captures a consistent view of a room.
type RoomSnapshot struct {
	ID         string
	Code       string
	State      RoomState
	HostID     string
	MatchID    string
	Members    []MemberSnapshot
	CreateTime time.Time
}

// Room is one lobby. Seat order is join order and becomes the seating
// order of the created match.
type Room struct {
	ID          string
	Code        string
	State       RoomState
	HostID      string
	MatchID     string
	Members     map[string]*Member
	MemberOrder []string
	Watchers    map[string]bool
	CreateTime  time.Time
	mu          sync.RWMutex
}

// NewRoom creates a new room hosted by hostID.
func NewRoom(code, hostID, hostName, hostAvatar string) *Room {
	r := &Room{
		ID:         uuid.New().String(),
		Code:       code,
		State:      RoomStateWaiting,
		HostID:     hostID,
		Members:    make(map[string]*Member),
		Watchers:   make(map[string]bool),
		CreateTime: time.Now(),
	}
	r.Members[hostID] = &Member{PlayerID: hostID, DisplayName: hostName, Avatar: hostAvatar}
	r.MemberOrder = []string{hostID}
	return r
}

// Join seats a player in the room.
func (r *Room) Join(playerID, displayName, avatar string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != RoomStateWaiting {
		return fmt.Errorf("room is not accepting players")
	}
	if _, exists := r.Members[playerID]; exists {
		return fmt.Errorf("player already joined")
	}
	if len(r.Members) >= MaxMembers {
		return fmt.Errorf("room is full")
	}

	r.Members[playerID] = &Member{PlayerID: playerID, DisplayName: displayName, Avatar: avatar}
	r.MemberOrder = append(r.MemberOrder, playerID)
	return nil
}

// Leave removes a player. When the host leaves, the oldest remaining
// member inherits the room.
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Members[playerID]; !exists {
		return fmt.Errorf("player not found")
	}

	delete(r.Members, playerID)
	for i, id := range r.MemberOrder {
		if id == playerID {
			r.MemberOrder = append(r.MemberOrder[:i], r.MemberOrder[i+1:]...)
			break
		}
	}

	if len(r.Members) == 0 {
		r.State = RoomStateClosed
		return nil
	}
	if r.HostID == playerID {
		r.HostID = r.MemberOrder[0]
	}
	return nil
}

// SetReady flags a member's readiness.
func (r *Room) SetReady(playerID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	member, exists := r.Members[playerID]
	if !exists {
		return fmt.Errorf("player not found")
	}
	member.Ready = ready
	return nil
}

// AllReady reports whether every seated member flagged ready.
func (r *Room) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, member := range r.Members {
		if !member.Ready {
			return false
		}
	}
	return true
}

// MemberCount returns the number of seated players.
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Members)
}

// IsHost checks if the given player hosts the room.
func (r *Room) IsHost(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.HostID == playerID
}

// AddWatcher registers a spectator for the room.
func (r *Room) AddWatcher(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Watchers[playerID] = true
}

// RemoveWatcher removes a spectator from the room.
func (r *Room) RemoveWatcher(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.Watchers[playerID]; exists {
		delete(r.Watchers, playerID)
		return true
	}
	return false
}

// Launch transitions the room into a running match. Requires the
// caller to be the host, enough ready players, and a waiting room.
func (r *Room) Launch(hostID, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != RoomStateWaiting {
		return fmt.Errorf("room already launched")
	}
	if r.HostID != hostID {
		return fmt.Errorf("only the host can launch the match")
	}
	if len(r.Members) < MinMembers {
		return fmt.Errorf("not enough players")
	}
	for _, member := range r.Members {
		if !member.Ready && member.PlayerID != r.HostID {
			return fmt.Errorf("player %s is not ready", member.PlayerID)
		}
	}

	r.State = RoomStateInMatch
	r.MatchID = matchID
	return nil
}

// Close marks the room finished, typically after its match ends.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = RoomStateClosed
}

// Snapshot returns a consistent copy of the room state.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]MemberSnapshot, 0, len(r.MemberOrder))
	for _, id := range r.MemberOrder {
		if member, ok := r.Members[id]; ok {
			members = append(members, MemberSnapshot{
				PlayerID:    member.PlayerID,
				DisplayName: member.DisplayName,
				Avatar:      member.Avatar,
				Ready:       member.Ready,
				IsHost:      member.PlayerID == r.HostID,
			})
		}
	}

	return RoomSnapshot{
		ID:         r.ID,
		Code:       r.Code,
		State:      r.State,
		HostID:     r.HostID,
		MatchID:    r.MatchID,
		Members:    members,
		CreateTime: r.CreateTime,
	}
}

// Manager manages rooms, keyed by join code.
type Manager struct {
	rooms  map[string]*Room
	rng    *rand.Rand
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewManager creates a new room manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*Room),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

// CreateRoom opens a new room and returns it.
func (m *Manager) CreateRoom(hostID, hostName, hostAvatar string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.generateCode()
	room := NewRoom(code, hostID, hostName, hostAvatar)
	m.rooms[code] = room

	m.logger.Info("room created",
		zap.String("room_id", room.ID),
		zap.String("room_code", code),
		zap.String("host_id", hostID),
	)
	return room
}

// generateCode produces a join code unique among open rooms. Caller
// holds the manager lock.
func (m *Manager) generateCode() string {
	for {
		buf := make([]byte, codeLength)
		for i := range buf {
			buf[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

// GetRoom retrieves a room by join code.
func (m *Manager) GetRoom(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[code]
	return room, ok
}

// RemoveRoom removes a room.
func (m *Manager) RemoveRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rooms, code)

	m.logger.Info("room removed", zap.String("room_code", code))
}

// GetAllRooms returns all rooms.
func (m *Manager) GetAllRooms() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// GetOpenRoomCount returns the count of rooms still accepting players.
func (m *Manager) GetOpenRoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, room := range m.rooms {
		if room.GetState() == RoomStateWaiting {
			count++
		}
	}
	return count
}

// GetState returns the current room state.
func (r *Room) GetState() RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}
