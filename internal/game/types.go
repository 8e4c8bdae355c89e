package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/codeopoly/codeopoly-server-go/internal/deck"
	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
)

// MatchStatus is the coarse lifecycle of a match.
type MatchStatus int

const (
	MatchStatusWaiting MatchStatus = iota
	MatchStatusActive
	MatchStatusFinished
)

var matchStatusNames = map[MatchStatus]string{
	MatchStatusWaiting:  "WAITING",
	MatchStatusActive:   "ACTIVE",
	MatchStatusFinished: "FINISHED",
}

func (s MatchStatus) String() string {
	if name, ok := matchStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATUS_%d", int(s))
}

// Seat is a player joining a match: identity comes from the external
// provider, the engine never mints player ids.
type Seat struct {
	PlayerID    string
	DisplayName string
	Avatar      string
}

// Player is the per-match mutable state of one participant. Mutated
// only by engine operations under the match lock.
type Player struct {
	ID           string
	DisplayName  string
	Avatar       string
	Position     int
	Cash         int
	InJail       bool
	JailTurns    int
	JailCredits  int
	Bankrupt     bool
	DoublesCount int
}

// DuelStatus is the lifecycle of a duel.
type DuelStatus int

const (
	DuelActive DuelStatus = iota
	DuelChallengerWon
	DuelDefenderWon
)

var duelStatusNames = map[DuelStatus]string{
	DuelActive:        "ACTIVE",
	DuelChallengerWon: "CHALLENGER_WON",
	DuelDefenderWon:   "DEFENDER_WON",
}

func (s DuelStatus) String() string {
	if name, ok := duelStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DUEL_%d", int(s))
}

// duelSide records one party's submission state.
type duelSide struct {
	Submitted bool
	Solved    bool
	Elapsed   time.Duration
}

// Duel is a timed two-party override of a rent obligation. At most one
// exists per match at any time.
type Duel struct {
	ID           string
	ChallengerID string
	DefenderID   string
	SpaceID      string
	Status       DuelStatus
	Challenger   duelSide
	Defender     duelSide
	StartedAt    time.Time
	TimeLimit    time.Duration
}

// Deadline is the instant at which the duel force-resolves.
func (d *Duel) Deadline() time.Time {
	return d.StartedAt.Add(d.TimeLimit)
}

// matchState is the single source of truth for one match. All
// mutation happens through engine operations holding mu; the gateway
// only ever reads views produced after a mutation completed.
type matchState struct {
	mu sync.Mutex

	id       string
	roomCode string
	status   MatchStatus

	players     []*Player
	playerIndex map[string]*Player

	turns  *rules.TurnManager
	spaces map[string]*rules.SpaceState

	activeDuel *Duel
	chance     *deck.Deck
	chest      *deck.Deck

	rng      *rand.Rand
	bus      *rules.EventBus
	legality *rules.LegalityChecker

	startedAt time.Time
	winnerID  string

	// pendingExtraTurn is set when the current roll was doubles: the
	// roller keeps the turn after the landing fully resolves.
	pendingExtraTurn bool

	// decisionSeq invalidates stale decision-timeout timers: it bumps
	// every time the phase changes.
	decisionSeq uint64

	duelTimer   *time.Timer
	decideTimer *time.Timer
}

// FindPlayer implements rules.MatchAccessor.
func (m *matchState) FindPlayer(playerID string) (rules.PlayerInfo, bool) {
	p, ok := m.playerIndex[playerID]
	if !ok {
		return rules.PlayerInfo{}, false
	}
	return rules.PlayerInfo{
		PlayerID:    p.ID,
		DisplayName: p.DisplayName,
		Bankrupt:    p.Bankrupt,
		InJail:      p.InJail,
	}, true
}

// CurrentPlayer implements rules.MatchAccessor.
func (m *matchState) CurrentPlayer() string {
	return m.turns.CurrentPlayer()
}

// Phase implements rules.MatchAccessor.
func (m *matchState) Phase() rules.Phase {
	return m.turns.Phase()
}

// Active implements rules.MatchAccessor.
func (m *matchState) Active() bool {
	return m.status == MatchStatusActive
}

func (m *matchState) player(playerID string) (*Player, error) {
	p, ok := m.playerIndex[playerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", rules.ErrPlayerNotFound, playerID)
	}
	return p, nil
}

// groupHeldBy counts how many spaces of a group the owner holds.
func (m *matchState) groupHeldBy(ownerID string, groupMembers []string) int {
	held := 0
	for _, id := range groupMembers {
		if st, ok := m.spaces[id]; ok && st.OwnerID == ownerID {
			held++
		}
	}
	return held
}

// ownedSpaceIDs returns the ids of every space the player owns.
func (m *matchState) ownedSpaceIDs(playerID string) []string {
	var out []string
	for id, st := range m.spaces {
		if st.OwnerID == playerID {
			out = append(out, id)
		}
	}
	return out
}

// setPhase moves the turn machine and invalidates pending decision
// timers.
func (m *matchState) setPhase(phase rules.Phase) {
	m.turns.SetPhase(phase)
	m.decisionSeq++
	if m.decideTimer != nil {
		m.decideTimer.Stop()
		m.decideTimer = nil
	}
}
