package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codeopoly/codeopoly-server-go/internal/deck"
	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
)

// MatchRecord is the flat, lossless persistence form of a match. A
// restored record reproduces the exact in-memory state, including a
// mid-resolution duel and each deck's remaining draw order.
type MatchRecord struct {
	MatchID          string         `json:"matchId"`
	RoomCode         string         `json:"roomCode"`
	Status           string         `json:"status"`
	CurrentPlayer    string         `json:"currentPlayer"`
	TurnNumber       int            `json:"turnNumber"`
	Phase            string         `json:"phase"`
	PendingExtraTurn bool           `json:"pendingExtraTurn"`
	Players          []PlayerRecord `json:"players"`
	Spaces           []SpaceRecord  `json:"spaces"`
	ChanceOrder      []string       `json:"chanceOrder"`
	ChestOrder       []string       `json:"chestOrder"`
	ActiveDuel       *DuelRecord    `json:"activeDuel,omitempty"`
	StartedAt        time.Time      `json:"startedAt"`
	WinnerID         string         `json:"winnerId,omitempty"`
	Checksum         string         `json:"checksum"`
}

// PlayerRecord is the persisted form of one player.
type PlayerRecord struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Avatar       string `json:"avatar,omitempty"`
	Position     int    `json:"position"`
	Cash         int    `json:"cash"`
	InJail       bool   `json:"inJail"`
	JailTurns    int    `json:"jailTurns"`
	JailCredits  int    `json:"jailCredits"`
	Bankrupt     bool   `json:"bankrupt"`
	DoublesCount int    `json:"doublesCount"`
}

// SpaceRecord is the persisted ownership state of one space. Only
// owned spaces are written.
type SpaceRecord struct {
	SpaceID string `json:"spaceId"`
	OwnerID string `json:"ownerId"`
	Level   int    `json:"level"`
}

// DuelRecord is the persisted form of a mid-resolution duel.
type DuelRecord struct {
	ID                string        `json:"id"`
	ChallengerID      string        `json:"challengerId"`
	DefenderID        string        `json:"defenderId"`
	SpaceID           string        `json:"spaceId"`
	ChallengerSolved  bool          `json:"challengerSolved"`
	ChallengerElapsed time.Duration `json:"challengerElapsed"`
	ChallengerAttempt bool          `json:"challengerAttempt"`
	DefenderSolved    bool          `json:"defenderSolved"`
	DefenderElapsed   time.Duration `json:"defenderElapsed"`
	DefenderAttempt   bool          `json:"defenderAttempt"`
	StartedAt         time.Time     `json:"startedAt"`
	TimeLimit         time.Duration `json:"timeLimit"`
}

// Snapshot captures a match as a flat record with an integrity
// checksum over its deterministic fields.
func (e *Engine) Snapshot(matchID string) (MatchRecord, error) {
	m, err := e.match(matchID)
	if err != nil {
		return MatchRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record := MatchRecord{
		MatchID:          m.id,
		RoomCode:         m.roomCode,
		Status:           m.status.String(),
		CurrentPlayer:    m.turns.CurrentPlayer(),
		TurnNumber:       m.turns.TurnNumber(),
		Phase:            m.turns.Phase().String(),
		PendingExtraTurn: m.pendingExtraTurn,
		ChanceOrder:      m.chance.DrawOrder(),
		ChestOrder:       m.chest.DrawOrder(),
		StartedAt:        m.startedAt,
		WinnerID:         m.winnerID,
	}

	for _, p := range m.players {
		record.Players = append(record.Players, PlayerRecord{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			Avatar:       p.Avatar,
			Position:     p.Position,
			Cash:         p.Cash,
			InJail:       p.InJail,
			JailTurns:    p.JailTurns,
			JailCredits:  p.JailCredits,
			Bankrupt:     p.Bankrupt,
			DoublesCount: p.DoublesCount,
		})
	}

	for _, sp := range e.registry.Spaces() {
		state, ok := m.spaces[sp.ID]
		if !ok || !state.Owned() {
			continue
		}
		record.Spaces = append(record.Spaces, SpaceRecord{
			SpaceID: state.SpaceID,
			OwnerID: state.OwnerID,
			Level:   state.Level,
		})
	}

	if d := m.activeDuel; d != nil && d.Status == DuelActive {
		record.ActiveDuel = &DuelRecord{
			ID:                d.ID,
			ChallengerID:      d.ChallengerID,
			DefenderID:        d.DefenderID,
			SpaceID:           d.SpaceID,
			ChallengerSolved:  d.Challenger.Solved,
			ChallengerElapsed: d.Challenger.Elapsed,
			ChallengerAttempt: d.Challenger.Submitted,
			DefenderSolved:    d.Defender.Solved,
			DefenderElapsed:   d.Defender.Elapsed,
			DefenderAttempt:   d.Defender.Submitted,
			StartedAt:         d.StartedAt,
			TimeLimit:         d.TimeLimit,
		}
	}

	record.Checksum = record.ComputeChecksum()
	return record, nil
}

// ComputeChecksum hashes a canonical representation of the record's
// deterministic fields. Timestamps are excluded so a snapshot taken
// twice from the same state hashes identically.
func (r *MatchRecord) ComputeChecksum() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MATCH:%s|%s|%s|%s|%d|%s|%t\n",
		r.MatchID, r.RoomCode, r.Status, r.CurrentPlayer, r.TurnNumber, r.Phase, r.PendingExtraTurn)

	for _, p := range r.Players {
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%d|%t|%d|%d|%t|%d\n",
			p.ID, p.DisplayName, p.Position, p.Cash, p.InJail, p.JailTurns, p.JailCredits, p.Bankrupt, p.DoublesCount)
	}

	spaces := make([]SpaceRecord, len(r.Spaces))
	copy(spaces, r.Spaces)
	sort.Slice(spaces, func(i, j int) bool { return spaces[i].SpaceID < spaces[j].SpaceID })
	for _, s := range spaces {
		fmt.Fprintf(&buf, "SPACE:%s|%s|%d\n", s.SpaceID, s.OwnerID, s.Level)
	}

	fmt.Fprintf(&buf, "CHANCE:%s\n", strings.Join(r.ChanceOrder, ","))
	fmt.Fprintf(&buf, "CHEST:%s\n", strings.Join(r.ChestOrder, ","))

	if d := r.ActiveDuel; d != nil {
		fmt.Fprintf(&buf, "DUEL:%s|%s|%s|%s|%t|%d|%t|%d\n",
			d.ID, d.ChallengerID, d.DefenderID, d.SpaceID,
			d.ChallengerSolved, d.ChallengerElapsed, d.DefenderSolved, d.DefenderElapsed)
	}

	fmt.Fprintf(&buf, "WINNER:%s\n", r.WinnerID)

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the checksum and compares it to the stored one.
func (r *MatchRecord) Verify() bool {
	return r.Checksum == "" || r.Checksum == r.ComputeChecksum()
}

// RestoreMatch reconstructs a match from a persisted record and
// re-registers it with the engine. Pending timers are re-armed
// relative to the restored deadlines.
func (e *Engine) RestoreMatch(record MatchRecord) error {
	if !record.Verify() {
		return fmt.Errorf("match %s: checksum mismatch", record.MatchID)
	}

	status, err := parseMatchStatus(record.Status)
	if err != nil {
		return fmt.Errorf("match %s: %w", record.MatchID, err)
	}
	phase, err := parsePhase(record.Phase)
	if err != nil {
		return fmt.Errorf("match %s: %w", record.MatchID, err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	chance, err := deck.New(deck.KindChance, rng)
	if err != nil {
		return err
	}
	if err := chance.Restore(record.ChanceOrder); err != nil {
		return fmt.Errorf("match %s: chance deck: %w", record.MatchID, err)
	}
	chest, err := deck.New(deck.KindCommunityChest, rng)
	if err != nil {
		return err
	}
	if err := chest.Restore(record.ChestOrder); err != nil {
		return fmt.Errorf("match %s: chest deck: %w", record.MatchID, err)
	}

	m := &matchState{
		id:               record.MatchID,
		roomCode:         record.RoomCode,
		status:           status,
		playerIndex:      make(map[string]*Player, len(record.Players)),
		spaces:           make(map[string]*rules.SpaceState),
		chance:           chance,
		chest:            chest,
		rng:              rng,
		bus:              rules.NewEventBus(),
		startedAt:        record.StartedAt,
		winnerID:         record.WinnerID,
		pendingExtraTurn: record.PendingExtraTurn,
	}

	seating := make([]string, 0, len(record.Players))
	for _, pr := range record.Players {
		p := &Player{
			ID:           pr.ID,
			DisplayName:  pr.DisplayName,
			Avatar:       pr.Avatar,
			Position:     pr.Position,
			Cash:         pr.Cash,
			InJail:       pr.InJail,
			JailTurns:    pr.JailTurns,
			JailCredits:  pr.JailCredits,
			Bankrupt:     pr.Bankrupt,
			DoublesCount: pr.DoublesCount,
		}
		m.players = append(m.players, p)
		m.playerIndex[p.ID] = p
		seating = append(seating, p.ID)
	}

	for _, sp := range e.registry.Spaces() {
		if sp.Purchasable() {
			m.spaces[sp.ID] = &rules.SpaceState{SpaceID: sp.ID}
		}
	}
	for _, sr := range record.Spaces {
		state, ok := m.spaces[sr.SpaceID]
		if !ok {
			return fmt.Errorf("match %s: unknown space %s", record.MatchID, sr.SpaceID)
		}
		if _, ok := m.playerIndex[sr.OwnerID]; !ok {
			return fmt.Errorf("match %s: space %s owned by unknown player %s", record.MatchID, sr.SpaceID, sr.OwnerID)
		}
		state.OwnerID = sr.OwnerID
		state.Level = sr.Level
	}

	m.turns = rules.NewTurnManager(seating)
	if err := m.turns.Restore(record.CurrentPlayer, record.TurnNumber, phase); err != nil {
		return fmt.Errorf("match %s: %w", record.MatchID, err)
	}
	m.legality = rules.NewLegalityChecker(m)

	if dr := record.ActiveDuel; dr != nil {
		m.activeDuel = &Duel{
			ID:           dr.ID,
			ChallengerID: dr.ChallengerID,
			DefenderID:   dr.DefenderID,
			SpaceID:      dr.SpaceID,
			Status:       DuelActive,
			Challenger:   duelSide{Submitted: dr.ChallengerAttempt, Solved: dr.ChallengerSolved, Elapsed: dr.ChallengerElapsed},
			Defender:     duelSide{Submitted: dr.DefenderAttempt, Solved: dr.DefenderSolved, Elapsed: dr.DefenderElapsed},
			StartedAt:    dr.StartedAt,
			TimeLimit:    dr.TimeLimit,
		}
	}

	e.mu.Lock()
	if _, exists := e.matches[record.MatchID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("match %s already loaded", record.MatchID)
	}
	e.matches[record.MatchID] = m
	e.mu.Unlock()

	if d := m.activeDuel; d != nil {
		remaining := time.Until(d.Deadline())
		if remaining <= 0 {
			e.expireDuel(m.id, d.ID)
		} else {
			m.mu.Lock()
			m.duelTimer = time.AfterFunc(remaining, func() { e.expireDuel(m.id, d.ID) })
			m.mu.Unlock()
		}
	}

	// A match restored mid-decision gets its idle fallback re-armed,
	// otherwise a current player who never reconnects freezes it.
	if m.status == MatchStatusActive {
		switch phase {
		case rules.PhaseAwaitingBuyDecision, rules.PhaseAwaitingRentOrDuelDecision, rules.PhaseAwaitingUpgradeDecision:
			m.mu.Lock()
			e.scheduleDecisionTimeout(m)
			m.mu.Unlock()
		}
	}

	e.logger.Info("match restored",
		zap.String("match_id", record.MatchID),
		zap.String("status", record.Status),
		zap.String("phase", record.Phase),
	)
	return nil
}

func parseMatchStatus(s string) (MatchStatus, error) {
	for status, name := range matchStatusNames {
		if name == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown match status %q", s)
}

func parsePhase(s string) (rules.Phase, error) {
	for _, phase := range []rules.Phase{
		rules.PhaseWaitingForRoll,
		rules.PhaseAwaitingBuyDecision,
		rules.PhaseAwaitingRentOrDuelDecision,
		rules.PhaseAwaitingUpgradeDecision,
		rules.PhaseDuelActive,
		rules.PhaseFinished,
	} {
		if phase.String() == s {
			return phase, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}
