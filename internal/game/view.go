package game

import (
	"time"

	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
)

// MatchView is the read-only snapshot broadcast to clients after each
// mutation. It carries no engine internals and is safe to marshal
// concurrently with further engine calls.
type MatchView struct {
	MatchID       string           `json:"matchId"`
	RoomCode      string           `json:"roomCode"`
	Status        string           `json:"status"`
	Phase         string           `json:"phase"`
	TurnNumber    int              `json:"turnNumber"`
	CurrentPlayer string           `json:"currentPlayer"`
	Players       []PlayerView     `json:"players"`
	Spaces        []SpaceStateView `json:"spaces"`
	ActiveDuel    *DuelView        `json:"activeDuel,omitempty"`
	WinnerID      string           `json:"winnerId,omitempty"`
}

// PlayerView is the public slice of a player's state.
type PlayerView struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	Position    int    `json:"position"`
	Cash        int    `json:"cash"`
	InJail      bool   `json:"inJail"`
	JailTurns   int    `json:"jailTurns"`
	JailCredits int    `json:"jailCredits"`
	Bankrupt    bool   `json:"bankrupt"`
}

// SpaceStateView reports ownership for one purchasable space. Only
// owned spaces are included.
type SpaceStateView struct {
	SpaceID string `json:"spaceId"`
	OwnerID string `json:"ownerId"`
	Level   int    `json:"level"`
}

// DuelView is the public slice of an active duel. Per-side progress is
// withheld so neither duelist can see the other's submissions.
type DuelView struct {
	ID           string    `json:"id"`
	ChallengerID string    `json:"challengerId"`
	DefenderID   string    `json:"defenderId"`
	SpaceID      string    `json:"spaceId"`
	StartedAt    time.Time `json:"startedAt"`
	Deadline     time.Time `json:"deadline"`
}

// View returns a snapshot of the match for broadcast.
func (e *Engine) View(matchID string) (MatchView, error) {
	m, err := e.match(matchID)
	if err != nil {
		return MatchView{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	view := MatchView{
		MatchID:       m.id,
		RoomCode:      m.roomCode,
		Status:        m.status.String(),
		Phase:         m.turns.Phase().String(),
		TurnNumber:    m.turns.TurnNumber(),
		CurrentPlayer: m.turns.CurrentPlayer(),
		WinnerID:      m.winnerID,
	}

	for _, p := range m.players {
		view.Players = append(view.Players, PlayerView{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Avatar:      p.Avatar,
			Position:    p.Position,
			Cash:        p.Cash,
			InJail:      p.InJail,
			JailTurns:   p.JailTurns,
			JailCredits: p.JailCredits,
			Bankrupt:    p.Bankrupt,
		})
	}

	for _, sp := range e.registry.Spaces() {
		state, ok := m.spaces[sp.ID]
		if !ok || !state.Owned() {
			continue
		}
		view.Spaces = append(view.Spaces, SpaceStateView{
			SpaceID: state.SpaceID,
			OwnerID: state.OwnerID,
			Level:   state.Level,
		})
	}

	if d := m.activeDuel; d != nil && d.Status == DuelActive {
		view.ActiveDuel = &DuelView{
			ID:           d.ID,
			ChallengerID: d.ChallengerID,
			DefenderID:   d.DefenderID,
			SpaceID:      d.SpaceID,
			StartedAt:    d.StartedAt,
			Deadline:     d.Deadline(),
		}
	}
	return view, nil
}

// Phase reports the current turn phase, mainly for tests and the
// gateway's intent routing.
func (e *Engine) Phase(matchID string) (rules.Phase, error) {
	m, err := e.match(matchID)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns.Phase(), nil
}
