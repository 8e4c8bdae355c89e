package rules

import "fmt"

// Phase is the explicit state of a match's turn machine. Illegal
// combinations (advancing the turn mid-duel, rolling while a decision
// is pending) are rejected by phase checks instead of being encoded in
// optional fields.
type Phase int

const (
	PhaseWaitingForRoll Phase = iota
	PhaseAwaitingBuyDecision
	PhaseAwaitingRentOrDuelDecision
	PhaseAwaitingUpgradeDecision
	PhaseDuelActive
	PhaseFinished
)

var phaseNames = map[Phase]string{
	PhaseWaitingForRoll:             "WAITING_FOR_ROLL",
	PhaseAwaitingBuyDecision:        "AWAITING_BUY_DECISION",
	PhaseAwaitingRentOrDuelDecision: "AWAITING_RENT_OR_DUEL_DECISION",
	PhaseAwaitingUpgradeDecision:    "AWAITING_UPGRADE_DECISION",
	PhaseDuelActive:                 "DUEL_ACTIVE",
	PhaseFinished:                   "FINISHED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// MaxConsecutiveDoubles is the doubles cap: the third consecutive
// doubles sends the roller to jail instead of granting another turn.
const MaxConsecutiveDoubles = 3

// TurnManager tracks seating order, whose turn it is and the current
// phase. Turn advancement happens only through Advance, never as a
// side effect of another operation.
type TurnManager struct {
	seating    []string
	orderIndex int
	turnNumber int
	phase      Phase
}

// NewTurnManager creates a turn manager with the given seating order,
// starting at turn 1 with the first seat waiting to roll.
func NewTurnManager(seating []string) *TurnManager {
	order := make([]string, len(seating))
	copy(order, seating)
	return &TurnManager{
		seating:    order,
		turnNumber: 1,
		phase:      PhaseWaitingForRoll,
	}
}

// CurrentPlayer returns the player whose turn it is.
func (tm *TurnManager) CurrentPlayer() string {
	if len(tm.seating) == 0 {
		return ""
	}
	return tm.seating[tm.orderIndex]
}

// TurnNumber returns the current turn number (1-based, strictly
// increasing).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// Phase returns the current phase.
func (tm *TurnManager) Phase() Phase {
	return tm.phase
}

// SetPhase moves the machine to the given phase. Callers are the
// engine's operations, which validate the transition first.
func (tm *TurnManager) SetPhase(phase Phase) {
	tm.phase = phase
}

// Seating returns a copy of the seating order.
func (tm *TurnManager) Seating() []string {
	out := make([]string, len(tm.seating))
	copy(out, tm.seating)
	return out
}

// Advance rotates to the next seat for which eligible returns true,
// increments the turn number and resets the phase to WaitingForRoll.
// It returns the new current player, or "" when no seat is eligible.
func (tm *TurnManager) Advance(eligible func(playerID string) bool) string {
	if tm.phase == PhaseFinished || len(tm.seating) == 0 {
		return tm.CurrentPlayer()
	}
	tm.turnNumber++
	tm.phase = PhaseWaitingForRoll

	for i := 1; i <= len(tm.seating); i++ {
		idx := (tm.orderIndex + i) % len(tm.seating)
		if eligible == nil || eligible(tm.seating[idx]) {
			tm.orderIndex = idx
			return tm.seating[idx]
		}
	}
	return ""
}

// Restore rewinds the manager to a persisted point in the match.
func (tm *TurnManager) Restore(currentPlayer string, turnNumber int, phase Phase) error {
	for i, id := range tm.seating {
		if id == currentPlayer {
			tm.orderIndex = i
			tm.turnNumber = turnNumber
			tm.phase = phase
			return nil
		}
	}
	return fmt.Errorf("restore turn state: %w: %s", ErrPlayerNotFound, currentPlayer)
}
