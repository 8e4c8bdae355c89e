package rules

import "fmt"

// MatchAccessor provides the state a legality check needs without
// exposing the full match to the rules package.
type MatchAccessor interface {
	// FindPlayer finds player info by id.
	FindPlayer(playerID string) (PlayerInfo, bool)
	// CurrentPlayer returns whose turn it is.
	CurrentPlayer() string
	// Phase returns the current phase of the turn machine.
	Phase() Phase
	// Active reports whether the match has started and not finished.
	Active() bool
}

// PlayerInfo provides information about a player for legality checks.
type PlayerInfo struct {
	PlayerID    string
	DisplayName string
	Bankrupt    bool
	InJail      bool
}

// LegalityChecker validates player intents before the engine mutates
// anything. Validation precedes mutation: an intent rejected here has
// touched no state.
type LegalityChecker struct {
	match MatchAccessor
}

// NewLegalityChecker creates a new legality checker.
func NewLegalityChecker(match MatchAccessor) *LegalityChecker {
	return &LegalityChecker{match: match}
}

// CheckTurnAction validates that playerID may act right now and that
// the turn machine is in one of the allowed phases.
func (lc *LegalityChecker) CheckTurnAction(playerID string, allowed ...Phase) error {
	if !lc.match.Active() {
		return ErrMatchNotActive
	}

	player, found := lc.match.FindPlayer(playerID)
	if !found {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if player.Bankrupt {
		return fmt.Errorf("%w: %s is bankrupt", ErrWrongState, playerID)
	}
	if lc.match.CurrentPlayer() != playerID {
		return ErrNotYourTurn
	}
	return lc.checkPhase(allowed)
}

// CheckParticipant validates a player who need not hold the turn, such
// as a duel defender submitting a solution.
func (lc *LegalityChecker) CheckParticipant(playerID string, allowed ...Phase) error {
	if !lc.match.Active() {
		return ErrMatchNotActive
	}
	player, found := lc.match.FindPlayer(playerID)
	if !found {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	if player.Bankrupt {
		return fmt.Errorf("%w: %s is bankrupt", ErrWrongState, playerID)
	}
	return lc.checkPhase(allowed)
}

func (lc *LegalityChecker) checkPhase(allowed []Phase) error {
	if len(allowed) == 0 {
		return nil
	}
	current := lc.match.Phase()
	for _, phase := range allowed {
		if current == phase {
			return nil
		}
	}
	if current != PhaseWaitingForRoll && len(allowed) == 1 && allowed[0] == PhaseWaitingForRoll {
		return ErrAlreadyRolled
	}
	return fmt.Errorf("%w: phase is %s", ErrWrongState, current)
}
