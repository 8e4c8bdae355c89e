package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
)

// StartDuel lets the active player contest a rent obligation by
// challenging the space's owner. The turn machine freezes until the
// duel resolves.
func (e *Engine) StartDuel(matchID, challengerID string) (string, error) {
	var duelID string
	err := e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(challengerID, rules.PhaseAwaitingRentOrDuelDecision); err != nil {
			return nil, err
		}
		if m.activeDuel != nil {
			return nil, rules.ErrDuelInProgress
		}
		p, err := m.player(challengerID)
		if err != nil {
			return nil, err
		}
		sp, ok := e.registry.SpaceAt(p.Position)
		if !ok {
			return nil, fmt.Errorf("%w: no space at position %d", rules.ErrWrongState, p.Position)
		}
		state := m.spaces[sp.ID]
		if state == nil || !state.Owned() || state.OwnerID == challengerID {
			return nil, fmt.Errorf("%w: %s is not owned by an opponent", rules.ErrWrongState, sp.ID)
		}
		defender, err := m.player(state.OwnerID)
		if err != nil {
			return nil, err
		}
		if defender.Bankrupt {
			return nil, fmt.Errorf("%w: %s is bankrupt", rules.ErrWrongState, defender.ID)
		}

		duel := &Duel{
			ID:           uuid.New().String(),
			ChallengerID: challengerID,
			DefenderID:   defender.ID,
			SpaceID:      sp.ID,
			Status:       DuelActive,
			StartedAt:    time.Now(),
			TimeLimit:    e.opts.DuelTimeLimit,
		}
		m.activeDuel = duel
		duelID = duel.ID
		m.setPhase(rules.PhaseDuelActive)
		e.scheduleDuelTimeout(m, duel)

		e.logger.Info("duel started",
			zap.String("match_id", m.id),
			zap.String("duel_id", duel.ID),
			zap.String("challenger_id", challengerID),
			zap.String("defender_id", defender.ID),
			zap.String("space_id", sp.ID),
		)

		ev := rules.NewEvent(rules.EventDuelStarted, m.id, challengerID)
		ev.TargetID = defender.ID
		ev.SpaceID = sp.ID
		ev.Metadata["duel_id"] = duel.ID
		ev.Metadata["deadline"] = duel.Deadline().UTC().Format(time.RFC3339)
		return []rules.Event{ev}, nil
	})
	return duelID, err
}

// SubmitDuel records one side's attempt. Resolution is applied the
// instant enough information exists: a solved submission wins on the
// spot unless the other side already solved faster. Unsolved
// submissions are recorded and may be retried until the deadline.
func (e *Engine) SubmitDuel(matchID, playerID string, solved bool, elapsed time.Duration) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckParticipant(playerID, rules.PhaseDuelActive); err != nil {
			return nil, err
		}
		duel := m.activeDuel
		if duel == nil || duel.Status != DuelActive {
			return nil, rules.ErrNoActiveDuel
		}

		var side, other *duelSide
		switch playerID {
		case duel.ChallengerID:
			side, other = &duel.Challenger, &duel.Defender
		case duel.DefenderID:
			side, other = &duel.Defender, &duel.Challenger
		default:
			return nil, rules.ErrNotInDuel
		}

		side.Submitted = true
		side.Solved = solved
		side.Elapsed = elapsed

		ev := rules.NewEvent(rules.EventDuelSubmitted, m.id, playerID)
		ev.SpaceID = duel.SpaceID
		ev.Flag = solved
		ev.Metadata["duel_id"] = duel.ID
		ev.Metadata["elapsed_ms"] = fmt.Sprintf("%d", elapsed.Milliseconds())
		events := []rules.Event{ev}

		if !solved {
			return events, nil
		}

		winnerID := playerID
		if other.Solved {
			otherID := duel.ChallengerID
			if playerID == duel.ChallengerID {
				otherID = duel.DefenderID
			}
			// Both solved: smaller elapsed wins, defender takes ties.
			switch {
			case other.Elapsed < side.Elapsed:
				winnerID = otherID
			case other.Elapsed == side.Elapsed:
				winnerID = duel.DefenderID
			}
		}
		e.resolveDuel(m, duel, winnerID, "solved", &events)
		return events, nil
	})
}

// scheduleDuelTimeout arms the duel deadline. The callback is keyed by
// duel id so a stale timer never fires into a later duel.
func (e *Engine) scheduleDuelTimeout(m *matchState, duel *Duel) {
	if m.duelTimer != nil {
		m.duelTimer.Stop()
	}
	matchID := m.id
	duelID := duel.ID
	m.duelTimer = time.AfterFunc(duel.TimeLimit, func() {
		e.expireDuel(matchID, duelID)
	})
}

// expireDuel resolves a duel whose deadline passed with no solved
// submission. The defender wins by default.
func (e *Engine) expireDuel(matchID, duelID string) {
	err := e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		duel := m.activeDuel
		if duel == nil || duel.ID != duelID || duel.Status != DuelActive {
			return nil, nil
		}
		var events []rules.Event
		e.resolveDuel(m, duel, duel.DefenderID, "timeout", &events)
		return events, nil
	})
	if err != nil {
		e.logger.Warn("duel expiry failed",
			zap.String("match_id", matchID),
			zap.String("duel_id", duelID),
			zap.Error(err),
		)
	}
}

// resolveDuel settles the stakes, folds the duel back into the match
// and forces the turn to advance. Challenger win confiscates one
// upgrade level and waives rent; defender win doubles the rent.
func (e *Engine) resolveDuel(m *matchState, duel *Duel, winnerID, reason string, events *[]rules.Event) {
	if m.duelTimer != nil {
		m.duelTimer.Stop()
		m.duelTimer = nil
	}

	challengerWon := winnerID == duel.ChallengerID
	if challengerWon {
		duel.Status = DuelChallengerWon
		if state, ok := m.spaces[duel.SpaceID]; ok && state.Level > 0 {
			state.Level--
		}
	} else {
		duel.Status = DuelDefenderWon
		e.chargeDoubleRent(m, duel, events)
	}

	ev := rules.NewEvent(rules.EventDuelEnded, m.id, winnerID)
	ev.SpaceID = duel.SpaceID
	ev.Flag = challengerWon
	ev.Metadata["duel_id"] = duel.ID
	ev.Metadata["reason"] = reason
	*events = append(*events, ev)

	e.logger.Info("duel resolved",
		zap.String("match_id", m.id),
		zap.String("duel_id", duel.ID),
		zap.String("winner_id", winnerID),
		zap.String("reason", reason),
	)

	m.activeDuel = nil
	if m.status != MatchStatusActive {
		return
	}
	m.setPhase(rules.PhaseWaitingForRoll)
	e.advanceTurn(m, events)
}

// chargeDoubleRent makes the losing challenger pay twice the contested
// space's current rent to the defender.
func (e *Engine) chargeDoubleRent(m *matchState, duel *Duel, events *[]rules.Event) {
	challenger, err := m.player(duel.ChallengerID)
	if err != nil {
		return
	}
	sp, ok := e.registry.SpaceByID(duel.SpaceID)
	if !ok {
		return
	}
	state := m.spaces[duel.SpaceID]
	if state == nil || state.OwnerID != duel.DefenderID {
		// Owner changed mid-duel (bankruptcy elsewhere): no rent due.
		return
	}

	held := m.groupHeldBy(duel.DefenderID, e.registry.GroupMembers(sp.Group))
	rent := rules.CalculateRent(sp, state, held) * 2
	if e.charge(m, challenger, rent, duel.DefenderID, events) {
		ev := rules.NewEvent(rules.EventRentPaid, m.id, challenger.ID)
		ev.TargetID = duel.DefenderID
		ev.SpaceID = duel.SpaceID
		ev.Amount = rent
		*events = append(*events, ev)
	}
}
