package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
)

// startDuelOnFortran puts bob's level-2 Fortran Flats under alice's
// token and opens a duel with alice as challenger.
func startDuelOnFortran(t *testing.T, e *Engine) string {
	t.Helper()

	m := testState(t, e)
	m.mu.Lock()
	m.spaces["fortran-flats"].OwnerID = "bob"
	m.spaces["fortran-flats"].Level = 2
	m.mu.Unlock()

	_, err := e.RollDice(testMatchID, "alice")
	require.NoError(t, err)
	require.Equal(t, rules.PhaseAwaitingRentOrDuelDecision, phase(t, e))

	duelID, err := e.StartDuel(testMatchID, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, duelID)
	require.Equal(t, rules.PhaseDuelActive, phase(t, e))
	return duelID
}

func TestStartDuelFreezesTurnMachine(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	view, err := e.View(testMatchID)
	require.NoError(t, err)
	require.NotNil(t, view.ActiveDuel)
	assert.Equal(t, "alice", view.ActiveDuel.ChallengerID)
	assert.Equal(t, "bob", view.ActiveDuel.DefenderID)
	assert.Equal(t, "fortran-flats", view.ActiveDuel.SpaceID)

	// The frozen turn machine rejects everything but submissions.
	_, err = e.RollDice(testMatchID, "alice")
	assert.Error(t, err)
	err = e.PayRent(testMatchID, "alice")
	assert.Error(t, err)
	err = e.EndTurn(testMatchID, "alice")
	assert.Error(t, err)
}

func TestStartDuelRequiresOpponentSpace(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)

	m := testState(t, e)
	m.mu.Lock()
	m.spaces["fortran-flats"].OwnerID = "alice"
	m.spaces["fortran-flats"].Level = 1
	m.mu.Unlock()

	_, err := e.RollDice(testMatchID, "alice")
	require.NoError(t, err)

	// Landing on her own space never reaches the rent decision.
	_, err = e.StartDuel(testMatchID, "alice")
	assert.ErrorIs(t, err, rules.ErrWrongState)
}

func TestChallengerWinConfiscatesUpgradeLevel(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	require.NoError(t, e.SubmitDuel(testMatchID, "alice", true, 45*time.Second))

	view, err := e.View(testMatchID)
	require.NoError(t, err)
	require.Nil(t, view.ActiveDuel, "duel folds back into the match on resolution")
	require.Len(t, view.Spaces, 1)
	assert.Equal(t, 1, view.Spaces[0].Level, "one level confiscated")
	assert.Equal(t, "bob", view.Spaces[0].OwnerID, "ownership is untouched")

	assert.Equal(t, startingCash, view.Players[0].Cash, "no rent charged this turn")
	assert.Equal(t, startingCash, view.Players[1].Cash)
	assert.Equal(t, "bob", currentPlayer(t, e), "resolution forces the turn forward")
}

func TestConfiscationStopsAtLevelZero(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	m := testState(t, e)
	m.mu.Lock()
	m.spaces["fortran-flats"].Level = 0
	m.mu.Unlock()

	require.NoError(t, e.SubmitDuel(testMatchID, "alice", true, time.Second))

	m.mu.Lock()
	level := m.spaces["fortran-flats"].Level
	owner := m.spaces["fortran-flats"].OwnerID
	m.mu.Unlock()
	assert.Equal(t, 0, level)
	assert.Equal(t, "bob", owner)
}

func TestDefenderWinChargesDoubleRent(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	// Defender solves first: challenger has not solved, defender wins
	// on the spot.
	require.NoError(t, e.SubmitDuel(testMatchID, "bob", true, 30*time.Second))

	view, err := e.View(testMatchID)
	require.NoError(t, err)
	require.Nil(t, view.ActiveDuel)

	rent := 60 // level 2 street rent
	assert.Equal(t, startingCash-2*rent, view.Players[0].Cash)
	assert.Equal(t, startingCash+2*rent, view.Players[1].Cash)
	assert.Equal(t, "bob", currentPlayer(t, e))
}

func TestUnsolvedSubmissionKeepsDuelOpen(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	require.NoError(t, e.SubmitDuel(testMatchID, "alice", false, 10*time.Second))
	require.Equal(t, rules.PhaseDuelActive, phase(t, e), "failed attempt does not resolve")

	// Retry is allowed until the deadline.
	require.NoError(t, e.SubmitDuel(testMatchID, "alice", true, 80*time.Second))
	assert.Equal(t, rules.PhaseWaitingForRoll, phase(t, e))
}

func TestBothSolvedSmallerElapsedWins(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	// Simulate the defender's solve racing in just ahead.
	m := testState(t, e)
	m.mu.Lock()
	m.activeDuel.Defender = duelSide{Submitted: true, Solved: true, Elapsed: 20 * time.Second}
	m.mu.Unlock()

	require.NoError(t, e.SubmitDuel(testMatchID, "alice", true, 25*time.Second))

	view, err := e.View(testMatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Spaces[0].Level, "no confiscation when the defender wins")
	rent := 60
	assert.Equal(t, startingCash-2*rent, view.Players[0].Cash)
}

func TestEqualElapsedTieGoesToDefender(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	m := testState(t, e)
	m.mu.Lock()
	m.activeDuel.Defender = duelSide{Submitted: true, Solved: true, Elapsed: 25 * time.Second}
	m.mu.Unlock()

	require.NoError(t, e.SubmitDuel(testMatchID, "alice", true, 25*time.Second))

	view, err := e.View(testMatchID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Spaces[0].Level)
	assert.Equal(t, startingCash-120, view.Players[0].Cash, "defender takes the tie")
}

func TestDuelTimeoutDefaultsToDefender(t *testing.T) {
	e := newTestEngine(t, Options{DuelTimeLimit: 30 * time.Millisecond}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	require.Eventually(t, func() bool {
		return phase(t, e) == rules.PhaseWaitingForRoll
	}, time.Second, 5*time.Millisecond, "deadline should force-resolve the duel")

	view, err := e.View(testMatchID)
	require.NoError(t, err)
	require.Nil(t, view.ActiveDuel)
	rent := 60
	assert.Equal(t, startingCash-2*rent, view.Players[0].Cash, "defender win by timeout still doubles the rent")
	assert.Equal(t, "bob", currentPlayer(t, e))
}

func TestSubmissionByNonParticipant(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e, Seat{PlayerID: "carol", DisplayName: "Carol"})
	startDuelOnFortran(t, e)

	err := e.SubmitDuel(testMatchID, "carol", true, time.Second)
	assert.ErrorIs(t, err, rules.ErrNotInDuel)
	assert.Equal(t, rules.PhaseDuelActive, phase(t, e))
}

func TestSubmitWithoutActiveDuel(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)

	err := e.SubmitDuel(testMatchID, "alice", true, time.Second)
	assert.Error(t, err)
}

func TestSecondDuelRejectedWhileActive(t *testing.T) {
	e := newTestEngine(t, Options{}, [2]int{1, 2})
	startMatch(t, e)
	startDuelOnFortran(t, e)

	_, err := e.StartDuel(testMatchID, "alice")
	assert.Error(t, err)
}
