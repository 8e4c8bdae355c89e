package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMatch struct {
	players map[string]PlayerInfo
	current string
	phase   Phase
	active  bool
}

func (f *fakeMatch) FindPlayer(id string) (PlayerInfo, bool) {
	p, ok := f.players[id]
	return p, ok
}

func (f *fakeMatch) CurrentPlayer() string { return f.current }
func (f *fakeMatch) Phase() Phase          { return f.phase }
func (f *fakeMatch) Active() bool          { return f.active }

func activeMatch() *fakeMatch {
	return &fakeMatch{
		players: map[string]PlayerInfo{
			"alice": {PlayerID: "alice"},
			"bob":   {PlayerID: "bob"},
			"carol": {PlayerID: "carol", Bankrupt: true},
		},
		current: "alice",
		phase:   PhaseWaitingForRoll,
		active:  true,
	}
}

func TestCheckTurnActionHappyPath(t *testing.T) {
	lc := NewLegalityChecker(activeMatch())
	assert.NoError(t, lc.CheckTurnAction("alice", PhaseWaitingForRoll))
}

func TestCheckTurnActionRejections(t *testing.T) {
	m := activeMatch()
	lc := NewLegalityChecker(m)

	assert.ErrorIs(t, lc.CheckTurnAction("bob", PhaseWaitingForRoll), ErrNotYourTurn)
	assert.ErrorIs(t, lc.CheckTurnAction("mallory", PhaseWaitingForRoll), ErrPlayerNotFound)
	assert.ErrorIs(t, lc.CheckTurnAction("carol", PhaseWaitingForRoll), ErrWrongState)

	m.phase = PhaseAwaitingBuyDecision
	assert.ErrorIs(t, lc.CheckTurnAction("alice", PhaseWaitingForRoll), ErrAlreadyRolled)
	assert.ErrorIs(t, lc.CheckTurnAction("alice", PhaseAwaitingRentOrDuelDecision), ErrWrongState)

	m.active = false
	assert.ErrorIs(t, lc.CheckTurnAction("alice", PhaseAwaitingBuyDecision), ErrMatchNotActive)
}

func TestCheckParticipantIgnoresTurnOrder(t *testing.T) {
	m := activeMatch()
	m.phase = PhaseDuelActive
	lc := NewLegalityChecker(m)

	// Bob is not the current player but may act in a duel.
	assert.NoError(t, lc.CheckParticipant("bob", PhaseDuelActive))
	assert.ErrorIs(t, lc.CheckParticipant("carol", PhaseDuelActive), ErrWrongState)
	assert.ErrorIs(t, lc.CheckParticipant("mallory", PhaseDuelActive), ErrPlayerNotFound)
}
