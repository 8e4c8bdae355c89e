package rules

import "testing"

func TestTurnManagerInitialState(t *testing.T) {
	tm := NewTurnManager([]string{"alice", "bob", "carol"})

	if tm.CurrentPlayer() != "alice" {
		t.Fatalf("expected alice to start, got %s", tm.CurrentPlayer())
	}
	if tm.TurnNumber() != 1 {
		t.Fatalf("expected turn 1, got %d", tm.TurnNumber())
	}
	if tm.Phase() != PhaseWaitingForRoll {
		t.Fatalf("expected WAITING_FOR_ROLL, got %s", tm.Phase())
	}
}

func TestTurnManagerAdvanceRotatesSeating(t *testing.T) {
	tm := NewTurnManager([]string{"alice", "bob", "carol"})

	next := tm.Advance(nil)
	if next != "bob" {
		t.Fatalf("expected bob after alice, got %s", next)
	}
	if tm.TurnNumber() != 2 {
		t.Fatalf("expected turn 2, got %d", tm.TurnNumber())
	}

	tm.Advance(nil)
	next = tm.Advance(nil)
	if next != "alice" {
		t.Fatalf("expected seating to wrap to alice, got %s", next)
	}
	if tm.TurnNumber() != 4 {
		t.Fatalf("turn number must increase on every advance, got %d", tm.TurnNumber())
	}
}

func TestTurnManagerAdvanceSkipsIneligibleSeats(t *testing.T) {
	tm := NewTurnManager([]string{"alice", "bob", "carol"})
	bankrupt := map[string]bool{"bob": true}

	next := tm.Advance(func(id string) bool { return !bankrupt[id] })
	if next != "carol" {
		t.Fatalf("expected bankrupt bob to be skipped, got %s", next)
	}
}

func TestTurnManagerAdvanceResetsPhase(t *testing.T) {
	tm := NewTurnManager([]string{"alice", "bob"})
	tm.SetPhase(PhaseAwaitingUpgradeDecision)

	tm.Advance(nil)
	if tm.Phase() != PhaseWaitingForRoll {
		t.Fatalf("expected phase reset to WAITING_FOR_ROLL, got %s", tm.Phase())
	}
}

func TestTurnManagerFinishedIsTerminal(t *testing.T) {
	tm := NewTurnManager([]string{"alice", "bob"})
	tm.SetPhase(PhaseFinished)

	before := tm.TurnNumber()
	next := tm.Advance(nil)
	if next != "alice" || tm.TurnNumber() != before {
		t.Fatalf("finished match must not advance: player=%s turn=%d", next, tm.TurnNumber())
	}
}

func TestTurnManagerRestore(t *testing.T) {
	tm := NewTurnManager([]string{"alice", "bob", "carol"})

	if err := tm.Restore("carol", 17, PhaseAwaitingBuyDecision); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if tm.CurrentPlayer() != "carol" || tm.TurnNumber() != 17 || tm.Phase() != PhaseAwaitingBuyDecision {
		t.Fatalf("restore mismatch: %s turn=%d phase=%s", tm.CurrentPlayer(), tm.TurnNumber(), tm.Phase())
	}

	if err := tm.Restore("mallory", 1, PhaseWaitingForRoll); err == nil {
		t.Fatal("expected restore to fail for unknown player")
	}
}
