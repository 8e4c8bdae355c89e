package rules

import (
	"github.com/codeopoly/codeopoly-server-go/internal/board"
)

// MaxUpgradeLevel is the highest upgrade a space can carry.
const MaxUpgradeLevel = 5

// GoSalary is paid whenever a traversal crosses GO.
const GoSalary = 200

// JailFine is charged when a player buys their way out of jail.
const JailFine = 50

// SpaceState is the mutable per-match ownership record for one space.
// The static definition stays in the board registry; only this part
// changes during a match.
type SpaceState struct {
	SpaceID string
	OwnerID string
	Level   int
}

// Owned reports whether the space has an owner.
func (s *SpaceState) Owned() bool {
	return s.OwnerID != ""
}

// CalculateRent computes rent for landing on an owned space.
//
// Spaces that scale with group size (stations, utilities) double their
// base rent per additional group member held by the same owner. All
// other spaces use the per-level rent table, clamped to its length,
// with the base rent covering the unowned-upgrade case.
func CalculateRent(sp board.Space, state *SpaceState, groupHeld int) int {
	if state == nil || !state.Owned() {
		return 0
	}

	if sp.ScalesWithGroup {
		rent := sp.BaseRent
		for i := 1; i < groupHeld; i++ {
			rent *= 2
		}
		return rent
	}

	if state.Level <= 0 || len(sp.RentByLevel) == 0 {
		return sp.BaseRent
	}
	idx := state.Level - 1
	if idx >= len(sp.RentByLevel) {
		idx = len(sp.RentByLevel) - 1
	}
	return sp.RentByLevel[idx]
}

// CanUpgrade validates an upgrade of sp by playerID against the whole
// group. The player must own every space in the group, the space must
// be below the maximum level, and no space may be raised above the
// group's minimum level (even building). Returns nil when the upgrade
// is legal.
func CanUpgrade(playerID string, sp board.Space, states map[string]*SpaceState, groupMembers []string) error {
	state, ok := states[sp.ID]
	if !ok || state.OwnerID != playerID {
		return ErrNotOwner
	}
	if sp.ScalesWithGroup || len(sp.RentByLevel) == 0 {
		return ErrMaxUpgrade
	}
	if state.Level >= MaxUpgradeLevel {
		return ErrMaxUpgrade
	}

	minLevel := state.Level
	for _, id := range groupMembers {
		member, ok := states[id]
		if !ok || member.OwnerID != playerID {
			return ErrGroupIncomplete
		}
		if member.Level < minLevel {
			minLevel = member.Level
		}
	}
	if state.Level > minLevel {
		return ErrUnevenBuilding
	}
	return nil
}

// NetWorth computes cash plus the market and upgrade value of every
// owned space. Used for the duration-ceiling win condition.
func NetWorth(cash int, reg *board.Registry, states map[string]*SpaceState, ownerID string) int {
	worth := cash
	for id, state := range states {
		if state.OwnerID != ownerID {
			continue
		}
		sp, ok := reg.SpaceByID(id)
		if !ok {
			continue
		}
		worth += sp.Price + state.Level*sp.UpgradeCost
	}
	return worth
}

// TransferBankruptAssets moves every space owned by debtorID to
// creditorID. A creditor of "" means the bank: ownership clears and
// upgrade levels reset. Running it again for an already-stripped
// debtor is a no-op.
func TransferBankruptAssets(states map[string]*SpaceState, debtorID, creditorID string) int {
	transferred := 0
	for _, state := range states {
		if state.OwnerID != debtorID {
			continue
		}
		transferred++
		if creditorID == "" {
			state.OwnerID = ""
			state.Level = 0
		} else {
			state.OwnerID = creditorID
		}
	}
	return transferred
}
