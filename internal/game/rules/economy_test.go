package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeopoly/codeopoly-server-go/internal/board"
)

func streetSpace() board.Space {
	return board.Space{
		ID:          "css-court",
		Position:    11,
		Price:       140,
		BaseRent:    10,
		RentByLevel: []int{50, 150, 450, 625, 750},
		Group:       "frontend",
		UpgradeCost: 100,
	}
}

func TestCalculateRentByLevel(t *testing.T) {
	sp := streetSpace()

	assert.Equal(t, 0, CalculateRent(sp, nil, 1))
	assert.Equal(t, 0, CalculateRent(sp, &SpaceState{SpaceID: sp.ID}, 1))

	state := &SpaceState{SpaceID: sp.ID, OwnerID: "alice"}
	assert.Equal(t, 10, CalculateRent(sp, state, 1), "level 0 falls back to base rent")

	for level, want := range map[int]int{1: 50, 2: 150, 3: 450, 4: 625, 5: 750} {
		state.Level = level
		assert.Equal(t, want, CalculateRent(sp, state, 1), "level %d", level)
	}

	// Levels past the table clamp to the last entry.
	state.Level = 9
	assert.Equal(t, 750, CalculateRent(sp, state, 1))
}

func TestCalculateRentMonotonicInLevel(t *testing.T) {
	sp := streetSpace()
	state := &SpaceState{SpaceID: sp.ID, OwnerID: "alice"}

	prev := 0
	for level := 0; level <= MaxUpgradeLevel; level++ {
		state.Level = level
		rent := CalculateRent(sp, state, 1)
		assert.GreaterOrEqual(t, rent, prev, "level %d", level)
		prev = rent
	}
}

func TestCalculateRentScalesWithGroup(t *testing.T) {
	station := board.Space{
		ID:              "github-station",
		Price:           200,
		BaseRent:        25,
		Group:           "pipeline",
		Special:         board.SpecialRailroad,
		ScalesWithGroup: true,
	}
	state := &SpaceState{SpaceID: station.ID, OwnerID: "alice"}

	assert.Equal(t, 25, CalculateRent(station, state, 1))
	assert.Equal(t, 50, CalculateRent(station, state, 2))
	assert.Equal(t, 100, CalculateRent(station, state, 3))
	assert.Equal(t, 200, CalculateRent(station, state, 4))
}

func groupStates(owner string, levels ...int) map[string]*SpaceState {
	states := map[string]*SpaceState{
		"css-court":    {SpaceID: "css-court", OwnerID: owner, Level: levels[0]},
		"html-heights": {SpaceID: "html-heights", OwnerID: owner, Level: levels[1]},
		"react-road":   {SpaceID: "react-road", OwnerID: owner, Level: levels[2]},
	}
	return states
}

var frontendGroup = []string{"css-court", "html-heights", "react-road"}

func TestCanUpgradeRequiresFullGroup(t *testing.T) {
	sp := streetSpace()
	states := groupStates("alice", 1, 1, 1)
	states["react-road"].OwnerID = "bob"

	err := CanUpgrade("alice", sp, states, frontendGroup)
	assert.ErrorIs(t, err, ErrGroupIncomplete)
}

func TestCanUpgradeEvenBuilding(t *testing.T) {
	sp := streetSpace()

	// All even: upgrade is legal.
	states := groupStates("alice", 1, 1, 1)
	require.NoError(t, CanUpgrade("alice", sp, states, frontendGroup))

	// css-court already one ahead of html-heights: illegal.
	states = groupStates("alice", 2, 1, 2)
	err := CanUpgrade("alice", sp, states, frontendGroup)
	assert.ErrorIs(t, err, ErrUnevenBuilding)

	// The lagging space may still be upgraded.
	lagging := board.Space{ID: "html-heights", Price: 140, BaseRent: 10, RentByLevel: []int{50, 150, 450, 625, 750}, Group: "frontend", UpgradeCost: 100}
	require.NoError(t, CanUpgrade("alice", lagging, states, frontendGroup))
}

func TestCanUpgradeBounds(t *testing.T) {
	sp := streetSpace()

	states := groupStates("alice", MaxUpgradeLevel, MaxUpgradeLevel, MaxUpgradeLevel)
	assert.ErrorIs(t, CanUpgrade("alice", sp, states, frontendGroup), ErrMaxUpgrade)

	states = groupStates("bob", 1, 1, 1)
	assert.ErrorIs(t, CanUpgrade("alice", sp, states, frontendGroup), ErrNotOwner)

	station := board.Space{ID: "github-station", ScalesWithGroup: true}
	stationStates := map[string]*SpaceState{"github-station": {SpaceID: "github-station", OwnerID: "alice"}}
	assert.ErrorIs(t, CanUpgrade("alice", station, stationStates, []string{"github-station"}), ErrMaxUpgrade)
}

func TestNetWorthCountsCashPriceAndUpgrades(t *testing.T) {
	reg := board.NewRegistry()
	states := map[string]*SpaceState{
		"css-court":    {SpaceID: "css-court", OwnerID: "alice", Level: 3},
		"html-heights": {SpaceID: "html-heights", OwnerID: "bob", Level: 1},
	}

	// 500 cash + 140 price + 3*100 upgrades.
	assert.Equal(t, 940, NetWorth(500, reg, states, "alice"))
	// Bob's holdings do not leak into Alice's net worth.
	assert.Equal(t, 140+100+200, NetWorth(200, reg, states, "bob"))
}

func TestTransferBankruptAssetsConservesHoldings(t *testing.T) {
	reg := board.NewRegistry()
	states := map[string]*SpaceState{
		"css-court":    {SpaceID: "css-court", OwnerID: "debtor", Level: 2},
		"html-heights": {SpaceID: "html-heights", OwnerID: "debtor", Level: 2},
		"react-road":   {SpaceID: "react-road", OwnerID: "creditor", Level: 1},
	}

	before := NetWorth(0, reg, states, "debtor") + NetWorth(0, reg, states, "creditor")

	moved := TransferBankruptAssets(states, "debtor", "creditor")
	assert.Equal(t, 2, moved)

	after := NetWorth(0, reg, states, "creditor")
	assert.Equal(t, before, after, "transfer must not create or destroy property value")
	assert.Equal(t, 0, NetWorth(0, reg, states, "debtor"))

	// Idempotent: the debtor has nothing left to move.
	assert.Equal(t, 0, TransferBankruptAssets(states, "debtor", "creditor"))
}

func TestTransferBankruptAssetsToBankClearsLevels(t *testing.T) {
	states := map[string]*SpaceState{
		"css-court": {SpaceID: "css-court", OwnerID: "debtor", Level: 4},
	}

	TransferBankruptAssets(states, "debtor", "")
	assert.Equal(t, "", states["css-court"].OwnerID)
	assert.Equal(t, 0, states["css-court"].Level)
}
