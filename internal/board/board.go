package board

import "fmt"

// BoardSize is the number of spaces on the cyclic board.
const BoardSize = 40

// SpecialType tags the non-economic behavior of a space.
type SpecialType int

const (
	SpecialNone SpecialType = iota
	SpecialGo
	SpecialJail
	SpecialFreeParking
	SpecialGoToJail
	SpecialChance
	SpecialCommunityChest
	SpecialTax
	SpecialRailroad
	SpecialUtility
)

var specialNames = map[SpecialType]string{
	SpecialNone:           "NONE",
	SpecialGo:             "GO",
	SpecialJail:           "JAIL",
	SpecialFreeParking:    "FREE_PARKING",
	SpecialGoToJail:       "GO_TO_JAIL",
	SpecialChance:         "CHANCE",
	SpecialCommunityChest: "COMMUNITY_CHEST",
	SpecialTax:            "TAX",
	SpecialRailroad:       "RAILROAD",
	SpecialUtility:        "UTILITY",
}

func (s SpecialType) String() string {
	if name, ok := specialNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SPECIAL_%d", int(s))
}

// Space is the immutable static definition of one board position.
// Owned-state (owner, upgrade level) lives in the per-match state,
// never here.
type Space struct {
	ID          string
	Name        string
	Position    int
	Price       int
	BaseRent    int
	RentByLevel []int // indexed by upgrade level 1..MaxUpgradeLevel
	Group       string
	UpgradeCost int
	TaxAmount   int
	Special     SpecialType
	// ScalesWithGroup marks spaces whose rent multiplies with the
	// number of group members held (railroads, utilities) instead of
	// following the per-level table.
	ScalesWithGroup bool
}

// Purchasable reports whether the space can be owned by a player.
func (s Space) Purchasable() bool {
	switch s.Special {
	case SpecialNone, SpecialRailroad, SpecialUtility:
		return s.Price > 0
	default:
		return false
	}
}

// Registry is the static position -> space lookup shared read-only by
// every match.
type Registry struct {
	spaces  []Space
	byID    map[string]Space
	byGroup map[string][]string
}

// NewRegistry builds the default board registry.
func NewRegistry() *Registry {
	return newRegistry(defaultSpaces())
}

func newRegistry(spaces []Space) *Registry {
	r := &Registry{
		spaces:  spaces,
		byID:    make(map[string]Space, len(spaces)),
		byGroup: make(map[string][]string),
	}
	for _, sp := range spaces {
		r.byID[sp.ID] = sp
		if sp.Group != "" {
			r.byGroup[sp.Group] = append(r.byGroup[sp.Group], sp.ID)
		}
	}
	return r
}

// SpaceAt returns the space at the given board position.
func (r *Registry) SpaceAt(position int) (Space, bool) {
	if position < 0 || position >= len(r.spaces) {
		return Space{}, false
	}
	return r.spaces[position], true
}

// SpaceByID returns the space with the given id.
func (r *Registry) SpaceByID(id string) (Space, bool) {
	sp, ok := r.byID[id]
	return sp, ok
}

// GroupMembers returns the ids of every space in a group.
func (r *Registry) GroupMembers(group string) []string {
	members := r.byGroup[group]
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// Spaces returns every space in board order.
func (r *Registry) Spaces() []Space {
	out := make([]Space, len(r.spaces))
	copy(out, r.spaces)
	return out
}

// JailPosition is where send-to-jail effects place a player.
func (r *Registry) JailPosition() int {
	for _, sp := range r.spaces {
		if sp.Special == SpecialJail {
			return sp.Position
		}
	}
	return 10
}
