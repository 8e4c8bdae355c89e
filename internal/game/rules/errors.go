package rules

import "errors"

// Typed errors returned by engine and arbitrator operations. Every
// operation validates against these before mutating anything, so a
// rejected intent leaves the match untouched.
var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrAlreadyRolled     = errors.New("already rolled this turn")
	ErrWrongState        = errors.New("operation not valid in current phase")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyOwned      = errors.New("space already owned")
	ErrNotPurchasable    = errors.New("space cannot be owned")
	ErrNotOwner          = errors.New("player does not own this space")
	ErrMaxUpgrade        = errors.New("space is at maximum upgrade level")
	ErrGroupIncomplete   = errors.New("player does not own the full group")
	ErrUnevenBuilding    = errors.New("group must be upgraded evenly")
	ErrNoActiveDuel      = errors.New("no active duel")
	ErrDuelInProgress    = errors.New("a duel is already in progress")
	ErrNotInDuel         = errors.New("player is not part of the active duel")
	ErrNotAuthorized     = errors.New("code judge did not authorize this action")
	ErrMatchNotFound     = errors.New("match not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrMatchFinished     = errors.New("match is finished")
	ErrMatchNotActive    = errors.New("match is not active")
)
