// Package game implements the authoritative match engine: a per-match
// state machine that serializes concurrent player intents into one
// consistent turn order, enforces the property economy and arbitrates
// code duels.
package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codeopoly/codeopoly-server-go/internal/board"
	"github.com/codeopoly/codeopoly-server-go/internal/deck"
	"github.com/codeopoly/codeopoly-server-go/internal/game/rules"
	"github.com/codeopoly/codeopoly-server-go/internal/judge"
)

// DiceRoller produces one two-die roll. Injected so tests can script
// exact sequences.
type DiceRoller interface {
	Roll() (int, int)
}

// randRoller draws uniform 1-6 values from the owning match's rng.
type randRoller struct {
	rng *rand.Rand
}

func (r randRoller) Roll() (int, int) {
	return r.rng.Intn(6) + 1, r.rng.Intn(6) + 1
}

// Options tune per-match limits. Zero values fall back to defaults.
type Options struct {
	DuelTimeLimit      time.Duration
	MatchDurationLimit time.Duration
	DecisionTimeout    time.Duration
	Seed               int64
	Roller             DiceRoller
}

const (
	defaultDuelTimeLimit      = 5 * time.Minute
	defaultMatchDurationLimit = 45 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.DuelTimeLimit <= 0 {
		o.DuelTimeLimit = defaultDuelTimeLimit
	}
	if o.MatchDurationLimit <= 0 {
		o.MatchDurationLimit = defaultMatchDurationLimit
	}
	return o
}

// Engine owns every match in the process. Matches are independent:
// each is guarded by its own mutex and may be mutated in parallel with
// the others. The engine-level lock only guards the match map.
type Engine struct {
	logger   *zap.Logger
	registry *board.Registry
	opts     Options

	mu      sync.RWMutex
	matches map[string]*matchState
}

// NewEngine creates an engine over the given board registry.
func NewEngine(registry *board.Registry, opts Options, logger *zap.Logger) *Engine {
	return &Engine{
		logger:   logger,
		registry: registry,
		opts:     opts.withDefaults(),
		matches:  make(map[string]*matchState),
	}
}

// RollResult reports the outcome of a dice roll.
type RollResult struct {
	Dice        [2]int `json:"dice"`
	Total       int    `json:"total"`
	Doubles     bool   `json:"doubles"`
	NewPosition int    `json:"newPosition"`
	PassedGo    bool   `json:"passedGo"`
	SentToJail  bool   `json:"sentToJail"`
}

// CreateMatch registers a new match in waiting state.
func (e *Engine) CreateMatch(matchID, roomCode string, seats []Seat, startingCash int) error {
	if matchID == "" {
		return fmt.Errorf("matchID is required")
	}
	if len(seats) < 2 {
		return fmt.Errorf("at least 2 players required")
	}

	seed := e.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	chance, err := deck.New(deck.KindChance, rng)
	if err != nil {
		return err
	}
	chest, err := deck.New(deck.KindCommunityChest, rng)
	if err != nil {
		return err
	}

	m := &matchState{
		id:          matchID,
		roomCode:    roomCode,
		status:      MatchStatusWaiting,
		playerIndex: make(map[string]*Player, len(seats)),
		spaces:      make(map[string]*rules.SpaceState),
		chance:      chance,
		chest:       chest,
		rng:         rng,
		bus:         rules.NewEventBus(),
	}

	seating := make([]string, 0, len(seats))
	for _, seat := range seats {
		if _, dup := m.playerIndex[seat.PlayerID]; dup {
			return fmt.Errorf("duplicate player id %s", seat.PlayerID)
		}
		p := &Player{
			ID:          seat.PlayerID,
			DisplayName: seat.DisplayName,
			Avatar:      seat.Avatar,
			Cash:        startingCash,
		}
		m.players = append(m.players, p)
		m.playerIndex[p.ID] = p
		seating = append(seating, p.ID)
	}

	for _, sp := range e.registry.Spaces() {
		if sp.Purchasable() {
			m.spaces[sp.ID] = &rules.SpaceState{SpaceID: sp.ID}
		}
	}

	m.turns = rules.NewTurnManager(seating)
	m.legality = rules.NewLegalityChecker(m)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.matches[matchID]; exists {
		return fmt.Errorf("match %s already exists", matchID)
	}
	e.matches[matchID] = m

	e.logger.Info("match created",
		zap.String("match_id", matchID),
		zap.String("room_code", roomCode),
		zap.Int("players", len(seats)),
	)
	return nil
}

// StartMatch moves a waiting match to active and starts the clock.
func (e *Engine) StartMatch(matchID string) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if m.status != MatchStatusWaiting {
			return nil, fmt.Errorf("%w: match is %s", rules.ErrWrongState, m.status)
		}
		m.status = MatchStatusActive
		m.startedAt = time.Now()

		ev := rules.NewEvent(rules.EventMatchStarted, m.id, m.turns.CurrentPlayer())
		ev.Metadata["room_code"] = m.roomCode
		return []rules.Event{ev}, nil
	})
}

// RemoveMatch drops a finished match from the engine.
func (e *Engine) RemoveMatch(matchID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.matches[matchID]; ok {
		m.mu.Lock()
		if m.duelTimer != nil {
			m.duelTimer.Stop()
		}
		if m.decideTimer != nil {
			m.decideTimer.Stop()
		}
		m.mu.Unlock()
		delete(e.matches, matchID)
	}
}

// EventBus returns the match's event bus for observers to subscribe.
func (e *Engine) EventBus(matchID string) (*rules.EventBus, error) {
	m, err := e.match(matchID)
	if err != nil {
		return nil, err
	}
	return m.bus, nil
}

func (e *Engine) match(matchID string) (*matchState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	m, ok := e.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", rules.ErrMatchNotFound, matchID)
	}
	return m, nil
}

// withMatch runs fn under the match lock and publishes the produced
// events after the lock is released, so no listener ever observes a
// half-applied mutation and listeners may freely call back into the
// engine.
func (e *Engine) withMatch(matchID string, fn func(*matchState) ([]rules.Event, error)) error {
	m, err := e.match(matchID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	events, err := fn(m)
	m.mu.Unlock()

	for _, ev := range events {
		m.bus.Publish(ev)
	}
	return err
}

// roller returns the dice source for a match.
func (e *Engine) roller(m *matchState) DiceRoller {
	if e.opts.Roller != nil {
		return e.opts.Roller
	}
	return randRoller{rng: m.rng}
}

// RollDice rolls for the current player, moves the token, pays the GO
// salary on traversal and resolves the landing.
func (e *Engine) RollDice(matchID, playerID string) (RollResult, error) {
	var result RollResult
	err := e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID, rules.PhaseWaitingForRoll); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}

		d1, d2 := e.roller(m).Roll()
		result = RollResult{Dice: [2]int{d1, d2}, Total: d1 + d2, Doubles: d1 == d2}

		var events []rules.Event
		if p.InJail {
			e.rollInJail(m, p, &result, &events)
			return events, nil
		}

		if result.Doubles {
			p.DoublesCount++
			if p.DoublesCount >= rules.MaxConsecutiveDoubles {
				// The token never moves on the third double, so the
				// dice event carries the pre-roll position.
				result.NewPosition = p.Position
				events = append(events, diceEvent(m, p, result))
				e.sendToJail(m, p, &events)
				result.SentToJail = true
				e.advanceTurn(m, &events)
				return events, nil
			}
			m.pendingExtraTurn = true
		}

		e.moveBy(m, p, result.Total, &result, &events)
		e.resolveLanding(m, p, &events, 0)
		e.concludeIfSettled(m, p, &events)
		return events, nil
	})
	return result, err
}

// rollInJail handles a roll by a jailed player: a jail credit or
// doubles gets them out and moving; otherwise the third failed attempt
// pays the fine and moves, earlier attempts just burn the turn.
func (e *Engine) rollInJail(m *matchState, p *Player, result *RollResult, events *[]rules.Event) {
	release := ""
	switch {
	case p.JailCredits > 0:
		p.JailCredits--
		release = "credit"
	case result.Doubles:
		release = "doubles"
	default:
		p.JailTurns++
		if p.JailTurns >= 3 {
			if !e.charge(m, p, rules.JailFine, "", events) {
				e.advanceTurn(m, events)
				return
			}
			release = "fine"
		}
	}

	*events = append(*events, diceEvent(m, p, *result))
	if release == "" {
		e.advanceTurn(m, events)
		return
	}

	p.InJail = false
	p.JailTurns = 0
	ev := rules.NewEvent(rules.EventLeftJail, m.id, p.ID)
	ev.Metadata["reason"] = release
	*events = append(*events, ev)

	// Jail-exit rolls never grant an extra turn, even on doubles.
	m.pendingExtraTurn = false
	e.moveBy(m, p, result.Total, result, events)
	e.resolveLanding(m, p, events, 0)
	e.concludeIfSettled(m, p, events)
}

func diceEvent(m *matchState, p *Player, result RollResult) rules.Event {
	ev := rules.NewEvent(rules.EventDiceRolled, m.id, p.ID)
	ev.Dice = []int{result.Dice[0], result.Dice[1]}
	ev.Amount = result.Total
	ev.Flag = result.PassedGo
	ev.Metadata["new_position"] = fmt.Sprintf("%d", result.NewPosition)
	return ev
}

// moveBy advances the token steps spaces forward, paying the GO salary
// when the traversal crosses position zero, and emits the dice event.
func (e *Engine) moveBy(m *matchState, p *Player, steps int, result *RollResult, events *[]rules.Event) {
	passedGo := p.Position+steps >= board.BoardSize
	p.Position = (p.Position + steps) % board.BoardSize
	if passedGo {
		p.Cash += rules.GoSalary
		ev := rules.NewEvent(rules.EventPassedGo, m.id, p.ID)
		ev.Amount = rules.GoSalary
		*events = append(*events, ev)
	}
	result.NewPosition = p.Position
	result.PassedGo = passedGo
	*events = append(*events, diceEvent(m, p, *result))
}

// moveTo places the token on an absolute position (card effects),
// paying the GO salary when the move wraps past zero.
func (e *Engine) moveTo(m *matchState, p *Player, target int, collectGo bool, events *[]rules.Event) {
	if collectGo && target <= p.Position {
		p.Cash += rules.GoSalary
		ev := rules.NewEvent(rules.EventPassedGo, m.id, p.ID)
		ev.Amount = rules.GoSalary
		*events = append(*events, ev)
	}
	p.Position = ((target % board.BoardSize) + board.BoardSize) % board.BoardSize
}

// resolveLanding evaluates the space under the player and either
// applies its effect immediately or parks the match in a decision
// phase. depth caps card chains that keep moving the token.
func (e *Engine) resolveLanding(m *matchState, p *Player, events *[]rules.Event, depth int) {
	if m.status != MatchStatusActive || p.Bankrupt || depth > 4 {
		return
	}
	sp, ok := e.registry.SpaceAt(p.Position)
	if !ok {
		return
	}

	switch {
	case sp.Special == board.SpecialGoToJail:
		e.sendToJail(m, p, events)

	case sp.Special == board.SpecialTax:
		if e.charge(m, p, sp.TaxAmount, "", events) {
			ev := rules.NewEvent(rules.EventTaxPaid, m.id, p.ID)
			ev.SpaceID = sp.ID
			ev.Amount = sp.TaxAmount
			*events = append(*events, ev)
		}

	case sp.Special == board.SpecialChance:
		e.drawAndApply(m, p, deck.KindChance, events, depth)

	case sp.Special == board.SpecialCommunityChest:
		e.drawAndApply(m, p, deck.KindCommunityChest, events, depth)

	case sp.Purchasable():
		state := m.spaces[sp.ID]
		switch {
		case !state.Owned():
			m.setPhase(rules.PhaseAwaitingBuyDecision)
			e.scheduleDecisionTimeout(m)
			*events = append(*events, landedEvent(m, p, sp, true, false))
		case state.OwnerID != p.ID:
			m.setPhase(rules.PhaseAwaitingRentOrDuelDecision)
			e.scheduleDecisionTimeout(m)
			*events = append(*events, landedEvent(m, p, sp, false, true))
		default:
			m.setPhase(rules.PhaseAwaitingUpgradeDecision)
			e.scheduleDecisionTimeout(m)
			*events = append(*events, landedEvent(m, p, sp, false, false))
		}

	default:
		// GO, jail (visiting), free parking: nothing to resolve.
		*events = append(*events, landedEvent(m, p, sp, false, false))
	}
}

func landedEvent(m *matchState, p *Player, sp board.Space, canBuy, mustPayRent bool) rules.Event {
	ev := rules.NewEvent(rules.EventLandedOnSpace, m.id, p.ID)
	ev.SpaceID = sp.ID
	ev.Flag = canBuy
	ev.Metadata["must_pay_rent"] = fmt.Sprintf("%t", mustPayRent)
	ev.Metadata["space_name"] = sp.Name
	return ev
}

// drawAndApply draws the next card and applies its effect. Moves
// triggered by cards re-enter landing evaluation.
func (e *Engine) drawAndApply(m *matchState, p *Player, kind deck.Kind, events *[]rules.Event, depth int) {
	var card deck.Card
	if kind == deck.KindChance {
		card = m.chance.Draw()
	} else {
		card = m.chest.Draw()
	}

	ev := rules.NewEvent(rules.EventCardDrawn, m.id, p.ID)
	ev.Metadata["card_id"] = card.ID
	ev.Metadata["card_text"] = card.Text
	ev.Metadata["deck"] = string(kind)
	*events = append(*events, ev)

	switch card.Action {
	case deck.ActionAddMoney:
		p.Cash += card.Amount

	case deck.ActionSubtractMoney:
		e.charge(m, p, card.Amount, "", events)

	case deck.ActionGrantJailCredit:
		p.JailCredits++

	case deck.ActionSendToJail:
		e.sendToJail(m, p, events)

	case deck.ActionAdvanceToGo:
		e.moveTo(m, p, 0, true, events)
		e.resolveLanding(m, p, events, depth+1)

	case deck.ActionMoveAbsolute:
		e.moveTo(m, p, card.TargetPosition, true, events)
		e.resolveLanding(m, p, events, depth+1)

	case deck.ActionMoveRelative:
		target := ((p.Position+card.Amount)%board.BoardSize + board.BoardSize) % board.BoardSize
		e.moveTo(m, p, target, false, events)
		e.resolveLanding(m, p, events, depth+1)

	case deck.ActionAssessRepairs:
		levels := 0
		for _, id := range m.ownedSpaceIDs(p.ID) {
			levels += m.spaces[id].Level
		}
		if levels > 0 {
			e.charge(m, p, levels*card.Amount, "", events)
		}
	}
}

// sendToJail places the player in jail and ends their run of doubles.
func (e *Engine) sendToJail(m *matchState, p *Player, events *[]rules.Event) {
	p.Position = e.registry.JailPosition()
	p.InJail = true
	p.JailTurns = 0
	p.DoublesCount = 0
	m.pendingExtraTurn = false
	*events = append(*events, rules.NewEvent(rules.EventSentToJail, m.id, p.ID))
}

// charge takes amount from debtor, crediting creditorID ("" = bank).
// Returns false when the debtor could not pay and went bankrupt.
func (e *Engine) charge(m *matchState, debtor *Player, amount int, creditorID string, events *[]rules.Event) bool {
	if amount <= 0 {
		return true
	}
	if debtor.Cash >= amount {
		debtor.Cash -= amount
		if creditorID != "" {
			if creditor, ok := m.playerIndex[creditorID]; ok {
				creditor.Cash += amount
			}
		}
		return true
	}
	e.bankrupt(m, debtor, creditorID, events)
	return false
}

// bankrupt transfers everything the debtor holds to the creditor (or
// the bank) and removes the debtor from turn rotation.
func (e *Engine) bankrupt(m *matchState, debtor *Player, creditorID string, events *[]rules.Event) {
	if debtor.Bankrupt {
		return
	}
	if creditor, ok := m.playerIndex[creditorID]; ok && creditorID != "" {
		creditor.Cash += debtor.Cash
	}
	debtor.Cash = 0
	rules.TransferBankruptAssets(m.spaces, debtor.ID, creditorID)
	debtor.Bankrupt = true

	ev := rules.NewEvent(rules.EventPlayerBankrupt, m.id, debtor.ID)
	ev.TargetID = creditorID
	*events = append(*events, ev)

	e.logger.Info("player bankrupt",
		zap.String("match_id", m.id),
		zap.String("player_id", debtor.ID),
		zap.String("creditor_id", creditorID),
	)
	e.checkWinCondition(m, events)
}

// checkWinCondition finishes the match when one solvent player
// remains. Returns true when the match ended.
func (e *Engine) checkWinCondition(m *matchState, events *[]rules.Event) bool {
	if m.status != MatchStatusActive {
		return true
	}
	var last *Player
	alive := 0
	for _, p := range m.players {
		if !p.Bankrupt {
			alive++
			last = p
		}
	}
	if alive == 1 {
		e.finishMatch(m, last.ID, "last_player_standing", events)
		return true
	}
	return false
}

// finishByNetWorth ends the match at the duration ceiling: highest net
// worth wins, ties broken by seating order.
func (e *Engine) finishByNetWorth(m *matchState, events *[]rules.Event) {
	best := -1
	winnerID := ""
	for _, p := range m.players {
		if p.Bankrupt {
			continue
		}
		worth := rules.NetWorth(p.Cash, e.registry, m.spaces, p.ID)
		if worth > best {
			best = worth
			winnerID = p.ID
		}
	}
	e.finishMatch(m, winnerID, "duration_ceiling", events)
}

func (e *Engine) finishMatch(m *matchState, winnerID, reason string, events *[]rules.Event) {
	m.status = MatchStatusFinished
	m.winnerID = winnerID
	m.setPhase(rules.PhaseFinished)
	if m.duelTimer != nil {
		m.duelTimer.Stop()
		m.duelTimer = nil
	}

	ev := rules.NewEvent(rules.EventGameOver, m.id, winnerID)
	ev.Metadata["reason"] = reason
	*events = append(*events, ev)

	e.logger.Info("match finished",
		zap.String("match_id", m.id),
		zap.String("winner_id", winnerID),
		zap.String("reason", reason),
	)
}

// advanceTurn rotates to the next solvent player. The duration ceiling
// is checked here so an expired match ends at the next turn boundary.
func (e *Engine) advanceTurn(m *matchState, events *[]rules.Event) {
	if m.status != MatchStatusActive {
		return
	}
	if !m.startedAt.IsZero() && time.Since(m.startedAt) >= e.opts.MatchDurationLimit {
		e.finishByNetWorth(m, events)
		return
	}

	if prev, ok := m.playerIndex[m.turns.CurrentPlayer()]; ok {
		prev.DoublesCount = 0
	}
	m.pendingExtraTurn = false

	next := m.turns.Advance(func(id string) bool {
		p, ok := m.playerIndex[id]
		return ok && !p.Bankrupt
	})
	m.decisionSeq++
	if m.decideTimer != nil {
		m.decideTimer.Stop()
		m.decideTimer = nil
	}

	ev := rules.NewEvent(rules.EventTurnEnded, m.id, next)
	ev.Amount = m.turns.TurnNumber()
	*events = append(*events, ev)
}

// concludeIfSettled ends the action once no decision is pending: the
// roller keeps the turn after doubles, otherwise the turn advances.
func (e *Engine) concludeIfSettled(m *matchState, p *Player, events *[]rules.Event) {
	if m.status != MatchStatusActive || m.turns.Phase() != rules.PhaseWaitingForRoll {
		return
	}
	if p.Bankrupt || p.InJail {
		e.advanceTurn(m, events)
		return
	}
	if m.pendingExtraTurn {
		m.pendingExtraTurn = false
		return
	}
	e.advanceTurn(m, events)
}

// BuyProperty purchases the space the player stands on. The judge
// verdict is the sole authorization signal: without an all-passed
// verdict the purchase is rejected before any funds move.
func (e *Engine) BuyProperty(matchID, playerID, spaceID string, verdict judge.Verdict) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID, rules.PhaseAwaitingBuyDecision); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}
		sp, ok := e.registry.SpaceAt(p.Position)
		if !ok || sp.ID != spaceID {
			return nil, fmt.Errorf("%w: not standing on %s", rules.ErrWrongState, spaceID)
		}
		state := m.spaces[sp.ID]
		if state.Owned() {
			return nil, rules.ErrAlreadyOwned
		}
		if !verdict.AllPassed() {
			return nil, rules.ErrNotAuthorized
		}
		if p.Cash < sp.Price {
			return nil, rules.ErrInsufficientFunds
		}

		p.Cash -= sp.Price
		state.OwnerID = p.ID
		state.Level = 1

		ev := rules.NewEvent(rules.EventPropertyBought, m.id, p.ID)
		ev.SpaceID = sp.ID
		ev.Amount = sp.Price
		events := []rules.Event{ev}

		m.setPhase(rules.PhaseWaitingForRoll)
		e.concludeIfSettled(m, p, &events)
		return events, nil
	})
}

// DeclineBuy passes on an unowned space and ends the action.
func (e *Engine) DeclineBuy(matchID, playerID string) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID, rules.PhaseAwaitingBuyDecision); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}
		return e.declineBuyLocked(m, p), nil
	})
}

func (e *Engine) declineBuyLocked(m *matchState, p *Player) []rules.Event {
	sp, _ := e.registry.SpaceAt(p.Position)
	ev := rules.NewEvent(rules.EventBuyDeclined, m.id, p.ID)
	ev.SpaceID = sp.ID
	events := []rules.Event{ev}

	m.setPhase(rules.PhaseWaitingForRoll)
	e.concludeIfSettled(m, p, &events)
	return events
}

// PayRent settles the rent obligation for the space the player stands
// on, bankrupting the payer when funds run out.
func (e *Engine) PayRent(matchID, playerID string) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID, rules.PhaseAwaitingRentOrDuelDecision); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}
		return e.payRentLocked(m, p, 1)
	})
}

// payRentLocked charges multiplier x current rent. Callers hold the
// match lock and have validated the phase.
func (e *Engine) payRentLocked(m *matchState, p *Player, multiplier int) ([]rules.Event, error) {
	sp, ok := e.registry.SpaceAt(p.Position)
	if !ok {
		return nil, fmt.Errorf("%w: no space at position %d", rules.ErrWrongState, p.Position)
	}
	state := m.spaces[sp.ID]
	if state == nil || !state.Owned() || state.OwnerID == p.ID {
		return nil, fmt.Errorf("%w: no rent due on %s", rules.ErrWrongState, sp.ID)
	}

	held := m.groupHeldBy(state.OwnerID, e.registry.GroupMembers(sp.Group))
	rent := rules.CalculateRent(sp, state, held) * multiplier

	var events []rules.Event
	if e.charge(m, p, rent, state.OwnerID, &events) {
		ev := rules.NewEvent(rules.EventRentPaid, m.id, p.ID)
		ev.TargetID = state.OwnerID
		ev.SpaceID = sp.ID
		ev.Amount = rent
		events = append(events, ev)
	}

	m.setPhase(rules.PhaseWaitingForRoll)
	e.concludeIfSettled(m, p, &events)
	return events, nil
}

// UpgradeProperty raises the upgrade level of the space the player
// stands on, subject to group ownership, even building and the judge's
// authorization.
func (e *Engine) UpgradeProperty(matchID, playerID, spaceID string, verdict judge.Verdict) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID, rules.PhaseAwaitingUpgradeDecision); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}
		sp, ok := e.registry.SpaceAt(p.Position)
		if !ok || sp.ID != spaceID {
			return nil, fmt.Errorf("%w: not standing on %s", rules.ErrWrongState, spaceID)
		}
		if err := rules.CanUpgrade(p.ID, sp, m.spaces, e.registry.GroupMembers(sp.Group)); err != nil {
			return nil, err
		}
		if !verdict.AllPassed() {
			return nil, rules.ErrNotAuthorized
		}
		if p.Cash < sp.UpgradeCost {
			return nil, rules.ErrInsufficientFunds
		}

		state := m.spaces[sp.ID]
		p.Cash -= sp.UpgradeCost
		state.Level++

		ev := rules.NewEvent(rules.EventPropertyUpgraded, m.id, p.ID)
		ev.SpaceID = sp.ID
		ev.Amount = state.Level
		events := []rules.Event{ev}

		m.setPhase(rules.PhaseWaitingForRoll)
		e.concludeIfSettled(m, p, &events)
		return events, nil
	})
}

// SkipUpgrade declines the optional upgrade and ends the action.
func (e *Engine) SkipUpgrade(matchID, playerID string) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID, rules.PhaseAwaitingUpgradeDecision); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}
		var events []rules.Event
		m.setPhase(rules.PhaseWaitingForRoll)
		e.concludeIfSettled(m, p, &events)
		return events, nil
	})
}

// EndTurn is the forced-skip intent: it resolves any pending decision
// with its default and passes the turn. Not valid mid-duel.
func (e *Engine) EndTurn(matchID, playerID string) error {
	return e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if err := m.legality.CheckTurnAction(playerID); err != nil {
			return nil, err
		}
		p, err := m.player(playerID)
		if err != nil {
			return nil, err
		}
		return e.resolveDefaultLocked(m, p)
	})
}

// resolveDefaultLocked applies the default resolution for the current
// phase: decline a buy, pay due rent, skip an upgrade, or simply pass.
func (e *Engine) resolveDefaultLocked(m *matchState, p *Player) ([]rules.Event, error) {
	switch m.turns.Phase() {
	case rules.PhaseAwaitingBuyDecision:
		return e.declineBuyLocked(m, p), nil
	case rules.PhaseAwaitingRentOrDuelDecision:
		return e.payRentLocked(m, p, 1)
	case rules.PhaseAwaitingUpgradeDecision:
		var events []rules.Event
		m.setPhase(rules.PhaseWaitingForRoll)
		e.concludeIfSettled(m, p, &events)
		return events, nil
	case rules.PhaseWaitingForRoll:
		var events []rules.Event
		m.pendingExtraTurn = false
		e.advanceTurn(m, &events)
		return events, nil
	default:
		return nil, fmt.Errorf("%w: phase is %s", rules.ErrWrongState, m.turns.Phase())
	}
}

// scheduleDecisionTimeout arms the bounded-wait fallback for a pending
// decision so a disconnected player cannot freeze the match.
func (e *Engine) scheduleDecisionTimeout(m *matchState) {
	if e.opts.DecisionTimeout <= 0 {
		return
	}
	matchID := m.id
	seq := m.decisionSeq
	m.decideTimer = time.AfterFunc(e.opts.DecisionTimeout, func() {
		e.expireDecision(matchID, seq)
	})
}

// expireDecision force-resolves a decision that is still pending under
// the same sequence number it was scheduled for.
func (e *Engine) expireDecision(matchID string, seq uint64) {
	err := e.withMatch(matchID, func(m *matchState) ([]rules.Event, error) {
		if m.status != MatchStatusActive || m.decisionSeq != seq {
			return nil, nil
		}
		p, err := m.player(m.turns.CurrentPlayer())
		if err != nil {
			return nil, err
		}
		e.logger.Info("decision timed out, applying default",
			zap.String("match_id", matchID),
			zap.String("player_id", p.ID),
			zap.String("phase", m.turns.Phase().String()),
		)
		return e.resolveDefaultLocked(m, p)
	})
	if err != nil {
		e.logger.Warn("decision timeout resolution failed",
			zap.String("match_id", matchID),
			zap.Error(err),
		)
	}
}
