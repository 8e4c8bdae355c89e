package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a match event.
type EventType string

const (
	// Match lifecycle events
	EventMatchStarted EventType = "MATCH_STARTED"
	EventGameOver     EventType = "GAME_OVER"
	EventTurnEnded    EventType = "TURN_ENDED"

	// Movement events
	EventDiceRolled    EventType = "DICE_ROLLED"
	EventLandedOnSpace EventType = "LANDED_ON_SPACE"
	EventPassedGo      EventType = "PASSED_GO"
	EventSentToJail    EventType = "SENT_TO_JAIL"
	EventLeftJail      EventType = "LEFT_JAIL"

	// Economy events
	EventPropertyBought   EventType = "PROPERTY_BOUGHT"
	EventBuyDeclined      EventType = "BUY_DECLINED"
	EventRentPaid         EventType = "RENT_PAID"
	EventPropertyUpgraded EventType = "PROPERTY_UPGRADED"
	EventTaxPaid          EventType = "TAX_PAID"
	EventPlayerBankrupt   EventType = "PLAYER_BANKRUPT"

	// Card events
	EventCardDrawn EventType = "CARD_DRAWN"

	// Duel events
	EventDuelStarted   EventType = "DUEL_STARTED"
	EventDuelSubmitted EventType = "DUEL_SUBMITTED"
	EventDuelEnded     EventType = "DUEL_ENDED"
)

// Event represents a state mutation that observers may react to. One
// event is published per mutation, after the mutation has completed.
type Event struct {
	Type      EventType
	MatchID   string
	PlayerID  string            // the acting player
	TargetID  string            // counterparty, when one exists
	SpaceID   string            // the space involved, when one exists
	Amount    int               // money moved, rent charged, new level
	Dice      []int             // die faces for DICE_ROLLED
	Flag      bool              // event-specific boolean (passedGo, canBuy, ...)
	Timestamp time.Time
	Metadata  map[string]string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// EventBus provides a synchronous publish/subscribe implementation with
// type filtering. Each match owns one bus; the session gateway
// subscribes to fan events out to connected clients.
type EventBus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	for _, listener := range bus.listeners {
		listener(event)
	}
	if typed, ok := bus.typedListeners[event.Type]; ok {
		for _, listener := range typed {
			listener.Callback(event)
		}
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, matchID, playerID string) Event {
	return Event{
		Type:      eventType,
		MatchID:   matchID,
		PlayerID:  playerID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}
