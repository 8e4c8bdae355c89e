package deck

import "fmt"

// Kind names one of the two card decks in a match.
type Kind string

const (
	KindChance         Kind = "CHANCE"
	KindCommunityChest Kind = "COMMUNITY_CHEST"
)

// Action tags what drawing a card does to the drawing player.
type Action int

const (
	ActionAddMoney Action = iota
	ActionSubtractMoney
	ActionMoveAbsolute
	ActionMoveRelative
	ActionSendToJail
	ActionGrantJailCredit
	ActionAdvanceToGo
	ActionAssessRepairs
)

var actionNames = map[Action]string{
	ActionAddMoney:        "ADD_MONEY",
	ActionSubtractMoney:   "SUBTRACT_MONEY",
	ActionMoveAbsolute:    "MOVE_ABSOLUTE",
	ActionMoveRelative:    "MOVE_RELATIVE",
	ActionSendToJail:      "SEND_TO_JAIL",
	ActionGrantJailCredit: "GRANT_JAIL_CREDIT",
	ActionAdvanceToGo:     "ADVANCE_TO_GO",
	ActionAssessRepairs:   "ASSESS_REPAIRS",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(a))
}

// Card is an immutable deck entry. Amount carries money for
// ADD/SUBTRACT_MONEY, step count for MOVE_RELATIVE, and per-level
// repair cost for ASSESS_REPAIRS. TargetPosition is only meaningful
// for MOVE_ABSOLUTE.
type Card struct {
	ID             string
	Text           string
	Action         Action
	Amount         int
	TargetPosition int
}

func chanceCards() []Card {
	return []Card{
		{ID: "ch-advance-go", Text: "Your PR was merged first try. Advance to GO.", Action: ActionAdvanceToGo},
		{ID: "ch-conference", Text: "Speak at a conference. Collect 150.", Action: ActionAddMoney, Amount: 150},
		{ID: "ch-bug-bounty", Text: "Bug bounty payout. Collect 100.", Action: ActionAddMoney, Amount: 100},
		{ID: "ch-prod-incident", Text: "Production incident on your watch. Pay 50.", Action: ActionSubtractMoney, Amount: 50},
		{ID: "ch-move-react", Text: "Migrate the frontend. Advance to React Road.", Action: ActionMoveAbsolute, TargetPosition: 14},
		{ID: "ch-move-go", Text: "Rewrite it in Go. Advance to Go Gardens.", Action: ActionMoveAbsolute, TargetPosition: 34},
		{ID: "ch-back-three", Text: "Revert the last deploy. Go back 3 spaces.", Action: ActionMoveRelative, Amount: -3},
		{ID: "ch-jail", Text: "Force-pushed to main. Go directly to Jail.", Action: ActionSendToJail},
		{ID: "ch-jail-credit", Text: "Keep this card: one free pass out of Jail.", Action: ActionGrantJailCredit},
		{ID: "ch-repairs", Text: "Dependency audit. Pay 25 per upgrade level you own.", Action: ActionAssessRepairs, Amount: 25},
		{ID: "ch-dividend", Text: "Stock options vest. Collect 50.", Action: ActionAddMoney, Amount: 50},
		{ID: "ch-licenses", Text: "Renew IDE licenses. Pay 100.", Action: ActionSubtractMoney, Amount: 100},
	}
}

func communityChestCards() []Card {
	return []Card{
		{ID: "cc-advance-go", Text: "Hackathon grand prize. Advance to GO.", Action: ActionAdvanceToGo},
		{ID: "cc-refund", Text: "Cloud bill refund. Collect 200.", Action: ActionAddMoney, Amount: 200},
		{ID: "cc-consulting", Text: "Consulting gig. Collect 100.", Action: ActionAddMoney, Amount: 100},
		{ID: "cc-hospital", Text: "RSI treatment. Pay 100.", Action: ActionSubtractMoney, Amount: 100},
		{ID: "cc-tax-refund", Text: "Tax refund. Collect 20.", Action: ActionAddMoney, Amount: 20},
		{ID: "cc-jail", Text: "Leaked credentials. Go directly to Jail.", Action: ActionSendToJail},
		{ID: "cc-jail-credit", Text: "Keep this card: one free pass out of Jail.", Action: ActionGrantJailCredit},
		{ID: "cc-repairs", Text: "Security patch rollout. Pay 40 per upgrade level you own.", Action: ActionAssessRepairs, Amount: 40},
		{ID: "cc-birthday", Text: "It is your cake day. Collect 10.", Action: ActionAddMoney, Amount: 10},
		{ID: "cc-move-github", Text: "Push your release. Advance to GitHub Station.", Action: ActionMoveAbsolute, TargetPosition: 5},
		{ID: "cc-fine", Text: "Missed standup three times. Pay 50.", Action: ActionSubtractMoney, Amount: 50},
		{ID: "cc-bonus", Text: "Quarterly bonus. Collect 100.", Action: ActionAddMoney, Amount: 100},
	}
}
