// Package agents provides the trading agent: its identity, strategy,
// requested and allocated time slots, favour ledger, and the decision rules
// it applies when proposing and considering exchanges.
package agents

import (
	"github.com/talgya/slot-exchange/internal/slots"
)

// AgentID is a unique identifier for an agent, stable for a run.
type AgentID uint64

// Strategy determines how an agent judges exchange requests it receives.
type Strategy uint8

const (
	StrategySelfish Strategy = 0 // Accepts only strict improvements
	StrategySocial  Strategy = 1 // Also grants neutral trades to peers it owes
)

// Strategies lists every strategy in reporting order.
var Strategies = []Strategy{StrategySelfish, StrategySocial}

// String returns the lower-case strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategySelfish:
		return "selfish"
	case StrategySocial:
		return "social"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a strategy name back to its value.
func ParseStrategy(name string) (Strategy, bool) {
	for _, s := range Strategies {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Counters tallies an agent's exchange outcomes for the current day.
type Counters struct {
	AcceptedViaFavour     int `json:"accepted_via_favour"`     // Neutral requests granted from the ledger
	AcceptedWithoutFavour int `json:"accepted_without_favour"` // Requests granted on their own merit
	RejectedReceived      int `json:"rejected_received"`       // Requests this agent turned down
	RejectedRequested     int `json:"rejected_requested"`      // This agent's requests that were turned down
	AcceptedRequested     int `json:"accepted_requested"`      // This agent's requests that were granted
}

// Add accumulates other into c.
func (c *Counters) Add(other Counters) {
	c.AcceptedViaFavour += other.AcceptedViaFavour
	c.AcceptedWithoutFavour += other.AcceptedWithoutFavour
	c.RejectedReceived += other.RejectedReceived
	c.RejectedRequested += other.RejectedRequested
	c.AcceptedRequested += other.AcceptedRequested
}

// Agent is a participant in the slot exchange.
type Agent struct {
	ID       AgentID  `json:"id"`
	Strategy Strategy `json:"strategy"`
	Cohort   int      `json:"cohort"` // Index of the demand curve this agent samples from

	SlotsPerAgent int  `json:"slots_per_agent"`
	SocialCapital bool `json:"social_capital"` // Whether favours are tracked in the ledger

	Requested slots.Bag `json:"requested"` // Rebuilt every day
	Allocated slots.Bag `json:"allocated"` // Set each morning, mutated only by settled exchanges

	Ledger   *Ledger  `json:"-"` // Nil unless SocialCapital
	Counters Counters `json:"counters"`
}

// Advertisement is an agent's public offer of slots it holds but does not want.
type Advertisement struct {
	AgentID AgentID
	Slots   slots.Bag
}

// Proposal is a request by one agent to swap one of its unwanted slots for
// a specific slot advertised by another.
type Proposal struct {
	ProposerID       AgentID
	ReceiverID       AgentID
	Wanted           slots.TimeSlot // Held by the receiver, wanted by the proposer
	Offered          slots.TimeSlot // Held by the proposer, given in return
	ProposerStrategy Strategy
}

// Decision is the outcome of considering a proposal.
type Decision uint8

const (
	DecisionReject       Decision = iota
	DecisionAccept                // Granted because it does not hurt the receiver
	DecisionAcceptFavour          // Granted as repayment of a favour owed
)

// Accepted reports whether the proposal was granted.
func (d Decision) Accepted() bool {
	return d != DecisionReject
}

// String returns a short label for logs.
func (d Decision) String() string {
	switch d {
	case DecisionAccept:
		return "accept"
	case DecisionAcceptFavour:
		return "accept_favour"
	default:
		return "reject"
	}
}
