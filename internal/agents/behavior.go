// Agent decision rules: what to ask for, what to give up, which requests
// to grant, and how a settled swap changes the allocation and the ledger.
package agents

import (
	"errors"
	"fmt"

	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/slots"
)

// ErrUnsatisfiableDemand is returned when a demand curve has fewer positive
// weights than the number of distinct slots an agent must request.
var ErrUnsatisfiableDemand = errors.New("demand curve cannot yield enough distinct slots")

// RequestTimeSlots replaces the agent's requests with SlotsPerAgent distinct
// slots drawn by roulette wheel over demand, where demand[i] weighs slot i+1.
// A duplicate draw is retried without consuming a request.
func (a *Agent) RequestTimeSlots(demand []float64, rng entropy.Source) (slots.Bag, error) {
	positive := 0
	for _, w := range demand {
		if w > 0 {
			positive++
		}
	}
	if positive < a.SlotsPerAgent {
		return nil, fmt.Errorf("agent %d: %w: %d positive weights for %d slots",
			a.ID, ErrUnsatisfiableDemand, positive, a.SlotsPerAgent)
	}

	requested := make(slots.Bag, 0, a.SlotsPerAgent)
	for len(requested) < a.SlotsPerAgent {
		slot := slots.TimeSlot(entropy.Roulette(rng, demand) + 1)
		if requested.Contains(slot) {
			continue
		}
		requested.Add(slot)
	}

	a.Requested = requested
	return requested, nil
}

// UnlockedTimeSlots returns the slots the agent holds but does not want:
// Allocated − Requested. These are what it is willing to trade away.
func (a *Agent) UnlockedTimeSlots() slots.Bag {
	return a.Allocated.Difference(a.Requested)
}

// TargetTimeSlots returns the slots the agent wants but does not hold:
// Requested − Allocated.
func (a *Agent) TargetTimeSlots() slots.Bag {
	return a.Requested.Difference(a.Allocated)
}

// Advertise returns the agent's advertisement, or false when it has
// nothing to trade.
func (a *Agent) Advertise() (Advertisement, bool) {
	unlocked := a.UnlockedTimeSlots()
	if len(unlocked) == 0 {
		return Advertisement{}, false
	}
	return Advertisement{AgentID: a.ID, Slots: unlocked}, true
}

// RequestExchange scans the board in its current order and proposes a swap
// with the first advertiser offering any slot the agent wants. Entries from
// the agent itself and from advertisers for which unavailable returns true
// are passed over. Within the matching advertisement the first wanted slot
// is taken; the agent offers its first unlocked slot in return.
func (a *Agent) RequestExchange(board []Advertisement, unavailable func(AgentID) bool) (Proposal, bool) {
	targets := a.TargetTimeSlots()
	if len(targets) == 0 {
		return Proposal{}, false
	}
	unlocked := a.UnlockedTimeSlots()
	if len(unlocked) == 0 {
		return Proposal{}, false
	}

	for _, ad := range board {
		if ad.AgentID == a.ID {
			continue
		}
		if unavailable != nil && unavailable(ad.AgentID) {
			continue
		}
		for _, slot := range ad.Slots {
			if !targets.Contains(slot) {
				continue
			}
			return Proposal{
				ProposerID:       a.ID,
				ReceiverID:       ad.AgentID,
				Wanted:           slot,
				Offered:          unlocked[0],
				ProposerStrategy: a.Strategy,
			}, true
		}
	}
	return Proposal{}, false
}

// Satisfaction returns the fraction of the agent's requests present in
// allocation, matching occurrences one to one. A nil allocation means the
// agent's current allocation. The result lies in [0, 1].
func (a *Agent) Satisfaction(allocation slots.Bag) float64 {
	if allocation == nil {
		allocation = a.Allocated
	}
	if a.SlotsPerAgent <= 0 {
		return 0
	}
	matched := allocation.IntersectionSize(a.Requested)
	if matched > a.SlotsPerAgent {
		matched = a.SlotsPerAgent
	}
	return float64(matched) / float64(a.SlotsPerAgent)
}

// ConsiderRequest decides whether to grant p, where the agent is the
// receiver. Selfish agents grant strict improvements only. Social agents
// also grant neutral requests: with social capital, only to a proposer
// they owe more favours than they have given it; without, always.
// A rejection is tallied on the receiver; the proposer's tally is kept by
// NoteRequestOutcome.
func (a *Agent) ConsiderRequest(p Proposal) Decision {
	potentialAllocation, held := a.Allocated.Swap(p.Wanted, p.Offered)
	if !held {
		a.Counters.RejectedReceived++
		return DecisionReject
	}

	current := a.Satisfaction(nil)
	potential := a.Satisfaction(potentialAllocation)

	decision := DecisionReject
	switch {
	case potential > current:
		decision = DecisionAccept
	case potential == current && a.Strategy == StrategySocial:
		if a.SocialCapital {
			if a.Ledger != nil && a.Ledger.OwedTo(p.ProposerID) > a.Ledger.GivenTo(p.ProposerID) {
				decision = DecisionAcceptFavour
			}
		} else {
			// TODO: confirm with the model owners whether neutral acceptance
			// without social capital should be gated by a probability, as
			// sibling variants of this model do.
			decision = DecisionAccept
		}
	}

	switch decision {
	case DecisionAcceptFavour:
		a.Counters.AcceptedViaFavour++
	case DecisionAccept:
		a.Counters.AcceptedWithoutFavour++
	default:
		a.Counters.RejectedReceived++
	}
	return decision
}

// NoteRequestOutcome tallies the receiver's decision on the agent's own request.
func (a *Agent) NoteRequestOutcome(d Decision) {
	if d.Accepted() {
		a.Counters.AcceptedRequested++
		return
	}
	a.Counters.RejectedRequested++
}

// Holds reports whether the agent still holds slot.
func (a *Agent) Holds(slot slots.TimeSlot) bool {
	return a.Allocated.Contains(slot)
}

// CompleteRequestedExchange applies the proposer's side of a settled swap:
// Offered leaves, Wanted arrives. It reports whether the proposer's
// satisfaction strictly improved, in which case a social agent keeping a
// ledger now owes the receiver a favour.
func (a *Agent) CompleteRequestedExchange(p Proposal) bool {
	before := a.Satisfaction(nil)
	a.Allocated, _ = a.Allocated.Swap(p.Offered, p.Wanted)
	improved := a.Satisfaction(nil) > before

	if improved && a.keepsLedger() {
		a.Ledger.Credit(p.ReceiverID)
	}
	return improved
}

// CompleteReceivedExchange applies the receiver's side of a settled swap:
// Wanted leaves, Offered arrives. When the proposer improved, a social
// agent keeping a ledger records the favour it granted.
func (a *Agent) CompleteReceivedExchange(p Proposal, proposerImproved bool) {
	a.Allocated, _ = a.Allocated.Swap(p.Wanted, p.Offered)

	if proposerImproved && a.keepsLedger() {
		a.Ledger.Debit(p.ProposerID)
	}
}

// ResetDay clears the per-day counters.
func (a *Agent) ResetDay() {
	a.Counters = Counters{}
}

func (a *Agent) keepsLedger() bool {
	return a.SocialCapital && a.Strategy == StrategySocial && a.Ledger != nil
}
