// Exchange rounds: one advertise → request → consider → settle pass over
// the whole population. Each phase walks a freshly shuffled agent order.
package engine

import (
	"log/slog"

	"github.com/talgya/slot-exchange/internal/agents"
	"github.com/talgya/slot-exchange/internal/entropy"
	"github.com/talgya/slot-exchange/internal/stats"
)

// ExchangeRound runs one round on behalf of day and returns its tally.
// The round succeeded if the tally's Settled count is positive.
func (s *Simulation) ExchangeRound(day int) stats.ExchangeTally {
	tally := stats.ExchangeTally{Rounds: 1}

	board := s.advertise()
	received := s.request(board, &tally)
	approved := s.consider(day, received, &tally)
	s.settle(approved, &tally)

	slog.Debug("exchange round",
		"day", day,
		"round", s.Round,
		"adverts", len(board),
		"proposals", tally.Proposals,
		"accepted", tally.Accepted,
		"settled", tally.Settled,
		"dropped", tally.Dropped,
	)
	return tally
}

// advertise collects every agent's unlocked slots. Agents with nothing to
// trade stay off the board.
func (s *Simulation) advertise() []agents.Advertisement {
	board := make([]agents.Advertisement, 0, len(s.Agents))
	for _, a := range s.shuffledAgents() {
		if ad, ok := a.Advertise(); ok {
			board = append(board, ad)
		}
	}
	return board
}

// request lets each agent not yet engaged this round propose at most one
// exchange. A proposal engages both the proposer and the advertiser it
// targets, so nobody sends or receives twice. Returns proposals keyed by
// receiver.
func (s *Simulation) request(board []agents.Advertisement, tally *stats.ExchangeTally) map[agents.AgentID]agents.Proposal {
	entropy.ShuffleSlice(s.Rng, board)

	engaged := make(map[agents.AgentID]bool, len(s.Agents))
	isEngaged := func(id agents.AgentID) bool { return engaged[id] }
	received := make(map[agents.AgentID]agents.Proposal)

	for _, a := range s.shuffledAgents() {
		if engaged[a.ID] {
			continue
		}
		p, ok := a.RequestExchange(board, isEngaged)
		if !ok {
			continue
		}
		engaged[p.ProposerID] = true
		engaged[p.ReceiverID] = true
		received[p.ReceiverID] = p
		tally.Proposals++
	}
	return received
}

// consider has every receiver judge its single proposal. Returns the
// approved proposals keyed by receiver.
func (s *Simulation) consider(day int, received map[agents.AgentID]agents.Proposal, tally *stats.ExchangeTally) map[agents.AgentID]agents.Proposal {
	approved := make(map[agents.AgentID]agents.Proposal, len(received))

	for _, a := range s.shuffledAgents() {
		p, ok := received[a.ID]
		if !ok {
			continue
		}
		decision := a.ConsiderRequest(p)
		if proposer, ok := s.AgentIndex[p.ProposerID]; ok {
			proposer.NoteRequestOutcome(decision)
		}
		if s.OnDecision != nil {
			s.OnDecision(day, s.Round, p, decision)
		}

		if !decision.Accepted() {
			continue
		}
		tally.Accepted++
		if decision == agents.DecisionAcceptFavour {
			tally.Favours++
		}
		approved[a.ID] = p
	}
	return approved
}

// settle applies approved swaps in a fresh order, revalidating each first.
// A pair that no longer holds the slots it would give up is dropped.
func (s *Simulation) settle(approved map[agents.AgentID]agents.Proposal, tally *stats.ExchangeTally) {
	for _, receiver := range s.shuffledAgents() {
		p, ok := approved[receiver.ID]
		if !ok {
			continue
		}
		proposer, ok := s.AgentIndex[p.ProposerID]
		if !ok || !finalCheck(proposer, receiver, p) {
			tally.Dropped++
			continue
		}
		improved := proposer.CompleteRequestedExchange(p)
		receiver.CompleteReceivedExchange(p, improved)
		tally.Settled++
	}
}

// finalCheck reports whether both parties still hold what they are about
// to give up.
func finalCheck(proposer, receiver *agents.Agent, p agents.Proposal) bool {
	return proposer.Holds(p.Offered) && receiver.Holds(p.Wanted)
}
