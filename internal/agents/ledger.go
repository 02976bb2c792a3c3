package agents

// Favours is one side of a bilateral favour account.
type Favours struct {
	Owed  int `json:"owed"`  // Favours this agent owes the peer
	Given int `json:"given"` // Favours this agent has granted the peer
}

// Ledger records, per peer, how many favours an agent owes and has given.
// Every other agent in the run has an entry; counts only grow.
type Ledger struct {
	entries map[AgentID]Favours
}

// NewLedger creates a ledger with a zeroed entry for every peer except self.
func NewLedger(self AgentID, peers []AgentID) *Ledger {
	entries := make(map[AgentID]Favours, len(peers))
	for _, id := range peers {
		if id == self {
			continue
		}
		entries[id] = Favours{}
	}
	return &Ledger{entries: entries}
}

// OwedTo returns how many favours this agent owes peer.
func (l *Ledger) OwedTo(peer AgentID) int {
	return l.entries[peer].Owed
}

// GivenTo returns how many favours this agent has granted peer.
func (l *Ledger) GivenTo(peer AgentID) int {
	return l.entries[peer].Given
}

// Credit records that peer granted this agent a favour, so it now owes one.
func (l *Ledger) Credit(peer AgentID) {
	f := l.entries[peer]
	f.Owed++
	l.entries[peer] = f
}

// Debit records that this agent granted peer a favour.
func (l *Ledger) Debit(peer AgentID) {
	f := l.entries[peer]
	f.Given++
	l.entries[peer] = f
}

// Set overwrites the account with peer. Used to seed scenarios and to
// restore ledgers.
func (l *Ledger) Set(peer AgentID, f Favours) {
	if f.Owed < 0 {
		f.Owed = 0
	}
	if f.Given < 0 {
		f.Given = 0
	}
	l.entries[peer] = f
}

// Has reports whether the ledger holds an account with peer.
func (l *Ledger) Has(peer AgentID) bool {
	_, ok := l.entries[peer]
	return ok
}

// Len returns the number of peer accounts.
func (l *Ledger) Len() int { return len(l.entries) }

// Totals sums owed and given favours across all peers.
func (l *Ledger) Totals() Favours {
	var t Favours
	for _, f := range l.entries {
		t.Owed += f.Owed
		t.Given += f.Given
	}
	return t
}
