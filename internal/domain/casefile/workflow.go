package casefile

import "slices"

// State is a case file workflow state.
type State string

const (
	StateOpen        State = "OPEN"
	StateInProcess   State = "IN_PROCESS"
	StatePendingDocs State = "PENDING_DOCS"
	StateUnderReview State = "UNDER_REVIEW"
	StateApproved    State = "APPROVED"
	StateRejected    State = "REJECTED"
	StateSuspended   State = "SUSPENDED"
	StateClosed      State = "CLOSED"
)

// States lists every workflow state in workflow order.
var States = []State{
	StateOpen, StateInProcess, StatePendingDocs, StateUnderReview,
	StateApproved, StateRejected, StateSuspended, StateClosed,
}

// successors is the declared transition table. The case-file rules call
// APPROVED and REJECTED terminal, meaning the outcome is final: neither may
// go back into processing and both still move to CLOSED to archive the
// case. Decided reports that reading. Terminal is stricter and holds only
// for CLOSED, the single state with no successors.
var successors = map[State][]State{
	StateOpen:        {StateInProcess, StateSuspended},
	StateInProcess:   {StatePendingDocs, StateUnderReview, StateSuspended},
	StatePendingDocs: {StateApproved, StateRejected, StateSuspended},
	StateUnderReview: {StateApproved, StateRejected, StateSuspended},
	StateApproved:    {StateClosed},
	StateRejected:    {StateClosed},
	StateSuspended:   {StateInProcess},
	StateClosed:      nil,
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := successors[s]
	return ok
}

// Successors returns the states reachable from s in one transition.
func (s State) Successors() []State {
	return slices.Clone(successors[s])
}

// CanTransition reports whether to is an allowed successor of s.
func (s State) CanTransition(to State) bool {
	return slices.Contains(successors[s], to)
}

// Terminal reports whether s has no successors.
func (s State) Terminal() bool {
	return len(successors[s]) == 0
}

// Decided reports whether the case has an outcome, so it no longer counts
// against its due date.
func (s State) Decided() bool {
	return s == StateApproved || s == StateRejected || s == StateClosed
}
