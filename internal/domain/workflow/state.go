package workflow

// State is a purchase order lifecycle state
type State string

const (
	StateNone        State = "NONE"
	StateForApproval State = "FOR_APPROVAL"
	StateApproved    State = "APPROVED"
	StateCancelled   State = "CANCELLED"
	StateReturned    State = "RETURNED"
)

var validStates = map[State]bool{
	StateNone:        true,
	StateForApproval: true,
	StateApproved:    true,
	StateCancelled:   true,
	StateReturned:    true,
}

// Cancelled and returned POs can only be re-issued, never approved
var terminalStates = map[State]bool{
	StateCancelled: true,
	StateReturned:  true,
}

// isTerminal reports whether the PO has left the approval path
func (s State) isTerminal() bool {
	return terminalStates[s]
}

func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known PO state
func (s State) IsValid() bool {
	return validStates[s]
}
