package enums

// IssuanceState is the per-employee position in the issuance workflow.
type IssuanceState string

const (
	IssuanceStateIdle                         IssuanceState = "idle"
	IssuanceStateAwaitingReplacementSelection IssuanceState = "awaiting_replacement_selection"
	IssuanceStateCommitted                    IssuanceState = "committed"
	IssuanceStateRejected                     IssuanceState = "rejected"
)

// String implements fmt.Stringer.
func (s IssuanceState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition follows from the state.
func (s IssuanceState) IsTerminal() bool {
	return s == IssuanceStateCommitted || s == IssuanceStateRejected
}
