package billing

// Status is the billing cycle status. A cycle starts CURRENT and moves
// through verification and settlement states; CANCELLED and REFUNDED
// are terminal.
type Status string

const (
	StatusCurrent   Status = "CURRENT"  // open, within payment terms
	StatusOverdue   Status = "OVERDUE"  // open, past due date
	StatusVerify    Status = "VERIFY"   // payment evidence submitted, awaiting verification
	StatusPaid      Status = "PAID"     // settled
	StatusRefund    Status = "REFUND"   // refund in progress
	StatusRefunded  Status = "REFUNDED" // refund completed
	StatusCancelled Status = "CANCELLED"
)

// transitions is the allowed edge set of the status machine. A missing
// key or value means the transition is rejected.
var transitions = map[Status][]Status{
	StatusCurrent: {StatusVerify, StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue: {StatusVerify, StatusPaid, StatusCancelled},
	StatusVerify:  {StatusPaid, StatusCurrent, StatusOverdue, StatusCancelled},
	StatusPaid:    {StatusRefund},
	StatusRefund:  {StatusRefunded},
}

// CanTransition reports whether moving from one status to another is a
// legal edge of the status machine.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsOpen reports whether the cycle still awaits settlement. Adjustment
// notes may only be appended while the cycle is open.
func (s Status) IsOpen() bool {
	switch s {
	case StatusCurrent, StatusOverdue, StatusVerify:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusCurrent, StatusOverdue, StatusVerify, StatusPaid,
		StatusRefund, StatusRefunded, StatusCancelled:
		return true
	default:
		return false
	}
}
