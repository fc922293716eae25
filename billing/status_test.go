package billing

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"CurrentToVerify", StatusCurrent, StatusVerify, true},
		{"CurrentToPaid", StatusCurrent, StatusPaid, true},
		{"CurrentToOverdue", StatusCurrent, StatusOverdue, true},
		{"CurrentToCancelled", StatusCurrent, StatusCancelled, true},
		{"CurrentToRefund", StatusCurrent, StatusRefund, false},
		{"OverdueToPaid", StatusOverdue, StatusPaid, true},
		{"OverdueToCurrent", StatusOverdue, StatusCurrent, false},
		{"VerifyToPaid", StatusVerify, StatusPaid, true},
		{"VerifyRejectedBackToCurrent", StatusVerify, StatusCurrent, true},
		{"PaidToRefund", StatusPaid, StatusRefund, true},
		{"PaidToCurrent", StatusPaid, StatusCurrent, false},
		{"RefundToRefunded", StatusRefund, StatusRefunded, true},
		{"RefundedIsTerminal", StatusRefunded, StatusCurrent, false},
		{"CancelledIsTerminal", StatusCancelled, StatusCurrent, false},
		{"SelfLoop", StatusCurrent, StatusCurrent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusCancelled.IsTerminal() || !StatusRefunded.IsTerminal() {
		t.Error("CANCELLED and REFUNDED must be terminal")
	}
	if StatusPaid.IsTerminal() {
		t.Error("PAID is not terminal, refunds remain possible")
	}

	for _, s := range []Status{StatusCurrent, StatusOverdue, StatusVerify} {
		if !s.IsOpen() {
			t.Errorf("%s should be open", s)
		}
	}
	for _, s := range []Status{StatusPaid, StatusRefund, StatusRefunded, StatusCancelled} {
		if s.IsOpen() {
			t.Errorf("%s should not be open", s)
		}
	}

	if Status("UNKNOWN").IsValid() {
		t.Error("unknown status reported valid")
	}
	if !StatusVerify.IsValid() {
		t.Error("VERIFY reported invalid")
	}
}
