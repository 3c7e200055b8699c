package models

import "testing"

func TestLoanTransitions(t *testing.T) {
	allowed := []struct{ from, to LoanStatus }{
		{LoanPending, LoanApproved},
		{LoanPending, LoanRejected},
		{LoanApproved, LoanBorrowed},
		{LoanApproved, LoanOverdue},
		{LoanBorrowed, LoanReturned},
		{LoanBorrowed, LoanOverdue},
		{LoanOverdue, LoanReturned},
	}
	all := []LoanStatus{LoanPending, LoanApproved, LoanRejected, LoanBorrowed, LoanReturned, LoanOverdue}

	isAllowed := func(from, to LoanStatus) bool {
		for _, e := range allowed {
			if e.from == from && e.to == to {
				return true
			}
		}
		return false
	}
	// Every pair not in the edge list must be denied; no hidden edges.
	for _, from := range all {
		for _, to := range all {
			if got := LoanTransitions.Can(from, to); got != isAllowed(from, to) {
				t.Errorf("Can(%s, %s) = %v", from, to, got)
			}
		}
	}

	for _, terminal := range []LoanStatus{LoanRejected, LoanReturned} {
		if !LoanTransitions.Terminal(terminal) {
			t.Errorf("%s should be terminal", terminal)
		}
	}
	if LoanTransitions.Terminal(LoanOverdue) {
		t.Error("overdue should not be terminal; returns are still possible")
	}
}

func TestUserTransitions(t *testing.T) {
	if !UserTransitions.Can(UserPendingVerification, UserActive) {
		t.Error("activation edge missing")
	}
	if UserTransitions.Can(UserPendingVerification, UserInactive) {
		t.Error("pending accounts cannot be deactivated directly")
	}
	if !UserTransitions.Can(UserActive, UserInactive) || !UserTransitions.Can(UserInactive, UserActive) {
		t.Error("active/inactive toggle broken")
	}
	if UserTransitions.Can(UserActive, UserPendingVerification) {
		t.Error("no way back to pending_verification")
	}
}

func TestResetTransitions(t *testing.T) {
	if !ResetTransitions.Can(ResetPending, ResetApproved) || !ResetTransitions.Can(ResetPending, ResetRejected) {
		t.Error("pending edges missing")
	}
	if !ResetTransitions.Can(ResetApproved, ResetCompleted) {
		t.Error("completion edge missing")
	}
	for _, terminal := range []ResetStatus{ResetRejected, ResetCompleted} {
		if !ResetTransitions.Terminal(terminal) {
			t.Errorf("%s should be terminal", terminal)
		}
	}
	if ResetTransitions.Can(ResetCompleted, ResetPending) {
		t.Error("completed must not reopen")
	}
}
