package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/v2/mongo"

	ledger "github.com/biwswalker/movemate-ledger"
)

func TestWrapErrClassifiesUnavailability(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"ClientDisconnected", mongo.ErrClientDisconnected, true},
		{"DeadlineExceeded", context.DeadlineExceeded, true},
		{"NetworkLabel", mongo.CommandError{Labels: []string{"NetworkError"}}, true},
		{"WriteConflict", mongo.CommandError{Code: 112, Name: "WriteConflict"}, false},
		{"DuplicateKey", mongo.CommandError{Code: 11000}, false},
		{"Plain", errors.New("decode failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapErr(tt.err, "get billing")
			if got := errors.Is(wrapped, ledger.ErrStoreUnavailable); got != tt.unavailable {
				t.Errorf("errors.Is(wrapped, ErrStoreUnavailable) = %v, want %v", got, tt.unavailable)
			}
			// The original error stays reachable either way.
			if !errors.Is(wrapped, tt.err) && !isCommandError(tt.err, wrapped) {
				t.Errorf("wrapped error lost the cause: %v", wrapped)
			}
		})
	}
}

func isCommandError(orig, wrapped error) bool {
	var ce mongo.CommandError
	if _, ok := orig.(mongo.CommandError); !ok {
		return false
	}
	return errors.As(wrapped, &ce)
}

func TestIsWriteConflict(t *testing.T) {
	s := &Store{}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ServerCode112", mongo.CommandError{Code: 112, Name: "WriteConflict"}, true},
		{"TransientLabel", mongo.CommandError{Labels: []string{"TransientTransactionError"}}, true},
		{"Sentinel", ledger.ErrWriteConflict, true},
		{"WrappedSentinel", wrapErr(ledger.ErrWriteConflict, "commit"), true},
		{"DuplicateKey", mongo.CommandError{Code: 11000}, false},
		{"Unavailable", wrapErr(mongo.ErrClientDisconnected, "get billing"), false},
		{"Plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsWriteConflict(tt.err); got != tt.want {
				t.Errorf("IsWriteConflict = %v, want %v", got, tt.want)
			}
		})
	}
}
