package docnum

import (
	"context"
	"testing"
	"time"

	"github.com/biwswalker/movemate-ledger/sequence"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		period Period
		seq    int64
		width  int
		want   string
	}{
		{"FirstDebitNote", "DR", "2606", 1, 3, "DR2606001"},
		{"CreditNote", "CR", "2606", 42, 3, "CR2606042"},
		{"Payment", "PAYCAS", "2606", 7, 3, "PAYCAS2606007"},
		{"CustomerWiderPad", "MMI", "2601", 12, 4, "MMI26010012"},
		{"ExactlyFillsWidth", "IV", "2612", 999, 3, "IV2612999"},
		{"OverflowNotTruncated", "IV", "2612", 1000, 3, "IV26121000"},
		{"FarOverflow", "DR", "2612", 123456, 3, "DR2612123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.prefix, tt.period, tt.seq, tt.width); got != tt.want {
				t.Errorf("Format: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want Period
	}{
		{"June2026", time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC), "2606"},
		{"December", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), "2512"},
		// 23:30 UTC on Jan 31 is already Feb 1 in Bangkok (UTC+7).
		{"MonthRollsInBangkok", time.Date(2026, 1, 31, 23, 30, 0, 0, time.UTC), "2602"},
		{"BangkokLocalStays", time.Date(2026, 1, 31, 23, 30, 0, 0, time.FixedZone("ICT", 7*3600)), "2601"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.at); got != tt.want {
				t.Errorf("PeriodOf: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	spec, err := Lookup(KindDebitNote)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if spec.Prefix != "DR" || spec.Counter != sequence.CounterDebitNote || spec.Width != 3 {
		t.Errorf("unexpected spec: %+v", spec)
	}

	if _, err := Lookup(Kind("receipt")); err == nil {
		t.Error("Lookup accepted unknown kind")
	}
}

type seqFunc func(ctx context.Context, counter sequence.CounterType) (int64, error)

func (f seqFunc) NextSequence(ctx context.Context, counter sequence.CounterType) (int64, error) {
	return f(ctx, counter)
}

func (f seqFunc) CurrentSequence(context.Context, sequence.CounterType) (int64, error) {
	return 0, nil
}

func TestNext(t *testing.T) {
	var asked sequence.CounterType
	store := seqFunc(func(_ context.Context, counter sequence.CounterType) (int64, error) {
		asked = counter
		return 5, nil
	})

	at := time.Date(2026, 6, 3, 10, 0, 0, 0, time.UTC)

	got, err := Next(context.Background(), store, KindPayment, at)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "PAYCAS2606005" {
		t.Errorf("Next: got %q, want %q", got, "PAYCAS2606005")
	}
	if asked != sequence.CounterPayment {
		t.Errorf("counter: got %q, want %q", asked, sequence.CounterPayment)
	}
}
