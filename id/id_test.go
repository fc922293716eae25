package id

import "testing"

func TestNewGeneratesPrefixedIDs(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() ID
		prefix Prefix
	}{
		{"Customer", NewCustomerID, PrefixCustomer},
		{"Billing", NewBillingID, PrefixBilling},
		{"Invoice", NewInvoiceID, PrefixInvoice},
		{"Adjustment", NewAdjustmentID, PrefixAdjustment},
		{"Payment", NewPaymentID, PrefixPayment},
		{"Artifact", NewArtifactID, PrefixArtifact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generated := tt.gen()
			if generated.IsNil() {
				t.Fatal("generated ID is nil")
			}
			if generated.Prefix() != tt.prefix {
				t.Errorf("Prefix: got %q, want %q", generated.Prefix(), tt.prefix)
			}
		})
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := NewBillingID().String()
		if seen[s] {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = true
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := NewAdjustmentID()

	parsed, err := Parse(original.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round trip: got %q, want %q", parsed.String(), original.String())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-typeid"},
		{"BadSuffix", "bill_!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q): expected error", tt.input)
			}
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	billID := NewBillingID()

	if _, err := ParseBillingID(billID.String()); err != nil {
		t.Errorf("ParseBillingID: %v", err)
	}
	if _, err := ParsePaymentID(billID.String()); err == nil {
		t.Error("ParsePaymentID accepted a billing ID")
	}
}

func TestNilID(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	if Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", Nil.String())
	}
	if Nil.Prefix() != "" {
		t.Errorf("Nil.Prefix() = %q, want empty", Nil.Prefix())
	}
}

func TestTextMarshaling(t *testing.T) {
	original := NewPaymentID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded.String() != original.String() {
		t.Errorf("round trip: got %q, want %q", decoded.String(), original.String())
	}

	var empty ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("UnmarshalText(nil): %v", err)
	}
	if !empty.IsNil() {
		t.Error("UnmarshalText(nil) should produce Nil ID")
	}
}
