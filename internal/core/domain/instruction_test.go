package domain

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"0712345678", "254712345678", false},
		{"+254712345678", "254712345678", false},
		{"254712345678", "254712345678", false},
		{"0112345678", "254112345678", false},
		{"712345678", "", true},
		{"25571234567", "", true},
		{"+255712345678", "", true},
		{"0712345", "", true},
		{"07123456789", "", true},
		{"254812345678", "", true},
		{"2547123456ab", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizePhone(%q) expected error, got %q", tt.input, got)
			} else if !IsErrorCode(err, ErrCodeInvalidPhone) {
				t.Errorf("NormalizePhone(%q) expected INVALID_PHONE, got %v", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhone(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestInstructionValidate_AmountBounds(t *testing.T) {
	base := PayoutInstruction{EmployeeID: "E1", Phone: "0712345678"}

	tests := []struct {
		amount   int64
		wantCode string
	}{
		{9, ErrCodeInvalidAmount},
		{10, ""},
		{45000, ""},
		{150000, ""},
		{150001, ErrCodeInvalidAmount},
		{-5, ErrCodeInvalidAmount},
	}

	for _, tt := range tests {
		in := base
		in.Amount = tt.amount
		err := in.Validate()
		if tt.wantCode == "" {
			if err != nil {
				t.Errorf("amount %d: unexpected error %v", tt.amount, err)
			}
			continue
		}
		if !IsErrorCode(err, tt.wantCode) {
			t.Errorf("amount %d: expected %s, got %v", tt.amount, tt.wantCode, err)
		}
	}
}

func TestInstructionValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		in   PayoutInstruction
	}{
		{"missing employee_id", PayoutInstruction{Phone: "0712345678", Amount: 1000}},
		{"missing phone", PayoutInstruction{EmployeeID: "E1", Amount: 1000}},
		{"missing amount", PayoutInstruction{EmployeeID: "E1", Phone: "0712345678"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.in.Validate(); !IsErrorCode(err, ErrCodeMissingField) {
				t.Errorf("expected MISSING_FIELD, got %v", err)
			}
		})
	}
}
