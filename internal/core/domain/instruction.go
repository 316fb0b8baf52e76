package domain

import "strings"

// Payout amount bounds in whole currency units (KES), inclusive.
const (
	MinPayoutAmount int64 = 10
	MaxPayoutAmount int64 = 150000
)

// PayoutInstruction is the immutable input supplied by the payroll module.
// Amounts are already-computed net salaries; the engine never recomputes them.
type PayoutInstruction struct {
	EmployeeID     string `json:"employee_id" validate:"required"`
	EmployeeName   string `json:"employee_name"`
	EmployeeNumber string `json:"employee_number"`
	Phone          string `json:"phone" validate:"required"`
	Amount         int64  `json:"amount" validate:"required"`
	Remarks        string `json:"remarks"`
	Occasion       string `json:"occasion"`
}

// Validate checks shape and bounds of a single payout instruction. It is pure
// and runs before reference generation and before any network call.
func (i PayoutInstruction) Validate() error {
	if i.EmployeeID == "" {
		return NewMissingFieldError("employee_id")
	}
	if i.Phone == "" {
		return NewMissingFieldError("phone")
	}
	if i.Amount == 0 {
		return NewMissingFieldError("amount")
	}
	if i.Amount < MinPayoutAmount || i.Amount > MaxPayoutAmount {
		return NewInvalidAmountError(i.Amount)
	}
	if _, err := NormalizePhone(i.Phone); err != nil {
		return err
	}
	return nil
}

// NormalizePhone rewrites a destination number to the 254XXXXXXXXX form.
// Accepted inputs: local 0XXXXXXXXX, international +254XXXXXXXXX, or bare
// 254XXXXXXXXX. The significant part must be nine digits starting with a
// mobile prefix (7 or 1).
func NormalizePhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)

	switch {
	case strings.HasPrefix(p, "+254"):
		p = "254" + p[4:]
	case strings.HasPrefix(p, "0") && len(p) == 10:
		p = "254" + p[1:]
	case strings.HasPrefix(p, "254"):
		// already in canonical form
	default:
		return "", NewInvalidPhoneError(phone)
	}

	if len(p) != 12 {
		return "", NewInvalidPhoneError(phone)
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", NewInvalidPhoneError(phone)
		}
	}
	if p[3] != '7' && p[3] != '1' {
		return "", NewInvalidPhoneError(phone)
	}

	return p, nil
}
