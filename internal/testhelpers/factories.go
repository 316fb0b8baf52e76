package testhelpers

import (
	"fmt"

	"github.com/movaware/payout-engine/internal/core/domain"
)

// DefaultInstruction returns a valid payout instruction for testing.
func DefaultInstruction() domain.PayoutInstruction {
	return domain.PayoutInstruction{
		EmployeeID:     "emp-001",
		EmployeeName:   "Wanjiru Kamau",
		EmployeeNumber: "PF-1042",
		Phone:          "0712345678",
		Amount:         45000,
		Remarks:        "August salary",
		Occasion:       "Monthly payroll",
	}
}

// Instructions returns n valid instructions with distinct employees and phones.
func Instructions(n int) []domain.PayoutInstruction {
	out := make([]domain.PayoutInstruction, 0, n)
	for i := 0; i < n; i++ {
		ins := DefaultInstruction()
		ins.EmployeeID = fmt.Sprintf("emp-%03d", i+1)
		ins.Phone = fmt.Sprintf("2547%08d", 10000000+i)
		out = append(out, ins)
	}
	return out
}

// NewPendingTransaction builds a freshly initiated transaction for a valid instruction.
func NewPendingTransaction() *domain.Transaction {
	ins := DefaultInstruction()
	normalized, _ := domain.NormalizePhone(ins.Phone)
	return domain.NewTransaction(ins, domain.NewPayoutReference(), normalized)
}
