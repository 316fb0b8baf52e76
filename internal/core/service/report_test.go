package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

func seedLedger(repo *MockTransactionRepository) {
	completed := acceptedTransaction("AG_1")
	_ = completed.Complete("SFK111", time.Now())
	repo.Seed(completed)

	accepted := acceptedTransaction("AG_2")
	repo.Seed(accepted)

	failed := domain.NewTransaction(domain.PayoutInstruction{
		EmployeeID: "E9", Phone: "0712345678", Amount: 2000,
	}, domain.NewPayoutReference(), "254712345678")
	_ = failed.Fail("insufficient float balance")
	repo.Seed(failed)
}

func TestStats(t *testing.T) {
	repo := NewMockTransactionRepository()
	seedLedger(repo)

	stats, err := NewReportService(repo).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalPayments != 3 {
		t.Errorf("totalPayments = %d, want 3", stats.TotalPayments)
	}
	if stats.SuccessfulPayments != 1 {
		t.Errorf("successfulPayments = %d, want 1", stats.SuccessfulPayments)
	}
	if stats.AcceptedPayments != 1 {
		t.Errorf("acceptedPayments = %d, want 1", stats.AcceptedPayments)
	}
	if stats.FailedPayments != 1 {
		t.Errorf("failedPayments = %d, want 1", stats.FailedPayments)
	}
	if stats.TotalAmount != 92000 {
		t.Errorf("totalAmount = %d, want 92000", stats.TotalAmount)
	}
	if stats.SuccessfulAmount != 45000 {
		t.Errorf("successfulAmount = %d, want 45000", stats.SuccessfulAmount)
	}
	if stats.LastPaymentDate == nil {
		t.Error("lastPaymentDate missing")
	}
}

func TestExport_CSV(t *testing.T) {
	repo := NewMockTransactionRepository()
	seedLedger(repo)

	data, contentType, err := NewReportService(repo).Export(context.Background(), FormatCSV, ports.TransactionFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if contentType != "text/csv" {
		t.Errorf("content type %q", contentType)
	}

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 { // header + 3 transactions
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "reference" || rows[0][6] != "status" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	var sawReceipt bool
	for _, row := range rows[1:] {
		if row[9] == "SFK111" {
			sawReceipt = true
		}
	}
	if !sawReceipt {
		t.Error("completed transaction's receipt missing from export")
	}
}

func TestExport_JSON(t *testing.T) {
	repo := NewMockTransactionRepository()
	seedLedger(repo)

	data, contentType, err := NewReportService(repo).Export(context.Background(), FormatJSON, ports.TransactionFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if contentType != "application/json" {
		t.Errorf("content type %q", contentType)
	}

	var records []ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
	for _, r := range records {
		if r.Reference == "" || r.Status == "" {
			t.Errorf("incomplete record: %+v", r)
		}
	}
}

func TestExport_UnsupportedFormat(t *testing.T) {
	repo := NewMockTransactionRepository()
	_, _, err := NewReportService(repo).Export(context.Background(), "xlsx", ports.TransactionFilter{})
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}
