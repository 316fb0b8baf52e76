package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// ExportRecord is the fixed projection of a transaction served by the
// bulk-export surface.
type ExportRecord struct {
	Reference      string     `json:"reference"`
	EmployeeID     string     `json:"employee_id"`
	EmployeeName   string     `json:"employee_name"`
	EmployeeNumber string     `json:"employee_number"`
	Phone          string     `json:"phone"`
	Amount         int64      `json:"amount"`
	Status         string     `json:"status"`
	InitiatedAt    time.Time  `json:"initiated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Receipt        string     `json:"receipt,omitempty"`
}

// ReportService reads the ledger; it is side-effect-free.
type ReportService struct {
	repo ports.TransactionRepository
}

func NewReportService(repo ports.TransactionRepository) *ReportService {
	return &ReportService{repo: repo}
}

// Stats aggregates the whole ledger.
func (s *ReportService) Stats(ctx context.Context) (*ports.LedgerStats, error) {
	return s.repo.Stats(ctx)
}

// Export serializes a snapshot of transactions matching the filter. The
// filter's pagination is ignored; the export walks every matching page.
func (s *ReportService) Export(ctx context.Context, format string, filter ports.TransactionFilter) ([]byte, string, error) {
	records, err := s.collect(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil

	case FormatCSV, "":
		data, err := marshalCSV(records)
		if err != nil {
			return nil, "", err
		}
		return data, "text/csv", nil

	default:
		return nil, "", &domain.DomainError{
			Code:    domain.ErrCodeMissingField,
			Message: fmt.Sprintf("unsupported export format %q", format),
		}
	}
}

func (s *ReportService) collect(ctx context.Context, filter ports.TransactionFilter) ([]ExportRecord, error) {
	filter.Page = 1
	filter.Limit = ports.MaxLimit

	var records []ExportRecord
	for {
		page, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, tx := range page {
			records = append(records, toExportRecord(tx))
		}
		if len(page) < filter.Limit {
			return records, nil
		}
		filter.Page++
	}
}

func toExportRecord(tx *domain.Transaction) ExportRecord {
	rec := ExportRecord{
		Reference:      tx.Reference,
		EmployeeID:     tx.EmployeeID,
		EmployeeName:   tx.EmployeeName,
		EmployeeNumber: tx.EmployeeNumber,
		Phone:          tx.Phone,
		Amount:         tx.Amount,
		Status:         string(tx.Status),
		InitiatedAt:    tx.InitiatedAt,
		CompletedAt:    tx.CompletedAt,
	}
	if tx.Receipt != nil {
		rec.Receipt = *tx.Receipt
	}
	return rec
}

func marshalCSV(records []ExportRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"reference", "employee_id", "employee_name", "employee_number",
		"phone", "amount", "status", "initiated_at", "completed_at", "receipt",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range records {
		completedAt := ""
		if r.CompletedAt != nil {
			completedAt = r.CompletedAt.Format(time.RFC3339)
		}
		row := []string{
			r.Reference,
			r.EmployeeID,
			r.EmployeeName,
			r.EmployeeNumber,
			r.Phone,
			strconv.FormatInt(r.Amount, 10),
			r.Status,
			r.InitiatedAt.Format(time.RFC3339),
			completedAt,
			r.Receipt,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
