package tabular

import (
	"errors"
	"testing"

	"github.com/fieldline/paydesk/internal/config"
	"github.com/fieldline/paydesk/internal/models"
)

func transactionsTable() Table {
	return Table{
		Success: true,
		Headers: []string{"id", "reference", "timestamp", "userId", "type", "purpose", "amount", "currency", "status"},
		Data: [][]string{
			{"1", "ord-100", "2026-08-01T10:00:00Z", "u1", "deposit", "wallet_funding", "50", "USD", "completed"},
			{"2", "ord-200", "2026-08-02T11:00:00Z", "u1", "deposit", "wallet_funding", "20", "USD", "pending"},
			{"3", "ord-300", "2026-08-03T12:00:00Z", "u1", "withdrawal", "", "10", "USD", "failed"},
		},
		Count: 3,
	}
}

func TestDecodeTransactions(t *testing.T) {
	txs, err := DecodeTransactions(transactionsTable())
	if err != nil {
		t.Fatalf("DecodeTransactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}

	second := txs[1]
	if second.Reference != "ord-200" {
		t.Errorf("expected reference ord-200, got %q", second.Reference)
	}
	if second.Status != models.TxPending {
		t.Errorf("expected pending status, got %q", second.Status)
	}
	if second.Type != models.TxDeposit {
		t.Errorf("expected deposit type, got %q", second.Type)
	}
	if txs[2].Purpose != "" {
		t.Errorf("expected empty purpose, got %q", txs[2].Purpose)
	}
}

func TestDecodeTransactions_MissingRequiredColumn(t *testing.T) {
	tb := transactionsTable()
	tb.Headers[1] = "ref" // renamed away from "reference"

	_, err := DecodeTransactions(tb)
	if !errors.Is(err, config.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestDecodeTransactions_ShapeMismatchFailsWholeDecode(t *testing.T) {
	tb := transactionsTable()
	tb.Data[2] = tb.Data[2][:4]

	_, err := DecodeTransactions(tb)
	if !errors.Is(err, config.ErrTableShape) {
		t.Fatalf("expected ErrTableShape, got %v", err)
	}
}

func TestHasPending(t *testing.T) {
	pending, err := HasPending(transactionsTable())
	if err != nil {
		t.Fatalf("HasPending: %v", err)
	}
	if !pending {
		t.Error("expected pending transactions")
	}

	settled := transactionsTable()
	settled.Data[1][8] = "completed"
	pending, err = HasPending(settled)
	if err != nil {
		t.Fatalf("HasPending: %v", err)
	}
	if pending {
		t.Error("expected no pending transactions")
	}
}

func TestFindByReference(t *testing.T) {
	tx, err := FindByReference(transactionsTable(), "ord-300")
	if err != nil {
		t.Fatalf("FindByReference: %v", err)
	}
	if tx == nil {
		t.Fatal("expected a match")
	}
	if tx.Status != models.TxFailed {
		t.Errorf("expected failed status, got %q", tx.Status)
	}

	tx, err = FindByReference(transactionsTable(), "ord-999")
	if err != nil {
		t.Fatalf("FindByReference: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil for unknown reference, got %+v", tx)
	}
}
