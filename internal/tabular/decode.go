package tabular

import (
	"fmt"

	"github.com/fieldline/paydesk/internal/models"
)

// transactionColumns are the columns a transactions table must carry.
// "purpose" is genuinely optional and defaults to empty.
var transactionColumns = []string{
	"id", "reference", "timestamp", "userId", "type", "amount", "currency", "status",
}

// DecodeTransactions converts a transactions table into typed records.
// The table shape and required columns are checked up front; any mismatch
// fails the whole decode.
func DecodeTransactions(t Table) ([]models.WalletTransaction, error) {
	dec, err := NewDecoder(t, transactionColumns...)
	if err != nil {
		return nil, fmt.Errorf("decode transactions table: %w", err)
	}

	txs := make([]models.WalletTransaction, 0, len(dec.Rows()))
	for _, row := range dec.Rows() {
		txs = append(txs, models.WalletTransaction{
			ID:        dec.Value(row, "id"),
			Reference: dec.Value(row, "reference"),
			Timestamp: dec.Value(row, "timestamp"),
			UserID:    dec.Value(row, "userId"),
			Type:      models.TransactionType(dec.Value(row, "type")),
			Purpose:   dec.Value(row, "purpose"),
			Amount:    dec.Value(row, "amount"),
			Currency:  dec.Value(row, "currency"),
			Status:    models.TransactionStatus(dec.Value(row, "status")),
		})
	}
	return txs, nil
}

// HasPending reports whether any row of a transactions table is still
// pending. Used by the reconciliation sweep.
func HasPending(t Table) (bool, error) {
	dec, err := NewDecoder(t, "status")
	if err != nil {
		return false, err
	}
	for _, row := range dec.Rows() {
		if models.TransactionStatus(dec.Value(row, "status")) == models.TxPending {
			return true, nil
		}
	}
	return false, nil
}

// FindByReference returns the first transaction whose reference matches, or
// nil when absent.
func FindByReference(t Table, reference string) (*models.WalletTransaction, error) {
	txs, err := DecodeTransactions(t)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].Reference == reference {
			return &txs[i], nil
		}
	}
	return nil, nil
}
