package memory

import (
	"context"

	"isma/internal/domain/repositories"
)

// TransactionManager satisfies repositories.TransactionManager for the
// in-memory store, which has no transactions. The function runs
// directly; the store's own mutex provides per-call consistency.
type TransactionManager struct{}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (m *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
