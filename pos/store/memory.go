// Package store provides Gateway implementations.
package store

import (
	"context"
	"sync"

	"github.com/andhikafr19/pos-engine/pos"
)

// =============================================================================
// MEMORY GATEWAY - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps snapshots in process memory. Loads and saves deep-copy
// so callers never share state with the store.
type Memory struct {
	mu           sync.RWMutex
	products     []pos.Product
	hasProducts  bool
	transactions []pos.Transaction
	settings     *pos.Settings

	// FailSaves makes every save return the given error, for testing
	// the engine's degraded session-only mode.
	FailSaves error
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadCatalog(_ context.Context) ([]pos.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasProducts {
		return nil, nil
	}
	return cloneProducts(m.products), nil
}

func (m *Memory) SaveCatalog(_ context.Context, products []pos.Product) error {
	if m.FailSaves != nil {
		return m.FailSaves
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = cloneProducts(products)
	m.hasProducts = true
	return nil
}

func (m *Memory) LoadTransactions(_ context.Context) ([]pos.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneTransactions(m.transactions), nil
}

func (m *Memory) SaveTransactions(_ context.Context, txs []pos.Transaction) error {
	if m.FailSaves != nil {
		return m.FailSaves
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = cloneTransactions(txs)
	return nil
}

func (m *Memory) LoadSettings(_ context.Context) (*pos.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *Memory) SaveSettings(_ context.Context, s pos.Settings) error {
	if m.FailSaves != nil {
		return m.FailSaves
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

func cloneProducts(in []pos.Product) []pos.Product {
	if in == nil {
		return nil
	}
	out := make([]pos.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneTransactions(in []pos.Transaction) []pos.Transaction {
	out := make([]pos.Transaction, len(in))
	for i, tx := range in {
		lines := make([]pos.CartLine, len(tx.Lines))
		for j, l := range tx.Lines {
			lines[j] = pos.CartLine{Product: l.Product.Clone(), Quantity: l.Quantity}
		}
		tx.Lines = lines
		out[i] = tx
	}
	return out
}
