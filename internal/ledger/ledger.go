package ledger

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

var (
	// ErrDuplicateHeight means an opportunity was already recorded at
	// this logical height; at most one acceptance per cycle.
	ErrDuplicateHeight = errors.New("ledger: opportunity already recorded at this height")
	// ErrInvalidID means the id is outside the ledger's range.
	ErrInvalidID = errors.New("ledger: invalid opportunity id")
)

// Metrics is the ledger's aggregate view. Average uses integer
// truncation and is zero while the ledger is empty.
type Metrics struct {
	Count        uint64         `json:"count"`
	TotalProfit  *big.Int       `json:"totalProfit"`
	AvgProfit    *big.Int       `json:"avgProfit"`
	LastHeight   uint64         `json:"lastHeight"`
	LastDetector common.Address `json:"lastDetector"`
}

// Ledger is the append-only store of accepted opportunities. Ids are
// dense and monotonic from 0 and records keep insertion order. Appends
// and MarkExecuted come from the single detection loop; the lock exists
// for the dashboard and feed reading concurrently.
type Ledger struct {
	mu           sync.RWMutex
	records      []types.OpportunityRecord
	totalProfit  *big.Int
	lastHeight   uint64
	lastDetector common.Address
	hasLast      bool
}

func New() *Ledger {
	return &Ledger{totalProfit: new(big.Int)}
}

// Append records one accepted opportunity and returns its id. A second
// acceptance at the same height fails with ErrDuplicateHeight and leaves
// the ledger untouched.
func (l *Ledger) Append(buy, sell uint8, token common.Address, diffBps uint64, profit *big.Int, detector common.Address, height uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasLast && height == l.lastHeight {
		return 0, ErrDuplicateHeight
	}

	id := uint64(len(l.records))
	l.records = append(l.records, types.OpportunityRecord{
		ID:         id,
		BuySource:  buy,
		SellSource: sell,
		Token:      token,
		DiffBps:    diffBps,
		Profit:     new(big.Int).Set(profit),
		Height:     height,
		Detector:   detector,
	})
	l.totalProfit.Add(l.totalProfit, profit)
	l.lastHeight = height
	l.lastDetector = detector
	l.hasLast = true
	return id, nil
}

// MarkExecuted flips the record's executed flag and stores the realized
// profit. The realized profit is observability only and never feeds the
// aggregates.
func (l *Ledger) MarkExecuted(id uint64, actualProfit *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if id >= uint64(len(l.records)) {
		return ErrInvalidID
	}
	rec := &l.records[id]
	rec.Executed = true
	if actualProfit != nil {
		rec.ActualProfit = new(big.Int).Set(actualProfit)
	}
	return nil
}

// Get returns a copy of the record with the given id.
func (l *Ledger) Get(id uint64) (types.OpportunityRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if id >= uint64(len(l.records)) {
		return types.OpportunityRecord{}, ErrInvalidID
	}
	return l.records[id], nil
}

// Recent returns the last min(n, count) records in insertion order,
// oldest of the window first.
func (l *Ledger) Recent(n int) []types.OpportunityRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	out := make([]types.OpportunityRecord, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

// Count returns the number of records.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// PerformanceMetrics returns the running aggregates.
func (l *Ledger) PerformanceMetrics() Metrics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m := Metrics{
		Count:        uint64(len(l.records)),
		TotalProfit:  new(big.Int).Set(l.totalProfit),
		AvgProfit:    new(big.Int),
		LastHeight:   l.lastHeight,
		LastDetector: l.lastDetector,
	}
	if m.Count > 0 {
		m.AvgProfit.Div(m.TotalProfit, new(big.Int).SetUint64(m.Count))
	}
	return m
}
