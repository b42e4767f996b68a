package ledger

import (
	"budget/internal/core"

	"github.com/shopspring/decimal"
)

// Snapshot is an immutable copy of the ledger state. Records are in
// insertion order, which is also display order.
type Snapshot struct {
	Budget  decimal.Decimal
	Records []core.Record
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Budget:  s.Budget,
		Records: append([]core.Record(nil), s.Records...),
	}
}

// Empty reports whether the snapshot holds no records.
func (s Snapshot) Empty() bool {
	return len(s.Records) == 0
}
