// Package ledger owns the budget and expense records of a single user and
// derives balance, category totals and the chronological series from them.
//
// A Store is the only writer of ledger state. Every mutation runs
// mutate -> persist under one lock, then notifies listeners with the
// resulting snapshot.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budget/internal/core"
	"budget/internal/log"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrIndexOutOfRange = errors.New("record index out of range")
)

// Change names the mutation that produced a snapshot.
type Change string

const (
	ChangeLoaded  Change = "loaded"
	ChangeBudget  Change = "budget_set"
	ChangeAdded   Change = "expense_added"
	ChangeRemoved Change = "expense_removed"
	ChangeReset   Change = "reset"
)

// Stored is what a Persister found. Has* flags distinguish an absent key
// from a present zero value.
type Stored struct {
	Budget     decimal.Decimal
	HasBudget  bool
	Records    []core.Record
	HasRecords bool
}

// Persister mirrors ledger state to durable storage.
type Persister interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context) (Stored, error)
	Clear(ctx context.Context) error
}

// Listener is told about every applied change. It runs on the mutating
// goroutine after the store lock is released, so it should return quickly.
type Listener interface {
	LedgerChanged(ctx context.Context, change Change, s Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, change Change, s Snapshot)

func (f ListenerFunc) LedgerChanged(ctx context.Context, change Change, s Snapshot) {
	f(ctx, change, s)
}

// Options configures a Store. A nil Persister keeps state in memory only.
type Options struct {
	Categories core.CategorySet
	Persister  Persister
	Logger     *log.Logger
	Listeners  []Listener
}

type Store struct {
	mu         sync.Mutex
	categories core.CategorySet
	persister  Persister
	logger     *log.Logger
	state      Snapshot
	persistErr error

	lmu       sync.RWMutex
	listeners []Listener
}

func New(opts Options) *Store {
	cats := opts.Categories
	if cats.Len() == 0 {
		cats = core.NewCategorySet(core.DefaultCategories)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{
		categories: cats,
		persister:  opts.Persister,
		logger:     logger.WithComponent(log.ComponentLedger),
		state:      Snapshot{Budget: decimal.Zero},
		listeners:  append([]Listener(nil), opts.Listeners...),
	}
}

// Subscribe registers l for future changes.
func (s *Store) Subscribe(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Categories returns the accepted category set.
func (s *Store) Categories() core.CategorySet {
	return s.categories
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// PersistenceErr returns the error of the most recent persistence call, or
// nil when storage is healthy.
func (s *Store) PersistenceErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistErr
}

// Load hydrates the store from its persister. Absent keys leave the
// in-memory defaults untouched.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.mu.Lock()
	stored, err := s.persister.Load(ctx)
	if err != nil {
		s.persistErr = err
		s.mu.Unlock()
		return fmt.Errorf("load ledger: %w", err)
	}
	s.persistErr = nil
	if stored.HasBudget {
		s.state.Budget = stored.Budget
	}
	if stored.HasRecords {
		s.state.Records = append([]core.Record(nil), stored.Records...)
	}
	snap := s.state.Clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldBudget, snap.Budget.String(),
		log.FieldRecords, len(snap.Records))
	s.notify(ctx, ChangeLoaded, snap)
	return nil
}

// SetBudget replaces the budget with raw parsed as a number. Unparseable
// input silently becomes zero.
func (s *Store) SetBudget(ctx context.Context, raw string) Snapshot {
	amount, err := core.ParseAmount(raw)
	if err != nil {
		s.logger.DebugContext(ctx, "Budget input not numeric, using zero", "input", raw)
		amount = decimal.Zero
	}
	return s.apply(ctx, ChangeBudget, func(st *Snapshot) {
		st.Budget = amount
	})
}

// AddExpense adds raw to the record for category, creating the record at
// the end of the ledger if the category has none yet. It returns the
// affected record and the ledger as committed. Errors wrap
// core.ErrInvalidInput and leave the ledger unchanged.
func (s *Store) AddExpense(ctx context.Context, category, raw string) (core.Record, Snapshot, error) {
	cat, err := s.categories.Parse(category)
	if err != nil {
		return core.Record{}, Snapshot{}, fmt.Errorf("%w: category %q: %w", core.ErrInvalidInput, category, err)
	}
	value, err := core.ParseAmount(raw)
	if err != nil {
		return core.Record{}, Snapshot{}, fmt.Errorf("%w: value %q: %w", core.ErrInvalidInput, raw, err)
	}
	if value.IsNegative() {
		return core.Record{}, Snapshot{}, fmt.Errorf("%w: value %q: %w", core.ErrInvalidInput, raw, core.ErrInvalidAmount)
	}

	var rec core.Record
	snap := s.apply(ctx, ChangeAdded, func(st *Snapshot) {
		for i := range st.Records {
			if st.Records[i].Category == cat {
				st.Records[i].Value = st.Records[i].Value.Add(value)
				rec = st.Records[i]
				return
			}
		}
		rec = core.NewRecord(cat, value)
		st.Records = append(st.Records, rec)
	})

	s.logger.InfoContext(ctx, "Expense added",
		log.FieldRecordID, rec.ID,
		log.FieldCategory, string(rec.Category),
		log.FieldValue, value.String())
	return rec, snap, nil
}

// Remove deletes the record with the given identifier and returns the
// ledger as committed.
func (s *Store) Remove(ctx context.Context, id string) (Snapshot, error) {
	return s.remove(ctx, func(st Snapshot) int {
		for i, r := range st.Records {
			if r.ID == id {
				return i
			}
		}
		return -1
	}, ErrNotFound)
}

// RemoveAt deletes the record at index; later records shift left, so
// indices must be re-derived after every mutation.
func (s *Store) RemoveAt(ctx context.Context, index int) (Snapshot, error) {
	return s.remove(ctx, func(st Snapshot) int {
		if index < 0 || index >= len(st.Records) {
			return -1
		}
		return index
	}, ErrIndexOutOfRange)
}

func (s *Store) remove(ctx context.Context, find func(Snapshot) int, notFound error) (Snapshot, error) {
	s.mu.Lock()
	i := find(s.state)
	if i < 0 {
		s.mu.Unlock()
		return Snapshot{}, notFound
	}
	removed := s.state.Records[i]
	s.state.Records = append(s.state.Records[:i:i], s.state.Records[i+1:]...)
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Expense removed",
		log.FieldRecordID, removed.ID,
		log.FieldCategory, string(removed.Category))
	s.notify(ctx, ChangeRemoved, snap)
	return snap, nil
}

// Reset clears budget, records and every persisted key.
func (s *Store) Reset(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.state = Snapshot{Budget: decimal.Zero}
	s.persistErr = nil
	if s.persister != nil {
		if err := s.persister.Clear(ctx); err != nil {
			s.persistErr = err
			s.logger.WarnContext(ctx, "Clearing persisted ledger failed, continuing in memory",
				log.FieldOperation, log.OpClear, log.FieldError, err)
		}
	}
	snap := s.state.Clone()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Ledger reset")
	s.notify(ctx, ChangeReset, snap)
	return snap
}

func (s *Store) apply(ctx context.Context, change Change, mutate func(*Snapshot)) Snapshot {
	s.mu.Lock()
	mutate(&s.state)
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, change, snap)
	return snap
}

// commitLocked persists the current state and returns a copy of it.
// Persistence failures are recorded and logged; the in-memory state wins.
func (s *Store) commitLocked(ctx context.Context) Snapshot {
	snap := s.state.Clone()
	if s.persister == nil {
		return snap
	}
	if err := s.persister.Save(ctx, snap); err != nil {
		s.persistErr = err
		s.logger.WarnContext(ctx, "Saving ledger failed, continuing in memory",
			log.FieldOperation, log.OpSave, log.FieldError, err)
		return snap
	}
	s.persistErr = nil
	return snap
}

func (s *Store) notify(ctx context.Context, change Change, snap Snapshot) {
	s.lmu.RLock()
	ls := append([]Listener(nil), s.listeners...)
	s.lmu.RUnlock()
	for _, l := range ls {
		l.LedgerChanged(ctx, change, snap.Clone())
	}
}
