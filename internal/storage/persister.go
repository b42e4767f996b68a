package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// storedRecord is the on-disk shape of one expense record.
type storedRecord struct {
	ID       string      `json:"id,omitempty"`
	Category string      `json:"category"`
	Value    json.Number `json:"value"`
}

// Persister maps ledger snapshots onto the budget and expenses keys.
type Persister struct {
	kv     KV
	logger *log.Logger
}

var _ ledger.Persister = (*Persister)(nil)

func NewPersister(kv KV, logger *log.Logger) *Persister {
	if logger == nil {
		logger = log.Discard()
	}
	return &Persister{kv: kv, logger: logger.WithComponent(log.ComponentStorage)}
}

// Save writes both keys, in one batch when the store supports it.
func (p *Persister) Save(ctx context.Context, s ledger.Snapshot) error {
	blob, err := EncodeRecords(s.Records)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if bs, ok := p.kv.(BatchSetter); ok {
		values := map[string]string{KeyBudget: s.Budget.String(), KeyExpenses: blob}
		if err := bs.SetMany(ctx, values); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		p.logger.DebugContext(ctx, "Ledger saved", log.FieldRecords, len(s.Records))
		return nil
	}
	if err := p.kv.Set(ctx, KeyBudget, s.Budget.String()); err != nil {
		return fmt.Errorf("save %s: %w", KeyBudget, err)
	}
	if err := p.kv.Set(ctx, KeyExpenses, blob); err != nil {
		return fmt.Errorf("save %s: %w", KeyExpenses, err)
	}
	p.logger.DebugContext(ctx, "Ledger saved", log.FieldRecords, len(s.Records))
	return nil
}

// Load reads both keys. Absent, empty or malformed values are reported as
// absent so a corrupt store opens as an empty ledger; only backend
// failures are returned as errors.
func (p *Persister) Load(ctx context.Context) (ledger.Stored, error) {
	var out ledger.Stored

	raw, ok, err := p.kv.Get(ctx, KeyBudget)
	if err != nil {
		return out, fmt.Errorf("load %s: %w", KeyBudget, err)
	}
	if ok && strings.TrimSpace(raw) != "" {
		b, err := DecodeBudget(raw)
		if err != nil {
			p.logger.WarnContext(ctx, "Ignoring stored budget", log.FieldKey, KeyBudget, log.FieldError, err)
		} else {
			out.Budget, out.HasBudget = b, true
		}
	}

	raw, ok, err = p.kv.Get(ctx, KeyExpenses)
	if err != nil {
		return out, fmt.Errorf("load %s: %w", KeyExpenses, err)
	}
	if ok && strings.TrimSpace(raw) != "" {
		recs, err := DecodeRecords(raw)
		if err != nil {
			p.logger.WarnContext(ctx, "Ignoring stored expenses", log.FieldKey, KeyExpenses, log.FieldError, err)
		} else {
			recs, merged := FoldRecords(recs)
			for _, cat := range merged {
				p.logger.WarnContext(ctx, "Merged duplicate stored category",
					log.FieldKey, KeyExpenses, log.FieldCategory, string(cat))
			}
			out.Records, out.HasRecords = recs, true
		}
	}
	return out, nil
}

// Clear erases both keys.
func (p *Persister) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, KeyBudget, KeyExpenses); err != nil {
		return fmt.Errorf("clear ledger keys: %w", err)
	}
	return nil
}

// DecodeBudget parses the stored budget text.
func DecodeBudget(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: budget %q", ErrMalformed, raw)
	}
	return d, nil
}

// EncodeRecords serialises records as a JSON array with numeric values.
func EncodeRecords(recs []core.Record) (string, error) {
	out := make([]storedRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, storedRecord{
			ID:       r.ID,
			Category: string(r.Category),
			Value:    json.Number(r.Value.String()),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeRecords parses a JSON array written by EncodeRecords. Entries
// without an id, as written by earlier versions, get a fresh one.
func DecodeRecords(raw string) ([]core.Record, error) {
	var in []storedRecord
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("%w: expenses: %v", ErrMalformed, err)
	}
	out := make([]core.Record, 0, len(in))
	for i, sr := range in {
		v, err := decimal.NewFromString(sr.Value.String())
		if err != nil {
			return nil, fmt.Errorf("%w: expenses[%d] value %q", ErrMalformed, i, sr.Value)
		}
		r := core.Record{ID: sr.ID, Category: core.Category(sr.Category), Value: v}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: expenses[%d]: %v", ErrMalformed, i, err)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		out = append(out, r)
	}
	return out, nil
}

// FoldRecords merges records that share a category into the first one,
// keeping its position and id and summing the values. It returns the
// categories that had duplicates.
func FoldRecords(recs []core.Record) ([]core.Record, []core.Category) {
	pos := make(map[core.Category]int, len(recs))
	out := make([]core.Record, 0, len(recs))
	var merged []core.Category
	for _, r := range recs {
		i, ok := pos[r.Category]
		if !ok {
			pos[r.Category] = len(out)
			out = append(out, r)
			continue
		}
		if !slices.Contains(merged, r.Category) {
			merged = append(merged, r.Category)
		}
		out[i].Value = out[i].Value.Add(r.Value)
	}
	return out, merged
}
