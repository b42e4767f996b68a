package core

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	// Category names a spending bucket. Valid values come from a CategorySet.
	Category string

	// Record is one category/value pair holding the accumulated spending
	// in that category.
	Record struct {
		ID       string
		Category Category
		Value    decimal.Decimal
	}

	// CategorySet is the fixed, ordered set of categories a ledger accepts.
	CategorySet struct {
		order []Category
		index map[Category]struct{}
	}
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyCategory   = errors.New("empty category")
)

// DefaultCategories mirrors the options offered by the add-expense selector.
var DefaultCategories = []string{"Food", "Transport", "Entertainment", "Utilities", "Other"}

// NewRecord returns a record with a freshly generated identifier.
func NewRecord(c Category, v decimal.Decimal) Record {
	return Record{ID: uuid.NewString(), Category: c, Value: v}
}

func (r Record) Validate() error {
	if strings.TrimSpace(string(r.Category)) == "" {
		return ErrEmptyCategory
	}
	if r.Value.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// NewCategorySet builds a set from names, trimming blanks and dropping
// duplicates while preserving input order.
func NewCategorySet(names []string) CategorySet {
	s := CategorySet{index: map[Category]struct{}{}}
	for _, n := range dedupe(names) {
		c := Category(n)
		s.order = append(s.order, c)
		s.index[c] = struct{}{}
	}
	return s
}

// CategorySetFromFile reads one category per line. Blank lines and lines
// starting with '#' are skipped. A missing or empty file yields the defaults.
func CategorySetFromFile(path string) CategorySet {
	names := readLines(path)
	if len(names) == 0 {
		names = DefaultCategories
	}
	return NewCategorySet(names)
}

// Parse validates name against the set.
func (s CategorySet) Parse(name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyCategory
	}
	c := Category(name)
	if _, ok := s.index[c]; !ok {
		return "", ErrUnknownCategory
	}
	return c, nil
}

func (s CategorySet) Contains(c Category) bool {
	_, ok := s.index[c]
	return ok
}

// List returns the categories in declaration order.
func (s CategorySet) List() []Category {
	return append([]Category(nil), s.order...)
}

func (s CategorySet) Len() int {
	return len(s.order)
}

func readLines(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
