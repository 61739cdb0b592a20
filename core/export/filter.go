package export

import (
	"time"

	"github.com/trezcool/nyumba/core"
)

const DateLayout = "2006-01-02"

// Operators used by predicates.
const (
	OpEq  = "="
	OpGte = ">="
	OpLt  = "<"
	OpLte = "<="
)

// Predicate is a single "column op value" condition. Predicates are ANDed.
type Predicate struct {
	Column string
	Op     string
	Value  interface{}
}

// Filter narrows down the rows of an export.
// From and To are calendar days (UTC), both inclusive. Nil bounds add no condition.
type Filter struct {
	From      *time.Time
	To        *time.Time
	MinAmount *float64
	MaxAmount *float64
	Kind      string
	Status    string
}

// Validate rejects inverted ranges.
func (f Filter) Validate() error {
	var flds []core.FieldError
	if f.From != nil && f.To != nil && day(*f.From).After(day(*f.To)) {
		flds = append(flds, core.FieldError{Field: "from", Error: "must be on or before to"})
	}
	if f.MinAmount != nil && f.MaxAmount != nil && *f.MinAmount > *f.MaxAmount {
		flds = append(flds, core.FieldError{Field: "min_amount", Error: "must be less than or equal to max_amount"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// day truncates t to midnight UTC.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Predicates builds the date range conditions on createdColumn and the amount range conditions on
// amountColumn (skipped when amountColumn is empty):
//   - createdColumn >= From
//   - createdColumn < To + 1 day
//   - amountColumn >= MinAmount
//   - amountColumn <= MaxAmount
func (f Filter) Predicates(createdColumn, amountColumn string) ([]Predicate, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var preds []Predicate
	if f.From != nil {
		preds = append(preds, Predicate{Column: createdColumn, Op: OpGte, Value: day(*f.From)})
	}
	if f.To != nil {
		preds = append(preds, Predicate{Column: createdColumn, Op: OpLt, Value: day(*f.To).AddDate(0, 0, 1)})
	}
	if amountColumn != "" {
		if f.MinAmount != nil {
			preds = append(preds, Predicate{Column: amountColumn, Op: OpGte, Value: *f.MinAmount})
		}
		if f.MaxAmount != nil {
			preds = append(preds, Predicate{Column: amountColumn, Op: OpLte, Value: *f.MaxAmount})
		}
	}
	return preds, nil
}

// Eq returns an equality predicate, or nothing when value is empty.
func Eq(column string, value string) []Predicate {
	if value == "" {
		return nil
	}
	return []Predicate{{Column: column, Op: OpEq, Value: value}}
}
