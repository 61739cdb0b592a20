package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type (
	// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
	DBExecutor interface {
		sqlx.ExtContext
	}

	DB interface {
		DBExecutor

		BeginTxx(context.Context, *sql.TxOptions) (*sqlx.Tx, error)
		Close() error
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings drops orderings on fields not present in allowed (maps API field -> column).
func FilterOrderings(orderings []DBOrdering, allowed map[string]string) []DBOrdering {
	clean := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := allowed[ord.Field]; ok {
			clean = append(clean, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	return clean
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPageNumber   = 1 << 20
)

// Page is a limit/offset window over a query.
type Page struct {
	Number int `query:"page"`
	Size   int `query:"page_size"`
}

func (p *Page) Clean() {
	if p.Number < 1 {
		p.Number = 1
	} else if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	} else if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

func (p Page) Limit() uint64 {
	if p.Size < 1 {
		return 0
	}
	return uint64(p.Size)
}

func (p Page) Offset() uint64 {
	if p.Number < 2 {
		return 0
	}
	return uint64(p.Number-1) * p.Limit()
}

// Paged is a page of results along with the total count of matching rows.
type Paged[T any] struct {
	Results  []T `json:"results"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func NewPaged[T any](results []T, total int, page Page) Paged[T] {
	if results == nil {
		results = []T{}
	}
	return Paged[T]{Results: results, Total: total, Page: page.Number, PageSize: page.Size}
}

// StringList is a list of strings stored as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("core.StringList: cannot scan %T", src)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.Wrap(err, "core.StringList: decoding")
	}
	*l = items
	return nil
}

// CleanList trims the items of a list, dropping empty and duplicate ones.
func CleanList(items []string, lower ...bool) StringList {
	seen := make(map[string]bool, len(items))
	clean := make(StringList, 0, len(items))
	for _, item := range items {
		item = CleanString(item, lower...)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		clean = append(clean, item)
	}
	return clean
}
