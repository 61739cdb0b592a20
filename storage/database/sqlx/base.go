package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
	"github.com/trezcool/nyumba/core/export"
)

// Queries are built with "?" placeholders and rebound to the driver's bindvar type before running.
type baseRepository struct {
	exec core.DBExecutor
}

func (repo baseRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func toSQL(exec core.DBExecutor, b sq.Sqlizer) (string, []interface{}, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(err, "building query")
	}
	return exec.Rebind(query), args, nil
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := toSQL(exec, b)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, exec, dest, query, args...)
}

func selectx(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := toSQL(exec, b)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, exec, dest, query, args...)
}

func execx(ctx context.Context, exec core.DBExecutor, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := toSQL(exec, b)
	if err != nil {
		return nil, err
	}
	return exec.ExecContext(ctx, query, args...)
}

// exists reports whether the query selects at least one row.
func exists(ctx context.Context, exec core.DBExecutor, b sq.SelectBuilder) (bool, error) {
	var one int
	err := get(ctx, exec, &one, b.Columns("1").Limit(1))
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func count(ctx context.Context, exec core.DBExecutor, b sq.SelectBuilder) (int, error) {
	var n int
	err := get(ctx, exec, &n, b.Columns("COUNT(*)"))
	return n, err
}

// paginate runs the count and the paginated select of b.
func paginate(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.SelectBuilder, columns []string, ordering []core.DBOrdering, pg core.Page) (int, error) {
	total, err := count(ctx, exec, b)
	if err != nil {
		return 0, errors.Wrap(err, "counting")
	}
	if total == 0 {
		return 0, nil
	}
	b = b.Columns(columns...).OrderBy(orderBy(ordering)...)
	if pg.Size > 0 {
		b = b.Limit(pg.Limit()).Offset(pg.Offset())
	}
	return total, selectx(ctx, exec, dest, b)
}

func orderBy(ordering []core.DBOrdering) []string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return append(clauses, "id ASC") // stable pages
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// contains returns a LIKE pattern matching s literally anywhere, for use with likeEscape.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

const likeEscape = ` ESCAPE '\'`

// search does a case-insensitive match of term on any of columns.
func search(term string, columns ...string) sq.Sqlizer {
	val := contains(strings.ToLower(term))
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.Expr("LOWER("+col+") LIKE ?"+likeEscape, val))
	}
	return or
}

// predicates turns export predicates into squirrel conditions.
func predicates(preds []export.Predicate) sq.And {
	and := make(sq.And, 0, len(preds))
	for _, p := range preds {
		switch p.Op {
		case export.OpEq:
			and = append(and, sq.Eq{p.Column: p.Value})
		case export.OpGte:
			and = append(and, sq.GtOrEq{p.Column: p.Value})
		case export.OpLt:
			and = append(and, sq.Lt{p.Column: p.Value})
		case export.OpLte:
			and = append(and, sq.LtOrEq{p.Column: p.Value})
		}
	}
	return and
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// trapNoRowsErr maps "no rows" errors to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func deleteByID(ctx context.Context, exec core.DBExecutor, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := execx(ctx, exec, sq.Delete(table).Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting from "+table)
}

func slugExists(ctx context.Context, exec core.DBExecutor, table, slug, excludedID string) (bool, error) {
	b := sq.Select().From(table).Where(sq.Eq{"slug": slug})
	if excludedID != "" {
		b = b.Where(sq.NotEq{"id": excludedID})
	}
	return exists(ctx, exec, b)
}

func idExists(ctx context.Context, exec core.DBExecutor, table, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	return exists(ctx, exec, sq.Select().From(table).Where(sq.Eq{"id": id}))
}
