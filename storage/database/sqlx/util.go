package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/shule/core"
)

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// exists runs q, a `SELECT 1 ...` query, and reports whether it returned a row.
func exists(ctx context.Context, ex core.DBExecutor, q string, args ...interface{}) (bool, error) {
	var one int
	err := sqlx.GetContext(ctx, ex, &one, ex.Rebind(q+` LIMIT 1`), args...)
	switch err {
	case nil:
		return true, nil
	case sql.ErrNoRows:
		return false, nil
	default:
		return false, err
	}
}

// requireAffected returns notFound when res touched no rows.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
