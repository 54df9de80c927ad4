package dbsession

import (
	"context"

	"github.com/TechXTT/dbsession/pkg/record"
)

// Query runs a row-producing command and maps every row into a T.
//
// With T = Row each row keeps all columns in result order, and NULL stays a
// null Value. Any other struct type, or a record.Fielder, has its fields
// filled by exact column name; unknown columns are skipped and NULL leaves
// the field at its zero value. Other types take a single-column result.
//
// The whole result is read before Query returns. No rows yields an empty,
// non-nil slice.
func Query[T any](ctx context.Context, s *Session, query string, params ...Param) (out []T, err error) {
	cmd, args, done, err := s.newCommand(ctx, query, params)
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	rows, err := cmd.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	plan, err := record.NewPlan[T](cols)
	if err != nil {
		return nil, err
	}

	raw, dest := scanTargets(len(cols))
	out = make([]T, 0)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec, err := plan.Map(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Scalar runs a command and returns the first column of its first row as a
// T. NULL, or no row at all, yields the zero T. A value that cannot be
// represented as T fails with ErrTypeMismatch. T = Value returns the raw
// classified value.
func Scalar[T any](ctx context.Context, s *Session, query string, params ...Param) (out T, err error) {
	cmd, args, done, err := s.newCommand(ctx, query, params)
	if err != nil {
		return out, err
	}
	defer func() { done(err) }()

	var zero T
	rows, err := cmd.stmt.QueryContext(ctx, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return zero, err
	}
	if len(cols) == 0 || !rows.Next() {
		return zero, rows.Err()
	}
	raw, dest := scanTargets(len(cols))
	if err := rows.Scan(dest...); err != nil {
		return zero, err
	}

	if v, ok := any(&out).(*Value); ok {
		*v = record.ValueOf(raw[0])
		return out, nil
	}
	if err := record.Assign(&out, raw[0]); err != nil {
		return zero, err
	}
	return out, nil
}

func scanTargets(n int) ([]any, []any) {
	raw := make([]any, n)
	dest := make([]any, n)
	for i := range raw {
		dest[i] = &raw[i]
	}
	return raw, dest
}
