package pgtree

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dogmatiq/treekit/driver/sql/postgres/internal/pgerror"
	"github.com/dogmatiq/treekit/tree"
)

type handle struct {
	db   *sql.DB
	name string
}

func (h *handle) Name() string {
	return h.name
}

func (h *handle) Get(ctx context.Context, k []byte) (v []byte, ok bool, err error) {
	row := h.db.QueryRowContext(
		ctx,
		`SELECT value
		FROM treekit.tree
		WHERE tree = $1
		AND key = $2`,
		h.name,
		k,
	)

	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cannot scan tree pair: %w", err)
	}

	return v, true, nil
}

func (h *handle) Insert(ctx context.Context, k, v []byte) (prev []byte, ok bool, err error) {
	// A nil slice is encoded as SQL NULL, which the NOT NULL column rejects.
	// An empty value is still a present value.
	if v == nil {
		v = []byte{}
	}

	err = pgerror.Retry(
		ctx,
		h.db,
		func(tx *sql.Tx) error {
			prev, ok = nil, false

			row := tx.QueryRowContext(
				ctx,
				`SELECT value
				FROM treekit.tree
				WHERE tree = $1
				AND key = $2
				FOR UPDATE`,
				h.name,
				k,
			)

			if err := row.Scan(&prev); err != nil {
				if err != sql.ErrNoRows {
					return fmt.Errorf("cannot scan tree pair: %w", err)
				}
			} else {
				ok = true
			}

			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO treekit.tree (
					tree,
					key,
					value
				) VALUES (
					$1, $2, $3
				) ON CONFLICT (tree, key) DO UPDATE SET
					value = excluded.value`,
				h.name,
				k,
				v,
			); err != nil {
				return fmt.Errorf("cannot upsert tree pair: %w", err)
			}

			return nil
		},
		// Two racing inserts of the same new key both find no row to lock;
		// the loser's insert fails with a unique violation and is retried as
		// an overwrite.
		pgerror.CodeUniqueViolation,
		pgerror.CodeSerializationFailure,
	)
	if err != nil {
		return nil, false, err
	}

	return prev, ok, nil
}

func (h *handle) Remove(ctx context.Context, k []byte) (prev []byte, ok bool, err error) {
	row := h.db.QueryRowContext(
		ctx,
		`DELETE FROM treekit.tree
		WHERE tree = $1
		AND key = $2
		RETURNING value`,
		h.name,
		k,
	)

	if err := row.Scan(&prev); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cannot scan removed tree pair: %w", err)
	}

	return prev, true, nil
}

func (h *handle) Has(ctx context.Context, k []byte) (bool, error) {
	row := h.db.QueryRowContext(
		ctx,
		`SELECT COUNT(key) != 0
		FROM treekit.tree
		WHERE tree = $1
		AND key = $2`,
		h.name,
		k,
	)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("cannot scan tree pair: %w", err)
	}

	return exists, nil
}

func (h *handle) First(ctx context.Context) (k, v []byte, ok bool, err error) {
	return h.extremum(ctx, `ASC`)
}

func (h *handle) Last(ctx context.Context) (k, v []byte, ok bool, err error) {
	return h.extremum(ctx, `DESC`)
}

func (h *handle) extremum(ctx context.Context, dir string) (k, v []byte, ok bool, err error) {
	row := h.db.QueryRowContext(
		ctx,
		`SELECT key, value
		FROM treekit.tree
		WHERE tree = $1
		ORDER BY key `+dir+`
		LIMIT 1`,
		h.name,
	)

	if err := row.Scan(&k, &v); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("cannot scan tree pair: %w", err)
	}

	return k, v, true, nil
}

func (h *handle) PopMax(ctx context.Context) (k, v []byte, ok bool, err error) {
	err = pgerror.Retry(
		ctx,
		h.db,
		func(tx *sql.Tx) error {
			k, v, ok = nil, nil, false

			row := tx.QueryRowContext(
				ctx,
				`SELECT key, value
				FROM treekit.tree
				WHERE tree = $1
				ORDER BY key DESC
				LIMIT 1
				FOR UPDATE`,
				h.name,
			)

			if err := row.Scan(&k, &v); err != nil {
				if err == sql.ErrNoRows {
					return nil
				}
				return fmt.Errorf("cannot scan tree pair: %w", err)
			}

			if _, err := tx.ExecContext(
				ctx,
				`DELETE FROM treekit.tree
				WHERE tree = $1
				AND key = $2`,
				h.name,
				k,
			); err != nil {
				return fmt.Errorf("cannot delete tree pair: %w", err)
			}

			ok = true
			return nil
		},
		pgerror.CodeSerializationFailure,
	)
	if err != nil {
		return nil, nil, false, err
	}

	return k, v, ok, nil
}

func (h *handle) Len(ctx context.Context) (uint64, error) {
	row := h.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*)
		FROM treekit.tree
		WHERE tree = $1`,
		h.name,
	)

	var n uint64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("cannot count tree pairs: %w", err)
	}

	return n, nil
}

func (h *handle) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(
		ctx,
		`DELETE FROM treekit.tree
		WHERE tree = $1`,
		h.name,
	); err != nil {
		return fmt.Errorf("cannot clear tree: %w", err)
	}

	return nil
}

func (h *handle) Range(
	ctx context.Context,
	iv tree.Interval[[]byte],
	o tree.Order,
	fn tree.BinaryRangeFunc,
) error {
	query := `SELECT key, value
	FROM treekit.tree
	WHERE tree = $1`
	args := []any{h.name}

	if !iv.Begin.IsUnbounded() {
		op := `>=`
		if iv.Begin.IsExclusive() {
			op = `>`
		}
		args = append(args, iv.Begin.Value())
		query += fmt.Sprintf(` AND key %s $%d`, op, len(args))
	}

	if !iv.End.IsUnbounded() {
		op := `<=`
		if iv.End.IsExclusive() {
			op = `<`
		}
		args = append(args, iv.End.Value())
		query += fmt.Sprintf(` AND key %s $%d`, op, len(args))
	}

	if o == tree.Descending {
		query += ` ORDER BY key DESC`
	} else {
		query += ` ORDER BY key ASC`
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("cannot query tree pairs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("cannot scan tree pair: %w", err)
		}

		ok, err := fn(ctx, k, v)
		if !ok || err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("cannot range over tree pairs: %w", err)
	}

	return nil
}

func (h *handle) Close() error {
	return nil
}
