// Package sqlxstore keeps canteen tables in Postgres: one header per table, one array of cells per row.
package sqlxstore

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/sheet"
)

type Store struct {
	db *sqlx.DB
}

var _ sheet.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

type rowRecord struct {
	Position int            `db:"position"`
	Cells    pq.StringArray `db:"cells"`
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func header(ctx context.Context, q sqlx.QueryerContext, name string) ([]string, error) {
	var h pq.StringArray
	err := sqlx.GetContext(ctx, q, &h, "SELECT header FROM sheet_tables WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, sheet.ErrTableNotFound
	}
	return h, errors.Wrapf(err, "reading header of %s", name)
}

func (s *Store) Tables(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := s.db.SelectContext(ctx, &names, "SELECT name FROM sheet_tables ORDER BY name")
	return names, errors.Wrap(err, "listing tables")
}

func (s *Store) Get(ctx context.Context, name string) (*sheet.Table, error) {
	h, err := header(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	var recs []rowRecord
	err = s.db.SelectContext(ctx, &recs,
		"SELECT position, cells FROM sheet_rows WHERE table_name = $1 ORDER BY position", name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rows of %s", name)
	}

	t := &sheet.Table{Name: name, Header: h, Rows: make([][]string, 0, len(recs))}
	for _, r := range recs {
		t.Rows = append(t.Rows, r.Cells)
	}
	return t, nil
}

func (s *Store) Ensure(ctx context.Context, name string, hdr []string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := header(ctx, tx, name)
		if errors.Cause(err) == sheet.ErrTableNotFound {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO sheet_tables (name, header) VALUES ($1, $2)", name, pq.StringArray(hdr))
			return errors.Wrapf(err, "creating table %s", name)
		} else if err != nil {
			return err
		}

		probe := sheet.Table{Header: current}
		missing := 0
		for _, h := range hdr {
			if probe.Column(h) < 0 {
				probe.Header = append(probe.Header, h)
				missing++
			}
		}
		if missing == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE sheet_tables SET header = $2 WHERE name = $1", name, pq.StringArray(probe.Header))
		return errors.Wrapf(err, "updating header of %s", name)
	})
}

func (s *Store) Append(ctx context.Context, name string, row []string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := header(ctx, tx, name); err != nil {
			return err
		}
		// lock the table row so concurrent appends get distinct positions
		if _, err := tx.ExecContext(ctx, "SELECT 1 FROM sheet_tables WHERE name = $1 FOR UPDATE", name); err != nil {
			return errors.Wrapf(err, "locking %s", name)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sheet_rows (table_name, position, cells)
			SELECT $1, COALESCE(MAX(position), -1) + 1, $2 FROM sheet_rows WHERE table_name = $1`,
			name, pq.StringArray(row))
		return errors.Wrapf(err, "appending to %s", name)
	})
}

// rowAt maps a 0-based data row index to its stored position.
func rowAt(ctx context.Context, tx *sqlx.Tx, name string, index int) (rowRecord, error) {
	var rec rowRecord
	err := tx.GetContext(ctx, &rec, `
		SELECT position, cells FROM sheet_rows WHERE table_name = $1
		ORDER BY position OFFSET $2 LIMIT 1 FOR UPDATE`, name, index)
	if err == sql.ErrNoRows {
		return rec, sheet.ErrRowOutOfRange
	}
	return rec, errors.Wrapf(err, "reading row %d of %s", index, name)
}

func (s *Store) UpdateRow(ctx context.Context, name string, index int, row []string) error {
	if index < 0 {
		return sheet.ErrRowOutOfRange
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		rec, err := rowAt(ctx, tx, name, index)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE sheet_rows SET cells = $3, updated_at = now()
			WHERE table_name = $1 AND position = $2`, name, rec.Position, pq.StringArray(row))
		return errors.Wrapf(err, "updating row %d of %s", index, name)
	})
}

func (s *Store) UpdateCell(ctx context.Context, name string, index, column int, value string) error {
	if index < 0 || column < 0 {
		return sheet.ErrRowOutOfRange
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		rec, err := rowAt(ctx, tx, name, index)
		if err != nil {
			return err
		}
		cells := []string(rec.Cells)
		for len(cells) <= column {
			cells = append(cells, "")
		}
		cells[column] = value
		_, err = tx.ExecContext(ctx, `
			UPDATE sheet_rows SET cells = $3, updated_at = now()
			WHERE table_name = $1 AND position = $2`, name, rec.Position, pq.StringArray(cells))
		return errors.Wrapf(err, "updating cell (%d, %d) of %s", index, column, name)
	})
}

func (s *Store) Clear(ctx context.Context, name string) error {
	if _, err := header(ctx, s.db, name); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM sheet_rows WHERE table_name = $1", name)
	return errors.Wrapf(err, "clearing %s", name)
}
