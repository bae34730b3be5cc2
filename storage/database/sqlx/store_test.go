package sqlxstore

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slps/canteen/core/sheet"
	"github.com/slps/canteen/storage/database"
)

// openTestStore connects to DATABASE_URL and migrates it; tests are skipped without it.
func openTestStore(t *testing.T) (*Store, *sql.DB) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return NewStore(db), db
}

// tableName returns a table name no other test run uses, dropped at cleanup.
func tableName(t *testing.T, db *sql.DB, base string) string {
	name := base + "_" + uuid.NewString()
	t.Cleanup(func() {
		if _, err := db.Exec("DELETE FROM sheet_tables WHERE name = $1", name); err != nil {
			t.Errorf("dropping %s: %v", name, err)
		}
	})
	return name
}

func TestStore(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()
	menu := tableName(t, db, sheet.Menu)

	_, err := s.Get(ctx, menu)
	assert.Equal(t, sheet.ErrTableNotFound, err)
	assert.Equal(t, sheet.ErrTableNotFound, s.Append(ctx, menu, []string{"1"}))
	assert.Equal(t, sheet.ErrTableNotFound, s.Clear(ctx, menu))

	require.NoError(t, s.Ensure(ctx, menu, []string{"id", "name"}))
	require.NoError(t, s.Ensure(ctx, menu, []string{"ID", "Name", "soldOut"}))

	require.NoError(t, s.Append(ctx, menu, []string{"1", "Chai"}))
	require.NoError(t, s.Append(ctx, menu, []string{"2", "Coffee", "FALSE"}))
	require.NoError(t, s.UpdateCell(ctx, menu, 0, 2, "TRUE"))
	require.NoError(t, s.UpdateRow(ctx, menu, 1, []string{"2", "Filter Coffee", "FALSE"}))
	assert.Equal(t, sheet.ErrRowOutOfRange, s.UpdateRow(ctx, menu, 2, []string{"3"}))
	assert.Equal(t, sheet.ErrRowOutOfRange, s.UpdateCell(ctx, menu, -1, 0, "x"))

	tbl, err := s.Get(ctx, menu)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "soldOut"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "Chai", "TRUE"}, {"2", "Filter Coffee", "FALSE"}}, tbl.Rows)

	names, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, menu)

	require.NoError(t, s.Clear(ctx, menu))
	tbl, err = s.Get(ctx, menu)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Len(t, tbl.Header, 3)

	// positions keep growing after a clear
	require.NoError(t, s.Append(ctx, menu, []string{"3", "Samosa"}))
	require.NoError(t, s.UpdateCell(ctx, menu, 0, 1, "Veg Samosa"))
	tbl, err = s.Get(ctx, menu)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"3", "Veg Samosa"}}, tbl.Rows)
}

func TestStore_concurrentAppends(t *testing.T) {
	s, db := openTestStore(t)
	ctx := context.Background()
	orders := tableName(t, db, sheet.Orders)
	require.NoError(t, s.Ensure(ctx, orders, sheet.Headers[sheet.Orders]))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Append(ctx, orders, []string{uuid.NewString()})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	tbl, err := s.Get(ctx, orders)
	require.NoError(t, err)
	assert.Equal(t, n, tbl.Len())
}

func TestMigrate_isIdempotent(t *testing.T) {
	_, db := openTestStore(t)
	require.NoError(t, database.Migrate(db))

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT count(*) FROM information_schema.tables WHERE table_name IN ('sheet_tables', 'sheet_rows')",
	).Scan(&count))
	assert.Equal(t, 2, count)
}
