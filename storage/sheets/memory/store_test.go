package memsheet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slps/canteen/core/sheet"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Get(ctx, sheet.Menu)
	assert.Equal(t, sheet.ErrTableNotFound, err)
	assert.Equal(t, sheet.ErrTableNotFound, s.Append(ctx, sheet.Menu, []string{"1"}))

	require.NoError(t, s.Ensure(ctx, sheet.Menu, []string{"id", "name"}))
	// existing columns match whatever their spelling
	require.NoError(t, s.Ensure(ctx, sheet.Menu, []string{"ID", "Name", "soldOut"}))

	require.NoError(t, s.Append(ctx, sheet.Menu, []string{"1", "Chai"}))
	require.NoError(t, s.Append(ctx, sheet.Menu, []string{"2", "Coffee", "FALSE"}))
	require.NoError(t, s.UpdateCell(ctx, sheet.Menu, 0, 2, "TRUE"))
	require.NoError(t, s.UpdateRow(ctx, sheet.Menu, 1, []string{"2", "Filter Coffee", "FALSE"}))
	assert.Equal(t, sheet.ErrRowOutOfRange, s.UpdateRow(ctx, sheet.Menu, 2, []string{"3"}))
	assert.Equal(t, sheet.ErrRowOutOfRange, s.UpdateCell(ctx, sheet.Menu, -1, 0, "x"))

	tbl, err := s.Get(ctx, sheet.Menu)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "soldOut"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "Chai", "TRUE"}, {"2", "Filter Coffee", "FALSE"}}, tbl.Rows)

	// returned tables are copies
	tbl.Rows[0][1] = "Tea"
	again, _ := s.Get(ctx, sheet.Menu)
	assert.Equal(t, "Chai", again.Rows[0][1])

	require.NoError(t, s.Clear(ctx, sheet.Menu))
	tbl, err = s.Get(ctx, sheet.Menu)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Len(t, tbl.Header, 3)

	s.Seed(sheet.Orders, []string{"orderId"}, []string{"1"})
	names, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{sheet.Menu, sheet.Orders}, names)

	s.Drop(sheet.Orders)
	_, err = s.Get(ctx, sheet.Orders)
	assert.Equal(t, sheet.ErrTableNotFound, err)
}
