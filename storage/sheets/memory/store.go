package memsheet

import (
	"context"
	"sort"
	"sync"

	"github.com/slps/canteen/core/sheet"
)

type table struct {
	header []string
	rows   [][]string
}

// Store keeps tables in memory. Used by tests and as a scratch backend.
type Store struct {
	mutex  sync.RWMutex
	tables map[string]*table
}

var _ sheet.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{tables: make(map[string]*table)}
}

// Seed replaces the named table, header first.
func (s *Store) Seed(name string, header []string, rows ...[]string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t := &table{header: copyRow(header)}
	for _, r := range rows {
		t.rows = append(t.rows, copyRow(r))
	}
	s.tables[name] = t
}

// Drop removes the named table.
func (s *Store) Drop(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.tables, name)
}

func (s *Store) Tables(_ context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Get(_ context.Context, name string) (*sheet.Table, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, sheet.ErrTableNotFound
	}
	out := &sheet.Table{Name: name, Header: copyRow(t.header), Rows: make([][]string, 0, len(t.rows))}
	for _, r := range t.rows {
		out.Rows = append(out.Rows, copyRow(r))
	}
	return out, nil
}

func (s *Store) Ensure(_ context.Context, name string, header []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[name]
	if !ok {
		s.tables[name] = &table{header: copyRow(header)}
		return nil
	}
	probe := sheet.Table{Header: t.header}
	for _, h := range header {
		if probe.Column(h) < 0 {
			t.header = append(t.header, h)
			probe.Header = t.header
		}
	}
	return nil
}

func (s *Store) Append(_ context.Context, name string, row []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return sheet.ErrTableNotFound
	}
	t.rows = append(t.rows, copyRow(row))
	return nil
}

func (s *Store) UpdateRow(_ context.Context, name string, index int, row []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return sheet.ErrTableNotFound
	}
	if index < 0 || index >= len(t.rows) {
		return sheet.ErrRowOutOfRange
	}
	t.rows[index] = copyRow(row)
	return nil
}

func (s *Store) UpdateCell(_ context.Context, name string, index, column int, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return sheet.ErrTableNotFound
	}
	if index < 0 || index >= len(t.rows) || column < 0 {
		return sheet.ErrRowOutOfRange
	}
	for len(t.rows[index]) <= column {
		t.rows[index] = append(t.rows[index], "")
	}
	t.rows[index][column] = value
	return nil
}

func (s *Store) Clear(_ context.Context, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return sheet.ErrTableNotFound
	}
	t.rows = nil
	return nil
}

func copyRow(r []string) []string {
	out := make([]string, len(r))
	copy(out, r)
	return out
}
