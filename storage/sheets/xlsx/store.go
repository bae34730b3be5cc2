// Package xlsxsheet stores canteen tables as the worksheets of a local .xlsx workbook.
package xlsxsheet

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/slps/canteen/core/sheet"
)

type Store struct {
	mutex sync.RWMutex
	path  string
	file  *excelize.File
}

var _ sheet.Store = (*Store)(nil)

// Open opens the workbook at `path`, creating it when it does not exist.
func Open(path string) (*Store, error) {
	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		if f, err = excelize.OpenFile(path); err != nil {
			return nil, errors.Wrapf(err, "opening workbook %s", path)
		}
	} else if os.IsNotExist(err) {
		f = excelize.NewFile()
		if err = f.SaveAs(path); err != nil {
			return nil, errors.Wrapf(err, "creating workbook %s", path)
		}
	} else {
		return nil, errors.Wrapf(err, "checking workbook %s", path)
	}
	return &Store{path: path, file: f}, nil
}

func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.file.Close()
}

func (s *Store) hasSheet(name string) bool {
	for _, n := range s.file.GetSheetList() {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Store) rows(name string) ([][]string, error) {
	if !s.hasSheet(name) {
		return nil, sheet.ErrTableNotFound
	}
	rows, err := s.file.GetRows(name)
	return rows, errors.Wrapf(err, "reading rows of %s", name)
}

func (s *Store) writeRow(name string, rowNum int, values []string, width int) error {
	for col := 0; col < width; col++ {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		var val string
		if col < len(values) {
			val = values[col]
		}
		if err = s.file.SetCellStr(name, cell, val); err != nil {
			return errors.Wrapf(err, "writing %s!%s", name, cell)
		}
	}
	return nil
}

func (s *Store) save() error {
	return errors.Wrap(s.file.Save(), "saving workbook")
}

func (s *Store) Tables(_ context.Context) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0)
	for _, n := range s.file.GetSheetList() {
		if rows, err := s.file.GetRows(n); err == nil && len(rows) > 0 {
			names = append(names, n)
		}
	}
	return names, nil
}

func (s *Store) Get(_ context.Context, name string) (*sheet.Table, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	rows, err := s.rows(name)
	if err != nil {
		return nil, err
	}
	t := &sheet.Table{Name: name}
	if len(rows) == 0 {
		return nil, sheet.ErrTableNotFound
	}
	t.Header = rows[0]
	t.Rows = rows[1:]
	return t, nil
}

func (s *Store) Ensure(_ context.Context, name string, header []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.hasSheet(name) {
		if _, err := s.file.NewSheet(name); err != nil {
			return errors.Wrapf(err, "creating sheet %s", name)
		}
	}
	rows, err := s.file.GetRows(name)
	if err != nil {
		return errors.Wrapf(err, "reading rows of %s", name)
	}

	var current []string
	if len(rows) > 0 {
		current = rows[0]
	}
	probe := sheet.Table{Header: current}
	missing := 0
	for _, h := range header {
		if probe.Column(h) < 0 {
			probe.Header = append(probe.Header, h)
			missing++
		}
	}
	if missing == 0 {
		return nil
	}
	if err = s.writeRow(name, 1, probe.Header, len(probe.Header)); err != nil {
		return err
	}

	// drop the blank sheet excelize creates with every new workbook
	if name != "Sheet1" && s.hasSheet("Sheet1") {
		if r, err := s.file.GetRows("Sheet1"); err == nil && len(r) == 0 {
			_ = s.file.DeleteSheet("Sheet1")
		}
	}
	return s.save()
}

func (s *Store) Append(_ context.Context, name string, row []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows, err := s.rows(name)
	if err != nil {
		return err
	}
	if err = s.writeRow(name, len(rows)+1, row, len(row)); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) UpdateRow(_ context.Context, name string, index int, row []string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows, err := s.rows(name)
	if err != nil {
		return err
	}
	if index < 0 || index+1 >= len(rows) {
		return sheet.ErrRowOutOfRange
	}
	width := len(row)
	if old := len(rows[index+1]); old > width {
		width = old
	}
	// +1 for the header, +1 since excelize rows are 1-based
	if err = s.writeRow(name, index+2, row, width); err != nil {
		return err
	}
	return s.save()
}

func (s *Store) UpdateCell(_ context.Context, name string, index, column int, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows, err := s.rows(name)
	if err != nil {
		return err
	}
	if index < 0 || index+1 >= len(rows) || column < 0 {
		return sheet.ErrRowOutOfRange
	}
	cell, err := excelize.CoordinatesToCellName(column+1, index+2)
	if err != nil {
		return errors.Wrap(err, "computing cell name")
	}
	if err = s.file.SetCellStr(name, cell, value); err != nil {
		return errors.Wrapf(err, "writing %s!%s", name, cell)
	}
	return s.save()
}

func (s *Store) Clear(_ context.Context, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows, err := s.rows(name)
	if err != nil {
		return err
	}
	for r := len(rows); r >= 2; r-- {
		if err = s.file.RemoveRow(name, r); err != nil {
			return errors.Wrapf(err, "removing row %d of %s", r, name)
		}
	}
	return s.save()
}
