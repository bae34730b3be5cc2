// Package gsheets stores canteen tables in the worksheets of a Google spreadsheet.
package gsheets

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/sheet"
)

const valueInput = "RAW"

type Store struct {
	svc           *sheets.Service
	spreadsheetID string
}

var _ sheet.Store = (*Store)(nil)

// credentials reads the service account JSON from the base64 setting first, then from the file.
func credentials(conf core.StoreConfig) ([]byte, error) {
	if conf.GCPBase64Creds != "" {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(conf.GCPBase64Creds))
		return data, errors.Wrap(err, "decoding base64 credentials")
	}
	data, err := os.ReadFile(conf.GCPCredsFile)
	return data, errors.Wrapf(err, "reading credentials file %s", conf.GCPCredsFile)
}

// Open authenticates with the service account and checks the spreadsheet can be read.
// The first attempt is retried once after conf.OpenRetryDelay.
func Open(ctx context.Context, conf core.StoreConfig, logger core.Logger) (*Store, error) {
	if conf.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	data, err := credentials(conf)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, errors.Wrap(err, "parsing credentials")
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets service")
	}

	s := &Store{svc: svc, spreadsheetID: conf.SpreadsheetID}
	if _, err = s.Tables(ctx); err != nil {
		logger.Warn(fmt.Sprintf("opening spreadsheet failed, retrying in %v", conf.OpenRetryDelay), err)
		time.Sleep(conf.OpenRetryDelay)
		if _, err = s.Tables(ctx); err != nil {
			return nil, errors.Wrap(err, "opening spreadsheet")
		}
	}
	return s, nil
}

func columnName(n int) string { // 1-based
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func (s *Store) values(ctx context.Context, name string) ([][]string, error) {
	names, err := s.Tables(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return nil, sheet.ErrTableNotFound
	}

	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quote(name)).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "reading values of %s", name)
	}
	rows := make([][]string, 0, len(vr.Values))
	for _, r := range vr.Values {
		row := make([]string, len(r))
		for i, c := range r {
			row[i] = fmt.Sprint(c)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) Tables(ctx context.Context) ([]string, error) {
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrap(err, "reading spreadsheet")
	}
	names := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			names = append(names, sh.Properties.Title)
		}
	}
	return names, nil
}

func (s *Store) Get(ctx context.Context, name string) (*sheet.Table, error) {
	rows, err := s.values(ctx, name)
	if err != nil {
		return nil, err
	}
	t := &sheet.Table{Name: name}
	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	return t, nil
}

func (s *Store) Ensure(ctx context.Context, name string, header []string) error {
	rows, err := s.values(ctx, name)
	if errors.Cause(err) == sheet.ErrTableNotFound {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: name}},
			}},
		}
		if _, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return errors.Wrapf(err, "adding sheet %s", name)
		}
		rows = nil
	} else if err != nil {
		return err
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
	rng := quote(name) + "!A1"
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(probe.Header)}}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).ValueInputOption(valueInput).Context(ctx).Do()
	return errors.Wrapf(err, "writing header of %s", name)
}

func (s *Store) Append(ctx context.Context, name string, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quote(name), vr).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return errors.Wrapf(err, "appending to %s", name)
}

func (s *Store) UpdateRow(ctx context.Context, name string, index int, row []string) error {
	if index < 0 {
		return sheet.ErrRowOutOfRange
	}
	rng := fmt.Sprintf("%s!A%d", quote(name), index+2)
	vr := &sheets.ValueRange{Values: [][]interface{}{toCells(row)}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).ValueInputOption(valueInput).Context(ctx).Do()
	return errors.Wrapf(err, "updating row %d of %s", index, name)
}

func (s *Store) UpdateCell(ctx context.Context, name string, index, column int, value string) error {
	if index < 0 || column < 0 {
		return sheet.ErrRowOutOfRange
	}
	rng := fmt.Sprintf("%s!%s%d", quote(name), columnName(column+1), index+2)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).ValueInputOption(valueInput).Context(ctx).Do()
	return errors.Wrapf(err, "updating %s", rng)
}

func (s *Store) Clear(ctx context.Context, name string) error {
	rng := quote(name) + "!A2:ZZ"
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return errors.Wrapf(err, "clearing %s", name)
}
