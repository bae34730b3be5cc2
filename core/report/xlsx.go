package report

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/slps/canteen/core/order"
)

const (
	summarySheet = "Summary"
	ordersSheet  = "Orders"
)

// WriteXLSX writes the report as a workbook: a summary sheet and one row per order.
func WriteXLSX(w io.Writer, r Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing workbook")
		}
	}()

	if err = f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "renaming summary sheet")
	}
	if _, err = f.NewSheet(ordersSheet); err != nil {
		return errors.Wrap(err, "adding orders sheet")
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"00A9E0"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	summary := [][]interface{}{
		{"Canteen orders report"},
		{"Period", r.Period.Title()},
		{"Generated", r.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		{"Total orders", r.Stats.Total},
		{"Pending", r.Stats.Pending},
		{"Delivered", r.Stats.Delivered},
		{"Unable", r.Stats.Unable},
		{"Cancelled", r.Stats.Cancelled},
		{"Revenue", r.Stats.Revenue},
		{"Average order", r.Stats.Average},
		{"Success rate (%)", r.Stats.SuccessRate},
		{},
		{"Date", "Orders", "Revenue"},
	}
	for _, d := range r.Days {
		summary = append(summary, []interface{}{d.Date, d.Total, d.Revenue})
	}
	if err = writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err = f.SetCellStyle(summarySheet, "A14", "C14", bold); err != nil {
		return errors.Wrap(err, "styling summary")
	}
	if err = f.SetColWidth(summarySheet, "A", "C", 20); err != nil {
		return errors.Wrap(err, "sizing summary columns")
	}

	rows := [][]interface{}{{"Order ID", "Timestamp", "User ID", "Name", "Class", "Items", "Total", "Status"}}
	for _, d := range r.Days {
		for _, o := range d.Orders {
			rows = append(rows, []interface{}{
				o.OrderID, o.Timestamp, o.UserID, o.UserName, o.UserClass,
				order.FormatItems(o.Items), o.TotalPrice, title(o.Status),
			})
		}
	}
	if err = writeRows(f, ordersSheet, rows); err != nil {
		return err
	}
	if err = f.SetCellStyle(ordersSheet, "A1", "H1", bold); err != nil {
		return errors.Wrap(err, "styling orders header")
	}
	if err = f.SetColWidth(ordersSheet, "A", "H", 18); err != nil {
		return errors.Wrap(err, "sizing order columns")
	}
	if err = f.SetColWidth(ordersSheet, "F", "F", 50); err != nil {
		return errors.Wrap(err, "sizing items column")
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeRows(f *excelize.File, sheetName string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.WithStack(err)
		}
		row := row
		if err = f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "writing %s!%s", sheetName, cell)
		}
	}
	return nil
}
