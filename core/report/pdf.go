package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core/order"
)

// brand colors
var (
	primaryBlue    = [3]int{0, 169, 224}
	primaryMagenta = [3]int{240, 0, 184}
	darkText       = [3]int{31, 41, 55}
	lightBg        = [3]int{240, 249, 252}
)

var orderColumns = []struct {
	title string
	width float64
}{
	{"#", 14}, {"Time", 22}, {"Name", 38}, {"Class", 20}, {"Items", 58}, {"Total", 22}, {"Status", 22},
}

// WritePDF renders the report on A4 pages.
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(primaryBlue[0], primaryBlue[1], primaryBlue[2])
	pdf.CellFormat(0, 12, "CANTEEN ORDERS REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(primaryMagenta[0], primaryMagenta[1], primaryMagenta[2])
	pdf.CellFormat(0, 8, "Period: "+strings.ToUpper(r.Period.Title()), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 6, "Generated: "+r.GeneratedAt.Format("January 02, 2006 at 03:04 PM"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writeSummary(pdf, r.Stats)
	if len(r.Popular) > 0 {
		writePopular(pdf, tr, r.Popular)
	}

	if len(r.Days) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(darkText[0], darkText[1], darkText[2])
		pdf.CellFormat(0, 10, "No orders found.", "", 1, "C", false, 0, "")
	}
	for _, day := range r.Days {
		writeDay(pdf, tr, day)
	}

	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "rendering pdf")
	}
	return errors.Wrap(pdf.Output(w), "writing pdf")
}

func writeSummary(pdf *fpdf.Fpdf, s order.Stats) {
	rows := [][2]string{
		{"Total orders", fmt.Sprint(s.Total)},
		{"Pending", fmt.Sprint(s.Pending)},
		{"Delivered", fmt.Sprint(s.Delivered)},
		{"Unable", fmt.Sprint(s.Unable)},
		{"Cancelled", fmt.Sprint(s.Cancelled)},
		{"Revenue", money(s.Revenue)},
		{"Average order", money(s.Average)},
		{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
	}
	sectionTitle(pdf, "Summary")
	pdf.SetFont("Helvetica", "", 10)
	for i, row := range rows {
		pdf.SetFillColor(lightBg[0], lightBg[1], lightBg[2])
		pdf.SetTextColor(darkText[0], darkText[1], darkText[2])
		fill := i%2 == 0
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", fill, 0, "")
		pdf.CellFormat(40, 7, row[1], "1", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)
}

func writePopular(pdf *fpdf.Fpdf, tr func(string) string, items []order.ItemCount) {
	sectionTitle(pdf, "Most ordered")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(darkText[0], darkText[1], darkText[2])
	for i, it := range items {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%d. %s (%d)", i+1, it.Name, it.Quantity)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func writeDay(pdf *fpdf.Fpdf, tr func(string) string, day Day) {
	sectionTitle(pdf, fmt.Sprintf("%s  -  %d orders  -  %s", day.Date, day.Total, money(day.Revenue)))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(primaryBlue[0], primaryBlue[1], primaryBlue[2])
	pdf.SetTextColor(255, 255, 255)
	for _, c := range orderColumns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(darkText[0], darkText[1], darkText[2])
	pdf.SetFillColor(lightBg[0], lightBg[1], lightBg[2])
	for i, o := range day.Orders {
		clock := ""
		if !o.CreatedAt.IsZero() {
			clock = o.CreatedAt.Format("15:04")
		}
		cells := []string{
			o.OrderID, clock, o.UserName, o.UserClass,
			order.FormatItems(o.Items), money(o.TotalPrice), title(o.Status),
		}
		fill := i%2 == 1
		for j, c := range orderColumns {
			pdf.CellFormat(c.width, 6, fit(pdf, tr, cells[j], c.width-2), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(primaryMagenta[0], primaryMagenta[1], primaryMagenta[2])
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

// fit translates s and shortens it with an ellipsis until it fits in width.
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if pdf.GetStringWidth(tr(s)) <= width {
		return tr(s)
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(tr(string(runes)+"...")) > width {
		runes = runes[:len(runes)-1]
	}
	return tr(string(runes) + "...")
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// money uses "Rs." since the core PDF fonts have no rupee sign.
func money(f float64) string {
	return fmt.Sprintf("Rs. %.2f", f)
}
