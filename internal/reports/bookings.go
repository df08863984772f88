// Package reports renders back-office spreadsheets.
package reports

import (
	"fmt"
	"io"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/xuri/excelize/v2"
)

// BookingsSheet is the worksheet name of the bookings export.
const BookingsSheet = "Bookings"

// ContentTypeXLSX is served with exported workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bookingHeaders = []string{
	"ID", "Customer", "Product", "Start", "End", "Days", "Price per day", "Total", "Status", "Created",
}

// WriteBookings renders bookings as an XLSX workbook with one row per
// booking. Money columns hold exact major-unit decimals such as "1600.00".
func WriteBookings(w io.Writer, bookings []domain.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BookingsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(BookingsSheet, cell, header); err != nil {
			return fmt.Errorf("write header %s: %w", header, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(bookingHeaders), 1)
	if err := f.SetCellStyle(BookingsSheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, b := range bookings {
		row := []any{
			b.ID,
			b.CustomerID,
			b.ProductID,
			b.StartDate.Format(domain.DateLayout),
			b.EndDate.Format(domain.DateLayout),
			b.Days,
			majorUnits(b.PricePerDayCents),
			majorUnits(b.TotalCents),
			string(b.Status),
			b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(BookingsSheet, cell, &row); err != nil {
			return fmt.Errorf("write booking %s: %w", b.ID, err)
		}
	}

	if err := f.SetColWidth(BookingsSheet, "A", "C", 38); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func majorUnits(cents int64) string {
	sign := ""
	abs := uint64(cents)
	if cents < 0 {
		sign = "-"
		abs = uint64(-(cents + 1)) + 1
	}
	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}
