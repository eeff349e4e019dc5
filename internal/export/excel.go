// Package export renders booking reports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/hotelhub/service-booking/internal/application"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the generated workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const bookingsSheet = "Bookings"

var bookingColumns = []string{
	"Booking Number", "Booking ID", "Hotel ID", "Room ID", "Guest ID",
	"Check-in", "Check-out", "Nights", "Status", "Cancellation Type", "Cancellation Reason",
	"Total Price", "Currency", "Payment Method", "Created At",
}

// sheetWriter appends rows to one sheet of a workbook.
type sheetWriter struct {
	file  *excelize.File
	sheet string
	row   int
}

func newSheetWriter(name string) *sheetWriter {
	f := excelize.NewFile()
	// Excel limits sheet names to 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}
	_ = f.SetSheetName("Sheet1", name)
	return &sheetWriter{file: f, sheet: name, row: 1}
}

func (w *sheetWriter) writeHeader(columns []string) error {
	if err := w.writeRow(toCells(columns)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = w.file.SetCellStyle(w.sheet, start, end, style)
	}
	return nil
}

func (w *sheetWriter) writeRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", w.row, err)
	}
	w.row++
	return nil
}

// WriteBookings writes one row per booking to out as an .xlsx workbook.
func WriteBookings(out io.Writer, bookings []application.BookingDTO) error {
	w := newSheetWriter(bookingsSheet)
	defer func() { _ = w.file.Close() }()

	if err := w.writeHeader(bookingColumns); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := w.writeRow(bookingRow(b)); err != nil {
			return err
		}
	}
	_ = w.file.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func bookingRow(b application.BookingDTO) []interface{} {
	price, _ := b.TotalPrice.Float64()
	return []interface{}{
		b.BookingNumber,
		b.ID.String(),
		b.HotelID.String(),
		b.RoomID.String(),
		b.UserID.String(),
		b.CheckIn,
		b.CheckOut,
		b.Nights,
		b.Status,
		deref(b.CancellationType),
		deref(b.CancellationReason),
		price,
		b.Currency,
		deref(b.PaymentMethod),
		b.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func toCells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
