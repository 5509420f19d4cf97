package export

import (
	"fmt"
	"io"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const timeLayout = "2006-01-02 15:04"

var headers = []string{"ID", "Item", "Booker", "Email", "Start", "End", "Status"}

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BookingExporter renders booking listings as an XLSX workbook.
type BookingExporter struct {
	sheetName string
}

func NewBookingExporter(sheetName string) *BookingExporter {
	if sheetName == "" {
		sheetName = "Bookings"
	}
	return &BookingExporter{sheetName: sheetName}
}

// Write renders one row per booking in the given order and writes the workbook to w.
func (e *BookingExporter) Write(w io.Writer, title string, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(e.sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if e.sheetName != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	_ = f.SetCellValue(e.sheetName, "A1", title)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(e.sheetName, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(e.sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(e.sheetName, cell, h)
		_ = f.SetCellStyle(e.sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.ID,
			itemName(b),
			bookerName(b),
			bookerEmail(b),
			b.Start.UTC().Format(timeLayout),
			b.End.UTC().Format(timeLayout),
			string(b.Status),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(e.sheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style := statusStyle(f, b.Status); style != 0 {
			statusCell, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(e.sheetName, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(e.sheetName, "A", "A", 8)
	_ = f.SetColWidth(e.sheetName, "B", "D", 24)
	_ = f.SetColWidth(e.sheetName, "E", "G", 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func statusStyle(f *excelize.File, status models.BookingStatus) int {
	var color string
	switch status {
	case models.StatusApproved:
		color = "#C6EFCE"
	case models.StatusWaiting:
		color = "#FFEB9C"
	case models.StatusRejected, models.StatusCanceled:
		color = "#FFC7CE"
	default:
		return 0
	}
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0
	}
	return style
}

func itemName(b *models.Booking) string {
	if b.Item == nil {
		return fmt.Sprintf("#%d", b.ItemID)
	}
	return b.Item.Name
}

func bookerName(b *models.Booking) string {
	if b.Booker == nil {
		return fmt.Sprintf("#%d", b.BookerID)
	}
	return b.Booker.Name
}

func bookerEmail(b *models.Booking) string {
	if b.Booker == nil {
		return ""
	}
	return b.Booker.Email
}
