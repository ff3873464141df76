// Package export renders purchase reports as xlsx workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/application/port"
	"github.com/zosarillana/prs-be/internal/domain/entity"
)

// SheetName is the worksheet holding the report rows
const SheetName = "Purchase Reports"

// Headers are the column titles of the export sheet, one row per line item
var Headers = []string{
	"Series No", "Date Submitted", "Date Needed", "Department", "Purpose", "Requested By",
	"Item", "Description", "Quantity", "Unit", "Tag", "Item Status", "Remarks",
	"PR Status", "PO No", "PO Status", "Delivery Status",
}

// ExcelExporter implements port.ReportExporter with excelize
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new ExcelExporter
func NewExcelExporter(logger *zap.Logger) port.ReportExporter {
	return &ExcelExporter{logger: logger}
}

// Export writes one row per line item and returns the workbook bytes
func (e *ExcelExporter) Export(reports []*entity.PurchaseReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, r := range reports {
		for i := 0; i < r.ItemCount(); i++ {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := sw.SetRow(cell, itemRow(r, i)); err != nil {
				return nil, fmt.Errorf("failed to write report %d item %d: %w", r.ID, i, err)
			}
			row++
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Workbook rendered", zap.Int("reports", len(reports)), zap.Int("rows", row-2))
	return buf.Bytes(), nil
}

func itemRow(r *entity.PurchaseReport, i int) []interface{} {
	var qty interface{} = ""
	if i < len(r.Quantity) {
		f, _ := r.Quantity[i].Float64()
		qty = f
	}

	tag := ""
	if i < len(r.Tag) && r.Tag[i] != nil {
		tag = r.Tag[i].Description
		if r.Tag[i].Department != "" {
			tag = fmt.Sprintf("%s (%s)", tag, r.Tag[i].Department)
		}
	}

	po := ""
	if r.PoNo != nil {
		po = *r.PoNo
	}

	return []interface{}{
		r.SeriesNo,
		r.DateSubmitted.Format("2006-01-02"),
		r.DateNeeded.Format("2006-01-02"),
		r.Department,
		r.PrPurpose,
		r.CreatorName,
		i + 1,
		r.ItemDescription[i],
		qty,
		at(r.Unit, i),
		tag,
		string(atStatus(r.ItemStatus, i)),
		at(r.Remarks, i),
		string(r.PrStatus),
		po,
		string(r.PoStatus),
		string(r.DeliveryStatus),
	}
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func atStatus(s []entity.ItemStatus, i int) entity.ItemStatus {
	if i < len(s) {
		return s[i]
	}
	return ""
}

var _ port.ReportExporter = (*ExcelExporter)(nil)
