package stock

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ExportXLSX renders the current ledger into an Excel workbook with one
// sheet for materials and one for products.
func (s *Service) ExportXLSX(ctx context.Context, filter Filter) ([]byte, error) {
	overview, err := s.Overview(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	printer := message.NewPrinter(language.English)

	materialsSheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(materialsSheet, "Materials"); err != nil {
		return nil, err
	}
	header := []interface{}{"material_id", "material_name", "unit", "location", "qty"}
	if err := f.SetSheetRow("Materials", "A1", &header); err != nil {
		return nil, err
	}
	row := 2
	for _, it := range overview.MaterialStocks {
		cells := []interface{}{it.MaterialID, it.MaterialName, it.Unit, it.LocationName, it.Qty}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Materials", cell, &cells); err != nil {
			return nil, err
		}
		row++
	}
	totalCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nil, err
	}
	totals := []interface{}{"total", "", "", "", printer.Sprintf("%.1f", overview.Summary.TotalMaterials)}
	if err := f.SetSheetRow("Materials", totalCell, &totals); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet("Products"); err != nil {
		return nil, err
	}
	header = []interface{}{"product_id", "product_name", "location", "qty"}
	if err := f.SetSheetRow("Products", "A1", &header); err != nil {
		return nil, err
	}
	row = 2
	for _, it := range overview.ProductStocks {
		cells := []interface{}{it.ProductID, it.ProductName, it.LocationName, it.Qty}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow("Products", cell, &cells); err != nil {
			return nil, err
		}
		row++
	}
	totalCell, err = excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return nil, err
	}
	totals = []interface{}{"total", "", "", printer.Sprintf("%.1f", overview.Summary.TotalProducts)}
	if err := f.SetSheetRow("Products", totalCell, &totals); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("stock: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
