// Package export writes review-table snapshots to disk so a site manager can
// keep a record of what was reconciled before committing.
package export

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sitestock/internal"
)

func WriteReviewXLSX(entries []internal.ParsedMaterial, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"extracted_name", "material_name", "quantity", "unit", "category",
		"material_id", "status", "candidate_count",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, entry := range entries {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		status := "unresolved"
		if entry.Resolvable() {
			status = "resolved"
		}

		set(1, entry.ExtractedName)
		set(2, entry.Name)
		set(3, entry.Quantity)
		set(4, entry.Unit)
		set(5, entry.Category)
		set(6, derefString(entry.MaterialID))
		set(7, status)
		set(8, len(entry.MatchCandidates))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
