package importer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"sitestock/internal"
)

var reSpaces = regexp.MustCompile(`\s+`)

// ReadManualRowsFile pre-fills the manual table from a supplier file. The
// rows keep their quantity as the raw cell text; validity is decided later
// at the SubmitManual gate, same as typed rows.
func ReadManualRowsFile(path string) ([]internal.ManualRow, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ParseManualRowsXLSX(blob)
	case ".html", ".htm":
		return ParseManualRowsHTML(blob)
	default:
		return nil, fmt.Errorf("unsupported manual staging file: %s", filepath.Base(path))
	}
}

func ParseManualRowsXLSX(content []byte) ([]internal.ManualRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := []internal.ManualRow{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if len(rows) == 0 {
			continue
		}

		nameIdx, qtyIdx, unitIdx, categoryIdx := -1, -1, -1, -1
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}
			if i < 3 && nameIdx < 0 {
				nameIdx, qtyIdx, unitIdx, categoryIdx = inferColumns(cells)
				if nameIdx >= 0 || qtyIdx >= 0 {
					continue
				}
			}
			if nameIdx < 0 {
				nameIdx, qtyIdx, unitIdx, categoryIdx = 0, 1, 2, 3
			}

			staged := internal.ManualRow{
				Name:     pickCell(cells, nameIdx),
				Quantity: pickCell(cells, qtyIdx),
				Unit:     pickCell(cells, unitIdx),
				Category: pickCell(cells, categoryIdx),
			}
			if staged.Name == "" {
				continue
			}
			out = append(out, staged)
		}
	}

	return out, nil
}

func ParseManualRowsHTML(content []byte) ([]internal.ManualRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	out := []internal.ManualRow{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, normalizeSpaces(cell.Text()))
		})
		nameIdx, qtyIdx, unitIdx, categoryIdx := inferColumns(headers)
		if nameIdx < 0 {
			nameIdx, qtyIdx, unitIdx, categoryIdx = 0, 1, 2, 3
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			cells := []string{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			row := internal.ManualRow{
				Name:     pickCell(cells, nameIdx),
				Quantity: pickCell(cells, qtyIdx),
				Unit:     pickCell(cells, unitIdx),
				Category: pickCell(cells, categoryIdx),
			}
			if row.Name == "" {
				return
			}
			out = append(out, row)
		})
	})

	return out, nil
}

func inferColumns(headers []string) (nameIdx, qtyIdx, unitIdx, categoryIdx int) {
	norm := make([]string, 0, len(headers))
	for _, h := range headers {
		norm = append(norm, strings.ToLower(h))
	}
	nameIdx = findHeaderIndex(norm, []string{"material", "name", "item", "description", "bezeichnung"})
	qtyIdx = findHeaderIndex(norm, []string{"qty", "quantity", "amount", "count", "menge"})
	unitIdx = findHeaderIndex(norm, []string{"unit", "uom", "einheit"})
	categoryIdx = findHeaderIndex(norm, []string{"category", "group", "kategorie"})
	return
}

func findHeaderIndex(headers []string, probes []string) int {
	for i, h := range headers {
		for _, probe := range probes {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, normalizeSpaces(c))
	}
	return out
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}
