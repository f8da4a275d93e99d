package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"sitestock/internal"
)

func TestWriteReviewXLSX(t *testing.T) {
	id := "m-1"
	entries := []internal.ParsedMaterial{
		{
			ID:            "parsed-1",
			ExtractedName: "Zement CEM II",
			Name:          "Cement 32.5",
			Quantity:      12.5,
			Unit:          "kg",
			Category:      "Basic",
			MaterialID:    &id,
			MatchCandidates: []internal.MatchCandidate{
				{MaterialID: "m-1", Name: "Cement 32.5"},
			},
		},
		{
			ID:            "parsed-2",
			ExtractedName: "Unbekanntes Material",
			Quantity:      3,
		},
	}

	path := filepath.Join(t.TempDir(), "out", "review.xlsx")
	if err := WriteReviewXLSX(entries, path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][0] != "extracted_name" || rows[0][6] != "status" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "Zement CEM II" || rows[1][1] != "Cement 32.5" || rows[1][5] != "m-1" || rows[1][6] != "resolved" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
	if rows[2][6] != "unresolved" {
		t.Fatalf("unexpected row: %v", rows[2])
	}
}
