package importer

import (
	"testing"

	"sitestock/internal"
)

func TestFromExtractedItemSelectsTopCandidate(t *testing.T) {
	item := internal.ExtractedItem{
		ExtractedName:     "Zement CEM II 42,5",
		ExtractedQuantity: 12.5,
		MatchCandidates: []internal.MatchCandidate{
			{MaterialID: "m-1", Name: "Cement 42.5", UnitName: "kg", CategoryName: "Basic"},
			{MaterialID: "m-2", Name: "Cement 32.5", UnitName: "kg", CategoryName: "Basic"},
		},
	}

	parsed := FromExtractedItem("parsed-1", item)
	if parsed.ID != "parsed-1" || parsed.ExtractedName != "Zement CEM II 42,5" || parsed.Quantity != 12.5 {
		t.Fatalf("unexpected entry: %+v", parsed)
	}
	if parsed.MaterialID == nil || *parsed.MaterialID != "m-1" {
		t.Fatalf("top candidate not selected: %+v", parsed.MaterialID)
	}
	if parsed.Name != "Cement 42.5" || parsed.Unit != "kg" || parsed.Category != "Basic" {
		t.Fatalf("candidate fields not applied: %+v", parsed)
	}
	if len(parsed.MatchCandidates) != 2 {
		t.Fatalf("candidates must be kept for reassignment")
	}
	if !parsed.Resolvable() {
		t.Fatalf("entry with a selection must be resolvable")
	}
}

func TestFromExtractedItemWithoutCandidates(t *testing.T) {
	parsed := FromExtractedItem("parsed-2", internal.ExtractedItem{
		ExtractedName:     "Unbekanntes Material",
		ExtractedQuantity: 3,
	})
	if parsed.MaterialID != nil || parsed.Name != "" || parsed.Unit != "" || parsed.Category != "" {
		t.Fatalf("candidate-less entry must start unresolved: %+v", parsed)
	}
	if parsed.Resolvable() {
		t.Fatalf("unresolved entry must not be resolvable")
	}
}

func TestFromManualRow(t *testing.T) {
	tests := []struct {
		name  string
		row   internal.ManualRow
		valid bool
		qty   float64
	}{
		{"complete row", internal.ManualRow{Name: "Cement", Quantity: "10", Unit: "kg", Category: "Basic"}, true, 10},
		{"comma decimal", internal.ManualRow{Name: "Cement", Quantity: "12,5", Unit: "kg", Category: "Basic"}, true, 12.5},
		{"missing name", internal.ManualRow{Quantity: "10", Unit: "kg", Category: "Basic"}, false, 0},
		{"missing quantity", internal.ManualRow{Name: "Cement", Unit: "kg", Category: "Basic"}, false, 0},
		{"missing unit", internal.ManualRow{Name: "Cement", Quantity: "10", Category: "Basic"}, false, 0},
		{"missing category", internal.ManualRow{Name: "Cement", Quantity: "10", Unit: "kg"}, false, 0},
		{"whitespace only name", internal.ManualRow{Name: "   ", Quantity: "10", Unit: "kg", Category: "Basic"}, false, 0},
		{"non-numeric quantity", internal.ManualRow{Name: "Cement", Quantity: "ten", Unit: "kg", Category: "Basic"}, false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, ok := FromManualRow("manual-1", tc.row)
			if ok != tc.valid {
				t.Fatalf("valid=%v, want %v", ok, tc.valid)
			}
			if !tc.valid {
				return
			}
			if parsed.Quantity != tc.qty {
				t.Fatalf("quantity=%v, want %v", parsed.Quantity, tc.qty)
			}
			if parsed.ExtractedName != tc.row.Name || parsed.Name != tc.row.Name {
				t.Fatalf("name not carried: %+v", parsed)
			}
		})
	}
}

func TestFromManualRowCopiesMaterialID(t *testing.T) {
	id := "m-7"
	row := internal.ManualRow{Name: "Cement", Quantity: "10", Unit: "kg", Category: "Basic", MaterialID: &id}
	parsed, ok := FromManualRow("manual-1", row)
	if !ok {
		t.Fatal("row should be valid")
	}
	if parsed.MaterialID == nil || *parsed.MaterialID != "m-7" {
		t.Fatalf("materialId not carried: %+v", parsed.MaterialID)
	}
	if parsed.MaterialID == row.MaterialID {
		t.Fatalf("materialId pointer must be copied, not shared")
	}
}
