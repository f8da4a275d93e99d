package importer

import (
	"strings"

	"sitestock/internal"
	"sitestock/internal/util"
)

// FromExtractedItem shapes one analysis line into the working entity. The
// top-ranked candidate becomes the initial selection; with no candidates the
// entry starts unresolved and must be reassigned before it can be committed.
func FromExtractedItem(id string, item internal.ExtractedItem) internal.ParsedMaterial {
	parsed := internal.ParsedMaterial{
		ID:              id,
		ExtractedName:   item.ExtractedName,
		Quantity:        item.ExtractedQuantity,
		MatchCandidates: item.MatchCandidates,
	}
	if len(item.MatchCandidates) > 0 {
		top := item.MatchCandidates[0]
		parsed.Name = top.Name
		parsed.Unit = top.UnitName
		parsed.Category = top.CategoryName
		materialID := top.MaterialID
		parsed.MaterialID = &materialID
	}
	return parsed
}

// FromManualRow converts a staged manual row. A row only passes when name,
// quantity, unit and category are all filled in and the quantity parses as a
// number; everything else is reported invalid and dropped by the caller.
func FromManualRow(id string, row internal.ManualRow) (internal.ParsedMaterial, bool) {
	if strings.TrimSpace(row.Name) == "" ||
		strings.TrimSpace(row.Quantity) == "" ||
		strings.TrimSpace(row.Unit) == "" ||
		strings.TrimSpace(row.Category) == "" {
		return internal.ParsedMaterial{}, false
	}

	quantity, ok := util.ParseQuantity(row.Quantity)
	if !ok {
		return internal.ParsedMaterial{}, false
	}

	parsed := internal.ParsedMaterial{
		ID:            id,
		ExtractedName: row.Name,
		Name:          row.Name,
		Quantity:      quantity,
		Unit:          row.Unit,
		Category:      row.Category,
	}
	if row.MaterialID != nil {
		materialID := *row.MaterialID
		parsed.MaterialID = &materialID
	}
	return parsed, true
}
