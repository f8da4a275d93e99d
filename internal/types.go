package internal

// Material is an entry of the remote catalog. The catalog owns it; this
// module never mutates materials.
type Material struct {
	MaterialID   string `json:"materialId"`
	Name         string `json:"name"`
	UnitName     string `json:"unitName"`
	CategoryName string `json:"categoryName"`
	CategoryID   string `json:"categoryId"`
	UnitID       string `json:"unitId"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Unit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Construction struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MaterialSearchResult struct {
	MaterialID   string `json:"materialId"`
	Name         string `json:"name"`
	UnitName     string `json:"unitName"`
	CategoryName string `json:"categoryName"`
}

// MatchCandidate is one ranked suggestion for an extracted line. Index 0 is
// the best match.
type MatchCandidate struct {
	MaterialID   string `json:"materialId"`
	Name         string `json:"name"`
	UnitName     string `json:"unitName"`
	CategoryName string `json:"categoryName"`
}

// ExtractedItem is one line detected by the remote document analysis.
type ExtractedItem struct {
	ExtractedName     string           `json:"extractedName"`
	ExtractedQuantity float64          `json:"extractedQuantity"`
	MatchCandidates   []MatchCandidate `json:"matchCandidates"`
}

// ParsedMaterial is the working entity of the import workflow. ExtractedName
// keeps the original document text even after the user reassigns the entry.
// An entry is eligible for commit iff MaterialID is non-nil.
type ParsedMaterial struct {
	ID              string
	ExtractedName   string
	Name            string
	Quantity        float64
	Unit            string
	Category        string
	MaterialID      *string
	MatchCandidates []MatchCandidate
}

func (p ParsedMaterial) Resolvable() bool {
	return p.MaterialID != nil
}

// ManualRow is a staging row of the manual-entry path. Quantity stays a raw
// string until the row passes the submission gate.
type ManualRow struct {
	Name       string
	Quantity   string
	Unit       string
	Category   string
	MaterialID *string
}

// EditForm is a scratch copy of one ParsedMaterial's editable fields.
type EditForm struct {
	Name       string
	Quantity   string
	Unit       string
	Category   string
	MaterialID *string
}

type StorageItemInput struct {
	MaterialID    string  `json:"materialId"`
	QuantityValue float64 `json:"quantityValue"`
}

type ImportSession struct {
	ID             int
	ConstructionID string
	Source         string
	ItemCount      int
	CreatedAt      string
}

type CommittedItem struct {
	MaterialID    string
	ExtractedName string
	Name          string
	QuantityValue float64
}
