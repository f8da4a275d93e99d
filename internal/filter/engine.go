package filter

import (
	"context"
	"sort"
	"strings"

	"sitestock/internal"
)

// Source supplies the item collection after its upstream cache has been
// invalidated.
type Source interface {
	Invalidate(ctx context.Context) ([]internal.Material, error)
}

// Engine filters an in-memory material collection by free-text search and
// category-set membership. Filter state is independent of the collection:
// swapping the items never resets the filters.
type Engine struct {
	source             Source
	items              []internal.Material
	searchQuery        string
	selectedCategories map[string]struct{}
	reloading          bool
}

func NewEngine(source Source) *Engine {
	return &Engine{
		source:             source,
		selectedCategories: map[string]struct{}{},
	}
}

func (e *Engine) SetItems(items []internal.Material) {
	e.items = items
}

// SetSearchQuery replaces the search text. Empty string means no search
// filter; no other validation.
func (e *Engine) SetSearchQuery(query string) {
	e.searchQuery = query
}

// ToggleCategory adds the category to the selected set, or removes it when
// already present. An empty id is ignored.
func (e *Engine) ToggleCategory(categoryID string) {
	if categoryID == "" {
		return
	}
	if _, ok := e.selectedCategories[categoryID]; ok {
		delete(e.selectedCategories, categoryID)
		return
	}
	e.selectedCategories[categoryID] = struct{}{}
}

func (e *Engine) ClearCategoryFilters() {
	e.selectedCategories = map[string]struct{}{}
}

func (e *Engine) SearchQuery() string {
	return e.searchQuery
}

func (e *Engine) SelectedCategories() []string {
	out := make([]string, 0, len(e.selectedCategories))
	for id := range e.selectedCategories {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FilteredItems recomputes the filtered subset from the current items and
// filter state. The result preserves the input order.
func (e *Engine) FilteredItems() []internal.Material {
	query := strings.ToLower(e.searchQuery)
	out := make([]internal.Material, 0, len(e.items))
	for _, item := range e.items {
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		if len(e.selectedCategories) > 0 {
			if _, ok := e.selectedCategories[item.CategoryID]; !ok {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func (e *Engine) IsReloading() bool {
	return e.reloading
}

// Reload invalidates the upstream cache and swaps in the fresh collection.
// Filter state is untouched; on failure the previous items stay in place.
func (e *Engine) Reload(ctx context.Context) error {
	if e.source == nil {
		return nil
	}
	e.reloading = true
	defer func() { e.reloading = false }()

	items, err := e.source.Invalidate(ctx)
	if err != nil {
		return err
	}
	e.items = items
	return nil
}
