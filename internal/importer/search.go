package importer

import (
	"context"
	"strings"
)

// SetSearchQuery records a keystroke of the reassignment combobox. The
// request only fires after the settle delay passes with no further input,
// and a superseded query's results are never applied: each keystroke bumps
// the generation, and a result is dropped unless its generation is still
// current when it lands. In-flight calls are not cancelled, only discarded.
func (c *Controller) SetSearchQuery(ctx context.Context, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.SearchQuery = query
	c.searchGen++
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		c.state.SearchResults = nil
		c.state.SearchLoading = false
		return
	}

	gen := c.searchGen
	c.cancelSearch = c.scheduler.Schedule(c.settleDelay, func() {
		c.runSearch(ctx, gen, trimmed)
	})
}

// ClearSearch empties the shared search state. Called whenever a combobox
// closes so stale results cannot reappear on reopen.
func (c *Controller) ClearSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSearchLocked()
}

// OpenRowSearch marks one row's combobox as open. The search state is shared
// across the table, so only one row is meaningfully open at a time.
func (c *Controller) OpenRowSearch(rowID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.OpenSearchRow = rowID
}

func (c *Controller) CloseRowSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.OpenSearchRow = ""
	c.clearSearchLocked()
}

func (c *Controller) runSearch(ctx context.Context, gen int, query string) {
	c.mu.Lock()
	if gen != c.searchGen || c.searcher == nil {
		c.mu.Unlock()
		return
	}
	c.state.SearchLoading = true
	c.mu.Unlock()

	results, err := c.searcher.SearchMaterials(ctx, query)
	if err != nil {
		// Search failures degrade to zero results, never an error message.
		results = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		return
	}
	c.state.SearchResults = results
	c.state.SearchLoading = false
}

func (c *Controller) clearSearchLocked() {
	c.searchGen++
	if c.cancelSearch != nil {
		c.cancelSearch()
		c.cancelSearch = nil
	}
	c.state.SearchQuery = ""
	c.state.SearchResults = nil
	c.state.SearchLoading = false
}
