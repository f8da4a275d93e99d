package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sitestock/internal"
	"sitestock/internal/util"
)

// Phase is the derived top-level mode of the import workflow. It is computed
// from the state, never stored, so contradictory combinations (committing
// with nothing to commit, analyzing while editing) cannot be represented.
type Phase string

const (
	PhaseEmpty        Phase = "empty"
	PhaseFileStaged   Phase = "file_staged"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseReviewUpload Phase = "review_upload"
	PhaseReviewManual Phase = "review_manual"
	PhaseEditing      Phase = "editing"
	PhaseCommitting   Phase = "committing"
)

type EntrySource string

const (
	SourceUpload EntrySource = "upload"
	SourceManual EntrySource = "manual"
)

var ErrNoValidMaterials = errors.New("no valid materials to add")

type Analyzer interface {
	AnalyzeDeliveryNote(ctx context.Context, constructionID, filename string, content []byte) ([]internal.ExtractedItem, error)
}

type Searcher interface {
	SearchMaterials(ctx context.Context, query string) ([]internal.MaterialSearchResult, error)
}

type Committer interface {
	BulkCreateStorageItems(ctx context.Context, constructionID string, items []internal.StorageItemInput) error
}

type StagedFile struct {
	Name    string
	Content []byte
}

// State is one snapshot of the workflow. All fields are owned by the
// controller; Snapshot returns a deep copy.
type State struct {
	SelectedFile  *StagedFile
	Parsed        []internal.ParsedMaterial
	Manual        []internal.ManualRow
	EntrySource   EntrySource
	EditingID     string
	EditForm      internal.EditForm
	Processing    bool
	Saving        bool
	ErrorMessage  string
	SearchQuery   string
	SearchResults []internal.MaterialSearchResult
	SearchLoading bool
	OpenSearchRow string
}

func (s State) Phase() Phase {
	switch {
	case s.Saving:
		return PhaseCommitting
	case s.Processing:
		return PhaseAnalyzing
	case s.EditingID != "":
		return PhaseEditing
	case len(s.Parsed) > 0:
		if s.EntrySource == SourceManual {
			return PhaseReviewManual
		}
		return PhaseReviewUpload
	case s.SelectedFile != nil:
		return PhaseFileStaged
	default:
		return PhaseEmpty
	}
}

type Config struct {
	ConstructionID string
	Analyzer       Analyzer
	Searcher       Searcher
	Committer      Committer
	Scheduler      Scheduler
	SettleDelay    time.Duration
	Now            func() time.Time
	OnComplete     func()
}

// Controller owns all transient state of one delivery-note import session
// and drives the upload, manual-entry, review, edit and commit transitions.
// One controller per active session; the catalog itself is never mutated.
type Controller struct {
	mu             sync.Mutex
	constructionID string
	analyzer       Analyzer
	searcher       Searcher
	committer      Committer
	scheduler      Scheduler
	settleDelay    time.Duration
	now            func() time.Time
	onComplete     func()

	searchGen    int
	cancelSearch func()

	state State
}

func New(cfg Config) *Controller {
	c := &Controller{
		constructionID: cfg.ConstructionID,
		analyzer:       cfg.Analyzer,
		searcher:       cfg.Searcher,
		committer:      cfg.Committer,
		scheduler:      cfg.Scheduler,
		settleDelay:    cfg.SettleDelay,
		now:            cfg.Now,
		onComplete:     cfg.OnComplete,
	}
	if c.scheduler == nil {
		c.scheduler = NewTimerScheduler()
	}
	if c.settleDelay <= 0 {
		c.settleDelay = 300 * time.Millisecond
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.state.Manual = []internal.ManualRow{{}}
	return c
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyState(c.state)
}

// SelectFile stages a file for analysis. Ignored while an analysis is in
// flight. The presentation layer has already filtered file types; staging
// itself does not validate content.
func (c *Controller) SelectFile(name string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Processing {
		return
	}
	c.state.SelectedFile = &StagedFile{Name: name, Content: content}
}

// ProcessFile sends the staged file to document analysis and derives the
// review list from the result. No-op without a staged file or while a prior
// analysis is running. On failure the message is kept for display and the
// review list stays empty; the user retries by calling ProcessFile again.
func (c *Controller) ProcessFile(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Processing || c.state.SelectedFile == nil {
		c.mu.Unlock()
		return nil
	}
	c.state.Processing = true
	c.state.ErrorMessage = ""
	file := *c.state.SelectedFile
	c.mu.Unlock()

	items, err := c.analyzer.AnalyzeDeliveryNote(ctx, c.constructionID, file.Name, file.Content)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Processing = false
	if err != nil {
		c.state.ErrorMessage = err.Error()
		return err
	}

	ts := c.now().UnixMilli()
	parsed := make([]internal.ParsedMaterial, 0, len(items))
	for i, item := range items {
		parsed = append(parsed, FromExtractedItem(fmt.Sprintf("parsed-%d-%d", ts, i), item))
	}
	c.state.Parsed = parsed
	c.state.EntrySource = SourceUpload
	return nil
}

// StageManualRows replaces the manual table wholesale, e.g. with rows read
// from a supplier file. Rows still go through the SubmitManual gate.
func (c *Controller) StageManualRows(rows []internal.ManualRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(rows) == 0 {
		rows = []internal.ManualRow{{}}
	}
	c.state.Manual = copyManual(rows)
}

func (c *Controller) AddManualRow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Manual = append(c.state.Manual, internal.ManualRow{})
}

func (c *Controller) UpdateManualRow(index int, row internal.ManualRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Manual) {
		return
	}
	c.state.Manual[index] = row
}

func (c *Controller) RemoveManualRow(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Manual) {
		return
	}
	c.state.Manual = append(c.state.Manual[:index], c.state.Manual[index+1:]...)
	if len(c.state.Manual) == 0 {
		c.state.Manual = []internal.ManualRow{{}}
	}
}

// SubmitManual converts the valid manual rows into the review list. Invalid
// rows are discarded for good; with zero valid rows nothing happens.
func (c *Controller) SubmitManual() {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	parsed := make([]internal.ParsedMaterial, 0, len(c.state.Manual))
	for _, row := range c.state.Manual {
		entry, ok := FromManualRow(fmt.Sprintf("manual-%d-%d", ts, len(parsed)), row)
		if !ok {
			continue
		}
		parsed = append(parsed, entry)
	}
	if len(parsed) == 0 {
		return
	}

	c.state.Parsed = parsed
	c.state.EntrySource = SourceManual
	c.state.Manual = []internal.ManualRow{{}}
	c.state.ErrorMessage = ""
}

// Edit opens the edit form for one entry, overriding any edit already in
// progress. At most one entry is in edit mode at a time.
func (c *Controller) Edit(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.findParsedLocked(id)
	if entry == nil {
		return
	}
	form := internal.EditForm{
		Name:     entry.Name,
		Quantity: util.FormatQuantity(entry.Quantity),
		Unit:     entry.Unit,
		Category: entry.Category,
	}
	if entry.MaterialID != nil {
		materialID := *entry.MaterialID
		form.MaterialID = &materialID
	}
	c.state.EditForm = form
	c.state.EditingID = id
}

// UpdateEditForm replaces the draft. Ignored when nothing is being edited.
func (c *Controller) UpdateEditForm(form internal.EditForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.EditingID == "" {
		return
	}
	if form.MaterialID != nil {
		materialID := *form.MaterialID
		form.MaterialID = &materialID
	}
	c.state.EditForm = form
}

// SaveEdit writes the form back into the entry being edited. The quantity
// must parse as a number; otherwise the edit stays open with an error
// message. No cross-field consistency is enforced.
func (c *Controller) SaveEdit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.EditingID == "" {
		return nil
	}
	entry := c.findParsedLocked(c.state.EditingID)
	if entry == nil {
		c.state.EditingID = ""
		c.state.EditForm = internal.EditForm{}
		return nil
	}

	quantity, ok := util.ParseQuantity(c.state.EditForm.Quantity)
	if !ok {
		c.state.ErrorMessage = fmt.Sprintf("invalid quantity: %q", c.state.EditForm.Quantity)
		return errors.New(c.state.ErrorMessage)
	}

	entry.Name = c.state.EditForm.Name
	entry.Quantity = quantity
	entry.Unit = c.state.EditForm.Unit
	entry.Category = c.state.EditForm.Category
	if c.state.EditForm.MaterialID != nil {
		materialID := *c.state.EditForm.MaterialID
		entry.MaterialID = &materialID
	} else {
		entry.MaterialID = nil
	}

	c.state.EditingID = ""
	c.state.EditForm = internal.EditForm{}
	return nil
}

// CancelEdit discards the form without touching the entry.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.EditingID = ""
	c.state.EditForm = internal.EditForm{}
}

// ApplyCandidate assigns a candidate to one row, closes that row's combobox
// and clears the shared search state. Other rows are untouched.
func (c *Controller) ApplyCandidate(rowID string, candidate internal.MatchCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.findParsedLocked(rowID)
	if entry == nil {
		return
	}
	entry.Name = candidate.Name
	entry.Unit = candidate.UnitName
	entry.Category = candidate.CategoryName
	materialID := candidate.MaterialID
	entry.MaterialID = &materialID

	c.state.OpenSearchRow = ""
	c.clearSearchLocked()
}

// Delete removes an entry. No confirmation, no undo within the session.
func (c *Controller) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.state.Parsed[:0]
	for _, entry := range c.state.Parsed {
		if entry.ID != id {
			out = append(out, entry)
		}
	}
	c.state.Parsed = out
	if c.state.EditingID == id {
		c.state.EditingID = ""
		c.state.EditForm = internal.EditForm{}
	}
}

// AddToInventory commits every resolvable entry against the construction.
// With nothing resolvable it fails without calling the collaborator. On
// success all working state resets and onComplete fires exactly once; on
// failure everything is preserved so the user can retry.
func (c *Controller) AddToInventory(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Saving {
		c.mu.Unlock()
		return nil
	}

	valid := make([]internal.StorageItemInput, 0, len(c.state.Parsed))
	for _, entry := range c.state.Parsed {
		if !entry.Resolvable() {
			continue
		}
		valid = append(valid, internal.StorageItemInput{
			MaterialID:    *entry.MaterialID,
			QuantityValue: entry.Quantity,
		})
	}
	if len(valid) == 0 {
		c.state.ErrorMessage = ErrNoValidMaterials.Error()
		c.mu.Unlock()
		return ErrNoValidMaterials
	}

	c.state.Saving = true
	c.state.ErrorMessage = ""
	c.mu.Unlock()

	err := c.committer.BulkCreateStorageItems(ctx, c.constructionID, valid)

	c.mu.Lock()
	c.state.Saving = false
	if err != nil {
		c.state.ErrorMessage = err.Error()
		c.mu.Unlock()
		return err
	}
	c.resetWorkingStateLocked()
	onComplete := c.onComplete
	c.mu.Unlock()

	if onComplete != nil {
		onComplete()
	}
	return nil
}

// Reset is the explicit start-over escape hatch: all in-progress work is
// dropped without any remote call.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetWorkingStateLocked()
}

func (c *Controller) resetWorkingStateLocked() {
	c.state.Parsed = nil
	c.state.SelectedFile = nil
	c.state.Manual = []internal.ManualRow{{}}
	c.state.EntrySource = ""
	c.state.EditingID = ""
	c.state.EditForm = internal.EditForm{}
	c.state.ErrorMessage = ""
	c.state.OpenSearchRow = ""
	c.clearSearchLocked()
}

func (c *Controller) findParsedLocked(id string) *internal.ParsedMaterial {
	for i := range c.state.Parsed {
		if c.state.Parsed[i].ID == id {
			return &c.state.Parsed[i]
		}
	}
	return nil
}

func copyState(s State) State {
	out := s
	if s.SelectedFile != nil {
		file := *s.SelectedFile
		out.SelectedFile = &file
	}
	out.Parsed = copyParsed(s.Parsed)
	out.Manual = copyManual(s.Manual)
	out.SearchResults = append([]internal.MaterialSearchResult(nil), s.SearchResults...)
	if s.EditForm.MaterialID != nil {
		materialID := *s.EditForm.MaterialID
		out.EditForm.MaterialID = &materialID
	}
	return out
}

func copyParsed(entries []internal.ParsedMaterial) []internal.ParsedMaterial {
	out := make([]internal.ParsedMaterial, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if entry.MaterialID != nil {
			materialID := *entry.MaterialID
			out[i].MaterialID = &materialID
		}
		out[i].MatchCandidates = append([]internal.MatchCandidate(nil), entry.MatchCandidates...)
	}
	return out
}

func copyManual(rows []internal.ManualRow) []internal.ManualRow {
	out := make([]internal.ManualRow, len(rows))
	for i, row := range rows {
		out[i] = row
		if row.MaterialID != nil {
			materialID := *row.MaterialID
			out[i].MaterialID = &materialID
		}
	}
	return out
}
