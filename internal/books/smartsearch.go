package books

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lexysoft/books-cli/internal/logger"
)

// Timing for the input debounce and the blur grace period.
const (
	debounceInterval = 300 * time.Millisecond
	blurGrace        = 200 * time.Millisecond
)

// allItemsKey is the cache sentinel for the unfiltered record set.
const allItemsKey = "__all__"

// createMinChars is the minimum typed length before the create affordance is
// offered.
const createMinChars = 2

const defaultMaxResults = 15

// Panel styles
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, true, true).
			BorderForeground(lipgloss.Color("#444444"))

	optionActiveStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#26374A")).
				Bold(true)

	optionMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD866")).
			Bold(true)

	createOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5EA1FF")).
				Bold(true)

	balancePosStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	balanceNegStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))

	panelMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	panelErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444"))
)

// panelState is the suggestion panel's state machine.
type panelState int

const (
	panelClosed panelState = iota
	panelLoading
	panelResults
	panelCreate
	panelError
)

// Binding declares one smart-search field wiring. The host resolves bindings
// once at startup instead of scanning markup for ambient configuration.
type Binding struct {
	Field        string // form field name, conventionally "<hidden>_search"
	SearchPath   string
	CreatePath   string
	Placeholder  string
	AllowCreate  bool
	MinLength    int
	MaxResults   int
	DisplayField string
	ValueField   string
}

// SelectionMsg is emitted when the user picks a result. It is the sole
// coupling point between a SmartSearch field and the rest of the form.
type SelectionMsg struct {
	Field string
	Item  ResultItem
}

// CreateFailedMsg is emitted when inline record creation fails; the host is
// expected to surface it to the user. The panel stays open for retry.
type CreateFailedMsg struct {
	Field string
	Err   error
}

// Internal messages; every one carries the owning field name so multiple
// instances in one program do not cross-talk.
type (
	debounceElapsedMsg struct {
		field string
		seq   int
	}

	searchResultsMsg struct {
		field string
		seq   int
		query string
		all   bool
		items []ResultItem
		err   error
	}

	recordCreatedMsg struct {
		field string
		item  ResultItem
		err   error
	}

	blurElapsedMsg struct {
		field string
		seq   int
	}
)

// SmartSearch is a debounced remote-search autocomplete bound to one text
// input. It owns a per-instance result cache and the suggestion panel state.
type SmartSearch struct {
	Input textinput.Model

	field  string
	source Searcher
	opts   Binding

	state    panelState
	results  []ResultItem
	query    string // query the current panel was rendered for
	errText  string
	selected int // highlighted row, -1 = none

	selectedID string
	cache      map[string][]ResultItem

	debounceSeq int
	fetchSeq    int
	blurSeq     int
	hover       bool

	anchorX, anchorY int
	width            int

	log *log.Logger
}

// NewSmartSearch builds a widget from a binding. Native input suggestions are
// irrelevant in a terminal, so only the placeholder is carried over.
func NewSmartSearch(binding Binding, source Searcher) SmartSearch {
	if binding.MaxResults <= 0 {
		binding.MaxResults = defaultMaxResults
	}
	if binding.Placeholder == "" {
		binding.Placeholder = "Type to search..."
	}
	if binding.DisplayField == "" {
		binding.DisplayField = "name"
	}
	if binding.ValueField == "" {
		binding.ValueField = "id"
	}

	input := textinput.New()
	input.Placeholder = binding.Placeholder

	return SmartSearch{
		Input:    input,
		field:    binding.Field,
		source:   source,
		opts:     binding,
		state:    panelClosed,
		selected: -1,
		cache:    make(map[string][]ResultItem),
		width:    48,
		log:      logger.New("smartsearch"),
	}
}

// Field returns the bound form field name.
func (s SmartSearch) Field() string { return s.field }

// HiddenField returns the companion identifier field name, i.e. the bound
// field name with the conventional search suffix stripped.
func (s SmartSearch) HiddenField() string {
	return strings.TrimSuffix(s.field, "_search")
}

// SelectedID returns the identifier of the last selected record, or "".
func (s SmartSearch) SelectedID() string { return s.selectedID }

// Open reports whether the suggestion panel is visible.
func (s SmartSearch) Open() bool { return s.state != panelClosed }

// SelectedIndex returns the highlighted row index (-1 = none).
func (s SmartSearch) SelectedIndex() int { return s.selected }

// SetWidth sets the rendered width of the input and panel.
func (s *SmartSearch) SetWidth(w int) {
	s.width = w
	s.Input.Width = w - 4
}

// SetAnchor records the widget's top-left screen position for mouse
// hit-testing.
func (s *SmartSearch) SetAnchor(x, y int) {
	s.anchorX = x
	s.anchorY = y
}

// SetHover marks whether the pointer is over the panel; while set, the blur
// grace timer will not close it.
func (s *SmartSearch) SetHover(hover bool) { s.hover = hover }

// Focus gives the input focus and reopens suggestions for the current value.
func (s *SmartSearch) Focus() tea.Cmd {
	s.Input.Focus()

	query := strings.TrimSpace(s.Input.Value())
	if query == "" {
		return s.loadAll()
	}
	return s.performSearch(query)
}

// Blur removes focus and closes the panel after a short grace period, leaving
// time for a click on a suggestion to land first.
func (s *SmartSearch) Blur() tea.Cmd {
	s.Input.Blur()
	s.blurSeq++
	seq := s.blurSeq
	field := s.field
	return tea.Tick(blurGrace, func(time.Time) tea.Msg {
		return blurElapsedMsg{field: field, seq: seq}
	})
}

// Dismiss closes the panel unconditionally (the click-away path).
func (s *SmartSearch) Dismiss() {
	s.closePanel()
}

// Update advances the widget state machine.
func (s SmartSearch) Update(msg tea.Msg) (SmartSearch, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return s.handleKey(msg)

	case tea.MouseMsg:
		return s.handleMouse(msg)

	case debounceElapsedMsg:
		if msg.field != s.field || msg.seq != s.debounceSeq {
			return s, nil
		}
		cmd := s.evaluateInput()
		return s, cmd

	case searchResultsMsg:
		if msg.field != s.field {
			return s, nil
		}
		// A newer fetch supersedes this one; drop the stale response.
		if msg.seq != s.fetchSeq {
			return s, nil
		}
		if msg.err != nil {
			s.log.Error("search failed", "field", s.field, "err", msg.err)
			s.state = panelError
			s.errText = "Search failed. Please try again."
			if msg.all {
				s.errText = "Failed to load items."
			}
			s.selected = -1
			return s, nil
		}
		key := allItemsKey
		if !msg.all {
			key = strings.ToLower(msg.query)
		}
		s.cache[key] = msg.items
		s.showResults(msg.items, msg.query)
		return s, nil

	case recordCreatedMsg:
		if msg.field != s.field {
			return s, nil
		}
		if msg.err != nil {
			s.log.Error("create failed", "field", s.field, "err", msg.err)
			err := msg.err
			field := s.field
			return s, func() tea.Msg { return CreateFailedMsg{Field: field, Err: err} }
		}
		// New record invalidates everything cached so later searches see it.
		s.cache = make(map[string][]ResultItem)
		return s.selectItem(msg.item)

	case blurElapsedMsg:
		if msg.field != s.field || msg.seq != s.blurSeq {
			return s, nil
		}
		if !s.hover {
			s.closePanel()
		}
		return s, nil
	}

	// Cursor blink and other component messages go straight to the input.
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

func (s SmartSearch) handleKey(msg tea.KeyMsg) (SmartSearch, tea.Cmd) {
	if !s.Input.Focused() {
		return s, nil
	}

	if s.Open() {
		switch msg.String() {
		case "down":
			if s.selected < s.selectableCount()-1 {
				s.selected++
			}
			return s, nil
		case "up":
			if s.selected > -1 {
				s.selected--
			}
			return s, nil
		case "enter":
			if s.selected >= 0 && s.selected < s.selectableCount() {
				return s.selectItem(s.results[s.selected])
			}
			return s, nil
		case "esc":
			s.closePanel()
			return s, nil
		}
	}

	before := s.Input.Value()
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	if s.Input.Value() == before {
		return s, cmd
	}

	// Each keystroke supersedes the previous pending debounce timer.
	s.debounceSeq++
	seq := s.debounceSeq
	field := s.field
	return s, tea.Batch(cmd, tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return debounceElapsedMsg{field: field, seq: seq}
	}))
}

func (s SmartSearch) handleMouse(msg tea.MouseMsg) (SmartSearch, tea.Cmd) {
	if !s.Open() {
		return s, nil
	}

	row := s.hitRow(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionMotion:
		s.hover = row >= 0
		if row >= 0 {
			s.selected = row
		}
		return s, nil

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return s, nil
		}
		if row < 0 {
			// Anything outside the input and the panel dismisses it.
			if !s.hitInput(msg.X, msg.Y) {
				s.closePanel()
			}
			return s, nil
		}
		if row < s.selectableCount() {
			return s.selectItem(s.results[row])
		}
		if s.hasCreateRow() && row == s.selectableCount() {
			return s, s.createNew()
		}
	}

	return s, nil
}

// evaluateInput runs after the debounce quiet period.
func (s *SmartSearch) evaluateInput() tea.Cmd {
	query := strings.TrimSpace(s.Input.Value())

	if query == "" {
		return s.loadAll()
	}
	if utf8.RuneCountInString(query) < s.opts.MinLength {
		s.closePanel()
		return nil
	}
	return s.performSearch(query)
}

// performSearch consults the cache before issuing a fetch.
func (s *SmartSearch) performSearch(query string) tea.Cmd {
	key := strings.ToLower(query)
	if cached, ok := s.cache[key]; ok {
		s.showResults(cached, query)
		return nil
	}

	s.state = panelLoading
	s.selected = -1
	s.fetchSeq++
	seq := s.fetchSeq
	field := s.field
	source := s.source
	limit := s.opts.MaxResults
	return func() tea.Msg {
		items, err := source.Search(context.Background(), query, limit)
		return searchResultsMsg{field: field, seq: seq, query: query, items: items, err: err}
	}
}

// loadAll fetches the unfiltered set, cached under the sentinel key. Its
// limit is fixed and independent of MaxResults.
func (s *SmartSearch) loadAll() tea.Cmd {
	if cached, ok := s.cache[allItemsKey]; ok {
		s.showResults(cached, "")
		return nil
	}

	s.state = panelLoading
	s.selected = -1
	s.fetchSeq++
	seq := s.fetchSeq
	field := s.field
	source := s.source
	return func() tea.Msg {
		items, err := source.All(context.Background(), allItemsLimit)
		return searchResultsMsg{field: field, seq: seq, all: true, items: items, err: err}
	}
}

// showResults rebuilds the panel. The highlight index always resets.
func (s *SmartSearch) showResults(items []ResultItem, query string) {
	s.results = items
	s.query = query
	s.selected = -1
	s.errText = ""

	if len(items) == 0 && s.canCreate(query) {
		s.state = panelCreate
		return
	}
	s.state = panelResults
}

func (s *SmartSearch) closePanel() {
	s.state = panelClosed
	s.selected = -1
	s.hover = false
}

func (s SmartSearch) canCreate(query string) bool {
	return s.opts.AllowCreate && utf8.RuneCountInString(query) >= createMinChars
}

// hasCreateRow reports whether a create affordance is rendered after the real
// results.
func (s SmartSearch) hasCreateRow() bool {
	switch s.state {
	case panelCreate:
		return true
	case panelResults:
		return len(s.results) > 0 && s.canCreate(s.query)
	}
	return false
}

// selectableCount is the number of real (non-create) rows shown.
func (s SmartSearch) selectableCount() int {
	if s.state != panelResults {
		return 0
	}
	if len(s.results) > s.opts.MaxResults {
		return s.opts.MaxResults
	}
	return len(s.results)
}

// selectItem writes the choice back into the input and notifies the host.
func (s SmartSearch) selectItem(item ResultItem) (SmartSearch, tea.Cmd) {
	s.Input.SetValue(item.Display(s.opts.DisplayField))
	s.Input.CursorEnd()
	s.selectedID = item.Value(s.opts.ValueField)
	s.closePanel()

	field := s.field
	return s, func() tea.Msg {
		return SelectionMsg{Field: field, Item: item}
	}
}

// createNew posts the typed text to the create endpoint.
func (s SmartSearch) createNew() tea.Cmd {
	name := strings.TrimSpace(s.Input.Value())
	if name == "" {
		return nil
	}

	field := s.field
	source := s.source
	return func() tea.Msg {
		item, err := source.Create(context.Background(), name)
		return recordCreatedMsg{field: field, item: item, err: err}
	}
}

// View renders the input and, when open, the suggestion panel beneath it.
func (s SmartSearch) View() string {
	var b strings.Builder
	b.WriteString(s.Input.View())

	if !s.Open() {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(panelStyle.Width(s.width).Render(s.renderPanel()))
	return b.String()
}

func (s SmartSearch) renderPanel() string {
	switch s.state {
	case panelLoading:
		return panelMsgStyle.Render("Searching...")
	case panelError:
		return panelErrStyle.Render("⚠ " + s.errText)
	case panelCreate:
		return s.renderCreateRow(false)
	}

	if len(s.results) == 0 {
		return panelMsgStyle.Render("No results found")
	}

	var rows []string
	for i := 0; i < s.selectableCount(); i++ {
		rows = append(rows, s.renderOption(s.results[i], i == s.selected))
	}
	if s.hasCreateRow() {
		rows = append(rows, s.renderCreateRow(s.selected == s.selectableCount()))
	}
	return strings.Join(rows, "\n")
}

func (s SmartSearch) renderOption(item ResultItem, active bool) string {
	var b strings.Builder

	name := item.Display(s.opts.DisplayField)
	b.WriteString(highlightMatch(name, s.query))

	var meta []string
	if item.Email != "" {
		meta = append(meta, item.Email)
	}
	if item.Phone != "" {
		meta = append(meta, item.Phone)
	}
	if item.Company != "" {
		meta = append(meta, item.Company)
	}
	if item.Type != "" {
		meta = append(meta, item.Type)
	}
	if len(meta) > 0 {
		b.WriteString("\n  " + optionMetaStyle.Render(strings.Join(meta, " • ")))
	}

	if item.Balance != nil {
		style := balancePosStyle
		if *item.Balance < 0 {
			style = balanceNegStyle
		}
		b.WriteString("\n  " + style.Render(fmt.Sprintf("Balance: %.2f", *item.Balance)))
	}

	row := b.String()
	if active {
		return optionActiveStyle.Render(row)
	}
	return row
}

func (s SmartSearch) renderCreateRow(active bool) string {
	row := createOptionStyle.Render(fmt.Sprintf("➕ Create new: %q", strings.TrimSpace(s.Input.Value())))
	if active {
		return optionActiveStyle.Render(row)
	}
	return row
}

// rowHeights returns the rendered line count per panel row, for hit-testing.
func (s SmartSearch) rowHeights() []int {
	switch s.state {
	case panelCreate:
		return []int{1}
	case panelResults:
	default:
		return nil
	}

	if len(s.results) == 0 {
		return nil
	}

	var heights []int
	for i := 0; i < s.selectableCount(); i++ {
		item := s.results[i]
		h := 1
		if item.Email != "" || item.Phone != "" || item.Company != "" || item.Type != "" {
			h++
		}
		if item.Balance != nil {
			h++
		}
		heights = append(heights, h)
	}
	if s.hasCreateRow() {
		heights = append(heights, 1)
	}
	return heights
}

// hitRow maps a screen position to a panel row index, -1 if outside.
func (s SmartSearch) hitRow(x, y int) int {
	if x < s.anchorX || x >= s.anchorX+s.width {
		return -1
	}

	// Panel body starts below the input line and the top border.
	line := y - (s.anchorY + 2)
	if line < 0 {
		return -1
	}

	for i, h := range s.rowHeights() {
		if line < h {
			return i
		}
		line -= h
	}
	return -1
}

func (s SmartSearch) hitInput(x, y int) bool {
	return y == s.anchorY && x >= s.anchorX && x < s.anchorX+s.width
}

// highlightMatch emphasizes every case-insensitive occurrence of query in
// text. The query is matched literally, never as a pattern. The scan is
// rune-wise: case folding can change a rune's byte length, so byte offsets
// from a lowered copy must never be used to slice the original.
func highlightMatch(text, query string) string {
	if query == "" {
		return text
	}

	queryRunes := []rune(query)
	for i, r := range queryRunes {
		queryRunes[i] = unicode.ToLower(r)
	}

	var b strings.Builder
	for {
		start, end := foldIndex(text, queryRunes)
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:start])
		b.WriteString(matchStyle.Render(text[start:end]))
		text = text[end:]
	}
}

// foldIndex returns the byte range of the first case-insensitive occurrence
// of the folded query runes in text, or (-1, -1).
func foldIndex(text string, query []rune) (int, int) {
	if len(query) == 0 {
		return -1, -1
	}
	for i := range text {
		j := i
		matched := true
		for _, qr := range query {
			r, size := utf8.DecodeRuneInString(text[j:])
			if size == 0 || unicode.ToLower(r) != qr {
				matched = false
				break
			}
			j += size
		}
		if matched {
			return i, j
		}
	}
	return -1, -1
}
