/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package ui is the terminal front end of the clipboard history: a
// searchable list over a session with pin, delete and share actions.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adaryorg/clipkeep/internal/config"
	"github.com/adaryorg/clipkeep/internal/format"
	"github.com/adaryorg/clipkeep/internal/history"
	"github.com/adaryorg/clipkeep/internal/security"
	"github.com/adaryorg/clipkeep/internal/session"
	"github.com/adaryorg/clipkeep/internal/share"
)

type mode int

const (
	modeList mode = iota
	modeActions
	modeQR
)

const (
	previewLines      = 6
	defaultListHeight = 10
	blockReason       = "blocked by user"
)

// Session is the part of the session controller the view drives.
type Session interface {
	Entries() []history.Entry
	Current() (history.Entry, bool)
	Capacity() int
	PrivateMode() bool
	TogglePrivateMode() bool
	Activate(id string) error
	CopyIfActive(text string) (bool, error)
	SetPinned(id string, pinned bool)
	Delete(id string)
	ClearHistory()
	SetCapacity(n int)
	Subscribe() <-chan session.Event
}

// Sharer uploads text to a paste service.
type Sharer interface {
	ShareAsync(ctx context.Context, text string) <-chan share.Result
}

// Options configures a Model. Session and Config are required.
type Options struct {
	Context context.Context
	Session Session
	Config  *config.Config
	Policy  *security.Policy
	Sharer  Sharer
	// OpenURL defaults to share.OpenURL.
	OpenURL func(string) error
	// Capabilities defaults to DetectTerminalCapabilities.
	Capabilities *TerminalCapabilities
}

// ConfigChangedMsg carries a reloaded configuration into the program.
type ConfigChangedMsg struct {
	Config *config.Config
}

type sessionEventMsg session.Event

type sessionClosedMsg struct{}

type shareResultMsg share.Result

type openResultMsg struct {
	url string
	err error
}

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
	Activate      key.Binding
	Pin           key.Binding
	Delete        key.Binding
	Block         key.Binding
	PinnedOnly    key.Binding
	Actions       key.Binding
	TogglePrivate key.Binding
	ClearHistory  key.Binding
	Close         key.Binding
	Help          key.Binding
}

func newKeyMap(shortcuts config.ShortcutsConfig) keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:          key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		PageUp:        key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:      key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Activate:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "copy")),
		Pin:           key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "pin")),
		Delete:        key.NewBinding(key.WithKeys("ctrl+d", "delete"), key.WithHelp("ctrl+d", "delete")),
		Block:         key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "block")),
		PinnedOnly:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "pinned only")),
		Actions:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "actions")),
		TogglePrivate: key.NewBinding(key.WithKeys(shortcuts.TogglePrivateMode), key.WithHelp(shortcuts.TogglePrivateMode, "private mode")),
		ClearHistory:  key.NewBinding(key.WithKeys(shortcuts.ClearHistory), key.WithHelp(shortcuts.ClearHistory, "clear history")),
		Close:         key.NewBinding(key.WithKeys(shortcuts.ToggleMenu, "ctrl+c"), key.WithHelp(shortcuts.ToggleMenu, "close")),
		Help:          key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Pin, k.Delete, k.Actions, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Activate, k.Pin, k.Delete, k.Block},
		{k.PinnedOnly, k.Actions, k.TogglePrivate, k.ClearHistory},
		{k.Close, k.Help},
	}
}

type Model struct {
	ctx     context.Context
	session Session
	config  *config.Config
	policy  *security.Policy
	sharer  Sharer
	openURL func(string) error
	events  <-chan session.Event

	keys        keyMap
	help        help.Model
	search      textinput.Model
	caps        TerminalCapabilities
	styles      Styles
	markers     Markers
	highlighter *Highlighter

	entries    []history.Entry
	pinnedOnly bool
	cursor     int
	offset     int
	mode       mode
	qrCode     string

	status      string
	statusError bool

	width  int
	height int
}

func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = share.OpenURL
	}
	var caps TerminalCapabilities
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	} else {
		caps = DetectTerminalCapabilities()
	}

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "type to filter"
	search.Focus()

	m := Model{
		ctx:     ctx,
		session: opts.Session,
		config:  opts.Config,
		policy:  opts.Policy,
		sharer:  opts.Sharer,
		openURL: openURL,
		events:  opts.Session.Subscribe(),
		help:    help.New(),
		search:  search,
		caps:    caps,
		markers: GetMarkers(caps),
	}
	m.applyConfig(opts.Config)
	m.refresh()
	return m
}

func (m *Model) applyConfig(cfg *config.Config) {
	m.config = cfg
	m.keys = newKeyMap(cfg.Shortcuts)
	m.styles = NewStyles(cfg.Theme, m.caps)
	m.search.PromptStyle = m.styles.Search
	m.highlighter = NewHighlighter(cfg.Display.PreviewTheme, !m.caps.SupportsColor)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg(ev)
	}
}

// refresh re-reads the history and keeps the cursor on the same entry when
// it is still visible.
func (m *Model) refresh() {
	selectedID := ""
	if e, ok := m.selected(); ok {
		selectedID = e.ID
	}

	m.entries = format.Filter(m.session.Entries(), format.Query{
		Text:       m.search.Value(),
		PinnedOnly: m.pinnedOnly,
		Fuzzy:      m.config.Display.SearchMode == config.SearchFuzzy,
	})

	if selectedID != "" {
		for i, e := range m.entries {
			if e.ID == selectedID {
				m.cursor = i
				m.ensureVisible()
				return
			}
		}
	}
	m.moveCursor(0)
}

func (m *Model) selected() (history.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return history.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	height := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// listHeight is the number of rows left for entries once the header, search
// box, preview, status and help lines are drawn.
func (m Model) listHeight() int {
	if m.height <= 0 {
		return defaultListHeight
	}
	h := m.height - previewLines - 6
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) setStatus(text string, args ...interface{}) {
	m.status = fmt.Sprintf(text, args...)
	m.statusError = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusError = true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.search.Width = msg.Width - len(m.search.Prompt) - 1
		m.ensureVisible()
		return m, nil

	case sessionEventMsg:
		switch msg.Kind {
		case session.ErrorReported:
			if msg.Err != nil {
				m.setError(msg.Err)
			}
		default:
			m.refresh()
		}
		return m, waitForEvent(m.events)

	case sessionClosedMsg:
		return m, tea.Quit

	case ConfigChangedMsg:
		if msg.Config == nil {
			return m, nil
		}
		if msg.Config.History.Size != m.session.Capacity() {
			m.session.SetCapacity(msg.Config.History.Size)
		}
		m.applyConfig(msg.Config)
		m.refresh()
		m.setStatus("Configuration reloaded")
		return m, nil

	case shareResultMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("share failed: %w", msg.Err))
			return m, nil
		}
		copied, err := m.session.CopyIfActive(msg.URL)
		switch {
		case err != nil:
			m.setError(fmt.Errorf("shared to %s but copying failed: %w", msg.URL, err))
		case copied:
			m.setStatus("Shared to %s (copied)", msg.URL)
		default:
			m.setStatus("Shared to %s", msg.URL)
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus("Opened %s", msg.url)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeActions:
			return m.updateActions(msg)
		case modeQR:
			m.mode = modeList
			m.qrCode = ""
			return m, nil
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.listHeight())
		return m, nil

	case key.Matches(msg, m.keys.Activate):
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.session.Activate(e.ID); err != nil {
			m.setError(fmt.Errorf("failed to copy entry: %w", err))
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pin):
		if e, ok := m.selected(); ok {
			m.session.SetPinned(e.ID, !e.Pinned)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if e, ok := m.selected(); ok {
			m.session.Delete(e.ID)
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Block):
		m.blockSelected()
		return m, nil

	case key.Matches(msg, m.keys.PinnedOnly):
		m.pinnedOnly = !m.pinnedOnly
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Actions):
		if _, ok := m.selected(); ok {
			m.mode = modeActions
		}
		return m, nil

	case key.Matches(msg, m.keys.TogglePrivate):
		if m.session.TogglePrivateMode() {
			m.setStatus("Private mode on: clipboard changes are not recorded")
		} else {
			m.setStatus("Private mode off")
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ClearHistory):
		m.session.ClearHistory()
		m.refresh()
		m.setStatus("History cleared")
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case msg.Type == tea.KeyEsc:
		if m.search.Value() == "" && !m.pinnedOnly {
			return m, tea.Quit
		}
		m.search.SetValue("")
		m.pinnedOnly = false
		m.refresh()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.cursor = 0
		m.offset = 0
		m.refresh()
	}
	return m, cmd
}

// blockSelected adds the selected text to the blocklist and removes it from
// the history.
func (m *Model) blockSelected() {
	e, ok := m.selected()
	if !ok {
		return
	}
	if err := m.policy.Block(e.Text, blockReason); err != nil {
		if errors.Is(err, security.ErrNoBlocklist) {
			m.setError(fmt.Errorf("cannot block entry: %w", err))
		} else {
			m.setError(fmt.Errorf("failed to block entry: %w", err))
		}
		return
	}
	m.session.Delete(e.ID)
	m.refresh()
	m.setStatus("Entry blocked; it will not be recorded again")
}

func (m Model) updateActions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e, ok := m.selected()
	m.mode = modeList
	if !ok {
		return m, nil
	}

	switch msg.String() {
	case "w":
		target, err := share.SearchURL(m.config.Share.WebSearchURL, e.Text)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.setStatus("Opening web search...")
		open := m.openURL
		return m, func() tea.Msg {
			return openResultMsg{url: target, err: open(target)}
		}

	case "s":
		if m.sharer == nil {
			m.setError(errors.New("sharing is not configured"))
			return m, nil
		}
		m.setStatus("Sharing...")
		results := m.sharer.ShareAsync(m.ctx, e.Text)
		return m, func() tea.Msg {
			return shareResultMsg(<-results)
		}

	case "q":
		code, err := share.QRCode(e.Text)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.qrCode = code
		m.mode = modeQR
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.mode == modeQR {
		return m.qrCode + "\n" + m.styles.Status.Render("press any key to return")
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.search.View())
	if m.pinnedOnly {
		b.WriteString(" " + m.styles.Pinned.Render("[pinned only]"))
	}
	b.WriteString("\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")

	if m.mode == modeActions {
		b.WriteString(m.renderActions())
	} else {
		b.WriteString(m.renderPreview())
	}

	b.WriteString("\n")
	if m.status != "" {
		style := m.styles.Status
		if m.statusError {
			style = m.styles.Warning
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	all := m.session.Entries()
	pinned := 0
	for _, e := range all {
		if e.Pinned {
			pinned++
		}
	}
	header := m.styles.Header.Render("Clipboard History")
	header += m.styles.Status.Render(fmt.Sprintf("  %d entries, %d pinned, capacity %d", len(all), pinned, m.session.Capacity()))
	if m.session.PrivateMode() {
		header += "  " + m.styles.Private.Render(m.markers.Private)
	}
	return header
}

func (m Model) renderList() string {
	if len(m.entries) == 0 {
		if m.search.Value() != "" || m.pinnedOnly {
			return m.styles.Status.Render("  no matching entries")
		}
		return m.styles.Status.Render("  history is empty")
	}

	currentID := ""
	if current, ok := m.session.Current(); ok {
		currentID = current.ID
	}

	end := m.offset + m.listHeight()
	if end > len(m.entries) {
		end = len(m.entries)
	}

	rows := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		rows = append(rows, m.renderRow(i, m.entries[i], currentID))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderRow(i int, e history.Entry, currentID string) string {
	cursor := " "
	if i == m.cursor {
		cursor = m.markers.Cursor
	}
	pin := m.markers.Unpinned
	if e.Pinned {
		pin = m.styles.Pinned.Render(m.markers.Pinned)
	}
	current := " "
	if e.ID == currentID {
		current = m.markers.Current
	}

	label := format.Label(e.Text, m.labelLength(), m.config.Display.ShowBoundaryWhitespace)
	if sample, ok := swatch(e.Text, m.markers.Swatch, m.caps); ok {
		label = sample + " " + label
	}

	line := fmt.Sprintf("%s%s%s %s", cursor, pin, current, label)
	switch {
	case i == m.cursor:
		return m.styles.Selected.Render(line)
	case i%2 == 1:
		return m.styles.AlternateBackground.Render(line)
	}
	return m.styles.Normal.Render(line)
}

// labelLength fits labels to the terminal width, capped by the configured
// maximum.
func (m Model) labelLength() int {
	maxLen := m.config.Display.MaxLabelLength
	if m.width > 0 {
		avail := m.width - 8
		if avail < 1 {
			avail = 1
		}
		if maxLen <= 0 || maxLen > avail {
			maxLen = avail
		}
	}
	return maxLen
}

func (m Model) renderPreview() string {
	e, ok := m.selected()
	if !ok {
		return strings.Repeat("\n", previewLines-1)
	}

	lines := m.highlighter.Preview(e.Text, previewLines)
	clip := lipgloss.NewStyle()
	if m.width > 0 {
		clip = clip.MaxWidth(m.width)
	}
	for i, line := range lines {
		lines[i] = clip.Render(strings.ReplaceAll(line, "\t", "    "))
	}
	for len(lines) < previewLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderActions() string {
	lines := []string{
		m.styles.Header.Render("Actions"),
		"  w  search the web",
		"  s  share online",
		"  q  show QR code",
		"  esc  back",
	}
	for len(lines) < previewLines {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
