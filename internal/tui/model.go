// Package tui renders the record coordinator as a Bubble Tea program.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/records/internal/app"
	"github.com/idilsaglam/records/internal/form"
	"github.com/idilsaglam/records/internal/model"
	"github.com/idilsaglam/records/internal/present"
)

type field int

const (
	fieldName field = iota
	fieldDescription
)

// Options tune the program.
type Options struct {
	// APILabel is shown under the title, e.g. "API: /api (default)".
	APILabel string
	Theme    string
}

// Model is the Bubble Tea model. All record state lives in the coordinator.
type Model struct {
	coord    *app.Coordinator
	apiLabel string

	styles      styles
	keys        listKeys
	formKeys    formKeys
	confirmKeys confirmKeys
	help        help.Model
	spinner     spinner.Model

	search    textinput.Model
	searching bool
	cursor    int

	form  *form.Form
	name  textinput.Model
	desc  textarea.Model
	focus field

	width, height int
}

// New builds the model around coord. Init starts the initial load.
func New(coord *app.Coordinator, opt Options) Model {
	st := newStyles(opt.Theme)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search records..."
	search.CharLimit = 100

	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "Record name"
	name.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Optional description"
	desc.ShowLineNumbers = false
	desc.SetHeight(3)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = st.accent

	h := help.New()
	h.Styles.ShortKey = st.help
	h.Styles.ShortDesc = st.help

	return Model{
		coord:       coord,
		apiLabel:    opt.APILabel,
		styles:      st,
		keys:        newListKeys(),
		formKeys:    newFormKeys(),
		confirmKeys: newConfirmKeys(),
		help:        h,
		spinner:     sp,
		search:      search,
		name:        name,
		desc:        desc,
		width:       80,
		height:      24,
	}
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(coord *app.Coordinator, opt Options) error {
	p := tea.NewProgram(New(coord, opt), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.coord.Init(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.desc.SetWidth(max(20, msg.Width-12))
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.coord.Confirming():
			return m.updateConfirm(msg)
		case m.form != nil:
			return m.updateForm(msg)
		case m.searching:
			return m.updateSearch(msg)
		default:
			return m.updateList(msg)
		}
	}

	cmds := []tea.Cmd{m.coord.Update(msg)}
	m.sync()

	// cursor blink and other input messages
	var cmd tea.Cmd
	switch {
	case m.form != nil && m.focus == fieldName:
		m.name, cmd = m.name.Update(msg)
	case m.form != nil:
		m.desc, cmd = m.desc.Update(msg)
	case m.searching:
		m.search, cmd = m.search.Update(msg)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// sync reconciles the local form with the coordinator after a result.
func (m *Model) sync() {
	if m.form == nil {
		m.clampCursor()
		return
	}
	if !m.coord.Modal().Open() {
		m.closeForm()
	} else if m.form.Saving() && !m.coord.Busy() {
		m.form.Done()
	}
	m.clampCursor()
}

func (m Model) rows() present.Result {
	return present.View(m.coord.Records(), m.search.Value())
}

func (m Model) selected() (model.Record, bool) {
	rows := m.rows().Rows
	if m.cursor < 0 || m.cursor >= len(rows) {
		return model.Record{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.rows().Rows)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.setEnabled()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows().Rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Dismiss):
		m.coord.DismissError()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.coord.Refresh()
	case key.Matches(msg, m.keys.New):
		if m.coord.OpenCreate() {
			return m, m.openForm(nil)
		}
	case key.Matches(msg, m.keys.Edit):
		if r, ok := m.selected(); ok && m.coord.OpenEdit(r) {
			return m, m.openForm(&r)
		}
	case key.Matches(msg, m.keys.Delete):
		if r, ok := m.selected(); ok {
			m.coord.RequestDelete(r)
		}
	case msg.Type == tea.KeyEsc:
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.cursor = 0
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.SetValue("")
		m.search.Blur()
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.clampCursor()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.confirmKeys.Yes):
		return m, m.coord.ConfirmDelete(true)
	case key.Matches(msg, m.confirmKeys.No):
		m.coord.ConfirmDelete(false)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.Cancel):
		if m.coord.CloseModal() {
			m.closeForm()
		}
		return m, nil
	case key.Matches(msg, m.formKeys.Submit),
		msg.Type == tea.KeyEnter && m.focus == fieldName:
		return m.submit()
	case key.Matches(msg, m.formKeys.Next):
		if m.form.Saving() {
			return m, nil
		}
		return m, m.toggleFocus()
	}

	if m.form.Saving() {
		return m, nil
	}
	var cmd tea.Cmd
	if m.focus == fieldName {
		m.name, cmd = m.name.Update(msg)
		m.form.SetName(m.name.Value())
	} else {
		m.desc, cmd = m.desc.Update(msg)
		m.form.SetDescription(m.desc.Value())
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	m.form.SetName(m.name.Value())
	m.form.SetDescription(m.desc.Value())
	cmd, err := m.form.Submit(m.coord.Save)
	if err != nil {
		return m, nil
	}
	if m.form.Saving() {
		m.name.SetValue(m.form.Name())
		m.desc.SetValue(m.form.Description())
	}
	return m, cmd
}

func (m *Model) openForm(initial *model.Record) tea.Cmd {
	m.form = form.New(initial)
	m.name.SetValue(m.form.Name())
	m.name.CursorEnd()
	m.desc.SetValue(m.form.Description())
	m.desc.Blur()
	m.focus = fieldName
	return m.name.Focus()
}

func (m *Model) closeForm() {
	m.form = nil
	m.name.Blur()
	m.desc.Blur()
	m.name.SetValue("")
	m.desc.SetValue("")
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == fieldName {
		m.focus = fieldDescription
		m.name.Blur()
		return m.desc.Focus()
	}
	m.focus = fieldName
	m.desc.Blur()
	return m.name.Focus()
}

// setEnabled greys out the mutating keys while the coordinator is busy.
func (m *Model) setEnabled() {
	enabled := m.coord.CanMutate()
	for _, b := range m.keys.mutating() {
		b.SetEnabled(enabled)
	}
}

func (m Model) View() string {
	m.setEnabled()

	var b strings.Builder
	b.WriteString(m.styles.title.Render("Record Manager"))
	if m.apiLabel != "" {
		b.WriteString("  " + m.styles.muted.Render(m.apiLabel))
	}
	if m.coord.Loading() {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if e := m.coord.Err(); e != "" {
		b.WriteString(m.styles.err.Render("✖ "+e) + m.styles.muted.Render("  (x to dismiss)") + "\n")
	}
	if t := m.coord.Toast(); t.Text != "" {
		b.WriteString(m.styles.success.Render("✔ "+t.Text) + "\n")
	}
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View() + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.viewRows())

	switch {
	case m.coord.Confirming():
		b.WriteString("\n" + m.styles.box.Render(
			m.styles.pending.Render(m.coord.Prompt())+"\n"+m.help.View(m.confirmKeys)))
	case m.form != nil:
		b.WriteString("\n" + m.viewForm())
	}

	b.WriteString("\n" + m.viewFooter())
	return m.styles.frame.Render(b.String())
}

func (m Model) viewRows() string {
	res := m.rows()
	switch {
	case len(res.Rows) == 0 && m.coord.Loading():
		return m.spinner.View() + " Loading records...\n"
	case res.Empty:
		return m.styles.muted.Render("No records yet") + "\n" +
			m.styles.help.Render("Press n to create the first one.") + "\n"
	case res.NoMatches:
		return m.styles.muted.Render(fmt.Sprintf("No records match %q", strings.TrimSpace(m.search.Value()))) + "\n"
	}

	start, end := window(len(res.Rows), m.cursor, m.visibleRows())
	var b strings.Builder
	for i := start; i < end; i++ {
		r := res.Rows[i]
		prefix := "  "
		if i == m.cursor {
			prefix = m.styles.selected.Render("> ")
		}
		b.WriteString(prefix + m.styles.name.Render(r.DisplayName()) + "\n")
		b.WriteString("    " + m.styles.muted.Render(rowDetail(r)) + "\n")
	}
	if len(res.Rows) > end-start {
		b.WriteString(m.styles.help.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(res.Rows))) + "\n")
	}
	return b.String()
}

// rowDetail is the second line of a row: creation time and description.
func rowDetail(r model.Record) string {
	desc := r.Description
	if strings.TrimSpace(desc) == "" {
		desc = "—"
	}
	if t, ok := r.Created(); ok {
		return "Created " + t.Local().Format("2006-01-02 15:04") + " · " + desc
	}
	return desc
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render(m.coord.Modal().Title()) + "\n\n")
	b.WriteString(m.styles.label.Render("Name") + "\n" + m.name.View() + "\n")
	if e := m.form.Errors().Name; e != "" {
		b.WriteString(m.styles.err.Render(e) + "\n")
	}
	b.WriteString("\n" + m.styles.label.Render("Description") + "\n" + m.desc.View() + "\n\n")
	if m.form.Saving() {
		b.WriteString(m.spinner.View() + " Saving…")
	} else {
		b.WriteString(m.help.View(m.formKeys))
	}
	return m.styles.box.Render(b.String())
}

func (m Model) viewFooter() string {
	if m.coord.Busy() && m.form == nil {
		return m.spinner.View() + " " + m.styles.pending.Render("Deleting…")
	}
	parts := make([]string, 0, len(m.keys.shortHelp()))
	for _, k := range m.keys.shortHelp() {
		h := k.Help()
		text := h.Key + " " + h.Desc
		if k.Enabled() {
			parts = append(parts, m.styles.help.Render(text))
		} else {
			parts = append(parts, m.styles.disabled.Render(text))
		}
	}
	return strings.Join(parts, m.styles.help.Render(" • "))
}

func (m Model) visibleRows() int {
	chrome := 12
	if m.form != nil {
		chrome += 14
	}
	return max(1, (m.height-chrome)/2)
}

// window returns the [start,end) slice of n rows of at most size that keeps
// cursor visible.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
