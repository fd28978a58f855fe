package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli"

	"github.com/wippyai/slotpack/config"
	"github.com/wippyai/slotpack/layout"
	"github.com/wippyai/slotpack/report"
	"github.com/wippyai/slotpack/schema"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// layoutView is one browsable layout.
type layoutView struct {
	report *layout.Report
	title  string
	note   string
}

type browseData struct {
	views []layoutView
}

func loadBrowseData(c *cli.Context, doc *config.Document, s *schema.Schema) (*browseData, error) {
	data := &browseData{}
	if r, err := layout.ValidateSchema(s); err == nil {
		data.views = append(data.views, layoutView{
			title:  "declared",
			report: r,
			note:   fmt.Sprintf("declared order: %d slots, %d bytes wasted", r.SlotCount, r.TotalWaste),
		})
	}

	res, err := search(c, doc, s, doc.Profile())
	if err != nil {
		return nil, err
	}
	note := fmt.Sprintf("optimized: %d slots, cost %d", res.Slots, res.Cost)
	if res.Input.Feasible {
		note += fmt.Sprintf(" (%+d slots, %+d cost)", res.SlotDelta, res.CostDelta)
	}
	data.views = append(data.views, layoutView{
		title:  "optimized",
		report: layout.Audit(res.Layout, res.LowerBound),
		note:   note,
	})
	return data, nil
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Switch key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Switch, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Switch, k.Help, k.Quit}}
}

func newKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous slot")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next slot")),
		Switch: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch layout")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type browseModel struct {
	err      error
	data     *browseData
	load     func() (*browseData, error)
	filename string
	help     help.Model
	keys     keyMap
	active   int
	selected int
}

type loadedMsg struct {
	err  error
	data *browseData
}

func newBrowseModel(filename string, load func() (*browseData, error)) *browseModel {
	return &browseModel{
		filename: filename,
		load:     load,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadData
}

func (m *browseModel) loadData() tea.Msg {
	data, err := m.load()
	return loadedMsg{data: data, err: err}
}

func (m *browseModel) current() *layoutView {
	if m.data == nil || len(m.data.views) == 0 {
		return nil
	}
	return &m.data.views[m.active]
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if v := m.current(); v != nil && m.selected < v.report.SlotCount-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Switch):
			if m.data != nil && len(m.data.views) > 1 {
				m.active = (m.active + 1) % len(m.data.views)
				if last := m.current().report.SlotCount - 1; m.selected > last {
					m.selected = last
				}
			}
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case loadedMsg:
		m.err = msg.err
		m.data = msg.data
		if m.data != nil {
			m.active = len(m.data.views) - 1
		}
	}
	return m, nil
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	v := m.current()
	if v == nil {
		return "Optimizing layout..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("slotpack"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	for i, view := range m.data.views {
		if i == m.active {
			b.WriteString(activeTabStyle.Render(view.title))
		} else {
			b.WriteString(tabStyle.Render(view.title))
		}
	}
	b.WriteString("\n\n")

	l := v.report.Layout
	for i, s := range l.Slots {
		line := fmt.Sprintf("%3d %s", s.Index, report.Bar(s))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.slotDetail(l.Slots[m.selected], v.report.Slots[m.selected]))
	b.WriteString("\n")
	b.WriteString(noteStyle.Render(v.note))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *browseModel) slotDetail(s layout.Slot, w layout.SlotWaste) string {
	var b strings.Builder
	waste := "n/a"
	if w.Applicable {
		waste = fmt.Sprintf("%d bytes", w.Bytes)
	}
	fmt.Fprintf(&b, "slot %d, wasted %s\n", s.Index, waste)
	if len(s.Occupants) == 0 {
		b.WriteString("  (padding before a locked field)\n")
	}
	for _, o := range s.Occupants {
		if o.Dynamic {
			fmt.Fprintf(&b, "  %s  dynamic head\n", nameStyle.Render(o.Name))
			continue
		}
		fmt.Fprintf(&b, "  %s  bytes %d..%d (%d)\n", nameStyle.Render(o.Name), o.Offset, o.Offset+o.Width, o.Width)
	}
	return b.String()
}

func runInteractive(filename string, load func() (*browseData, error)) error {
	p := tea.NewProgram(newBrowseModel(filename, load), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
