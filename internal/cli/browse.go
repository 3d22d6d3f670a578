package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/holly-cummins/extensions.io/pkg/enrich"
	"github.com/holly-cummins/extensions.io/pkg/io"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	detailBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <records.json>",
		Short: "Page through a records file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := io.ImportResult(args[0])
			if err != nil {
				return err
			}
			if len(res.Records) == 0 {
				printInfo("No records in %s", args[0])
				return nil
			}
			_, err = tea.NewProgram(NewRecordListModel(res.Records), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// RecordListModel is the bubbletea model behind "enricher browse": a
// scrolling list of records with a detail pane for the one under the
// cursor. Typing after "/" filters by key.
type RecordListModel struct {
	Records   []*enrich.Record
	Cursor    int
	Offset    int
	Height    int
	Filter    string
	filtering bool
	visible   []int
}

// NewRecordListModel creates a model over records.
func NewRecordListModel(records []*enrich.Record) RecordListModel {
	m := RecordListModel{Records: records, Height: 12}
	m.applyFilter()
	return m
}

func (m *RecordListModel) applyFilter() {
	m.visible = nil
	needle := strings.ToLower(m.Filter)
	for i, r := range m.Records {
		if needle == "" || strings.Contains(strings.ToLower(r.Key), needle) {
			m.visible = append(m.visible, i)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

// Selected returns the record under the cursor, or nil when the filter
// matches nothing.
func (m RecordListModel) Selected() *enrich.Record {
	if len(m.visible) == 0 {
		return nil
	}
	return m.Records[m.visible[m.Cursor]]
}

func (m RecordListModel) Init() tea.Cmd { return nil }

func (m RecordListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "/":
			m.filtering = true
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "pgup":
			m.move(-m.Height)
		case "pgdown":
			m.move(m.Height)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 5)
	}
	return m, nil
}

func (m RecordListModel) updateFilter(msg tea.KeyMsg) RecordListModel {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.filtering = false
	case tea.KeyBackspace:
		if m.Filter != "" {
			m.Filter = m.Filter[:len(m.Filter)-1]
			m.applyFilter()
		}
	case tea.KeyRunes:
		m.Filter += string(msg.Runes)
		m.applyFilter()
	}
	return m
}

func (m *RecordListModel) move(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.Cursor = min(max(m.Cursor+delta, 0), len(m.visible)-1)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m RecordListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Source-control records"))
	b.WriteString("\n")
	help := "↑/↓ navigate  / filter  q quit"
	if m.filtering {
		help = "type to filter  ⏎ done"
	}
	b.WriteString(listDimStyle.Render(help))
	b.WriteString("\n")
	if m.Filter != "" || m.filtering {
		b.WriteString("filter: " + StyleHighlight.Render(m.Filter) + "\n")
	}
	b.WriteString("\n")

	end := min(m.Offset+m.Height, len(m.visible))
	for i := m.Offset; i < end; i++ {
		r := m.Records[m.visible[i]]
		issues := "-"
		if r.Issues != nil {
			issues = strconv.Itoa(*r.Issues)
		}
		line := fmt.Sprintf("%-70s %5s", truncate(r.Key, 70), issues)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if r := m.Selected(); r != nil {
		b.WriteString("\n")
		b.WriteString(detailBoxStyle.Render(recordDetail(r)))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.visible)), len(m.visible))))
	return b.String()
}

func recordDetail(r *enrich.Record) string {
	var lines []string
	add := func(k, v string) {
		if v != "" {
			lines = append(lines, listDimStyle.Render(fmt.Sprintf("%-12s", k))+" "+v)
		}
	}
	add("url", r.URL)
	add("issues", r.IssuesURL)
	add("labels", strings.Join(r.Labels, ", "))
	add("descriptor", r.ExtensionYamlURL)
	add("path", r.ExtensionPathInRepo)
	add("avatar", r.OwnerImageURL)
	add("social", r.SocialImage)
	add("sponsors", strings.Join(r.Sponsors, ", "))
	if len(r.Contributors) > 0 {
		names := make([]string, 0, 3)
		for _, c := range r.Contributors[:min(3, len(r.Contributors))] {
			names = append(names, fmt.Sprintf("%s (%d)", c.Name, c.Contributions))
		}
		add("top authors", strings.Join(names, ", "))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
