package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// List styles
var (
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// VariantListModel - Interactive variant selection
// =============================================================================

// variantRow is one selectable entry. The first row is always the base
// template (empty ID).
type variantRow struct {
	ID    string
	Name  string
	Hides int
	Shows int
}

// VariantListModel is the bubbletea model for interactive variant selection.
type VariantListModel struct {
	Family   string
	Rows     []variantRow
	Cursor   int
	Selected *variantRow
	Height   int
	Offset   int
}

// NewVariantListModel creates a list with the base template followed by
// every variant of s.
func NewVariantListModel(s *schema.Schema) VariantListModel {
	rows := []variantRow{{Name: "base template"}}
	for _, v := range s.Variants {
		rows = append(rows, newVariantRow(v))
	}
	return VariantListModel{Family: s.Label(), Rows: rows, Height: 15}
}

func newVariantRow(v schema.Variant) variantRow {
	row := variantRow{ID: v.ID, Name: v.Name}
	for _, o := range v.Overrides {
		switch o.Operation {
		case schema.OpHide:
			row.Hides++
		case schema.OpShow:
			row.Shows++
		}
	}
	return row
}

func (m VariantListModel) Init() tea.Cmd {
	return nil
}

func (m VariantListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			row := m.Rows[m.Cursor]
			m.Selected = &row
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m VariantListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Variant"))
	b.WriteString(" ")
	b.WriteString(listDimStyle.Render(m.Family))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		id := r.ID
		if id == "" {
			id = "—"
		}
		rows = append(rows, []string{cursor, id, r.Name, countCell(r.Hides), countCell(r.Shows)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Variant", "Name", "Hides", "Shows").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

func countCell(n int) string {
	if n == 0 {
		return "—"
	}
	return fmt.Sprint(n)
}

// pickVariant runs the picker on stderr. ok is false when the user quit
// without choosing.
func pickVariant(s *schema.Schema) (variant string, ok bool, err error) {
	final, err := tea.NewProgram(NewVariantListModel(s), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", false, fmt.Errorf("variant picker: %w", err)
	}
	m := final.(VariantListModel)
	if m.Selected == nil {
		return "", false, nil
	}
	return m.Selected.ID, true, nil
}
