package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/gideonchrapko/template-builder/pkg/store"
)

// listCommand creates the list command.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context())
		},
	}
}

func (c *CLI) runList(ctx context.Context) error {
	runner, err := c.newRunner(ctx, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	summaries, err := runner.Store.List(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		printInfo("No templates in %s store", runner.Store.Name())
		return nil
	}
	fmt.Println(summaryTable(summaries))
	printDetail("%d templates", len(summaries))
	return nil
}

func summaryTable(summaries []store.Summary) string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		variants := strings.Join(s.Variants, ", ")
		if variants == "" {
			variants = "—"
		}
		format := "tree"
		if s.Legacy {
			format = "legacy"
		}
		rows[i] = []string{s.Family, s.Name, format, variants}
	}
	return newTable("Family", "Name", "Format", "Variants").Rows(rows...).Render()
}

// variantsCommand creates the variants command.
func (c *CLI) variantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "variants <template>",
		Short: "Show the variants of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVariants(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runVariants(ctx context.Context, arg string) error {
	s, err := c.loadTemplate(ctx, arg)
	if err != nil {
		return err
	}
	if len(s.Variants) == 0 {
		printInfo("%s has no variants", s.Label())
		return nil
	}

	rows := make([][]string, len(s.Variants))
	for i, v := range s.Variants {
		r := newVariantRow(v)
		rows[i] = []string{r.ID, r.Name, countCell(r.Hides), countCell(r.Shows)}
	}
	fmt.Println(StyleTitle.Render(s.Label()))
	fmt.Println(newTable("Variant", "Name", "Hides", "Shows").Rows(rows...).Render())
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return listHeaderStyle.Padding(0, 1)
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
