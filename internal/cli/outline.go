package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gideonchrapko/template-builder/pkg/compile"
	"github.com/gideonchrapko/template-builder/pkg/outline"
)

const (
	outlineDOT = "dot"
	outlineSVG = "svg"
)

// outlineOpts holds the command-line flags for the outline command.
type outlineOpts struct {
	variant  string
	format   string // dot or svg
	output   string // output file; stdout when empty
	detailed bool   // include kind, size, and position in labels
}

// outlineCommand creates the outline command.
func (c *CLI) outlineCommand() *cobra.Command {
	opts := outlineOpts{format: outlineDOT}

	cmd := &cobra.Command{
		Use:   "outline <template>",
		Short: "Draw a template's node tree",
		Long: `Draw a template's node tree as a Graphviz diagram.

Nodes hidden by the selected variant are drawn dashed. DOT output can be
piped to other Graphviz tools; SVG is rendered in-process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != outlineDOT && opts.format != outlineSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", opts.format)
			}
			return c.runOutline(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.variant, "variant", "V", "", "variant id")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: dot (default), svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node kind, size, and position")

	return cmd
}

func (c *CLI) runOutline(ctx context.Context, arg string, opts outlineOpts) error {
	s, err := c.loadTemplate(ctx, arg)
	if err != nil {
		return err
	}
	root, err := compile.Resolve(*s, compile.Options{Variant: opts.variant})
	if err != nil {
		return err
	}

	out := []byte(outline.ToDOT(root, outline.Options{Detailed: opts.detailed}))
	if opts.format == outlineSVG {
		if out, err = outline.RenderSVG(ctx, string(out)); err != nil {
			return err
		}
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Outlined %s", s.Label())
	printFile(opts.output)
	return nil
}
