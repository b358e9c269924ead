package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gideonchrapko/template-builder/pkg/compile"
	"github.com/gideonchrapko/template-builder/pkg/compile/token"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <template>",
		Short: "Check a template for structural problems",
		Long: `Check a template for structural problems.

Reports duplicate or missing node ids, unknown node types, overrides and
bindings that target missing nodes, and color tokens no variant resolves.
Exits non-zero when any error is found; warnings alone pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runValidate(ctx context.Context, arg string) error {
	s, err := c.loadTemplate(ctx, arg)
	if err != nil {
		return err
	}

	problems := s.Check()
	problems = append(problems, unresolvedProblems(s)...)

	var errCount int
	for _, p := range problems {
		if p.Severity == schema.SeverityError {
			errCount++
			printError("%s", p)
		} else {
			printWarning("%s", p)
		}
	}
	if errCount > 0 {
		return perrors.New(perrors.ErrCodeInvalidSchema, "%s: %d error(s)", s.Label(), errCount)
	}
	printSuccess("%s is valid", s.Label())
	printDetail("%d nodes, %d variants, %d bindings", countNodes(s), len(s.Variants), len(s.Bindings))
	return nil
}

// unresolvedProblems compiles every variant with the default tokens and
// reports token references left unresolved.
func unresolvedProblems(s *schema.Schema) []schema.Problem {
	seen := map[string]bool{}
	var out []schema.Problem
	for _, v := range append([]string{""}, s.VariantIDs()...) {
		root, err := compile.Resolve(*s, compile.Options{Variant: v})
		if err != nil {
			return nil // structural errors are reported by Check
		}
		for _, name := range token.Unresolved(root) {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, schema.Problem{
				Severity: schema.SeverityWarning,
				Message:  fmt.Sprintf("token %q has no default value", name),
			})
		}
	}
	return out
}

func countNodes(s *schema.Schema) int {
	if s.Root != nil {
		return schema.Count(s.Root)
	}
	n := 0
	for i := range s.Nodes {
		n += schema.Count(&s.Nodes[i])
	}
	return n
}

// loadTemplate reads a template file or loads a family from the configured store.
func (c *CLI) loadTemplate(ctx context.Context, arg string) (*schema.Schema, error) {
	opts, err := templateOptions(arg)
	if err != nil {
		return nil, err
	}
	if opts.Schema != nil {
		return opts.Schema, nil
	}
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	return runner.Load(ctx, opts)
}
