package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/pipeline"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// compileOpts holds the command-line flags for the compile command.
type compileOpts struct {
	variant     string   // variant id
	dataPath    string   // data record file (json, yaml, toml)
	tokensPath  string   // token overrides file
	tokens      []string // name=value token overrides, applied after tokensPath
	title       string   // document title
	output      string   // output file, "-" for stdout; a directory with allVariants
	allVariants bool     // compile every variant
	noCache     bool     // bypass the cache entirely
	refresh     bool     // recompile and overwrite cached markup
	pick        bool     // choose the variant interactively
}

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile <template>",
		Short: "Compile a template to HTML",
		Long: `Compile a template to a standalone HTML document.

The template is a schema file (.json, .toml, .yaml) or a family name in the
configured store. Data records and token files may be JSON, TOML, or YAML.`,
		Example: `  postergen compile event-poster --variant story --data event.json
  postergen compile ./flyer.yaml --token primary=#ff0066 -o flyer.html
  postergen compile event-poster --all-variants -o dist/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.allVariants && (opts.variant != "" || opts.pick) {
				return perrors.New(perrors.ErrCodeInvalidInput, "--all-variants cannot be combined with --variant or --pick")
			}
			return c.runCompile(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.variant, "variant", "V", "", "variant id")
	cmd.Flags().StringVarP(&opts.dataPath, "data", "d", "", "data record file")
	cmd.Flags().StringVar(&opts.tokensPath, "tokens", "", "token overrides file")
	cmd.Flags().StringArrayVarP(&opts.tokens, "token", "t", nil, "token override name=value (repeatable)")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (directory with --all-variants)")
	cmd.Flags().BoolVar(&opts.allVariants, "all-variants", false, "compile every variant")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompile even when cached")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the variant interactively")

	return cmd
}

func (c *CLI) runCompile(ctx context.Context, arg string, opts compileOpts) error {
	logger := loggerFromContext(ctx)

	popts, err := buildPipelineOptions(arg, opts)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	if opts.pick {
		s, err := runner.Load(ctx, popts)
		if err != nil {
			return err
		}
		variant, ok, err := pickVariant(s)
		if err != nil {
			return err
		}
		if !ok {
			printInfo("No variant selected")
			return nil
		}
		popts.Schema = s
		popts.Variant = variant
	}

	if opts.allVariants {
		return c.compileAll(ctx, runner, popts, opts.output)
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, os.Stderr, "Compiling "+arg+"...")
	if opts.output != "-" {
		spinner.Start()
	}
	res, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err := os.Stdout.WriteString(res.Markup)
		return err
	}
	path := opts.output
	if path == "" {
		if path, err = outputName(res.Family, res.Variant); err != nil {
			return err
		}
	}
	if err := writeOutput(path, res.Markup); err != nil {
		return err
	}
	prog.done("compile finished", "run_id", res.RunID, "output", path)
	printSuccess("Compiled %s", displayName(res))
	printFile(path)
	printStats(res)
	printUnresolved(res)
	return nil
}

func (c *CLI) compileAll(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options, dir string) error {
	logger := loggerFromContext(ctx)
	if dir == "-" {
		return perrors.New(perrors.ErrCodeInvalidInput, "--all-variants writes files; stdout is not supported")
	}
	if dir == "" {
		dir = "."
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, os.Stderr, "Compiling variants...")
	spinner.Start()
	results, err := runner.ExecuteVariants(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}

	paths := make([]string, len(results))
	for i, res := range results {
		name, err := outputName(res.Family, res.Variant)
		if err != nil {
			return err
		}
		paths[i] = filepath.Join(dir, name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for i, res := range results {
		path := paths[i]
		if err := writeOutput(path, res.Markup); err != nil {
			return err
		}
		printSuccess("Compiled %s", displayName(res))
		printFile(path)
		printStats(res)
		printUnresolved(res)
	}
	prog.done("compile finished", "variants", len(results), "dir", dir)
	return nil
}

// buildPipelineOptions resolves the template argument and reads data and
// token inputs.
func buildPipelineOptions(arg string, opts compileOpts) (pipeline.Options, error) {
	popts, err := templateOptions(arg)
	if err != nil {
		return popts, err
	}
	popts.Variant = opts.variant
	popts.Title = opts.title
	popts.Refresh = opts.refresh

	if opts.dataPath != "" {
		data, err := readDataFile(opts.dataPath)
		if err != nil {
			return popts, err
		}
		popts.Data = data
	}

	tokens := map[string]string{}
	if opts.tokensPath != "" {
		file, err := readTokensFile(opts.tokensPath)
		if err != nil {
			return popts, err
		}
		for k, v := range file {
			tokens[k] = v
		}
	}
	for _, kv := range opts.tokens {
		name, value, err := perrors.ValidateTokenAssignment(kv)
		if err != nil {
			return popts, err
		}
		tokens[name] = value
	}
	if len(tokens) > 0 {
		popts.Tokens = tokens
	}
	return popts, nil
}

func readDataFile(path string) (any, error) {
	format, err := schema.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	data, err := schema.DecodeData(raw, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func readTokensFile(path string) (map[string]string, error) {
	data, err := readDataFile(path)
	if err != nil {
		return nil, err
	}
	tokens, err := cast.ToStringMapStringE(data)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "tokens file %s must map names to colors", path)
	}
	return tokens, nil
}

// outputName is the default output file: <family>[-<variant>].html. Both
// parts come from template files, so they must be plain names.
func outputName(family, variant string) (string, error) {
	if err := perrors.ValidateTemplateName(family); err != nil {
		return "", perrors.Wrap(perrors.ErrCodeInvalidPath, err, "family %q cannot name an output file", family)
	}
	if variant == "" {
		return family + ".html", nil
	}
	if err := perrors.ValidateTemplateName(variant); err != nil {
		return "", perrors.Wrap(perrors.ErrCodeInvalidPath, err, "variant %q cannot name an output file", variant)
	}
	return family + "-" + variant + ".html", nil
}

func displayName(res *pipeline.Result) string {
	if res.Variant == "" {
		return res.Family
	}
	return res.Family + " " + StyleHighlight.Render(res.Variant)
}

func writeOutput(path, markup string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printUnresolved(res *pipeline.Result) {
	if len(res.Stats.UnresolvedTokens) > 0 {
		printWarning("unresolved tokens: %s", strings.Join(res.Stats.UnresolvedTokens, ", "))
	}
}
