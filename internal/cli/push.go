package cli

import (
	"context"

	"github.com/spf13/cobra"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/store"
)

// pushCommand creates the push command.
func (c *CLI) pushCommand() *cobra.Command {
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "push <file>...",
		Short: "Upload template files to the MongoDB store",
		Long: `Upload template files to the MongoDB store.

Each file replaces the stored template with the same family. The family
defaults to the file name. Cached copies of pushed templates are dropped.
Requires store.backend = "mongo".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPush(cmd.Context(), args, skipValidate)
		},
	}
	cmd.Flags().BoolVar(&skipValidate, "no-validate", false, "push templates with structural errors")
	return cmd
}

func (c *CLI) runPush(ctx context.Context, paths []string, skipValidate bool) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if cfg.Store.Backend != backendMongo {
		return perrors.New(perrors.ErrCodeInvalidInput, "push requires the mongo store backend (store.backend = %q)", cfg.Store.Backend)
	}

	ms, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
	if err != nil {
		return err
	}
	ch, err := c.openCache(ctx, cfg, false)
	if err != nil {
		ms.Close()
		return err
	}
	cached := store.NewCached(ms, ch, newKeyer(cfg))
	defer cached.Close()
	defer ch.Close()

	for _, path := range paths {
		s, err := readTemplateFile(path)
		if err != nil {
			return err
		}
		if !skipValidate {
			if err := s.Validate(); err != nil {
				return err
			}
		}
		if err := ms.Save(ctx, s); err != nil {
			return err
		}
		if err := cached.Invalidate(ctx, s.Family); err != nil {
			c.Logger.Warn("stale cache entry", "family", s.Family, "err", err)
		}
		printSuccess("Pushed %s", s.Label())
		printDetail("%s → %s", path, store.DefaultMongoCollection)
	}
	return nil
}
