package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// FileStore reads templates from a directory. A family "event-poster" is
// stored as event-poster.json, event-poster.toml, or event-poster.yaml
// (first match in that order).
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, which must exist.
func NewFileStore(dir string) (*FileStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidPath, err, "templates directory %s", dir)
	}
	if !info.IsDir() {
		return nil, perrors.New(perrors.ErrCodeInvalidPath, "templates path %s is not a directory", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the templates directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Name() string { return "file" }

// Path returns the file holding family, or a TEMPLATE_NOT_FOUND error.
func (s *FileStore) Path(family string) (string, error) {
	if err := perrors.ValidateTemplateName(family); err != nil {
		return "", err
	}
	for _, f := range schema.Formats {
		for _, ext := range f.Extensions() {
			p := filepath.Join(s.dir, family+ext)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", notFound(family, s.Name())
}

func (s *FileStore) Load(ctx context.Context, family string) (*schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Path(family)
	if err != nil {
		return nil, err
	}
	sc, err := schema.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if sc.Family == "" {
		sc.Family = family
	}
	return sc, nil
}

// List returns one summary per template file, keyed by file name so every
// listed family can be passed back to Load. Files that fail to decode are
// skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}

	seen := make(map[string]bool)
	var out []Summary
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := schema.FormatFromPath(e.Name()); err != nil {
			continue
		}
		family := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if seen[family] {
			continue
		}
		sc, err := s.Load(ctx, family)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			continue
		}
		seen[family] = true
		sum := summarize(sc)
		sum.Family = family
		out = append(out, sum)
	}
	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.Family, b.Family) })
	return out, nil
}

func (s *FileStore) Close() error { return nil }

var _ Store = (*FileStore)(nil)
