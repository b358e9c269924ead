package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gideonchrapko/template-builder/pkg/cache"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

func fileStore(t *testing.T) *FileStore {
	t.Helper()
	st, err := NewFileStore(filepath.Join("testdata", "templates"))
	require.NoError(t, err)
	return st
}

func TestNewFileStoreErrors(t *testing.T) {
	_, err := NewFileStore(filepath.Join("testdata", "missing"))
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidPath))

	_, err = NewFileStore(filepath.Join("testdata", "templates", "notes.txt"))
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidPath))
}

func TestFileStoreLoad(t *testing.T) {
	st := fileStore(t)
	ctx := context.Background()

	s, err := st.Load(ctx, "event-poster")
	require.NoError(t, err)
	assert.Equal(t, "event-poster", s.Family)
	require.NotNil(t, s.Root)
	assert.Equal(t, "poster", s.Root.ID)

	flyer, err := st.Load(ctx, "flyer")
	require.NoError(t, err)
	assert.Equal(t, "spring-flyer", flyer.Family, "document family is kept")
	assert.True(t, flyer.IsLegacy())
}

func TestFileStoreLoadErrors(t *testing.T) {
	st := fileStore(t)
	ctx := context.Background()

	tests := []struct {
		family string
		code   perrors.Code
	}{
		{"nope", perrors.ErrCodeTemplateNotFound},
		{"../templates/event-poster", perrors.ErrCodeInvalidInput},
		{"", perrors.ErrCodeInvalidInput},
		{"broken", perrors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.family, func(t *testing.T) {
			_, err := st.Load(ctx, tt.family)
			require.Error(t, err)
			assert.Equal(t, tt.code, perrors.GetCode(err), "%v", err)
		})
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := st.Load(canceled, "event-poster")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStoreList(t *testing.T) {
	got, err := fileStore(t).List(context.Background())
	require.NoError(t, err)

	want := []Summary{
		{Family: "event-poster", Name: "Launch Night", Variants: []string{"full", "minimal", "no-logo"}},
		{Family: "flyer", Variants: []string{"plain"}, Legacy: true},
	}
	assert.Equal(t, want, got)
}

// countingStore records backend loads.
type countingStore struct {
	Store
	loads int
}

func (c *countingStore) Load(ctx context.Context, family string) (*schema.Schema, error) {
	c.loads++
	return c.Store.Load(ctx, family)
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	backend := &countingStore{Store: fileStore(t)}
	st := NewCached(backend, fc, nil)

	first, err := st.Load(ctx, "event-poster")
	require.NoError(t, err)
	second, err := st.Load(ctx, "event-poster")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.loads)
	assert.Equal(t, first, second)
	assert.Equal(t, "file", st.Name())

	require.NoError(t, st.Invalidate(ctx, "event-poster"))
	_, err = st.Load(ctx, "event-poster")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.loads)

	_, err = st.Load(ctx, "nope")
	assert.True(t, perrors.Is(err, perrors.ErrCodeTemplateNotFound))
}

func TestCachedNilCache(t *testing.T) {
	backend := &countingStore{Store: fileStore(t)}
	st := NewCached(backend, nil, nil)

	for range 2 {
		_, err := st.Load(context.Background(), "flyer")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, backend.loads)
}

func TestNewMongoStoreErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewMongoStore(ctx, "", "")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidInput))

	_, err = NewMongoStore(ctx, "postgres://localhost/templates", "")
	assert.True(t, perrors.Is(err, perrors.ErrCodeInvalidInput))
}

func TestFamilyFilter(t *testing.T) {
	assert.Equal(t, "event-poster", familyFilter("event-poster")["family"])
}
