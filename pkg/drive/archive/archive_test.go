package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive/batch"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

func writeRow(t *testing.T, dir, id, logical, body string) *models.FileEntry {
	t.Helper()
	loc := filepath.Join(dir, id)
	require.NoError(t, os.WriteFile(loc, []byte(body), 0o644))
	size := int64(len(body))
	return &models.FileEntry{
		ID:               id,
		Name:             filepath.Base(logical),
		LogicalPath:      logical,
		Kind:             models.KindFile,
		SizeBytes:        &size,
		PhysicalLocation: &loc,
		UpdatedAt:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func readArchive(t *testing.T, data []byte) map[string]*zip.File {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		out[f.Name] = f
	}
	return out
}

func contents(t *testing.T, f *zip.File) string {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestEntryName(t *testing.T) {
	t.Parallel()

	rootOf := map[string]batch.Root{
		"nested": {Name: "docs", Path: "/work/docs"},
	}
	assert.Equal(t, "a.txt", EntryName(&models.FileEntry{ID: "plain", Name: "a.txt", LogicalPath: "/x/a.txt"}, rootOf))
	assert.Equal(t, "docs/sub/b.txt", EntryName(&models.FileEntry{ID: "nested", Name: "b.txt", LogicalPath: "/work/docs/sub/b.txt"}, rootOf))
}

func TestShouldCompress(t *testing.T) {
	t.Parallel()

	assert.False(t, ShouldCompress(100, 100))
	assert.True(t, ShouldCompress(101, 100))
	assert.False(t, ShouldCompress(0, 0))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		name := "store"
		if compress {
			name = "deflate"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			big := strings.Repeat("compressible ", 4096)
			files := []*models.FileEntry{
				writeRow(t, dir, "1", "/a.txt", "alpha"),
				writeRow(t, dir, "2", "/docs/sub/b.txt", big),
			}
			rootOf := map[string]batch.Root{"2": {Name: "docs", Path: "/docs"}}

			var buf bytes.Buffer
			require.NoError(t, NewBuilder(nil).Build(context.Background(), &buf, files, rootOf, compress))

			entries := readArchive(t, buf.Bytes())
			require.Len(t, entries, 2)

			a := entries["a.txt"]
			require.NotNil(t, a)
			assert.Equal(t, "alpha", contents(t, a))
			assert.Equal(t, EntryMode, a.Mode().Perm())
			assert.True(t, files[0].UpdatedAt.Equal(a.Modified.UTC()))

			b := entries["docs/sub/b.txt"]
			require.NotNil(t, b)
			assert.Equal(t, big, contents(t, b))

			if compress {
				assert.Equal(t, zip.Deflate, b.Method)
				assert.Less(t, b.CompressedSize64, b.UncompressedSize64)
			} else {
				assert.Equal(t, zip.Store, b.Method)
				assert.Equal(t, b.UncompressedSize64, b.CompressedSize64)
			}
		})
	}
}

func TestBuildMissingBytes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	row := writeRow(t, dir, "1", "/a.txt", "x")
	require.NoError(t, os.Remove(row.Location()))

	err := NewBuilder(nil).Build(context.Background(), io.Discard, []*models.FileEntry{row}, nil, false)
	assert.True(t, drverrors.IsCode(err, drverrors.ErrStorageIO))
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	row := writeRow(t, dir, "1", "/a.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewBuilder(nil).Build(ctx, io.Discard, []*models.FileEntry{row}, nil, false)
	assert.ErrorIs(t, err, context.Canceled)
}
