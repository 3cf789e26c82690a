package drive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	"github.com/marmos91/dittodrive/pkg/drive/content"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

var (
	alice = access.Actor{UserID: "alice", Role: models.RoleUser}
	bob   = access.Actor{UserID: "bob", Role: models.RoleUser}
	admin = access.Actor{UserID: "root", Role: models.RoleAdmin}
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(dir, "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cfg.Content = content.Config{Root: filepath.Join(dir, "data"), HashQueueSize: 16}
	svc := New(st, cfg, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return svc
}

func upload(t *testing.T, svc *Service, parent, name, body string) *models.FileEntry {
	t.Helper()
	row, err := svc.Upload(context.Background(), alice, parent, name, "", strings.NewReader(body))
	require.NoError(t, err)
	return row
}

func readAll(t *testing.T, d *Download) []byte {
	t.Helper()
	defer func() { _ = d.Body.Close() }()
	b, err := io.ReadAll(d.Body)
	require.NoError(t, err)
	return b
}

func TestUpload(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx := context.Background()

	first := upload(t, svc, "/", "a.txt", "one")
	assert.Equal(t, "/a.txt", first.LogicalPath)

	second := upload(t, svc, "/", "a.txt", "two")
	assert.Equal(t, "a (1).txt", second.Name)
	assert.Equal(t, "/a (1).txt", second.LogicalPath)

	_, err := svc.Upload(ctx, alice, "/missing", "x", "", strings.NewReader("x"))
	assert.True(t, drverrors.IsNotFoundError(err))

	assert.Equal(t, 2, svc.Content().Queue().Pending())
}

func TestUploadTooLarge(t *testing.T) {
	svc := newTestService(t, Config{MaxUploadSize: 4})

	_, err := svc.Upload(context.Background(), alice, "/", "big.bin", "", strings.NewReader("12345"))
	assert.True(t, drverrors.IsCode(err, drverrors.ErrTooLarge))
}

func TestInstantUpload(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx := context.Background()

	row := upload(t, svc, "/", "a.txt", "same")
	_, err := svc.Content().HashAndRegister(ctx, row.ID)
	require.NoError(t, err)
	hashed, err := svc.Namespace().Get(ctx, alice, row.ID)
	require.NoError(t, err)

	dup, err := svc.InstantUpload(ctx, alice, "/", "a.txt", hashed.Hash())
	require.NoError(t, err)
	assert.Equal(t, "a (1).txt", dup.Name)
	assert.Equal(t, hashed.Location(), dup.Location())
	assert.Equal(t, 2, dup.References())
}

func TestExportSingleFile(t *testing.T) {
	svc := newTestService(t, Config{})
	row := upload(t, svc, "/", "hello world.txt", "hi")

	d, err := svc.Export(context.Background(), alice, []string{row.ID})
	require.NoError(t, err)
	assert.Equal(t, "hello world.txt", d.Name)
	assert.Equal(t, "text/plain", d.MimeType)
	assert.EqualValues(t, 2, d.Size)
	assert.Equal(t, "hi", string(readAll(t, d)))
	assert.Equal(t, "attachment; filename*=UTF-8''hello%20world%2Etxt", d.ContentDisposition())

	_, err = svc.Export(context.Background(), bob, []string{row.ID})
	assert.True(t, drverrors.IsCode(err, drverrors.ErrPermissionDenied))
}

func TestExportArchive(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx := context.Background()

	docs, err := svc.Namespace().CreateFolder(ctx, alice, "/", "docs")
	require.NoError(t, err)
	_, err = svc.Namespace().CreateFolder(ctx, alice, "/docs", "sub")
	require.NoError(t, err)
	upload(t, svc, "/docs", "a.txt", "a")
	upload(t, svc, "/docs/sub", "b.txt", "b")
	top := upload(t, svc, "/", "top.txt", "top")

	d, err := svc.Export(ctx, alice, []string{docs.ID, top.ID})
	require.NoError(t, err)
	assert.Equal(t, "files_20240506_070809.zip", d.Name)
	assert.Equal(t, ArchiveMimeType, d.MimeType)
	assert.EqualValues(t, -1, d.Size)

	data := readAll(t, d)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Store, f.Method)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"docs/a.txt", "docs/sub/b.txt", "top.txt"}, names)
}

func TestExportFolderOnly(t *testing.T) {
	svc := newTestService(t, Config{CompressionThreshold: 1})
	ctx := context.Background()

	docs, err := svc.Namespace().CreateFolder(ctx, alice, "/", "docs")
	require.NoError(t, err)
	upload(t, svc, "/docs", "a.txt", "aaaa")

	d, err := svc.Export(ctx, alice, []string{docs.ID})
	require.NoError(t, err)
	data := readAll(t, d)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "docs/a.txt", zr.File[0].Name)
	assert.Equal(t, zip.Deflate, zr.File[0].Method)
}

func TestExportNothingToDownload(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx := context.Background()

	empty, err := svc.Namespace().CreateFolder(ctx, alice, "/", "empty")
	require.NoError(t, err)
	_, err = svc.Namespace().CreateFolder(ctx, alice, "/empty", "nested")
	require.NoError(t, err)

	d, err := svc.Export(ctx, alice, []string{empty.ID})
	assert.Nil(t, d)
	assert.True(t, drverrors.IsNotFoundError(err))
}

func TestExportBatchLimit(t *testing.T) {
	svc := newTestService(t, Config{MaxBatchSize: 5})
	a := upload(t, svc, "/", "a.txt", "abc")
	b := upload(t, svc, "/", "b.txt", "def")

	_, err := svc.Export(context.Background(), alice, []string{a.ID, b.ID})
	assert.True(t, drverrors.IsCode(err, drverrors.ErrTooLarge))
}

func TestContentDisposition(t *testing.T) {
	assert.Equal(t, "attachment; filename*=UTF-8''report", ContentDisposition("report"))
	assert.Equal(t, "attachment; filename*=UTF-8''%C3%A9t%C3%A9%2Epdf", ContentDisposition("été.pdf"))
	assert.Equal(t, "attachment; filename*=UTF-8''a%22b%3B", ContentDisposition(`a"b;`))
}

func TestStorageInfo(t *testing.T) {
	svc := newTestService(t, Config{})
	ctx := context.Background()

	_, err := svc.Namespace().CreateFolder(ctx, alice, "/", "docs")
	require.NoError(t, err)
	upload(t, svc, "/docs", "a.txt", "abcd")

	info, err := svc.StorageInfo(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.Files)
	assert.EqualValues(t, 1, info.Folders)
	assert.EqualValues(t, 4, info.UsedBytes)
	assert.Nil(t, info.Disk)

	adminInfo, err := svc.StorageInfo(ctx, admin)
	require.NoError(t, err)
	assert.Zero(t, adminInfo.Files)
	require.NotNil(t, adminInfo.Disk)
	assert.Positive(t, adminInfo.Disk.TotalBytes)
}
