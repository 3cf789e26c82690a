package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
)

const owner = "alice"

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: filepath.Join(dir, "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	root := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))
	return NewService(st, Config{Root: root, HashQueueSize: 16}, nil), st
}

func digestOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

// upload ingests body and runs the hash task synchronously.
func upload(t *testing.T, svc *Service, parent, name, body string) *models.FileEntry {
	t.Helper()
	ctx := context.Background()
	row, err := svc.Ingest(ctx, owner, parent, name, "", strings.NewReader(body), 0)
	require.NoError(t, err)
	_, err = svc.HashAndRegister(ctx, row.ID)
	require.NoError(t, err)
	return row
}

func TestHash(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	got, err := svc.Hash(ctx, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, digestOf("hello"), got)

	big := bytes.Repeat([]byte("x"), 3*8192+17)
	got, err = svc.Hash(ctx, bytes.NewReader(big))
	require.NoError(t, err)
	sum := sha256.Sum256(big)
	assert.Equal(t, hex.EncodeToString(sum[:]), got)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Hash(cancelled, strings.NewReader("hello"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateDigest(t *testing.T) {
	assert.NoError(t, ValidateDigest(digestOf("x")))
	assert.True(t, drverrors.IsCode(ValidateDigest("abc"), drverrors.ErrInvalidArgument))
	assert.True(t, drverrors.IsCode(ValidateDigest(strings.ToUpper(digestOf("x"))), drverrors.ErrInvalidArgument))
}

func TestDetectMime(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeFromName("photo.JPG"))
	assert.Equal(t, "application/gzip", MimeFromName("backup.tar.gz"))
	assert.Equal(t, "", MimeFromName("README"))

	dir := t.TempDir()
	plain := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(plain, []byte("just some text\n"), 0o644))
	assert.Contains(t, DetectMime("notes", plain), "text/plain")

	assert.Equal(t, "text/csv", DetectMime("data.csv", plain))
	assert.Equal(t, DefaultMimeType, DetectMime("unknown", ""))
}

func TestIngest(t *testing.T) {
	t.Run("writes bytes to natural location", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		row, err := svc.Ingest(ctx, owner, "/", "a.txt", "", strings.NewReader("hello"), 0)
		require.NoError(t, err)

		assert.Equal(t, "/a.txt", row.LogicalPath)
		assert.Equal(t, "/", row.ParentPath)
		assert.Equal(t, int64(5), row.Size())
		assert.Equal(t, "text/plain", row.Mime())
		assert.Empty(t, row.Hash())
		assert.Equal(t, pathutil.PhysicalLocation(svc.Root(), owner, "/a.txt"), row.Location())
		assert.Equal(t, "hello", readFile(t, row.Location()))
		assert.Equal(t, 1, svc.Queue().Pending())

		stored, err := st.GetFileByPath(ctx, owner, "/a.txt")
		require.NoError(t, err)
		assert.Equal(t, row.ID, stored.ID)
	})

	t.Run("too large leaves nothing behind", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		_, err := svc.Ingest(ctx, owner, "/", "big.bin", "", strings.NewReader("0123456789"), 4)
		assert.True(t, drverrors.IsCode(err, drverrors.ErrTooLarge))

		_, statErr := os.Stat(pathutil.PhysicalLocation(svc.Root(), owner, "/big.bin"))
		assert.True(t, os.IsNotExist(statErr))
		exists, err := st.PathExists(ctx, owner, "/big.bin")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("exact limit is accepted", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Ingest(context.Background(), owner, "/", "ok.bin", "", strings.NewReader("0123"), 4)
		assert.NoError(t, err)
	})

	t.Run("duplicate path", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		_, err := svc.Ingest(ctx, owner, "/", "a.txt", "", strings.NewReader("1"), 0)
		require.NoError(t, err)
		_, err = svc.Ingest(ctx, owner, "/", "a.txt", "", strings.NewReader("2"), 0)
		assert.True(t, drverrors.IsCode(err, drverrors.ErrAlreadyExists))
	})

	t.Run("missing parent", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Ingest(context.Background(), owner, "/nope", "a.txt", "", strings.NewReader("1"), 0)
		assert.True(t, drverrors.IsNotFoundError(err))
	})

	t.Run("traversal and bad names", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		_, err := svc.Ingest(ctx, owner, "/../etc", "a.txt", "", strings.NewReader("1"), 0)
		assert.True(t, drverrors.IsCode(err, drverrors.ErrPathTraversal))
		_, err = svc.Ingest(ctx, owner, "/", "a/b", "", strings.NewReader("1"), 0)
		assert.True(t, drverrors.IsCode(err, drverrors.ErrInvalidArgument))
	})
}

func TestRegisterUpload(t *testing.T) {
	t.Run("first upload wins", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		row := upload(t, svc, "/", "a.txt", "same")

		got, err := st.GetFile(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, digestOf("same"), got.Hash())
		assert.Equal(t, 1, got.References())

		blob, err := st.GetBlob(ctx, owner, digestOf("same"))
		require.NoError(t, err)
		assert.Equal(t, row.Location(), blob.Location)
		assert.Equal(t, 1, blob.RefCount)
	})

	t.Run("second upload is repointed and its bytes removed", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		first := upload(t, svc, "/", "a.txt", "same")
		second, err := svc.Ingest(ctx, owner, "/", "b.txt", "", strings.NewReader("same"), 0)
		require.NoError(t, err)

		result, err := svc.HashAndRegister(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, HashReused, result)

		got, err := st.GetFile(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Location(), got.Location())
		assert.Equal(t, 2, got.References())

		orig, err := st.GetFile(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, orig.References())

		_, statErr := os.Stat(second.Location())
		assert.True(t, os.IsNotExist(statErr), "candidate bytes should be discarded")
		assert.Equal(t, "same", readFile(t, first.Location()))

		usage, err := st.Usage(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(4), usage.SavedBytes)
	})

	t.Run("vanished row is skipped", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		row, err := svc.Ingest(ctx, owner, "/", "gone.txt", "", strings.NewReader("x"), 0)
		require.NoError(t, err)
		require.NoError(t, st.DeleteFiles(ctx, []string{row.ID}))

		result, err := svc.HashAndRegister(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, HashSkipped, result)

		_, err = svc.RegisterUpload(ctx, owner, row.ID, digestOf("x"), row.Location(), 1)
		assert.True(t, drverrors.IsNotFoundError(err))
	})

	t.Run("already hashed is skipped", func(t *testing.T) {
		svc, _ := newTestService(t)
		row := upload(t, svc, "/", "a.txt", "x")

		result, err := svc.HashAndRegister(context.Background(), row.ID)
		require.NoError(t, err)
		assert.Equal(t, HashSkipped, result)
	})

	t.Run("concurrent registrations converge on one blob", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		const n = 5
		rows := make([]*models.FileEntry, n)
		for i := range rows {
			row, err := svc.Ingest(ctx, owner, "/", string(rune('a'+i))+".bin", "", strings.NewReader("payload"), 0)
			require.NoError(t, err)
			rows[i] = row
		}

		var wg sync.WaitGroup
		for _, row := range rows {
			wg.Add(1)
			go func(row *models.FileEntry) {
				defer wg.Done()
				_, err := svc.HashAndRegister(ctx, row.ID)
				assert.NoError(t, err)
			}(row)
		}
		wg.Wait()

		blob, err := st.GetBlob(ctx, owner, digestOf("payload"))
		require.NoError(t, err)
		assert.Equal(t, n, blob.RefCount)

		sharing, err := st.ListByLocation(ctx, blob.Location)
		require.NoError(t, err)
		assert.Len(t, sharing, n)
		for _, row := range sharing {
			assert.Equal(t, n, row.References())
		}
	})
}

func TestRelease(t *testing.T) {
	t.Run("last reference deletes", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()
		row := upload(t, svc, "/", "a.txt", "solo")

		var result ReleaseResult
		err := st.Transaction(ctx, func(tx store.Store) error {
			var err error
			result, err = svc.Release(ctx, tx, row.ID)
			if err != nil {
				return err
			}
			return tx.DeleteFiles(ctx, []string{row.ID})
		})
		require.NoError(t, err)
		assert.True(t, result.ShouldDelete)
		assert.Equal(t, row.Location(), result.Location)

		_, err = st.GetBlob(ctx, owner, digestOf("solo"))
		assert.ErrorIs(t, err, models.ErrBlobNotFound)

		svc.RemoveOrphan(ctx, result.Location)
		_, statErr := os.Stat(row.Location())
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("shared reference decrements", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()
		first := upload(t, svc, "/", "a.txt", "dup")
		second := upload(t, svc, "/", "b.txt", "dup")

		var result ReleaseResult
		err := st.Transaction(ctx, func(tx store.Store) error {
			var err error
			result, err = svc.Release(ctx, tx, second.ID)
			if err != nil {
				return err
			}
			return tx.DeleteFiles(ctx, []string{second.ID})
		})
		require.NoError(t, err)
		assert.False(t, result.ShouldDelete)

		orig, err := st.GetFile(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, orig.References())

		blob, err := st.GetBlob(ctx, owner, digestOf("dup"))
		require.NoError(t, err)
		assert.Equal(t, 1, blob.RefCount)

		svc.RemoveOrphan(ctx, result.Location)
		assert.Equal(t, "dup", readFile(t, first.Location()), "referenced bytes must survive")
	})

	t.Run("unindexed row falls back to own count", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()
		row, err := svc.Ingest(ctx, owner, "/", "raw.txt", "", strings.NewReader("raw"), 0)
		require.NoError(t, err)

		err = st.Transaction(ctx, func(tx store.Store) error {
			result, err := svc.Release(ctx, tx, row.ID)
			assert.True(t, result.ShouldDelete)
			return err
		})
		require.NoError(t, err)
	})
}

func TestInstantUpload(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	orig := upload(t, svc, "/", "a.pdf", "document")

	row, err := svc.InstantUpload(ctx, owner, "/", "copy.pdf", digestOf("document"))
	require.NoError(t, err)
	assert.Equal(t, orig.Location(), row.Location())
	assert.Equal(t, "application/pdf", row.Mime())
	assert.Equal(t, int64(len("document")), row.Size())

	got, err := st.GetFile(ctx, orig.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.References())

	_, err = svc.InstantUpload(ctx, owner, "/", "other.pdf", digestOf("unknown"))
	assert.True(t, drverrors.IsNotFoundError(err))

	_, err = svc.InstantUpload(ctx, owner, "/", "copy.pdf", digestOf("document"))
	assert.True(t, drverrors.IsCode(err, drverrors.ErrAlreadyExists))

	blob, err := svc.FindDuplicate(ctx, owner, digestOf("document"))
	require.NoError(t, err)
	assert.Equal(t, 2, blob.RefCount)

	_, err = svc.FindDuplicate(ctx, "bob", digestOf("document"))
	assert.True(t, drverrors.IsNotFoundError(err), "dedup is per owner")
}

func TestHashQueue(t *testing.T) {
	t.Run("workers hash queued uploads", func(t *testing.T) {
		svc, st := newTestService(t)
		ctx := context.Background()

		row, err := svc.Ingest(ctx, owner, "/", "a.txt", "", strings.NewReader("queued"), 0)
		require.NoError(t, err)

		svc.Queue().Start(ctx)
		svc.Queue().Stop(10 * time.Second)

		pending, completed, failed := svc.Queue().Stats()
		assert.Equal(t, 0, pending)
		assert.Equal(t, 1, completed)
		assert.Equal(t, 0, failed)

		got, err := st.GetFile(ctx, row.ID)
		require.NoError(t, err)
		assert.Equal(t, digestOf("queued"), got.Hash())
	})

	t.Run("full queue rejects without blocking", func(t *testing.T) {
		svc, _ := newTestService(t)
		q := NewHashQueue(svc, HashQueueConfig{Workers: 1, QueueSize: 1})

		assert.True(t, q.Enqueue(HashTask{FileID: "a"}))
		assert.False(t, q.Enqueue(HashTask{FileID: "b"}))
		assert.Equal(t, 1, q.Pending())
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		svc, _ := newTestService(t)
		assert.NotPanics(t, func() { svc.Queue().Stop(time.Second) })
	})
}
