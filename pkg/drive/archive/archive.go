// Package archive streams collected files into a zip archive.
//
// Entries are written one at a time through a pooled buffer so memory use is
// bounded by the buffer size, not by the archive. Deflate uses
// klauspost/compress, registered on each writer in place of the standard
// library compressor.
package archive

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive/batch"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// EntryMode is the unix mode stored on every archive entry.
const EntryMode os.FileMode = 0o755

// DefaultBufferSize is the copy buffer used per entry.
const DefaultBufferSize = 64 * 1024

// Builder writes zip archives.
type Builder struct {
	level   int
	bufSize int
	metrics metrics.DriveMetrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithLevel sets the deflate level used when compressing.
func WithLevel(level int) Option {
	return func(b *Builder) { b.level = level }
}

// WithBufferSize sets the per-entry copy buffer size.
func WithBufferSize(size int) Option {
	return func(b *Builder) {
		if size > 0 {
			b.bufSize = size
		}
	}
}

// NewBuilder creates a Builder. m may be nil.
func NewBuilder(m metrics.DriveMetrics, opts ...Option) *Builder {
	b := &Builder{
		level:   flate.DefaultCompression,
		bufSize: DefaultBufferSize,
		metrics: m,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ShouldCompress reports whether a batch of total bytes is deflated rather
// than stored.
func ShouldCompress(total, threshold int64) bool {
	return total > threshold
}

// EntryName returns the archive path of f: "<root name>/<path below root>"
// for files reached through a selected folder, the bare name otherwise.
func EntryName(f *models.FileEntry, rootOf map[string]batch.Root) string {
	root, ok := rootOf[f.ID]
	if !ok {
		return f.Name
	}
	rel := strings.TrimPrefix(f.LogicalPath, root.Path)
	rel = strings.TrimPrefix(rel, "/")
	return root.Name + "/" + rel
}

// Build writes files to w as a zip archive. Entries are deflated when
// compress is set and stored otherwise. A file whose bytes are missing fails
// the build with ErrStorageIO; w then holds a truncated archive.
func (b *Builder) Build(ctx context.Context, w io.Writer, files []*models.FileEntry, rootOf map[string]batch.Root, compress bool) (err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanArchiveBuild)
	span.SetAttributes(telemetry.ArchiveEntries(len(files)), telemetry.ArchiveCompressed(compress))

	var written int64
	defer func() {
		span.SetAttributes(telemetry.ArchiveBytes(written))
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
		metrics.ObserveArchive(b.metrics, len(files), written, compress, time.Since(start), err)
	}()

	zw := zip.NewWriter(w)
	level := b.level
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	method := zip.Store
	if compress {
		method = zip.Deflate
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := b.addEntry(zw, f, EntryName(f, rootOf), method)
		written += n
		if err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return drverrors.NewStorageIOError("finish archive", err)
	}

	logger.DebugCtx(ctx, "Archive built",
		logger.Entries(len(files)), logger.Bytes(written),
		slog.Bool("compressed", compress), logger.DurationMs(logger.Duration(start)))
	return nil
}

func (b *Builder) addEntry(zw *zip.Writer, f *models.FileEntry, name string, method uint16) (int64, error) {
	src, err := os.Open(f.Location())
	if err != nil {
		return 0, drverrors.NewStorageIOError("open "+name, err)
	}
	defer func() { _ = src.Close() }()

	hdr := &zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: f.UpdatedAt,
	}
	hdr.SetMode(EntryMode)

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return 0, drverrors.NewStorageIOError("add "+name, err)
	}

	n, err := bufpool.CopySize(dst, src, b.bufSize)
	if err != nil {
		return n, drverrors.NewStorageIOError("write "+name, err)
	}
	return n, nil
}
