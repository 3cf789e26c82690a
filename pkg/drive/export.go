package drive

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	"github.com/marmos91/dittodrive/pkg/drive/archive"
	"github.com/marmos91/dittodrive/pkg/drive/batch"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// ArchiveMimeType is the content type of batch downloads.
const ArchiveMimeType = "application/zip"

// archiveNameLayout formats the timestamp in batch archive names.
const archiveNameLayout = "20060102_150405"

// Download is a stream of bytes ready to be sent to a client. The caller
// must close Body.
type Download struct {
	Name     string
	MimeType string

	// Size is the exact length of Body, or -1 for archives streamed while
	// they are built.
	Size int64

	Body io.ReadCloser
}

// ContentDisposition returns the Content-Disposition header for d.
func (d *Download) ContentDisposition() string {
	return ContentDisposition(d.Name)
}

// Export returns the bytes for ids. A single readable file is served as is;
// anything else is collected and streamed as a zip archive. Batch limits are
// enforced before any byte is produced.
func (s *Service) Export(ctx context.Context, actor access.Actor, ids []string) (*Download, error) {
	if len(ids) == 1 {
		node, err := s.access.Require(ctx, actor, ids[0], access.RightRead)
		if err != nil {
			return nil, err
		}
		if node.IsFile() {
			return s.openFile(ctx, node.Location(), node.Name, node.Mime(), node.Size())
		}
	}

	ctx, span := telemetry.StartDriveSpan(ctx, telemetry.SpanBatchDownload, actor.UserID, telemetry.Entries(len(ids)))
	defer span.End()

	col, err := s.collector.Collect(ctx, actor, ids)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	if len(col.Files) == 0 {
		err := &drverrors.DriveError{Code: drverrors.ErrNotFound, Message: "no files found to download"}
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	total := col.TotalSize()
	if err := batch.EnforceLimit(total, s.cfg.MaxBatchSize); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	compress := archive.ShouldCompress(total, s.cfg.CompressionThreshold)

	name := "files_" + s.now().Format(archiveNameLayout) + ".zip"
	logger.InfoCtx(ctx, "Streaming batch download",
		logger.Filename(name), logger.Entries(len(col.Files)), logger.Size(total))

	// The archive outlives this call; it stops when the reader closes the
	// pipe.
	buildCtx := context.WithoutCancel(ctx)
	pr, pw := io.Pipe()
	go func() {
		err := s.archiver.Build(buildCtx, pw, col.Files, col.RootOf, compress)
		if err != nil {
			logger.WarnCtx(buildCtx, "Batch download aborted", logger.Filename(name), logger.Err(err))
		}
		_ = pw.CloseWithError(err)
	}()

	return &Download{
		Name:     name,
		MimeType: ArchiveMimeType,
		Size:     -1,
		Body:     pr,
	}, nil
}

func (s *Service) openFile(ctx context.Context, loc, name, mime string, size int64) (*Download, error) {
	f, err := os.Open(loc)
	if err != nil {
		if os.IsNotExist(err) {
			logger.ErrorCtx(ctx, "File bytes missing", logger.Location(loc), logger.Err(err))
			return nil, drverrors.NewInconsistentError(name, err)
		}
		return nil, drverrors.NewStorageIOError("open", err)
	}
	return &Download{Name: name, MimeType: mime, Size: size, Body: f}, nil
}

// ContentDisposition builds an attachment header carrying filename in the
// RFC 5987 extended notation. Every byte except ASCII letters and digits is
// percent-encoded.
func ContentDisposition(filename string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.WriteString("attachment; filename*=UTF-8''")
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}
