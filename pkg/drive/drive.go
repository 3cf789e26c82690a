// Package drive wires the storage components into the operations the API
// exposes: uploads, downloads, namespace mutations and usage reporting.
package drive

import (
	"context"
	"io"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	"github.com/marmos91/dittodrive/pkg/drive/archive"
	"github.com/marmos91/dittodrive/pkg/drive/batch"
	"github.com/marmos91/dittodrive/pkg/drive/content"
	"github.com/marmos91/dittodrive/pkg/drive/diskusage"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/namespace"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Default limits.
const (
	DefaultMaxUploadSize        int64 = 1 << 30
	DefaultMaxBatchSize         int64 = 1 << 30
	DefaultCompressionThreshold int64 = 256 << 20
)

// Config configures a drive Service.
type Config struct {
	Content content.Config

	// MaxUploadSize caps a single upload.
	MaxUploadSize int64

	// MaxBatchSize caps the summed size of a batch download.
	MaxBatchSize int64

	// CompressionThreshold is the batch size above which archives are
	// deflated instead of stored.
	CompressionThreshold int64
}

func (c *Config) applyDefaults() {
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.CompressionThreshold <= 0 {
		c.CompressionThreshold = DefaultCompressionThreshold
	}
}

// Service is the entry point for every drive operation.
type Service struct {
	store     store.Store
	access    *access.Resolver
	content   *content.Service
	namespace *namespace.Service
	collector *batch.Collector
	archiver  *archive.Builder
	cfg       Config
	now       func() time.Time
}

// New creates a drive Service on top of st. m may be nil.
func New(st store.Store, cfg Config, m metrics.DriveMetrics) *Service {
	cfg.applyDefaults()

	resolver := access.NewResolver(st)
	cs := content.NewService(st, cfg.Content, m)

	return &Service{
		store:     st,
		access:    resolver,
		content:   cs,
		namespace: namespace.NewService(st, resolver, cs, m),
		collector: batch.NewCollector(resolver, st),
		archiver:  archive.NewBuilder(m),
		cfg:       cfg,
		now:       time.Now,
	}
}

// Start runs the background hash workers.
func (s *Service) Start(ctx context.Context) {
	s.content.Queue().Start(ctx)
}

// Stop drains the hash queue, waiting at most timeout.
func (s *Service) Stop(timeout time.Duration) {
	s.content.Queue().Stop(timeout)
}

// Namespace returns the namespace service.
func (s *Service) Namespace() *namespace.Service {
	return s.namespace
}

// Content returns the content service.
func (s *Service) Content() *content.Service {
	return s.content
}

// Access returns the permission resolver.
func (s *Service) Access() *access.Resolver {
	return s.access
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// maxUploadRetries bounds how often Upload re-picks a name after losing a
// race for it.
const maxUploadRetries = 3

// Upload stores r as a new file named name in parent of the actor's own
// namespace. A taken name is disambiguated as "name (n).ext".
func (s *Service) Upload(ctx context.Context, actor access.Actor, parent, name, mime string, r io.Reader) (*models.FileEntry, error) {
	if err := s.requireWritableFolder(ctx, actor, parent); err != nil {
		return nil, err
	}

	body := &countingReader{r: r}
	for attempt := 0; ; attempt++ {
		unique, err := s.namespace.UniqueName(ctx, actor.UserID, parent, name)
		if err != nil {
			return nil, err
		}

		row, err := s.content.Ingest(ctx, actor.UserID, parent, unique, mime, body, s.cfg.MaxUploadSize)
		if drverrors.IsCode(err, drverrors.ErrAlreadyExists) && body.n == 0 && attempt < maxUploadRetries {
			logger.DebugCtx(ctx, "Upload name taken, retrying",
				logger.Path(pathutil.Join(parent, unique)))
			continue
		}
		return row, err
	}
}

// countingReader tracks how many bytes of an upload body were consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// InstantUpload creates name in parent from an existing blob of the actor
// with the given digest, without transferring bytes.
func (s *Service) InstantUpload(ctx context.Context, actor access.Actor, parent, name, digest string) (*models.FileEntry, error) {
	if err := s.requireWritableFolder(ctx, actor, parent); err != nil {
		return nil, err
	}
	unique, err := s.namespace.UniqueName(ctx, actor.UserID, parent, name)
	if err != nil {
		return nil, err
	}
	return s.content.InstantUpload(ctx, actor.UserID, parent, unique, digest)
}

// requireWritableFolder checks that parent is the root or a folder of the
// actor that the actor may write to.
func (s *Service) requireWritableFolder(ctx context.Context, actor access.Actor, parent string) error {
	dir, err := s.namespace.Folder(ctx, actor.UserID, parent)
	if err != nil || dir == nil {
		return err
	}
	return s.access.RequireEntry(ctx, actor, dir, access.RightWrite)
}

// StorageInfo reports an owner's usage and, for admins, the capacity of the
// filesystem holding the storage root.
type StorageInfo struct {
	Files        int64            `json:"file_count"`
	Folders      int64            `json:"folder_count"`
	UsedBytes    int64            `json:"used_bytes"`
	SavedBytes   int64            `json:"dedup_saved_bytes"`
	Disk         *diskusage.Stats `json:"disk,omitempty"`
	HashesQueued int              `json:"hashes_pending"`
}

// StorageInfo returns usage for the actor's namespace.
func (s *Service) StorageInfo(ctx context.Context, actor access.Actor) (*StorageInfo, error) {
	usage, err := s.store.Usage(ctx, actor.UserID)
	if err != nil {
		return nil, drverrors.NewStorageIOError("usage", err)
	}

	info := &StorageInfo{
		Files:        usage.Files,
		Folders:      usage.Folders,
		UsedBytes:    usage.LogicalBytes,
		SavedBytes:   usage.SavedBytes,
		HashesQueued: s.content.Queue().Pending(),
	}

	if actor.IsAdmin() {
		disk, err := diskusage.Stat(s.content.Root())
		if err != nil {
			logger.WarnCtx(ctx, "Failed to stat storage root", logger.Location(s.content.Root()), logger.Err(err))
		} else {
			info.Disk = &disk
		}
	}
	return info, nil
}
