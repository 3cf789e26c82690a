// Package content owns the physical bytes behind namespace entries.
//
// Files are written to their natural location (root/<owner>/<logical path>)
// and hashed asynchronously. Once hashed, uploads are deduplicated per owner
// by SHA-256 digest: the first upload of some bytes owns the canonical blob,
// later uploads of the same bytes are repointed at it and their own copy is
// discarded. The blobs table is the compare-and-set anchor for that decision.
package content

import (
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Config configures a content Service.
type Config struct {
	// Root is the storage root. Every owner gets a directory below it.
	Root string

	// HashBufferSize is the read buffer used while hashing. Default: 8KiB.
	HashBufferSize int

	// HashWorkers is the number of background hash workers. Default: 4.
	HashWorkers int

	// HashQueueSize bounds the number of pending hash tasks. Default: 1000.
	HashQueueSize int
}

func (c *Config) applyDefaults() {
	if c.HashBufferSize <= 0 {
		c.HashBufferSize = bufpool.DefaultHashSize
	}
	if c.HashWorkers <= 0 {
		c.HashWorkers = 4
	}
	if c.HashQueueSize <= 0 {
		c.HashQueueSize = 1000
	}
}

// Service stores, hashes, deduplicates and releases file bytes.
type Service struct {
	store   store.Store
	root    string
	bufSize int
	metrics metrics.DriveMetrics
	queue   *HashQueue
}

// NewService creates a content service. The hash queue is created stopped;
// call Start to run the workers. m may be nil.
func NewService(st store.Store, cfg Config, m metrics.DriveMetrics) *Service {
	cfg.applyDefaults()

	s := &Service{
		store:   st,
		root:    cfg.Root,
		bufSize: cfg.HashBufferSize,
		metrics: m,
	}
	s.queue = NewHashQueue(s, HashQueueConfig{
		Workers:   cfg.HashWorkers,
		QueueSize: cfg.HashQueueSize,
	})
	return s
}

// Root returns the storage root.
func (s *Service) Root() string {
	return s.root
}

// Queue returns the background hash queue.
func (s *Service) Queue() *HashQueue {
	return s.queue
}
