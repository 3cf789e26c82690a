// Package bufpool provides pooled byte buffers for streaming file I/O.
//
// Every byte that crosses DittoDrive goes through a fixed-size buffer:
// hashing an upload, deep-copying a file, streaming an archive entry.
// Pooling those buffers keeps allocation flat no matter how many uploads
// the hash workers chew through.
//
// Buffers are grouped into size classes. Get returns a slice backed by the
// smallest class that fits; requests above the largest class are allocated
// directly and never pooled.
//
// # Usage
//
//	buf := bufpool.Get(8 << 10)
//	defer bufpool.Put(buf)
//
//	n, err := bufpool.Copy(dst, src)
package bufpool

import (
	"io"
	"slices"
	"sync"
)

// Default size classes.
const (
	// DefaultHashSize matches the default hash_buffer_size (8KB)
	DefaultHashSize = 8 << 10

	// DefaultStreamSize is used by Copy for file and archive streaming (64KB)
	DefaultStreamSize = 64 << 10

	// DefaultLargeSize is the largest pooled class (1MB)
	DefaultLargeSize = 1 << 20
)

// Pool manages one sync.Pool per size class.
type Pool struct {
	sizes   []int
	classes []*sync.Pool
}

// Config holds configuration for creating a custom buffer pool.
type Config struct {
	// Sizes lists the size classes. Non-positive entries are ignored and
	// duplicates collapse. Empty means the default classes.
	Sizes []int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{Sizes: []int{DefaultHashSize, DefaultStreamSize, DefaultLargeSize}}
}

// NewPool creates a new buffer pool with the given configuration.
// If config is nil, default values are used.
func NewPool(cfg *Config) *Pool {
	var sizes []int
	if cfg != nil {
		for _, s := range cfg.Sizes {
			if s > 0 {
				sizes = append(sizes, s)
			}
		}
	}
	if len(sizes) == 0 {
		sizes = DefaultConfig().Sizes
	}
	slices.Sort(sizes)
	sizes = slices.Compact(sizes)

	p := &Pool{sizes: sizes, classes: make([]*sync.Pool, len(sizes))}
	for i, size := range sizes {
		size := size
		p.classes[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, size)
				return &buf
			},
		}
	}
	return p
}

// Sizes returns the configured size classes in ascending order.
func (p *Pool) Sizes() []int {
	return slices.Clone(p.sizes)
}

// Get returns a slice of length size. The caller must Put it back when done.
func (p *Pool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	i, _ := slices.BinarySearch(p.sizes, size)
	if i == len(p.sizes) {
		return make([]byte, size)
	}
	buf := *p.classes[i].Get().(*[]byte)
	return buf[:size]
}

// Put returns buf to its size class. Buffers whose capacity matches no class
// are dropped.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	i, found := slices.BinarySearch(p.sizes, cap(buf))
	if !found {
		return
	}
	full := buf[:cap(buf)]
	p.classes[i].Put(&full)
}

// Copy streams src into dst through a pooled buffer of DefaultStreamSize.
func (p *Pool) Copy(dst io.Writer, src io.Reader) (int64, error) {
	return p.CopySize(dst, src, DefaultStreamSize)
}

// CopySize is Copy with an explicit buffer size.
func (p *Pool) CopySize(dst io.Writer, src io.Reader, size int) (int64, error) {
	if size <= 0 {
		size = DefaultStreamSize
	}
	buf := p.Get(size)
	defer p.Put(buf)
	return io.CopyBuffer(onlyWriter{dst}, onlyReader{src}, buf)
}

// onlyWriter and onlyReader hide ReaderFrom/WriterTo so io.CopyBuffer
// actually uses the pooled buffer.
type onlyWriter struct{ io.Writer }

type onlyReader struct{ io.Reader }

// =============================================================================
// Global Pool
// =============================================================================

var globalPool = NewPool(nil)

// Get returns a slice of length size from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}

// Copy streams src into dst through a buffer from the global pool.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	return globalPool.Copy(dst, src)
}

// CopySize streams src into dst through a global buffer of the given size.
func CopySize(dst io.Writer, src io.Reader, size int) (int64, error) {
	return globalPool.CopySize(dst, src, size)
}
