//go:build unix

package diskusage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Stat returns the capacity of the filesystem containing path.
func Stat(path string) (Stats, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Stats{}, fmt.Errorf("statfs %s: %w", path, err)
	}

	bsize := uint64(st.Bsize) //nolint:gosec // block size is never negative
	return Stats{
		TotalBytes:     st.Blocks * bsize,
		FreeBytes:      st.Bfree * bsize,
		AvailableBytes: uint64(st.Bavail) * bsize,
	}, nil
}
