// Package diskusage reports capacity of the filesystem holding the storage
// root.
package diskusage

// Stats describes a mounted filesystem.
type Stats struct {
	TotalBytes     uint64 `json:"total_bytes"`
	FreeBytes      uint64 `json:"free_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
}

// UsedBytes returns the bytes in use on the filesystem.
func (s Stats) UsedBytes() uint64 {
	if s.FreeBytes > s.TotalBytes {
		return 0
	}
	return s.TotalBytes - s.FreeBytes
}
