//go:build !unix

package diskusage

import "errors"

// ErrUnsupported is returned on platforms without statfs.
var ErrUnsupported = errors.New("disk usage is not supported on this platform")

// Stat returns ErrUnsupported.
func Stat(string) (Stats, error) {
	return Stats{}, ErrUnsupported
}
