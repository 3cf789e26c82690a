package content

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/marmos91/dittodrive/pkg/bufpool"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// DigestLength is the length of a hex-encoded SHA-256 digest.
const DigestLength = sha256.Size * 2

// Hash streams r through SHA-256 and returns the lowercase hex digest.
// Reading stops early when ctx is cancelled.
func (s *Service) Hash(ctx context.Context, r io.Reader) (string, error) {
	return hashReader(ctx, r, s.bufSize)
}

// HashFile hashes the physical file at location.
func (s *Service) HashFile(ctx context.Context, location string) (string, error) {
	f, err := os.Open(location)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	return s.Hash(ctx, f)
}

func hashReader(ctx context.Context, r io.Reader, bufSize int) (string, error) {
	if bufSize <= 0 {
		bufSize = bufpool.DefaultHashSize
	}

	h := sha256.New()
	if _, err := bufpool.CopySize(h, &ctxReader{ctx: ctx, r: r}, bufSize); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ValidateDigest checks that d is a lowercase hex SHA-256 digest.
func ValidateDigest(d string) error {
	if len(d) != DigestLength {
		return drverrors.NewInvalidArgumentError("hash must be a 64 character hex SHA-256 digest")
	}
	for i := 0; i < len(d); i++ {
		c := d[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return drverrors.NewInvalidArgumentError("hash must be a 64 character hex SHA-256 digest")
		}
	}
	return nil
}

// ctxReader fails reads once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
