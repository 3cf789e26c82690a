// Package pathutil normalizes client-supplied logical paths and maps them to
// physical locations under the storage root.
//
// A canonical logical path always starts with "/", uses "/" as separator,
// never contains empty, "." or ".." segments and never ends with "/" except
// for the root itself.
package pathutil

import (
	"path"
	"path/filepath"
	"strings"

	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// Root is the canonical root path.
const Root = "/"

// Normalize turns a raw client path into canonical form. Any ".." segment is
// rejected with ErrPathTraversal; nothing is resolved against the filesystem.
func Normalize(raw string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/")

	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", drverrors.NewPathTraversalError(raw)
		default:
			segments = append(segments, seg)
		}
	}

	return Root + strings.Join(segments, "/"), nil
}

// MustNormalize is Normalize for trusted input; it panics on traversal.
func MustNormalize(raw string) string {
	p, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// PhysicalLocation maps a canonical logical path to root/<ownerID>/<logical>.
// Symlinks are never resolved.
func PhysicalLocation(root, ownerID, logical string) string {
	return filepath.Join(OwnerRoot(root, ownerID), filepath.FromSlash(strings.TrimPrefix(logical, "/")))
}

// OwnerRoot returns the physical directory holding all of an owner's bytes.
func OwnerRoot(root, ownerID string) string {
	return filepath.Join(root, ownerID)
}

// Join appends name to a canonical parent path.
func Join(parent, name string) string {
	if parent == Root || parent == "" {
		return Root + name
	}
	return parent + "/" + name
}

// Parent returns the parent of a canonical path. The parent of "/" is "/".
func Parent(p string) string {
	return path.Dir(p)
}

// Base returns the last segment of a canonical path, or "/" for the root.
func Base(p string) string {
	return path.Base(p)
}

// SplitName splits a filename at its last dot. Names without a dot, or whose
// only dot is the leading one (dotfiles), have no extension.
//
//	"file.txt"       -> ("file", "txt")
//	"archive.tar.gz" -> ("archive.tar", "gz")
//	".bashrc"        -> (".bashrc", "")
func SplitName(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// ValidateName checks a single path segment supplied by a client.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return drverrors.NewInvalidArgumentError("name must not be empty")
	case name == "." || name == "..":
		return drverrors.NewPathTraversalError(name)
	case strings.ContainsAny(name, `/\`):
		return drverrors.NewInvalidArgumentError("name must not contain path separators")
	case strings.ContainsRune(name, 0):
		return drverrors.NewInvalidArgumentError("name must not contain NUL")
	}
	return nil
}

// IsWithin reports whether p equals prefix or lies below it.
func IsWithin(p, prefix string) bool {
	if prefix == Root {
		return strings.HasPrefix(p, Root)
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Rebase swaps oldPrefix for newPrefix at the start of p. p must satisfy
// IsWithin(p, oldPrefix).
func Rebase(p, oldPrefix, newPrefix string) string {
	if p == oldPrefix {
		return newPrefix
	}
	rest := strings.TrimPrefix(p, oldPrefix)
	rest = strings.TrimPrefix(rest, "/")
	return Join(newPrefix, rest)
}

// RebaseLocation is Rebase for physical locations.
func RebaseLocation(loc, oldPrefix, newPrefix string) string {
	if loc == oldPrefix {
		return newPrefix
	}
	rel, err := filepath.Rel(oldPrefix, loc)
	if err != nil {
		return loc
	}
	return filepath.Join(newPrefix, rel)
}
