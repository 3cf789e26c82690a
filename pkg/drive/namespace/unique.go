package namespace

import (
	"context"
	"fmt"

	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
)

// MaxDuplicateNames caps the "name (n).ext" probing of UniqueName.
const MaxDuplicateNames = 1000

// PathChecker reports whether an owner already has an entry at a path.
type PathChecker interface {
	PathExists(ctx context.Context, ownerID, logicalPath string) (bool, error)
}

// UniqueName returns desired if parent/desired is free in ownerID's
// namespace, otherwise the first free "base (n).ext" for n = 1..1000.
// Fails with ErrAlreadyExists when every candidate is taken.
func UniqueName(ctx context.Context, paths PathChecker, ownerID, parent, desired string) (string, error) {
	base, ext := pathutil.SplitName(desired)

	name := desired
	for n := 0; n <= MaxDuplicateNames; n++ {
		if n > 0 {
			if ext == "" {
				name = fmt.Sprintf("%s (%d)", base, n)
			} else {
				name = fmt.Sprintf("%s (%d).%s", base, n, ext)
			}
		}

		exists, err := paths.PathExists(ctx, ownerID, pathutil.Join(parent, name))
		if err != nil {
			return "", drverrors.FromStore(err, parent)
		}
		if !exists {
			return name, nil
		}
	}

	return "", drverrors.NewAlreadyExistsError(pathutil.Join(parent, desired))
}

// UniqueName picks a free name for desired in ownerID's parent folder.
func (s *Service) UniqueName(ctx context.Context, ownerID, parent, desired string) (string, error) {
	return UniqueName(ctx, s.store, ownerID, parent, desired)
}
