package domain

import (
	"context"
)

// VersionSource lists the remote refs of a package. An error means the
// listing is unavailable; an empty slice with a nil error means there is
// nothing to list.
type VersionSource interface {
	Tags(ctx context.Context, pkg PackageID) ([]Tag, error)
	Commits(ctx context.Context, pkg PackageID) ([]Commit, error)
}

type Resolver interface {
	Resolve(ctx context.Context, pkg PackageID, maxCount int) ([]string, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, pkg PackageID, spec Specifier, stagingRoot string) (*Staged, error)
}

type Installer interface {
	Install(staged *Staged, installRoot string, filter Filter) (string, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}
