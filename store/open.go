package store

import (
	"context"
	"fmt"
)

// Open returns the backend named by kind, rooted at dir.
func Open(ctx context.Context, kind, dir string) (Backend, error) {
	paths := Paths{Dir: dir}
	if err := paths.EnsureDir(); err != nil {
		return nil, err
	}

	switch kind {
	case "", BackendFile:
		return NewFileStore(dir), nil
	case BackendSQLite:
		return OpenSQLStore(ctx, paths.DatabasePath())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
