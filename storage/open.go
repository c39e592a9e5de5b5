package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendBolt    = "bolt"
)

// Open constructs the named backend. Disk backends create the parent
// directory of path when missing.
func Open(backend, path string) (Database, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemDB(), nil
	case BackendLevelDB:
		if err := ensureDir(path, true); err != nil {
			return nil, err
		}
		return NewLevelDB(path)
	case BackendBolt:
		if err := ensureDir(path, false); err != nil {
			return nil, err
		}
		return NewBoltDB(path, nil)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

func ensureDir(path string, isDir bool) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("storage: path required")
	}
	dir := path
	if !isDir {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return nil
}
