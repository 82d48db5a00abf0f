package source

import (
	"fmt"

	"fortio.org/safecast"
)

// FileID identifies a source file inside a FileTable. Zero means "unknown file".
type FileID uint32

// FileTable maps file ids to the paths the frontend reported for them.
type FileTable struct {
	paths []string
	index map[string]FileID
}

// NewFileTable creates an empty table.
func NewFileTable() *FileTable {
	return &FileTable{
		paths: make([]string, 1, 16),
		index: make(map[string]FileID),
	}
}

// Add registers path and returns its id. Re-adding a path yields the existing id.
func (t *FileTable) Add(path string) FileID {
	if id, ok := t.index[path]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.paths))
	if err != nil {
		panic(fmt.Errorf("file table overflow: %w", err))
	}
	id := FileID(n)
	t.paths = append(t.paths, path)
	t.index[path] = id
	return id
}

// Path returns the path registered for id, or "" for unknown ids.
func (t *FileTable) Path(id FileID) string {
	if t == nil || id == 0 || int(id) >= len(t.paths) {
		return ""
	}
	return t.paths[id]
}

// Lookup finds the id of a registered path.
func (t *FileTable) Lookup(path string) (FileID, bool) {
	if t == nil {
		return 0, false
	}
	id, ok := t.index[path]
	return id, ok
}

// Len reports the number of registered files.
func (t *FileTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.paths) - 1
}

// Paths returns registered paths in id order.
func (t *FileTable) Paths() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.paths)-1)
	copy(out, t.paths[1:])
	return out
}
