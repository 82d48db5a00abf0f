package astio

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/viant/afs"
)

// Store loads and saves snapshots through afs, so any URL afs understands
// (plain paths, file://, mem://, ...) works.
type Store struct {
	fs afs.Service
}

func NewStore() *Store {
	return &Store{fs: afs.New()}
}

// NewStoreWith wraps an existing afs service.
func NewStoreWith(fs afs.Service) *Store {
	return &Store{fs: fs}
}

// Read returns the raw bytes at URL.
func (s *Store) Read(ctx context.Context, URL string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", URL, err)
	}
	return data, nil
}

// Load reads and decodes the snapshot at URL; the format follows the extension.
func (s *Store) Load(ctx context.Context, URL string) (*Snapshot, []byte, error) {
	data, err := s.Read(ctx, URL)
	if err != nil {
		return nil, nil, err
	}
	snap, err := Unmarshal(data, FormatFromPath(URL))
	if err != nil {
		return nil, data, fmt.Errorf("decode %s: %w", URL, err)
	}
	return snap, data, nil
}

// Write stores data at URL.
func (s *Store) Write(ctx context.Context, URL string, data []byte) error {
	if err := s.fs.Upload(ctx, URL, os.FileMode(0o644), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", URL, err)
	}
	return nil
}

// Save encodes snap in format f and stores it at URL.
func (s *Store) Save(ctx context.Context, URL string, snap *Snapshot, f Format) error {
	data, err := Marshal(snap, f)
	if err != nil {
		return fmt.Errorf("encode %s: %w", URL, err)
	}
	return s.Write(ctx, URL, data)
}

// Exists reports whether URL can be read.
func (s *Store) Exists(ctx context.Context, URL string) (bool, error) {
	return s.fs.Exists(ctx, URL)
}
