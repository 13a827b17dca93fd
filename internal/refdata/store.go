package refdata

import (
	_ "embed"
	"fmt"
	"sync/atomic"
)

//go:embed default.json
var defaultDataset []byte

// Default compiles the dataset embedded in the binary
func Default() (*Snapshot, error) {
	ds, err := Parse(defaultDataset)
	if err != nil {
		return nil, fmt.Errorf("embedded reference data: %w", err)
	}
	return Compile(*ds)
}

// Load returns the snapshot at path, or the embedded default when path is empty
func Load(path string) (*Snapshot, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Store holds the current snapshot. Readers never block and never see a
// half-applied reload; a swap only affects scans that start after it.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store serving snap
func NewStore(snap *Snapshot) *Store {
	s := &Store{}
	s.current.Store(snap)
	return s
}

// Current returns the snapshot to use for one scan
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace swaps in snap and returns the snapshot it replaced
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	if snap == nil {
		return s.current.Load()
	}
	return s.current.Swap(snap)
}

// ReloadFile loads path (or the embedded default when empty) and swaps it in.
// On error the current snapshot stays in place.
func (s *Store) ReloadFile(path string) (*Snapshot, error) {
	snap, err := Load(path)
	if err != nil {
		return nil, err
	}
	s.Replace(snap)
	return snap, nil
}
