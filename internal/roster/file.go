package roster

import (
	"fmt"

	"github.com/guezito-dev/gigachads/internal/jsonfile"
)

// Save writes the snapshot atomically to path.
func Save(path string, snap *Snapshot) error {
	return jsonfile.WriteAtomic(path, snap)
}

// Load reads a snapshot written by Save.
func Load(path string) (*Snapshot, error) {
	var snap Snapshot
	if err := jsonfile.Read(path, &snap); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap.TotalCount == 0 {
		snap.TotalCount = len(snap.Users)
	}
	return &snap, nil
}
