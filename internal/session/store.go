package session

import (
	"encoding/json"
	"os"

	nerrors "github.com/nirinit/nirinit/internal/errors"
)

// Store persists sessions as JSON on disk. Saves go through a
// write-to-temp-then-rename discipline so a crash mid-write never corrupts
// the previous valid snapshot.
type Store struct {
	path string
}

// NewStore returns a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the snapshot file path.
func (s *Store) Path() string { return s.path }

// Save writes the session atomically.
func (s *Store) Save(sess Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nerrors.SnapshotWrite(s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nerrors.SnapshotWrite(s.path, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return nerrors.SnapshotWrite(s.path, err)
	}
	return nil
}

// Load reads the persisted session. A missing or empty file yields a benign
// snapshot-missing error ("first run, nothing to restore"); an undecodable
// file yields snapshot-malformed. Unknown fields in the file are ignored.
func (s *Store) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, nerrors.SnapshotMissing(s.path)
		}
		return Session{}, nerrors.SnapshotMalformed(s.path, err)
	}
	if len(data) == 0 {
		return Session{}, nerrors.SnapshotMissing(s.path)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, nerrors.SnapshotMalformed(s.path, err)
	}
	return sess, nil
}
