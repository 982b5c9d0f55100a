// Package journal records autosave and restore outcomes in a local SQLite
// database so past passes can be inspected after the fact.
package journal

import (
	"context"
	"time"
)

// Kind classifies a journal record.
type Kind string

const (
	// KindSave records one autosave tick that wrote a snapshot.
	KindSave Kind = "save"
	// KindRestorePass records the summary of one restore pass.
	KindRestorePass Kind = "restore_pass"
	// KindRestoreEntry records the terminal state of one worklist entry.
	KindRestoreEntry Kind = "restore_entry"
)

// Record is one journal row.
type Record struct {
	ID         int64
	PassID     string
	Kind       Kind
	AppID      string
	State      string
	DurationMS int64
	Detail     string
	At         time.Time
}

// Store persists and retrieves journal records.
type Store interface {
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// ByPass returns all records for one pass id, oldest first.
	ByPass(ctx context.Context, passID string) ([]Record, error)

	Close() error
}

// Nop is a Store that records nothing, used when the journal is disabled.
type Nop struct{}

func (Nop) Append(context.Context, Record) error             { return nil }
func (Nop) Recent(context.Context, int) ([]Record, error)    { return nil, nil }
func (Nop) ByPass(context.Context, string) ([]Record, error) { return nil, nil }
func (Nop) Close() error                                     { return nil }
