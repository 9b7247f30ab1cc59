// Package store persists operation logs.
//
// A log is an ordered list of serialized operations per document. The
// position of a record in its log is its version: record n must carry
// baseVersion n, which Append enforces so that concurrent writers cannot
// interleave operations that were built against different states.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Errors returned by stores.
var (
	// ErrVersionConflict indicates a record was built against a stale log.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidRecord indicates a record is not a serialized operation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store closed")
)

// Store is an append-only operation log keyed by document.
type Store interface {
	// Append adds records to the end of the log. The first record's base
	// version must equal the log length and the rest must follow it.
	Append(ctx context.Context, docID string, records ...[]byte) error

	// Load returns the records from fromVersion to the end of the log.
	Load(ctx context.Context, docID string, fromVersion int) ([][]byte, error)

	// Version returns the log length.
	Version(ctx context.Context, docID string) (int, error)

	// Close releases the store.
	Close() error
}

// VersionConflictError reports the log length an Append expected.
type VersionConflictError struct {
	DocID    string
	Expected int
	Actual   int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("document %s: %v: log is at %d, record expects %d",
		e.DocID, ErrVersionConflict, e.Actual, e.Expected)
}

// Unwrap returns ErrVersionConflict.
func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// BaseVersion reads the baseVersion field of a record.
func BaseVersion(record []byte) (int, error) {
	if !gjson.ValidBytes(record) {
		return 0, fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}
	v := gjson.GetBytes(record, "baseVersion")
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%w: missing baseVersion", ErrInvalidRecord)
	}
	return int(v.Int()), nil
}

// Restamp returns a copy of record with its baseVersion set to version.
func Restamp(record []byte, version int) ([]byte, error) {
	if !gjson.ValidBytes(record) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}
	out, err := sjson.SetBytes(record, "baseVersion", version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return out, nil
}

// firstVersion checks that records carry consecutive base versions and
// returns the first one.
func firstVersion(records [][]byte) (int, error) {
	first := 0
	for i, rec := range records {
		v, err := BaseVersion(rec)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		if i == 0 {
			first = v
			continue
		}
		if v != first+i {
			return 0, fmt.Errorf("record %d: %w: base version %d, want %d", i, ErrInvalidRecord, v, first+i)
		}
	}
	return first, nil
}
