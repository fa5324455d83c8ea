package store

import "errors"

var (
	// ErrNotFound indicates the requested evidence unit does not exist.
	ErrNotFound = errors.New("evidence not found")

	// ErrDuplicateID indicates two byte-different units share an evidence id.
	// Identical duplicates are tolerated: re-ingestion is idempotent.
	ErrDuplicateID = errors.New("conflicting duplicate evidence id")

	// ErrEmptyID indicates a unit arrived without an evidence id.
	ErrEmptyID = errors.New("empty evidence id")
)
