// Package ingest loads evidence records from JSONL case files and assigns
// deterministic evidence ids. Validation happens here, at the boundary: a
// malformed record is rejected with file and line before anything enters the
// store, so downstream stages never see partial data.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/anamnesis/internal/model"
)

// maxLineBytes caps a single JSONL record. A multi-megabyte "note" is a
// corrupted export, not evidence.
const maxLineBytes = 1 << 20

// InputError reports a rejected record with its exact location.
type InputError struct {
	File   string
	Line   int
	Reason string
}

func (e *InputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Record is one line of a JSONL case file.
type Record struct {
	Type  string `json:"type"`             // note, lab, conversation, summary, monitor, reference
	RowID int    `json:"row_id,omitempty"` // Source row locator; 0 means assign sequentially
	Field string `json:"field,omitempty"`  // Source column or field name
	Text  string `json:"text"`
	Scope string `json:"scope,omitempty"` // patient (default) or reference
}

// Loader turns JSONL case files into evidence units.
type Loader struct{}

// NewLoader creates a new loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile reads one JSONL case file. Blank lines and lines starting with #
// are skipped. Ids derive from (type prefix, row locator): records carrying a
// row_id keep it as their ordinal, the rest take the next free ordinal per
// type. The same file always yields the same ids.
func (l *Loader) LoadFile(path string) ([]model.EvidenceUnit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open case file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var units []model.EvidenceUnit
	assigned := make(map[string]int)          // Evidence id -> line that claimed it
	nextOrdinal := make(map[model.EvidenceType]int) // Per-type sequence for rows without a locator

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &InputError{File: path, Line: lineNo, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}

		unit, reason := l.buildUnit(rec, path, nextOrdinal)
		if reason != "" {
			return nil, &InputError{File: path, Line: lineNo, Reason: reason}
		}

		if prev, taken := assigned[unit.EvidenceID]; taken {
			return nil, &InputError{
				File:   path,
				Line:   lineNo,
				Reason: fmt.Sprintf("evidence id %s already assigned at line %d", unit.EvidenceID, prev),
			}
		}
		assigned[unit.EvidenceID] = lineNo
		units = append(units, unit)
	}

	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return nil, &InputError{File: path, Line: lineNo + 1, Reason: fmt.Sprintf("record exceeds %d bytes", maxLineBytes)}
		}
		return nil, fmt.Errorf("scan case file: %w", err)
	}
	return units, nil
}

// buildUnit validates one record and assigns its evidence id. It returns a
// non-empty reason on rejection.
func (l *Loader) buildUnit(rec Record, sourceFile string, nextOrdinal map[model.EvidenceType]int) (model.EvidenceUnit, string) {
	evType := model.EvidenceType(rec.Type)
	if !model.ValidEvidenceType(evType) {
		return model.EvidenceUnit{}, fmt.Sprintf("unknown evidence type %q", rec.Type)
	}
	if rec.RowID < 0 {
		return model.EvidenceUnit{}, fmt.Sprintf("negative row_id %d", rec.RowID)
	}

	text := rec.Text
	if strings.Contains(text, "<") {
		text = StripMarkup(text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.EvidenceUnit{}, "empty text"
	}

	scope := model.PatientScope(rec.Scope)
	switch scope {
	case "":
		if evType == model.EvidenceTypeReference {
			scope = model.ScopeReference
		} else {
			scope = model.ScopePatient
		}
	case model.ScopePatient, model.ScopeReference:
	default:
		return model.EvidenceUnit{}, fmt.Sprintf("unknown scope %q", rec.Scope)
	}

	ordinal := rec.RowID
	if ordinal == 0 {
		nextOrdinal[evType]++
		ordinal = nextOrdinal[evType]
	}

	return model.EvidenceUnit{
		EvidenceID:   model.MakeEvidenceID(evType, ordinal),
		EvidenceType: evType,
		RowID:        ordinal,
		Field:        rec.Field,
		SourceFile:   sourceFile,
		RawText:      text,
		PatientScope: scope,
	}, ""
}

// LoadFiles loads multiple case files in order into one evidence set.
// Id collisions across files are rejected the same as within a file.
func (l *Loader) LoadFiles(paths []string) ([]model.EvidenceUnit, error) {
	var all []model.EvidenceUnit
	seen := make(map[string]string) // Evidence id -> file that claimed it

	for _, path := range paths {
		units, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if prev, taken := seen[u.EvidenceID]; taken {
				return nil, &InputError{
					File:   path,
					Reason: fmt.Sprintf("evidence id %s already assigned by %s", u.EvidenceID, prev),
				}
			}
			seen[u.EvidenceID] = path
		}
		all = append(all, units...)
	}
	return all, nil
}
