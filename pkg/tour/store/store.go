// Package store implements the Match Record Store: durable, crash-resumable
// persistence of a tournament's scheduled and completed games.
package store

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/herohde/tourney/pkg/tour"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the on-disk shape of the store.
type Document struct {
	TournamentType string            `json:"tournamentType"`
	Clock          tour.TimeControl  `json:"clock"`
	Records        []tour.MatchRecord `json:"records"`
	ElapsedSeconds float64           `json:"elapsedSeconds"`
}

// Store owns the durable record of one tournament run.
type Store struct {
	path string
	doc  Document
}

// Open reads path if it exists, returning the Store and whether a prior
// document was found. A missing file is not an error.
func Open(path string) (*Store, bool, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read store %v: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, false, fmt.Errorf("parse store %v: %w", path, err)
	}
	return s, true, nil
}

// HasUncompleted reports whether the loaded document has at least one
// record in state RecordNone.
func (s *Store) HasUncompleted() bool {
	for _, r := range s.doc.Records {
		if r.State == tour.RecordNone {
			return true
		}
	}
	return false
}

// Records returns the current records, in order.
func (s *Store) Records() []tour.MatchRecord {
	return append([]tour.MatchRecord(nil), s.doc.Records...)
}

func (s *Store) ElapsedSeconds() float64 { return s.doc.ElapsedSeconds }

// Resume adopts the loaded document as the live tournament state and
// removes the on-disk file; it is rewritten on the next Save.
func (s *Store) Resume() error {
	return s.deleteFile()
}

// Reset discards any loaded document and starts a fresh tournament of the
// given type and clock, deleting any existing file.
func (s *Store) Reset(tournamentType string, clock tour.TimeControl) error {
	s.doc = Document{TournamentType: tournamentType, Clock: clock}
	return s.deleteFile()
}

// Append adds new records to the tail. Existing records are never reordered
// or mutated by this call.
func (s *Store) Append(recs ...tour.MatchRecord) {
	s.doc.Records = append(s.doc.Records, recs...)
}

// UpdateRecord replaces the record at idx in place.
func (s *Store) UpdateRecord(idx int, rec tour.MatchRecord) error {
	if idx < 0 || idx >= len(s.doc.Records) {
		return fmt.Errorf("record index %d out of range [0,%d)", idx, len(s.doc.Records))
	}
	s.doc.Records[idx] = rec
	return nil
}

// SetElapsedSeconds updates the tournament's cumulative elapsed time.
func (s *Store) SetElapsedSeconds(seconds float64) {
	s.doc.ElapsedSeconds = seconds
}

// Save rewrites the store file in full. Called after every record state
// change.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store %v: %w", s.path, err)
	}
	return nil
}

// Finalize removes the store file once every scheduled record has
// completed.
func (s *Store) Finalize() error {
	return s.deleteFile()
}

func (s *Store) deleteFile() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove store %v: %w", s.path, err)
	}
	return nil
}
