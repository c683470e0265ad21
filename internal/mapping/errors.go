package mapping

import (
	"errors"
	"fmt"
)

var (
	// ErrInconsistentStrand is returned when the records of one mapping
	// disagree on strand.
	ErrInconsistentStrand = errors.New("inconsistent strand")

	// ErrInconsistentIdentity is returned when the records of one mapping
	// carry different identity values.
	ErrInconsistentIdentity = errors.New("inconsistent identity")

	// ErrMissingStrand is returned when no record has a usable strand.
	ErrMissingStrand = errors.New("missing strand")

	// ErrMissingIdentity is returned when neither identity nor
	// pct_identity_gap can be parsed.
	ErrMissingIdentity = errors.New("missing identity")

	// ErrNoExons is returned when the records decode to no exon blocks.
	ErrNoExons = errors.New("no exons")
)

// AnomalyError reports why a mapping was abandoned.
type AnomalyError struct {
	TranscriptID string
	SequenceID   string
	Err          error
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("mapping %s on %s abandoned: %v", e.TranscriptID, e.SequenceID, e.Err)
}

func (e *AnomalyError) Unwrap() error { return e.Err }
