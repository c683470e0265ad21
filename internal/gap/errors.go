package gap

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedGapToken is returned for an unknown operation code or a
	// length that is not a positive integer.
	ErrMalformedGapToken = errors.New("malformed gap token")

	// ErrCoordinateMismatch is returned when a match block spans a different
	// number of bases on the contig than on the transcript, or runs backwards.
	ErrCoordinateMismatch = errors.New("coordinate mismatch")

	// ErrEmptyGap is returned by ParseGap for a gap string with no tokens.
	ErrEmptyGap = errors.New("empty gap string")
)

// TokenError describes a gap token that could not be parsed.
type TokenError struct {
	Token  string
	Pos    int // zero-based token position within the gap string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("malformed gap token %q at position %d: %s", e.Token, e.Pos, e.Reason)
}

func (e *TokenError) Unwrap() error { return ErrMalformedGapToken }

// MismatchError reports a block whose contig and transcript spans disagree.
type MismatchError struct {
	Block Block
}

func (e *MismatchError) Error() string {
	b := e.Block
	return fmt.Sprintf("coordinate mismatch in block %d: contig %d-%d (%d bp) vs transcript %d-%d (%d bp)",
		b.Index, b.ContigStart, b.ContigEnd, b.ContigEnd-b.ContigStart+1,
		b.TranscriptStart, b.TranscriptEnd, b.TranscriptEnd-b.TranscriptStart+1)
}

func (e *MismatchError) Unwrap() error { return ErrCoordinateMismatch }
