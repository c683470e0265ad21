// Package alignment reads genome-to-transcript alignment records from
// RefSeq GFF3 alignment files and groups them by genomic sequence.
package alignment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Attribute keys used by RefSeq alignment records.
const (
	AttrID             = "ID"
	AttrTarget         = "Target"
	AttrGap            = "Gap"
	AttrIdentity       = "identity"
	AttrPctIdentityGap = "pct_identity_gap"
)

// ErrMalformedTarget is returned when a Target attribute is missing or
// is not "<id> <start> <end>".
var ErrMalformedTarget = errors.New("malformed target")

// Record is one line of an alignment GFF3 file.
type Record struct {
	SequenceID string // genomic sequence accession (e.g., NC_000012.12)
	Source     string
	Type       string // e.g., cDNA_match
	Start      int64  // 1-based
	End        int64  // 1-based, inclusive
	Score      string
	Strand     string // "+" or "-"
	Attributes map[string]string
}

// Attr returns the value of an attribute, or "" if absent.
func (r *Record) Attr(key string) string {
	if r.Attributes == nil {
		return ""
	}
	return r.Attributes[key]
}

// Gap returns the raw gap string, or "" for an ungapped record.
func (r *Record) Gap() string {
	return strings.TrimSpace(r.Attr(AttrGap))
}

// Target parses the record's Target attribute.
func (r *Record) Target() (Target, error) {
	raw, ok := r.Attributes[AttrTarget]
	if !ok {
		return Target{}, fmt.Errorf("%w: no %s attribute", ErrMalformedTarget, AttrTarget)
	}
	return ParseTarget(raw)
}

// Target is the transcript-side range of an alignment record.
type Target struct {
	ID     string // transcript accession with version (e.g., NM_173600.2)
	Start  int64
	End    int64
	Strand string // optional, "" when not given
}

// ParseTarget parses a Target value of the form "<id> <start> <end> [strand]".
func ParseTarget(s string) (Target, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return Target{}, fmt.Errorf("%w: %q: expected <id> <start> <end>", ErrMalformedTarget, s)
	}

	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: parse start: %v", ErrMalformedTarget, s, err)
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: parse end: %v", ErrMalformedTarget, s, err)
	}

	t := Target{ID: fields[0], Start: start, End: end}
	if len(fields) > 3 {
		t.Strand = fields[3]
	}
	return t, nil
}

// String formats the target the way it appears in GFF3.
func (t Target) String() string {
	s := fmt.Sprintf("%s %d %d", t.ID, t.Start, t.End)
	if t.Strand != "" {
		s += " " + t.Strand
	}
	return s
}
