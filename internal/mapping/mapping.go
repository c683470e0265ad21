// Package mapping builds transcript-to-genome mappings from decoded
// alignment records.
package mapping

import (
	"strconv"
	"strings"
)

// Mapping describes how one transcript aligns to one genomic sequence.
// A Mapping owns its exons and is not modified after it is built.
type Mapping struct {
	TranscriptID string  // e.g., NM_173600.2
	SequenceID   string  // e.g., NC_000012.12
	Strand       string  // "+" or "-"
	Identity     float64 // percent, 0-100
	Score        float64 // same as Identity
	ExonCount    int
	MinContig    int64
	MaxContig    int64
	Exons        []Exon
}

// Exon is one ungapped block of a mapping.
type Exon struct {
	Index           int // 1-based, sequential across the mapping
	ContigStart     int64
	ContigEnd       int64
	TranscriptStart int64
	TranscriptEnd   int64
	Gap             string // raw gap string of the source record, "" if ungapped
}

// Signature returns a string identifying the exon structure, used to match
// an existing mapping with the same coordinates.
func (m *Mapping) Signature() string {
	var b strings.Builder
	for i, e := range m.Exons {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(e.ContigStart, 10))
		b.WriteByte('-')
		b.WriteString(strconv.FormatInt(e.ContigEnd, 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(e.TranscriptStart, 10))
		b.WriteByte('-')
		b.WriteString(strconv.FormatInt(e.TranscriptEnd, 10))
	}
	return b.String()
}

// Sink receives finished mappings.
type Sink interface {
	WriteMapping(m *Mapping) error
}
