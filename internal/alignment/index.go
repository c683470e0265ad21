package alignment

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Index groups alignment records by genomic sequence, preserving the order
// in which they were read.
type Index struct {
	prefix string

	all       []*Record
	sequences []string
	records   map[string][]*Record

	// transcript ID -> sequence IDs it aligns to, in first-seen order
	transcripts   []string
	transcriptSeq map[string][]string
}

// NewIndex creates an empty index. If prefix is non-empty, only records on
// sequences whose ID starts with prefix (e.g., "NC_") are kept.
func NewIndex(prefix string) *Index {
	return &Index{
		prefix:        prefix,
		records:       make(map[string][]*Record),
		transcriptSeq: make(map[string][]string),
	}
}

// Prefix returns the sequence ID prefix filter, or "" if none.
func (x *Index) Prefix() string {
	return x.prefix
}

// Add adds a record to the index. It returns false if the record was
// filtered out by the sequence prefix, and an error if its Target cannot
// be parsed.
func (x *Index) Add(r *Record) (bool, error) {
	if x.prefix != "" && !strings.HasPrefix(r.SequenceID, x.prefix) {
		return false, nil
	}

	target, err := r.Target()
	if err != nil {
		return false, err
	}

	if _, ok := x.records[r.SequenceID]; !ok {
		x.sequences = append(x.sequences, r.SequenceID)
	}
	x.records[r.SequenceID] = append(x.records[r.SequenceID], r)
	x.all = append(x.all, r)

	seqs, seen := x.transcriptSeq[target.ID]
	if !seen {
		x.transcripts = append(x.transcripts, target.ID)
	}
	if !contains(seqs, r.SequenceID) {
		x.transcriptSeq[target.ID] = append(seqs, r.SequenceID)
	}
	return true, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Merge adds every record of other to x in other's order. Records outside
// x's prefix are dropped.
func (x *Index) Merge(other *Index) error {
	for _, r := range other.all {
		if _, err := x.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// SequenceIDs returns the sequence IDs in first-seen order.
func (x *Index) SequenceIDs() []string {
	return x.sequences
}

// Records returns all records for a sequence in file order.
func (x *Index) Records(sequenceID string) []*Record {
	return x.records[sequenceID]
}

// RecordCount returns the total number of indexed records.
func (x *Index) RecordCount() int {
	return len(x.all)
}

// All returns every indexed record in the order it was added.
func (x *Index) All() []*Record {
	return x.all
}

// Transcripts returns the Target transcript IDs in first-seen order.
func (x *Index) Transcripts() []string {
	return x.transcripts
}

// Group is the set of records aligning one transcript to one sequence.
type Group struct {
	TranscriptID string
	SequenceID   string
	Records      []*Record
}

// Select returns, for each sequence the transcript aligns to, the records
// whose Target ID equals transcriptID, in file order.
func (x *Index) Select(transcriptID string) []Group {
	seqs := x.transcriptSeq[transcriptID]
	groups := make([]Group, 0, len(seqs))
	for _, seqID := range seqs {
		g := Group{TranscriptID: transcriptID, SequenceID: seqID}
		for _, r := range x.records[seqID] {
			// Targets were validated in Add.
			if t, err := r.Target(); err == nil && t.ID == transcriptID {
				g.Records = append(g.Records, r)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// LoadIndex reads every record from r into a new index. Malformed lines and
// records without a usable Target are logged and skipped.
func LoadIndex(r *Reader, prefix string, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	x := NewIndex(prefix)
	skipped := 0
	for {
		rec, err := r.Next()
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				logger.Warn("skipping malformed alignment line", zap.Int("line", pe.Line), zap.String("reason", pe.Message))
				skipped++
				continue
			}
			return nil, fmt.Errorf("read alignment record: %w", err)
		}
		if rec == nil {
			break
		}

		if _, err := x.Add(rec); err != nil {
			logger.Warn("skipping alignment record",
				zap.Int("line", r.LineNumber()),
				zap.String("sequence", rec.SequenceID),
				zap.Error(err))
			skipped++
		}
	}

	logger.Debug("indexed alignment records",
		zap.Int("records", x.RecordCount()),
		zap.Int("sequences", len(x.sequences)),
		zap.Int("transcripts", len(x.transcripts)),
		zap.Int("skipped", skipped))

	return x, nil
}
