package mapping

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/gapmap/internal/alignment"
	"github.com/inodb/gapmap/internal/gap"
)

// Aggregator builds mappings from grouped alignment records and hands
// them to a Sink.
type Aggregator struct {
	sink   Sink
	logger *zap.Logger
}

// NewAggregator creates an aggregator that writes finished mappings to sink.
func NewAggregator(sink Sink) *Aggregator {
	return &Aggregator{
		sink:   sink,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for anomaly and progress messages.
func (a *Aggregator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Build decodes the records aligning transcriptID to sequenceID into a
// single mapping. Records are decoded in the given order and their exons
// are numbered 1..N across the whole mapping. Any failure abandons the
// mapping and is returned as an *AnomalyError.
func Build(transcriptID, sequenceID string, records []*alignment.Record) (*Mapping, error) {
	anomaly := func(err error) error {
		return &AnomalyError{TranscriptID: transcriptID, SequenceID: sequenceID, Err: err}
	}

	if len(records) == 0 {
		return nil, anomaly(ErrNoExons)
	}

	strand, err := resolveStrand(records)
	if err != nil {
		return nil, anomaly(err)
	}

	identity, err := resolveIdentity(records)
	if err != nil {
		return nil, anomaly(err)
	}

	var exons []Exon
	for i, r := range records {
		target, err := r.Target()
		if err != nil {
			return nil, anomaly(fmt.Errorf("record %d: %w", i+1, err))
		}

		blocks, err := gap.Assemble(gap.Span{
			ContigStart:     r.Start,
			ContigEnd:       r.End,
			TranscriptStart: target.Start,
			TranscriptEnd:   target.End,
			Gap:             r.Gap(),
		})
		if err != nil {
			return nil, anomaly(fmt.Errorf("record %d (%s:%d-%d): %w", i+1, r.SequenceID, r.Start, r.End, err))
		}

		for _, b := range blocks {
			exons = append(exons, Exon{
				Index:           len(exons) + 1,
				ContigStart:     b.ContigStart,
				ContigEnd:       b.ContigEnd,
				TranscriptStart: b.TranscriptStart,
				TranscriptEnd:   b.TranscriptEnd,
				Gap:             r.Gap(),
			})
		}
	}

	if len(exons) == 0 {
		return nil, anomaly(ErrNoExons)
	}

	m := &Mapping{
		TranscriptID: transcriptID,
		SequenceID:   sequenceID,
		Strand:       strand,
		Identity:     identity,
		Score:        identity,
		ExonCount:    len(exons),
		MinContig:    exons[0].ContigStart,
		MaxContig:    exons[0].ContigStart,
		Exons:        exons,
	}
	for _, e := range exons {
		m.MinContig = min(m.MinContig, e.ContigStart, e.ContigEnd)
		m.MaxContig = max(m.MaxContig, e.ContigStart, e.ContigEnd)
	}

	return m, nil
}

// resolveStrand returns the single strand shared by all records.
func resolveStrand(records []*alignment.Record) (string, error) {
	strands := distinct(records, func(r *alignment.Record) string { return r.Strand })
	if len(strands) > 1 {
		return "", fmt.Errorf("%w: %s", ErrInconsistentStrand, strings.Join(strands, ","))
	}
	if s := strands[0]; s == "+" || s == "-" {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrMissingStrand, strands[0])
}

// resolveIdentity prefers the identity attribute (a fraction, scaled to a
// percentage) and falls back to pct_identity_gap (already a percentage).
func resolveIdentity(records []*alignment.Record) (float64, error) {
	v, ok, err := sharedFloat(records, alignment.AttrIdentity)
	if err != nil {
		return 0, err
	}
	if ok {
		return v * 100, nil
	}

	v, ok, err = sharedFloat(records, alignment.AttrPctIdentityGap)
	if err != nil {
		return 0, err
	}
	if ok {
		return v, nil
	}
	return 0, ErrMissingIdentity
}

// sharedFloat returns the value of an attribute that every record carrying
// it agrees on. Values are compared as numbers, so "1" and "1.0" agree.
// Unparsable values count as absent; ok is false if none is left.
func sharedFloat(records []*alignment.Record, key string) (v float64, ok bool, err error) {
	var values []float64
	var raw []string
	for _, r := range records {
		s := strings.TrimSpace(r.Attr(key))
		if s == "" {
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		if !slices.Contains(values, f) {
			values = append(values, f)
			raw = append(raw, s)
		}
	}

	switch len(values) {
	case 0:
		return 0, false, nil
	case 1:
		return values[0], true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s=%s", ErrInconsistentIdentity, key, strings.Join(raw, ","))
	}
}

// distinct returns the distinct values of fn over records in first-seen order.
func distinct(records []*alignment.Record, fn func(*alignment.Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		v := fn(r)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Stats summarizes a Run.
type Stats struct {
	Mappings  int // mappings written to the sink
	Abandoned int // (transcript, sequence) pairs that failed to decode
	Exons     int // exons across all written mappings
}

// Run builds mappings for the given transcripts (all indexed transcripts if
// transcripts is empty) on a pool of workers and writes them to the sink in
// a deterministic order. Abandoned mappings are logged and counted; only a
// sink failure stops the run. If workers is 0, runtime.NumCPU() is used.
func (a *Aggregator) Run(idx *alignment.Index, transcripts []string, workers int) (Stats, error) {
	if len(transcripts) == 0 {
		transcripts = idx.Transcripts()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := GroupJobs(idx, transcripts, 2*workers)

	var stats Stats
	err := OrderedCollect(ParallelBuild(jobs, workers), func(r Result) error {
		if r.Err != nil {
			a.logger.Warn("abandoning mapping",
				zap.String("transcript", r.Job.TranscriptID),
				zap.String("sequence", r.Job.SequenceID),
				zap.Error(r.Err))
			stats.Abandoned++
			return nil
		}
		if a.sink != nil {
			if err := a.sink.WriteMapping(r.Mapping); err != nil {
				return fmt.Errorf("write mapping %s on %s: %w", r.Job.TranscriptID, r.Job.SequenceID, err)
			}
		}
		stats.Mappings++
		stats.Exons += r.Mapping.ExonCount
		return nil
	})
	if err != nil {
		return stats, err
	}

	a.logger.Info("mappings built",
		zap.Int("mappings", stats.Mappings),
		zap.Int("abandoned", stats.Abandoned),
		zap.Int("exons", stats.Exons))

	return stats, nil
}
