package gap

// Span is the coordinate view of an alignment record needed for decoding:
// its contig range, its target (transcript) range, and its raw gap string.
type Span struct {
	ContigStart     int64
	ContigEnd       int64
	TranscriptStart int64
	TranscriptEnd   int64
	Gap             string
}

// Assemble decodes one alignment record into indexed exon blocks.
//
// Without a gap string the record is a single ungapped block spanning the
// full contig and target ranges. Otherwise every match block produced by
// Walk is returned in order, numbered from 1, and checked for equal spans.
func Assemble(s Span) ([]Block, error) {
	if s.Gap == "" {
		return []Block{{
			Index:           1,
			ContigStart:     s.ContigStart,
			ContigEnd:       s.ContigEnd,
			TranscriptStart: s.TranscriptStart,
			TranscriptEnd:   s.TranscriptEnd,
		}}, nil
	}

	ops, err := ParseGap(s.Gap)
	if err != nil {
		return nil, err
	}

	blocks, _ := Walk(s.ContigStart, s.TranscriptStart, ops)
	if err := Validate(blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Validate checks that every block runs forward on both axes and has matching
// contig and transcript spans.
func Validate(blocks []Block) error {
	for _, b := range blocks {
		if b.ContigEnd < b.ContigStart || b.TranscriptEnd < b.TranscriptStart || !b.Balanced() {
			return &MismatchError{Block: b}
		}
	}
	return nil
}
