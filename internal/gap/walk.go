package gap

// Block is one ungapped alignment segment in both coordinate systems.
// All coordinates are 1-based and inclusive.
type Block struct {
	Index           int // 1-based position within its record or mapping
	ContigStart     int64
	ContigEnd       int64
	TranscriptStart int64
	TranscriptEnd   int64
}

// Balanced reports whether the contig and transcript spans are the same length.
func (b Block) Balanced() bool {
	return b.ContigEnd-b.ContigStart == b.TranscriptEnd-b.TranscriptStart
}

// Cursor holds the walker position on both axes.
type Cursor struct {
	Contig     int64
	Transcript int64
}

// Walk replays ops from the given start coordinates and returns the match
// blocks in emission order together with the final cursor.
//
// The arithmetic is the same for both strands. A match leaves the cursor on
// the last base of the block rather than one past it, and inserts and
// deletions advance by one more than their length; stored mappings depend on
// this exact convention.
func Walk(contigStart, transcriptStart int64, ops []Op) ([]Block, Cursor) {
	cur := Cursor{Contig: contigStart, Transcript: transcriptStart}

	var blocks []Block
	for _, op := range ops {
		switch op.Type {
		case Match:
			b := Block{
				Index:           len(blocks) + 1,
				ContigStart:     cur.Contig,
				ContigEnd:       cur.Contig + op.Len - 1,
				TranscriptStart: cur.Transcript,
				TranscriptEnd:   cur.Transcript + op.Len - 1,
			}
			blocks = append(blocks, b)
			cur.Contig = b.ContigEnd
			cur.Transcript = b.TranscriptEnd
		case Insert:
			cur.Contig++
			cur.Transcript += op.Len + 1
		case Deletion:
			cur.Contig += op.Len + 1
			cur.Transcript++
		default:
			panic("gap: unknown operation type " + op.Type.String())
		}
	}
	return blocks, cur
}
