// Package output provides mapping output formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/gapmap/internal/gap"
	"github.com/inodb/gapmap/internal/mapping"
)

// TabWriter writes mappings in tab-delimited format, one row per exon.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	header  bool
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Transcript",
			"Sequence",
			"Strand",
			"Identity",
			"Exon_count",
			"Min_contig",
			"Max_contig",
			"Exon",
			"Contig_start",
			"Contig_end",
			"Transcript_start",
			"Transcript_end",
			"Gap",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	tw.header = true
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteMapping writes every exon of m. It implements mapping.Sink.
func (tw *TabWriter) WriteMapping(m *mapping.Mapping) error {
	if !tw.header {
		if err := tw.WriteHeader(); err != nil {
			return err
		}
	}

	for _, e := range m.Exons {
		gapStr := e.Gap
		if gapStr == "" {
			gapStr = "-"
		}

		values := []string{
			m.TranscriptID,
			m.SequenceID,
			m.Strand,
			strconv.FormatFloat(m.Identity, 'f', -1, 64),
			strconv.Itoa(m.ExonCount),
			strconv.FormatInt(m.MinContig, 10),
			strconv.FormatInt(m.MaxContig, 10),
			strconv.Itoa(e.Index),
			strconv.FormatInt(e.ContigStart, 10),
			strconv.FormatInt(e.ContigEnd, 10),
			strconv.FormatInt(e.TranscriptStart, 10),
			strconv.FormatInt(e.TranscriptEnd, 10),
			gapStr,
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// WriteBlocks writes decoded blocks as a small tab-delimited table.
func WriteBlocks(w io.Writer, blocks []gap.Block) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("#Block\tContig_start\tContig_end\tTranscript_start\tTranscript_end\tLength\n")
	for _, b := range blocks {
		values := []string{
			strconv.Itoa(b.Index),
			strconv.FormatInt(b.ContigStart, 10),
			strconv.FormatInt(b.ContigEnd, 10),
			strconv.FormatInt(b.TranscriptStart, 10),
			strconv.FormatInt(b.TranscriptEnd, 10),
			strconv.FormatInt(b.ContigEnd-b.ContigStart+1, 10),
		}
		bw.WriteString(strings.Join(values, "\t") + "\n")
	}
	return bw.Flush()
}
