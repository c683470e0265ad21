package alignment

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Reader reads alignment records from a GFF3 stream.
type Reader struct {
	scanner    *bufio.Scanner
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	done       bool
}

// Open opens a GFF3 alignment file for reading.
// Gzipped files are detected by their magic bytes.
func Open(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment file: %w", err)
	}

	buf := make([]byte, 2)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read alignment file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek alignment file: %w", err)
	}

	r := &Reader{file: file}

	// gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.scanner = newScanner(r.gzipReader)
	} else {
		r.scanner = newScanner(file)
	}

	return r, nil
}

// NewReader creates a reader over an uncompressed GFF3 stream.
func NewReader(rd io.Reader) *Reader {
	return &Reader{scanner: newScanner(rd)}
}

func newScanner(rd io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(rd)
	// Gap attributes on long transcripts can make very long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)
	return scanner
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (r *Reader) Next() (*Record, error) {
	if r.done {
		return nil, nil
	}

	for r.scanner.Scan() {
		r.lineNumber++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##FASTA") {
			// Embedded sequences follow; no more features.
			r.done = true
			return nil, nil
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		return r.parseLine(line)
	}

	r.done = true
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan alignment file: %w", err)
	}
	return nil, nil
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and releases resources.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// parseLine parses a single GFF3 feature line.
func (r *Reader) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 9 {
		return nil, &ParseError{
			Line:    r.lineNumber,
			Message: fmt.Sprintf("expected 9 columns, found %d", len(fields)),
		}
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("invalid start %q", fields[3])}
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("invalid end %q", fields[4])}
	}
	if end < start {
		return nil, &ParseError{Line: r.lineNumber, Message: fmt.Sprintf("end %d before start %d", end, start)}
	}

	attrs, err := parseAttributes(fields[8])
	if err != nil {
		return nil, &ParseError{Line: r.lineNumber, Message: err.Error()}
	}

	return &Record{
		SequenceID: unescape(fields[0]),
		Source:     fields[1],
		Type:       fields[2],
		Start:      start,
		End:        end,
		Score:      fields[5],
		Strand:     fields[6],
		Attributes: attrs,
	}, nil
}

// parseAttributes parses the GFF3 attribute column.
// Format: key=value;key=value;... with percent-encoded reserved characters.
func parseAttributes(attrStr string) (map[string]string, error) {
	attrs := make(map[string]string)
	if attrStr == "." {
		return attrs, nil
	}

	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("attribute %q has no value", part)
		}

		attrs[unescape(key)] = unescape(value)
	}

	return attrs, nil
}

// unescape decodes GFF3 percent-encoding, leaving malformed escapes as-is.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// ParseError describes a malformed line in an alignment file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gff3 parse error at line %d: %s", e.Line, e.Message)
}
