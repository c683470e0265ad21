package alignment

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGFF3 = `##gff-version 3
#!processor NCBI annotwriter
NC_000012.12	RefSeq	cDNA_match	1000	13252	12253	+	.	ID=aln0;Target=NM_173600.2 1 12255 +;Gap=M6352 I2 M5901;identity=0.9998;pct_identity_gap=99.9837

NC_000012.12	RefSeq	cDNA_match	9067708	9068060	353	-	.	ID=aln1;Target=NM_000014.6 1 353 +;pct_identity_gap=99.5
`

func readAll(t *testing.T, r *Reader) []*Record {
	t.Helper()
	var recs []*Record
	for {
		rec, err := r.Next()
		require.NoError(t, err)
		if rec == nil {
			return recs
		}
		recs = append(recs, rec)
	}
}

func TestReader_Next(t *testing.T) {
	r := NewReader(strings.NewReader(sampleGFF3))
	recs := readAll(t, r)
	require.Len(t, recs, 2)

	rec := recs[0]
	assert.Equal(t, "NC_000012.12", rec.SequenceID)
	assert.Equal(t, "RefSeq", rec.Source)
	assert.Equal(t, "cDNA_match", rec.Type)
	assert.Equal(t, int64(1000), rec.Start)
	assert.Equal(t, int64(13252), rec.End)
	assert.Equal(t, "+", rec.Strand)
	assert.Equal(t, "M6352 I2 M5901", rec.Gap())
	assert.Equal(t, "0.9998", rec.Attr(AttrIdentity))

	target, err := rec.Target()
	require.NoError(t, err)
	assert.Equal(t, Target{ID: "NM_173600.2", Start: 1, End: 12255, Strand: "+"}, target)

	assert.Equal(t, "-", recs[1].Strand)
	assert.Empty(t, recs[1].Gap())
	assert.Equal(t, 5, r.LineNumber())

	// Exhausted reader keeps returning nil, nil.
	rec, err = r.Next()
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestReader_ParseError(t *testing.T) {
	input := "##gff-version 3\nNC_1\tRefSeq\tcDNA_match\tabc\t10\t.\t+\t.\tTarget=NM_1 1 10\n"
	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
	assert.Contains(t, pe.Message, "invalid start")
}

func TestReader_WrongColumnCount(t *testing.T) {
	r := NewReader(strings.NewReader("NC_1\tRefSeq\tcDNA_match\t1\t10\n"))
	_, err := r.Next()
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "expected 9 columns, found 5")
}

func TestReader_StopsAtFASTA(t *testing.T) {
	input := sampleGFF3 + "##FASTA\n>NM_173600.2\nACGT\n"
	recs := readAll(t, NewReader(strings.NewReader(input)))
	assert.Len(t, recs, 2)
}

func TestParseAttributes(t *testing.T) {
	attrs, err := parseAttributes("ID=aln6;Target=NR_024540.1 1 100 +;Note=partial%3B 5%27 end;")
	require.NoError(t, err)
	assert.Equal(t, "aln6", attrs["ID"])
	assert.Equal(t, "NR_024540.1 1 100 +", attrs["Target"])
	assert.Equal(t, "partial; 5' end", attrs["Note"])

	attrs, err = parseAttributes(".")
	require.NoError(t, err)
	assert.Empty(t, attrs)

	_, err = parseAttributes("ID=aln1;broken")
	assert.Error(t, err)
}

func TestOpen_Plain(t *testing.T) {
	r, err := Open("../../testdata/alignments.gff3")
	require.NoError(t, err)
	defer r.Close()

	recs := readAll(t, r)
	assert.Len(t, recs, 10)
}

func TestOpen_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alignments.gff3.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleGFF3))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	recs := readAll(t, r)
	require.Len(t, recs, 2)
	assert.Equal(t, "NM_000014.6 1 353 +", recs[1].Attr(AttrTarget))
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.gff3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want Target
	}{
		{"NM_173600.2 1 12253", Target{ID: "NM_173600.2", Start: 1, End: 12253}},
		{"NM_001145103.1 1029 5808 +", Target{ID: "NM_001145103.1", Start: 1029, End: 5808, Strand: "+"}},
		{" NM_1  5 9 - ", Target{ID: "NM_1", Start: 5, End: 9, Strand: "-"}},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		require.NoError(t, err, "ParseTarget(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"", "NM_1", "NM_1 1", "NM_1 a 5", "NM_1 1 b"} {
		_, err := ParseTarget(bad)
		assert.ErrorIs(t, err, ErrMalformedTarget, "ParseTarget(%q)", bad)
	}
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "NM_1 5 9 +", Target{ID: "NM_1", Start: 5, End: 9, Strand: "+"}.String())
	assert.Equal(t, "NM_1 5 9", Target{ID: "NM_1", Start: 5, End: 9}.String())
}

func TestRecordTarget_Missing(t *testing.T) {
	rec := &Record{SequenceID: "NC_1", Attributes: map[string]string{}}
	_, err := rec.Target()
	assert.ErrorIs(t, err, ErrMalformedTarget)
}
