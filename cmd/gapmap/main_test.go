package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/gapmap/internal/duckdb"
)

const fixture = "../../testdata/alignments.gff3"

// execute runs the root command with a fresh config and an empty home dir.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "gapmap version dev"))
}

func TestDecode_Gapped(t *testing.T) {
	out, err := execute(t, "decode", "--start", "1", "--target", "NM_173600.2 1 12255", "M6352 I2 M5901")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "1\t1\t6352\t1\t6352\t6352", lines[1])
	assert.Equal(t, "2\t6353\t12253\t6355\t12255\t5901", lines[2])
}

func TestDecode_UnquotedGapTokens(t *testing.T) {
	out, err := execute(t, "decode", "--start", "5000", "--target", "NM_001145103.1 1029 5808", "M3186", "D3", "M1594")
	require.NoError(t, err)
	assert.Contains(t, out, "2\t8189\t9782\t4215\t5808\t1594")
}

func TestDecode_Ungapped(t *testing.T) {
	out, err := execute(t, "decode", "--start", "9067708", "--end", "9068060", "--strand", "-", "--target", "NM_000014.6 1 353")
	require.NoError(t, err)
	assert.Contains(t, out, "1\t9067708\t9068060\t1\t353\t353")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"malformed token", []string{"--start", "1", "--target", "NM_1.1 1 25", "M10 X5 M10"}, "malformed gap token"},
		{"bad target", []string{"--start", "1", "--target", "NM_1.1", "M10"}, "malformed target"},
		{"bad strand", []string{"--start", "1", "--strand", "*", "--target", "NM_1.1 1 10", "M10"}, "--strand"},
		{"ungapped without end", []string{"--start", "1", "--target", "NM_1.1 1 10"}, "--end"},
		{"missing target", []string{"--start", "1", "M10"}, "target"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"decode"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMap_TabOutput(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "maps.tsv")
	_, err := execute(t, "map", "--no-cache", "-f", "tab", "-o", outFile, "--workers", "2", fixture)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// Header plus 9 exon rows from 5 mappings; the 2 anomalous mappings are skipped.
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "#Transcript"))
	assert.True(t, strings.HasPrefix(lines[1], "NM_173600.2\tNC_000012.12\t+"))
	assert.NotContains(t, string(data), "NM_999999.1")
	assert.NotContains(t, string(data), "NM_888888.1")
}

func TestMap_TranscriptAndPrefixFilter(t *testing.T) {
	out, err := execute(t, "map", "--no-cache", "-f", "tab", "--sequence-prefix", "NC_", "-t", "NM_000014.6", fixture)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	for _, l := range lines[1:] {
		assert.True(t, strings.HasPrefix(l, "NM_000014.6\tNC_000012.12\t-\t99.5\t3\t9064716\t9068060"))
	}
}

func TestMap_DatabaseAndShow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "maps.duckdb")
	cache := filepath.Join(dir, "cache")

	_, err := execute(t, "map", "--db", db, "--cache-dir", cache, fixture)
	require.NoError(t, err)

	// The parsed records were cached for the next run.
	fp, err := duckdb.StatFile(fixture)
	require.NoError(t, err)
	assert.True(t, duckdb.RecordCacheFor(cache, fp).Valid(fp, ""))

	// A second run reuses the cache and finds the existing mappings.
	_, err = execute(t, "map", "--db", db, "--cache-dir", cache, fixture)
	require.NoError(t, err)

	store, err := duckdb.Open(db)
	require.NoError(t, err)
	n, err := store.MappingCount()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, store.Close())

	out, err := execute(t, "show", "--db", db, "NM_001145103.1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "\t5000\t8185\t1029\t4214\tM3186 D3 M1594")

	_, err = execute(t, "show", "--db", db, "NM_404.1")
	assert.ErrorContains(t, err, "no mappings stored")
}

func TestMap_PoolsRecordsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.gff3")
	b := filepath.Join(dir, "b.gff3")
	require.NoError(t, os.WriteFile(a, []byte(
		"NC_1\tRefSeq\tcDNA_match\t100\t109\t.\t+\t.\tTarget=NM_5.1 1 10 +;identity=1\n"), 0644))
	require.NoError(t, os.WriteFile(b, []byte(
		"NC_1\tRefSeq\tcDNA_match\t200\t209\t.\t+\t.\tTarget=NM_5.1 11 20 +;identity=1\n"), 0644))

	out, err := execute(t, "map", "--no-cache", "-f", "tab", a, b)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3, "one 2-exon mapping")
	assert.Equal(t, "NM_5.1\tNC_1\t+\t100\t2\t100\t209\t1\t100\t109\t1\t10\t-", lines[1])
	assert.Equal(t, "NM_5.1\tNC_1\t+\t100\t2\t100\t209\t2\t200\t209\t11\t20\t-", lines[2])
}

func TestMap_SameBaseNameSeparateCaches(t *testing.T) {
	root := t.TempDir()
	cache := filepath.Join(root, "cache")
	for i, seq := range []string{"NC_1", "NC_2"} {
		dir := filepath.Join(root, seq)
		require.NoError(t, os.MkdirAll(dir, 0755))
		line := seq + "\tRefSeq\tcDNA_match\t1\t10\t.\t+\t.\tTarget=NM_" + strconv.Itoa(i) + ".1 1 10;identity=1\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "alignments.gff3"), []byte(line), 0644))
	}

	for _, seq := range []string{"NC_1", "NC_2", "NC_1"} {
		out, err := execute(t, "map", "-f", "tab", "--cache-dir", cache, filepath.Join(root, seq, "alignments.gff3"))
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[1], "\t"+seq+"\t")
	}

	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMap_UnknownFormat(t *testing.T) {
	_, err := execute(t, "map", "--no-cache", "-f", "json", fixture)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestConfig_SetGetShow(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "gapmap.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("workers: 2\n"), 0644))

	out, err := execute(t, "--config", cfg, "config", "set", "sequence-prefix", "NC_")
	require.NoError(t, err)
	assert.Contains(t, out, "Set sequence-prefix = NC_")

	out, err = execute(t, "--config", cfg, "config", "get", "sequence-prefix")
	require.NoError(t, err)
	assert.Equal(t, "NC_\n", out)

	out, err = execute(t, "--config", cfg, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 2")
	assert.Contains(t, out, "sequence-prefix: NC_")

	_, err = execute(t, "--config", cfg, "config", "get", "db")
	assert.ErrorContains(t, err, "not set")
}

func TestConfig_Empty(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "No configuration set")
}
