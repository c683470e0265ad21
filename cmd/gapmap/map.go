package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/gapmap/internal/alignment"
	"github.com/inodb/gapmap/internal/duckdb"
	"github.com/inodb/gapmap/internal/mapping"
	"github.com/inodb/gapmap/internal/output"
)

func newMapCmd() *cobra.Command {
	var (
		transcripts []string
		format      string
		outputFile  string
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "map <alignments.gff3[.gz]>...",
		Short: "Build transcript mappings from alignment files",
		Long: `Build one mapping per transcript and genomic sequence from RefSeq alignment
files. Mappings are stored in DuckDB (find-or-create) or written as a
tab-delimited report. Records that fail to decode are logged and skipped.`,
		Example: `  gapmap map GCF_000001405.40_knownrefseq_alignments.gff3.gz
  gapmap map --db /data/maps.duckdb --sequence-prefix NC_ alignments.gff3
  gapmap map -f tab -o maps.tsv --transcript NM_000014.6 alignments.gff3
  zcat alignments.gff3.gz | gapmap map -f tab -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, args, transcripts, format, outputFile, noCache)
		},
	}

	cmd.Flags().String("db", "", "DuckDB database path (default: ~/.gapmap/gapmap.duckdb)")
	cmd.Flags().StringSliceVarP(&transcripts, "transcript", "t", nil, "Only map these transcript IDs (repeatable)")
	cmd.Flags().StringVarP(&format, "format", "f", "db", "Output: db or tab")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for tab format (default: stdout)")
	cmd.Flags().Int("workers", 0, "Number of worker goroutines (default: number of CPUs)")
	cmd.Flags().String("sequence-prefix", "", "Only use sequences whose ID starts with this prefix, e.g. NC_")
	cmd.Flags().String("cache-dir", "", "Parsed record cache directory (default: ~/.gapmap/cache)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not read or write the parsed record cache")

	return cmd
}

func runMap(cmd *cobra.Command, paths, transcripts []string, format, outputFile string, noCache bool) error {
	var sink mapping.Sink
	var flush func() error

	switch format {
	case "db":
		store, err := duckdb.Open(dbPath())
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("using database", zap.String("path", dbPath()))
		sink = store

	case "tab":
		var w io.Writer = cmd.OutOrStdout()
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		tw := output.NewTabWriter(w)
		if err := tw.WriteHeader(); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		sink, flush = tw, tw.Flush

	default:
		return fmt.Errorf("unknown output format %q (want db or tab)", format)
	}

	agg := mapping.NewAggregator(sink)
	agg.SetLogger(logger)

	prefix := viper.GetString("sequence-prefix")
	workers := viper.GetInt("workers")

	// Records of one transcript may be spread over several files; they are
	// pooled before grouping so each (transcript, sequence) pair is one mapping.
	idx := alignment.NewIndex(prefix)
	for _, path := range paths {
		fileIdx, err := loadAlignments(path, prefix, noCache)
		if err != nil {
			return err
		}
		if err := idx.Merge(fileIdx); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	total, err := agg.Run(idx, transcripts, workers)
	if err != nil {
		return err
	}

	if flush != nil {
		if err := flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}

	logger.Info("done",
		zap.Int("files", len(paths)),
		zap.Int("mappings", total.Mappings),
		zap.Int("abandoned", total.Abandoned),
		zap.Int("exons", total.Exons))
	return nil
}

// loadAlignments indexes an alignment file, reusing the parsed record cache
// when the file is unchanged since it was written.
func loadAlignments(path, prefix string, noCache bool) (*alignment.Index, error) {
	var rc *duckdb.RecordCache
	var fp duckdb.FileFingerprint
	if path != "-" && !noCache {
		var err error
		fp, err = duckdb.StatFile(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		rc = duckdb.RecordCacheFor(cacheDir(), fp)
		if rc.Valid(fp, prefix) {
			idx, err := rc.Load(prefix)
			if err == nil {
				logger.Info("loaded cached records",
					zap.String("file", path),
					zap.Int("records", idx.RecordCount()))
				return idx, nil
			}
			logger.Warn("ignoring unreadable record cache", zap.String("dir", rc.Dir()), zap.Error(err))
		}
	}

	r, err := alignment.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	idx, err := alignment.LoadIndex(r, prefix, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Info("indexed alignments",
		zap.String("file", path),
		zap.Int("records", idx.RecordCount()),
		zap.Int("transcripts", len(idx.Transcripts())))

	if rc != nil {
		if err := rc.Write(idx, fp); err != nil {
			logger.Warn("could not write record cache", zap.String("dir", rc.Dir()), zap.Error(err))
		}
	}
	return idx, nil
}
