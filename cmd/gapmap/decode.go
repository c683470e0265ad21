package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/gapmap/internal/alignment"
	"github.com/inodb/gapmap/internal/gap"
	"github.com/inodb/gapmap/internal/output"
)

func newDecodeCmd() *cobra.Command {
	var (
		start  int64
		end    int64
		target string
		strand string
	)

	cmd := &cobra.Command{
		Use:   "decode [gap]",
		Short: "Decode one alignment record into exon blocks",
		Long: `Decode a single alignment record given its contig start, its Target
("<transcript> <start> <end>") and its Gap string. Without a gap the record
is a single ungapped block, which needs --end.`,
		Example: `  gapmap decode --start 1 --target "NM_173600.2 1 12255" "M6352 I2 M5901"
  gapmap decode --start 9067708 --end 9068060 --target "NM_000014.6 1 353" --strand -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, start, end, target, strand, strings.Join(args, " "))
		},
	}

	cmd.Flags().Int64Var(&start, "start", 0, "Contig start coordinate (1-based)")
	cmd.Flags().Int64Var(&end, "end", 0, "Contig end coordinate (required for ungapped records)")
	cmd.Flags().StringVar(&target, "target", "", `Target attribute, e.g. "NM_173600.2 1 12255"`)
	cmd.Flags().StringVar(&strand, "strand", "+", "Genomic strand (+ or -)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runDecode(cmd *cobra.Command, start, end int64, targetAttr, strand, gapStr string) error {
	if start < 1 {
		return fmt.Errorf("--start must be a positive 1-based coordinate, got %d", start)
	}
	if strand != "+" && strand != "-" {
		return fmt.Errorf("--strand must be + or -, got %q", strand)
	}

	t, err := alignment.ParseTarget(targetAttr)
	if err != nil {
		return err
	}

	gapStr = strings.TrimSpace(gapStr)
	if gapStr == "" && end < start {
		return fmt.Errorf("ungapped record needs --end >= --start")
	}

	blocks, err := gap.Assemble(gap.Span{
		ContigStart:     start,
		ContigEnd:       end,
		TranscriptStart: t.Start,
		TranscriptEnd:   t.End,
		Gap:             gapStr,
	})
	if err != nil {
		return err
	}

	logger.Debug("decoded record",
		zap.String("transcript", t.ID),
		zap.String("strand", strand),
		zap.Int("blocks", len(blocks)))

	return output.WriteBlocks(cmd.OutOrStdout(), blocks)
}
