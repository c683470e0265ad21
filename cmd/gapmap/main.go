// Package main provides the gapmap command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logger is replaced in the root command's pre-run once flags are parsed.
var logger = zap.NewNop()

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "gapmap",
		Short: "Decode RefSeq alignment gaps into transcript-to-genome mappings",
		Long: `gapmap reads RefSeq cDNA_match alignment records (GFF3), decodes their
Gap attributes into ungapped exon blocks, and stores one mapping per
transcript and genomic sequence.`,
		Example: `  # Decode a single gap string
  gapmap decode --start 1000 --target "NM_173600.2 1 12255" "M6352 I2 M5901"

  # Build mappings for all transcripts into DuckDB
  gapmap map GCF_000001405.40_knownrefseq_alignments.gff3.gz

  # Only chromosome-level sequences, selected transcripts, as a report
  gapmap map --sequence-prefix NC_ --transcript NM_000014.6 -f tab alignments.gff3

  # Show stored mappings
  gapmap show NM_000014.6`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			if err := viper.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("bind flags: %w", err)
			}
			return setupLogger(viper.GetBool("verbose"))
		},
	}
	cmd.SetVersionTemplate("gapmap version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.gapmap.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newDecodeCmd())
	cmd.AddCommand(newMapCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newConfigCmd(&cfgFile))

	return cmd
}

// initConfig loads ~/.gapmap.yaml (or cfgFile) and GAPMAP_* environment
// variables. A missing default config file is not an error.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".gapmap")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GAPMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setupLogger(verbose bool) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger = l
	return nil
}

// DefaultDataDir returns the default directory for the database and caches.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gapmap")
}

// dbPath returns the configured database path or the default one.
func dbPath() string {
	if p := viper.GetString("db"); p != "" {
		return p
	}
	return filepath.Join(DefaultDataDir(), "gapmap.duckdb")
}

// cacheDir returns the configured record cache directory or the default one.
func cacheDir() string {
	if p := viper.GetString("cache-dir"); p != "" {
		return p
	}
	return filepath.Join(DefaultDataDir(), "cache")
}
