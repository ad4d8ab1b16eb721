// Package main provides the citeverify CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// .env is optional; environment variables win over file values
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ee *exitCodeError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "citeverify <pdf-path | arxiv-id | arxiv-url>",
	Short: "Verify the citations of an academic paper",
	Long: `citeverify extracts the reference list from a paper, verifies each
citation against Crossref, arXiv, and Semantic Scholar, scores citation
quality, and optionally downloads open-access PDFs.

The input can be a local PDF path, an arXiv identifier (2301.12345),
or an arXiv abstract/PDF URL.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runVerify,
}

func init() {
	rootCmd.Version = Version

	rootCmd.Flags().Float64Var(&flagThreshold, "threshold", 0, "Title similarity acceptance threshold (0-1)")
	rootCmd.Flags().StringVarP(&flagFormat, "format", "f", "table", "Output format: table, json, markdown, bibtex")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the report to a file instead of stdout")
	rootCmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Citations verified in parallel")
	rootCmd.Flags().IntVar(&flagQualityMin, "quality-min", 0, "Only report citations scoring at or above this")
	rootCmd.Flags().BoolVar(&flagNoVerify, "no-verify", false, "Parse the reference list without verifying")
	rootCmd.Flags().BoolVar(&flagDownload, "download", false, "Download open-access PDFs of verified citations")
	rootCmd.Flags().StringVar(&flagDownloadDir, "download-dir", "citations", "Directory for downloaded PDFs")
	rootCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the verification cache")
	rootCmd.Flags().StringVar(&flagExportBibtex, "export-bibtex", "", "Also write verified citations as BibTeX to a file")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log each verification step")

	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}
