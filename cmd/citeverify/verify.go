package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panchambanerjee/cite-verify-cli/internal/arxiv"
	"github.com/panchambanerjee/cite-verify-cli/internal/cache"
	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
	"github.com/panchambanerjee/cite-verify-cli/internal/config"
	"github.com/panchambanerjee/cite-verify-cli/internal/crossref"
	"github.com/panchambanerjee/cite-verify-cli/internal/download"
	"github.com/panchambanerjee/cite-verify-cli/internal/extract"
	"github.com/panchambanerjee/cite-verify-cli/internal/format"
	"github.com/panchambanerjee/cite-verify-cli/internal/norm"
	"github.com/panchambanerjee/cite-verify-cli/internal/pdf"
	"github.com/panchambanerjee/cite-verify-cli/internal/s2"
	"github.com/panchambanerjee/cite-verify-cli/internal/score"
	"github.com/panchambanerjee/cite-verify-cli/internal/verify"
)

var (
	flagThreshold    float64
	flagFormat       string
	flagOutput       string
	flagConcurrency  int
	flagQualityMin   int
	flagNoVerify     bool
	flagDownload     bool
	flagDownloadDir  string
	flagNoCache      bool
	flagExportBibtex string
	flagVerbose      bool
)

var arxivURLRe = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})`)

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return exitError(ExitConfigError, "loading config: %v", err)
	}
	if flagThreshold > 0 {
		cfg.Threshold = flagThreshold
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}

	logger := newLogger(flagVerbose)
	defer logger.Sync()
	log := logger.Sugar()

	pdfPath, cleanup, err := resolveInput(ctx, args[0], log)
	if err != nil {
		return exitError(ExitInputError, "%v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	text, err := pdf.ExtractText(pdfPath, 0)
	if err != nil {
		return exitError(ExitInputError, "reading %s: %v", pdfPath, err)
	}
	paperTitle := extract.PaperTitle(text)

	// A paper without a recognizable reference list is a valid input
	// with an empty result, not a failure.
	citations := extract.Parse(text)
	log.Infow("parsed references", "count", len(citations), "paper", paperTitle)
	if len(citations) == 0 {
		fmt.Fprintln(os.Stderr, "Extracted 0 citations")
	}

	results := make([]citation.VerifiedCitation, len(citations))
	for i, c := range citations {
		results[i] = citation.VerifiedCitation{Citation: c}
	}

	if !flagNoVerify && len(citations) > 0 {
		outcomes := verifyCitations(ctx, cfg, citations, log)
		for i := range results {
			out := outcomes[i]
			results[i].Verification = &out
			q := score.Score(citations[i], &out)
			results[i].Quality = &q
		}
	}

	if flagDownload && !flagNoVerify {
		downloadPDFs(ctx, cfg, results, log)
	}

	if flagQualityMin > 0 {
		results = filterQuality(results, flagQualityMin)
	}

	if flagExportBibtex != "" {
		if err := os.WriteFile(flagExportBibtex, []byte(format.ToBibTeXList(results)), 0o644); err != nil {
			return exitError(ExitError, "writing %s: %v", flagExportBibtex, err)
		}
		log.Infow("wrote bibtex", "path", flagExportBibtex)
	}

	return writeReport(paperTitle, results)
}

// resolveInput turns the CLI argument into a local PDF path. arXiv IDs
// and URLs are fetched to a temp file; the returned cleanup removes it.
func resolveInput(ctx context.Context, input string, log *zap.SugaredLogger) (string, func(), error) {
	if strings.HasSuffix(strings.ToLower(input), ".pdf") {
		if _, err := os.Stat(input); err != nil {
			return "", nil, fmt.Errorf("opening %s: %w", input, err)
		}
		return input, nil, nil
	}

	id := ""
	if m := arxivURLRe.FindStringSubmatch(input); m != nil {
		id = m[1]
	} else if n, err := norm.NormalizeArxivID(input); err == nil {
		id = n
	}
	if id == "" {
		return "", nil, fmt.Errorf("input %q is not a PDF path, arXiv ID, or arXiv URL", input)
	}

	log.Infow("fetching arxiv paper", "id", id)
	path, err := fetchPDF(ctx, arxiv.PDFURL(id), id)
	if err != nil {
		return "", nil, fmt.Errorf("fetching arXiv %s: %w", id, err)
	}
	return path, func() { os.Remove(path) }, nil
}

func fetchPDF(ctx context.Context, rawURL, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	hc := &http.Client{Timeout: 60 * time.Second}
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), strings.ReplaceAll(id, "/", "_")+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	if err := pdf.Validate(path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func verifyCitations(ctx context.Context, cfg *config.Config, citations []citation.Citation, log *zap.SugaredLogger) []citation.VerificationOutcome {
	crClient := crossref.NewClient(
		crossref.WithRateLimit(cfg.CrossrefRate),
		crossref.WithMailto(cfg.CrossrefMailto),
	)
	axClient := arxiv.NewClient(arxiv.WithRateLimit(cfg.ArxivRate))
	s2Client := s2.NewClient(
		s2.WithRateLimit(cfg.S2Rate),
		s2.WithAPIKey(cfg.S2APIKey),
	)

	opts := verify.Options{
		Threshold:     cfg.Threshold,
		YearTolerance: cfg.YearTolerance,
		Concurrency:   cfg.Concurrency,
		Logger:        log,
	}

	if !flagNoCache {
		c, err := cache.Open("", time.Duration(cfg.CacheTTLDays)*24*time.Hour)
		if err != nil {
			log.Warnw("cache unavailable", "error", err)
		} else {
			defer c.Close()
			opts.Cache = c
		}
	}

	if !flagVerbose {
		var done atomic.Int64
		opts.OnOutcome = func(int) {
			n := done.Add(1)
			fmt.Fprintf(os.Stderr, "\rVerifying citations... %d/%d", n, len(citations))
			if n == int64(len(citations)) {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	engine := verify.NewEngine(crClient, axClient,
		[]verify.TitleSearchSource{crClient, s2Client, axClient}, opts)
	return engine.VerifyAll(ctx, citations)
}

func downloadPDFs(ctx context.Context, cfg *config.Config, results []citation.VerifiedCitation, log *zap.SugaredLogger) {
	dl := download.New(cfg.UnpaywallEmail)
	for i := range results {
		if !results[i].Verification.Verified() {
			continue
		}
		res := dl.Download(ctx, results[i], flagDownloadDir)
		results[i].Download = &res
		if res.Success {
			log.Infow("downloaded pdf", "number", results[i].Number, "path", res.Path)
		}
	}
}

func filterQuality(results []citation.VerifiedCitation, minScore int) []citation.VerifiedCitation {
	kept := results[:0]
	for _, r := range results {
		if r.Quality != nil && r.Quality.Total >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}

func writeReport(paperTitle string, results []citation.VerifiedCitation) error {
	out := os.Stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return exitError(ExitError, "creating %s: %v", flagOutput, err)
		}
		defer f.Close()
		out = f
	}

	switch flagFormat {
	case "table":
		format.WriteTable(out, results)
		format.WriteSummary(out, results)
	case "json":
		if err := format.WriteJSON(out, paperTitle, results); err != nil {
			return exitError(ExitError, "%v", err)
		}
	case "markdown":
		format.WriteMarkdown(out, paperTitle, results)
	case "bibtex":
		fmt.Fprint(out, format.ToBibTeXList(results))
	default:
		return exitError(ExitError, "unknown format %q", flagFormat)
	}
	return nil
}
