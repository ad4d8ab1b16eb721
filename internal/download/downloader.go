// Package download fetches open-access PDF copies of verified citations,
// trying sources in priority order: arXiv, Unpaywall, then whatever
// open-access URL the accepted match carried. Downloaded files are
// validated as PDFs; sources that return HTML error pages with a 200
// status are discarded.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/panchambanerjee/cite-verify-cli/internal/arxiv"
	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
	"github.com/panchambanerjee/cite-verify-cli/internal/pdf"
	"github.com/panchambanerjee/cite-verify-cli/internal/unpaywall"
)

// DefaultTimeout bounds a single PDF fetch.
const DefaultTimeout = 30 * time.Second

// Downloader fetches open-access PDFs for verified citations.
type Downloader struct {
	httpClient *http.Client
	unpaywall  *unpaywall.Client
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Downloader) {
		d.httpClient = hc
	}
}

// WithUnpaywall sets a custom Unpaywall client (for testing).
func WithUnpaywall(c *unpaywall.Client) Option {
	return func(d *Downloader) {
		d.unpaywall = c
	}
}

// New creates a Downloader. email is the Unpaywall contact address.
func New(email string, opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		unpaywall:  unpaywall.NewClient(email),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download tries to fetch a PDF for one citation into dir. It never
// returns an error: failure is a terminal result, not a fault.
func (d *Downloader) Download(ctx context.Context, vc citation.VerifiedCitation, dir string) citation.DownloadResult {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return citation.DownloadResult{Error: fmt.Sprintf("creating output directory: %v", err)}
	}

	arxivID := vc.ArxivID
	doi := vc.DOI
	var matchPDF string
	if vc.Verification.Verified() {
		m := vc.Verification.Match
		if m.ArxivID != "" {
			arxivID = m.ArxivID
		}
		if m.DOI != "" {
			doi = m.DOI
		}
		matchPDF = m.PDFURL
	}

	if arxivID != "" {
		res := d.fetch(ctx, arxiv.PDFURL(arxivID), dir, vc.Number, "arxiv")
		if res.Success {
			return res
		}
	}

	if doi != "" {
		if pdfURL, err := d.unpaywall.PDFURL(ctx, doi); err == nil && pdfURL != "" {
			res := d.fetch(ctx, pdfURL, dir, vc.Number, "unpaywall")
			if res.Success {
				return res
			}
		}
	}

	if matchPDF != "" {
		res := d.fetch(ctx, matchPDF, dir, vc.Number, vc.Verification.Match.Source)
		if res.Success {
			return res
		}
	}

	return citation.DownloadResult{Error: "PDF not available from any source"}
}

// fetch downloads one URL into dir and validates the result as a PDF.
func (d *Downloader) fetch(ctx context.Context, rawURL, dir, number, source string) citation.DownloadResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return citation.DownloadResult{Error: fmt.Sprintf("creating request: %v", err)}
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return citation.DownloadResult{Error: fmt.Sprintf("%s download failed: %v", source, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return citation.DownloadResult{Error: fmt.Sprintf("%s: HTTP %d", source, resp.StatusCode)}
	}

	path := filepath.Join(dir, fmt.Sprintf("[%s]_%s.pdf", number, source))
	f, err := os.Create(path)
	if err != nil {
		return citation.DownloadResult{Error: fmt.Sprintf("creating file: %v", err)}
	}
	size, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return citation.DownloadResult{Error: fmt.Sprintf("writing file: %v", err)}
	}

	if err := pdf.Validate(path); err != nil {
		os.Remove(path)
		return citation.DownloadResult{Error: "downloaded file is not a valid PDF"}
	}

	return citation.DownloadResult{
		Success:  true,
		Path:     path,
		Source:   source,
		FileSize: size,
	}
}
