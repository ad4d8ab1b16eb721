package s2

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchJSON = `{
	"total": 1,
	"data": [
		{
			"paperId": "204e3073870fae3d05bcbc2f6a8e263d9b72e776",
			"title": "Attention is All you Need",
			"year": 2017,
			"venue": "Neural Information Processing Systems",
			"citationCount": 100000,
			"isOpenAccess": true,
			"publicationTypes": ["JournalArticle", "Conference"],
			"authors": [{"name": "Ashish Vaswani"}, {"name": "Noam Shazeer"}],
			"externalIds": {"DOI": "10.5555/3295222.3295349", "ArXiv": "1706.03762"},
			"openAccessPdf": {"url": "https://arxiv.org/pdf/1706.03762"}
		}
	]
}`

func TestSearchByTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "attention is all you need" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(searchJSON))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	cands, err := c.SearchByTitle(context.Background(), "attention is all you need")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}

	cand := cands[0]
	if cand.Source != SourceName {
		t.Errorf("source = %q", cand.Source)
	}
	if cand.Title != "Attention is All you Need" {
		t.Errorf("title = %q", cand.Title)
	}
	if cand.Year != 2017 {
		t.Errorf("year = %d", cand.Year)
	}
	if cand.DOI != "10.5555/3295222.3295349" {
		t.Errorf("doi = %q", cand.DOI)
	}
	if cand.ArxivID != "1706.03762" {
		t.Errorf("arxiv id = %q", cand.ArxivID)
	}
	if cand.PubType != "journalarticle" {
		t.Errorf("pub type = %q", cand.PubType)
	}
	if cand.PDFURL != "https://arxiv.org/pdf/1706.03762" {
		t.Errorf("pdf url = %q", cand.PDFURL)
	}
	if !cand.OpenAccess {
		t.Error("open access flag lost")
	}
	if len(cand.Authors) != 2 {
		t.Errorf("authors = %v", cand.Authors)
	}
}

func TestSearchByTitle_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0, "data": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	cands, err := c.SearchByTitle(context.Background(), "no such paper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("got %d candidates, want 0", len(cands))
	}
}

func TestSearchByTitle_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.SearchByTitle(context.Background(), "anything")
	if !errors.Is(err, ErrAPIError) {
		t.Errorf("expected ErrAPIError, got %v", err)
	}
}

func TestAPIKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "secret" {
			t.Errorf("x-api-key = %q", got)
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000), WithAPIKey("secret"))
	if _, err := c.SearchByTitle(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
