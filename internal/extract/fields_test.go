package extract

import (
	"reflect"
	"testing"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantTitle   string
		wantAuthors []string
		wantYear    int
		wantDOI     string
		wantArxiv   string
		wantURL     string
		wantVenue   string
	}{
		{
			name:        "conference entry with venue marker",
			text:        "Ashish Vaswani, Noam Shazeer, and Illia Polosukhin. Attention is all you need. In Advances in Neural Information Processing Systems, 2017.",
			wantTitle:   "Attention is all you need",
			wantAuthors: []string{"Ashish Vaswani", "Noam Shazeer", "Illia Polosukhin"},
			wantYear:    2017,
			wantVenue:   "Advances in Neural Information Processing Systems",
		},
		{
			name:      "arxiv preprint entry",
			text:      "Kaiming He, Xiangyu Zhang, Shaoqing Ren, and Jian Sun. Deep residual learning for image recognition. arXiv preprint arXiv:1512.03385, 2015.",
			wantTitle: "Deep residual learning for image recognition",
			wantAuthors: []string{
				"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren", "Jian Sun",
			},
			wantYear:  2015,
			wantArxiv: "1512.03385",
		},
		{
			name:      "journal entry with doi",
			text:      "Yann LeCun, Yoshua Bengio, and Geoffrey Hinton. Deep learning. Nature, 521(7553):436-444, 2015. doi:10.1038/nature14539.",
			wantTitle: "Deep learning",
			wantAuthors: []string{
				"Yann LeCun", "Yoshua Bengio", "Geoffrey Hinton",
			},
			wantYear: 2015,
			wantDOI:  "10.1038/nature14539",
		},
		{
			name:      "quoted title",
			text:      `Devlin, J. "BERT: pre-training of deep bidirectional transformers". NAACL, 2019.`,
			wantTitle: "BERT: pre-training of deep bidirectional transformers",
			wantYear:  2019,
		},
		{
			name:     "year excluded inside arxiv id",
			text:     "Anonymous author group. Scaling laws for neural language models. arXiv:2001.08361.",
			wantYear: 0,
			wantTitle: "Scaling laws for neural language models",
			wantArxiv: "2001.08361",
		},
		{
			name:    "url extracted and trailing punctuation trimmed",
			text:    "The Hugging Face team published extensive documentation. Available at https://huggingface.co/docs.",
			wantURL: "https://huggingface.co/docs",
		},
		{
			name: "unparseable entry keeps raw text",
			text: "???",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := parseEntry(tt.text, "1")
			if c.Number != "1" {
				t.Errorf("Number = %q, want 1", c.Number)
			}
			if c.RawText == "" {
				t.Error("RawText is empty")
			}
			if c.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", c.Title, tt.wantTitle)
			}
			if tt.wantAuthors != nil && !reflect.DeepEqual(c.Authors, tt.wantAuthors) {
				t.Errorf("Authors = %v, want %v", c.Authors, tt.wantAuthors)
			}
			if c.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", c.Year, tt.wantYear)
			}
			if c.DOI != tt.wantDOI {
				t.Errorf("DOI = %q, want %q", c.DOI, tt.wantDOI)
			}
			if c.ArxivID != tt.wantArxiv {
				t.Errorf("ArxivID = %q, want %q", c.ArxivID, tt.wantArxiv)
			}
			if c.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", c.URL, tt.wantURL)
			}
			if tt.wantVenue != "" && c.Venue != tt.wantVenue {
				t.Errorf("Venue = %q, want %q", c.Venue, tt.wantVenue)
			}
		})
	}
}

func TestParseEntry_StripsLeadingMarker(t *testing.T) {
	c := parseEntry("[42] Smith, J. An entry with a bracket marker. Journal of Tests, 2020.", "42")
	if c.RawText != "Smith, J. An entry with a bracket marker. Journal of Tests, 2020." {
		t.Errorf("marker not stripped: %q", c.RawText)
	}
}

func TestParseEntry_AuthorCap(t *testing.T) {
	text := "Alpha One, Bravo Two, Charlie Three, Delta Four, Echo Five, Foxtrot Six, Golf Seven, Hotel Eight, India Nine, Juliett Ten, Kilo Eleven, Lima Twelve. A collaboration paper with many authors. In Proceedings of Big Teams, 2021."
	c := parseEntry(text, "1")
	if len(c.Authors) != 10 {
		t.Errorf("expected author list capped at 10, got %d", len(c.Authors))
	}
}

func TestFindArxivID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "colon form",
			text: "arXiv:1706.03762, 2017",
			want: "1706.03762",
		},
		{
			name: "preprint form",
			text: "arXiv preprint 1706.03762",
			want: "1706.03762",
		},
		{
			name: "url form",
			text: "https://arxiv.org/abs/1706.03762v5",
			want: "1706.03762",
		},
		{
			name: "old style",
			text: "arXiv:hep-th/9901001",
			want: "hep-th/9901001",
		},
		{
			name: "version stripped",
			text: "arXiv:1706.03762v3",
			want: "1706.03762",
		},
		{
			name: "absent",
			text: "Nature, 521:436-444, 2015",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := findArxivID(tt.text)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
