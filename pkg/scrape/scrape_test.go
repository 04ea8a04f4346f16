package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const printPage = `<html><body>
<div id="imageBlockContainer"><div><img src="https://images.example.com/dune.jpg" alt="Dune"></div></div>
<h1><span id="productTitle">
   Dune   (Deluxe Edition)
</span></h1>
</body></html>`

const ebookPage = `<html><body>
<div id="ebooks-img-canvas"><img src="https://images.example.com/dune-kindle.jpg"></div>
<span id="ebooksProductTitle">Dune: Kindle Edition</span>
</body></html>`

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    string
		picture string
		title   string
		err     bool
	}{
		{"print edition", printPage, "https://images.example.com/dune.jpg", "Dune (Deluxe Edition)", false},
		{"ebook edition", ebookPage, "https://images.example.com/dune-kindle.jpg", "Dune: Kindle Edition", false},
		{"backup image container", `<div id="mainImageContainer"><img src="/b.jpg"></div><span id="productTitle">B</span>`, "/b.jpg", "B", false},
		{"missing title", `<div id="imageBlockContainer"><img src="/a.jpg"></div>`, "/a.jpg", "", true},
		{"missing picture", `<span id="productTitle">Dune</span>`, "", "Dune", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := Parse(strings.NewReader(tt.page))
			if tt.err {
				assert.ErrorIs(t, err, ErrIncomplete)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.picture, product.PictureLink)
			assert.Equal(t, tt.title, product.Title)
		})
	}
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "catalog-test", r.Header.Get("User-Agent"))
		if r.URL.Path != "/dp/0441013597" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(printPage))
	}))
	defer srv.Close()

	s := New(srv.Client(), "catalog-test")

	product, err := s.Scrape(context.Background(), srv.URL+"/dp/0441013597")
	require.NoError(t, err)
	assert.Equal(t, "Dune (Deluxe Edition)", product.Title)

	_, err = s.Scrape(context.Background(), srv.URL+"/dp/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestScraper_ScrapeResolvesPictureLink(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/dp/protocol-relative": `<div id="imageBlockContainer"><img src="//images.example.com/dune.jpg"></div><span id="productTitle">Dune</span>`,
		"/dp/root-relative":     `<div id="imageBlockContainer"><img src="/images/dune.jpg"></div><span id="productTitle">Dune</span>`,
		"/dp/inline":            `<div id="imageBlockContainer"><img src="data:image/png;base64,iVBORw0KGgo="></div><span id="productTitle">Dune</span>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	s := New(srv.Client(), "")

	tests := []struct {
		path    string
		picture string
	}{
		{"/dp/protocol-relative", "http://images.example.com/dune.jpg"},
		{"/dp/root-relative", srv.URL + "/images/dune.jpg"},
		{"/dp/inline", "data:image/png;base64,iVBORw0KGgo="},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			product, err := s.Scrape(context.Background(), srv.URL+tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.picture, product.PictureLink)
		})
	}
}
