package scrape

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxPageBytes = 5 << 20

// ErrIncomplete is returned when the page is missing a picture or a title.
var ErrIncomplete = errors.New("product page is missing a picture or a title")

// Product is what a purchase page tells us about a book.
type Product struct {
	PictureLink string
	Title       string
}

// Selectors are tried in order; the first element found wins.
var (
	pictureContainerIDs = []string{"imageBlockContainer", "ebooks-img-canvas", "mainImageContainer"}
	titleIDs            = []string{"productTitle", "ebooksProductTitle"}
)

type Scraper struct {
	client    *http.Client
	userAgent string
}

func New(client *http.Client, userAgent string) *Scraper {
	return &Scraper{client, userAgent}
}

func (s *Scraper) Scrape(ctx context.Context, link string) (*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product link")
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch product page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("product page responded with HTTP %d", resp.StatusCode)
	}

	product, err := Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	product.PictureLink = resolveLink(resp.Request.URL, product.PictureLink)
	return product, nil
}

// resolveLink makes a relative or protocol-relative picture link absolute
// against the page it was found on. Inline data URIs are returned as-is.
func resolveLink(page *url.URL, link string) string {
	if page == nil || strings.HasPrefix(link, "data:") {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return page.ResolveReference(ref).String()
}

// Parse extracts the product picture and title from an HTML page.
func Parse(r io.Reader) (*Product, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse product page")
	}

	product := &Product{}
	for _, id := range pictureContainerIDs {
		container := findByID(doc, id)
		if container == nil {
			continue
		}
		if img := findFirst(container, atom.Img); img != nil {
			if src := attr(img, "src"); src != "" {
				product.PictureLink = src
				break
			}
		}
	}
	for _, id := range titleIDs {
		if n := findByID(doc, id); n != nil {
			if title := strings.Join(strings.Fields(textContent(n)), " "); title != "" {
				product.Title = title
				break
			}
		}
	}

	if product.PictureLink == "" || product.Title == "" {
		return product, errors.WithStack(ErrIncomplete)
	}
	return product, nil
}

func findByID(n *html.Node, id string) *html.Node {
	return find(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && attr(c, "id") == id
	})
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	return find(n, func(c *html.Node) bool {
		return c != n && c.Type == html.ElementNode && c.DataAtom == a
	})
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
