package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// OpenLibrary looks up library catalog data (authors, subjects, publishers).
type OpenLibrary struct {
	baseURL string
	client  *http.Client
}

func NewOpenLibrary(baseURL string, client *http.Client) *OpenLibrary {
	return &OpenLibrary{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (o *OpenLibrary) Name() string {
	return NameOpenLibrary
}

func (o *OpenLibrary) Fetch(ctx context.Context, isbn string) (json.RawMessage, error) {
	bibkey := "ISBN:" + isbn
	q := url.Values{}
	q.Set("bibkeys", bibkey)
	q.Set("jscmd", "data")
	q.Set("format", "json")
	body, err := getJSON(ctx, o.client, o.baseURL+"/api/books?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, errors.Wrap(err, "failed to parse openLibrary response")
	}
	record, ok := records[bibkey]
	if !ok {
		return nil, errors.WithStack(ErrNoRecord)
	}
	return record, nil
}

type namedLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CatalogRecord is the part of an openLibrary record that reconciliation
// reads.
type CatalogRecord struct {
	Title    string      `json:"title"`
	Authors  []namedLink `json:"authors"`
	Subjects []namedLink `json:"subjects"`
}

func (r *CatalogRecord) AuthorNames() []string {
	return names(r.Authors)
}

func (r *CatalogRecord) SubjectNames() []string {
	return names(r.Subjects)
}

func names(links []namedLink) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Name)
	}
	return out
}

// ParseCatalogRecord decodes an openLibrary payload.
func ParseCatalogRecord(payload json.RawMessage) (*CatalogRecord, error) {
	record := &CatalogRecord{}
	if len(payload) == 0 {
		return record, nil
	}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, errors.WithStack(err)
	}
	return record, nil
}
