package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// GoodReads looks up review counts and ratings.
type GoodReads struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewGoodReads(baseURL, key string, client *http.Client) *GoodReads {
	return &GoodReads{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  client,
	}
}

func (g *GoodReads) Name() string {
	return NameGoodReads
}

type reviewCounts struct {
	Books []json.RawMessage `json:"books"`
}

func (g *GoodReads) Fetch(ctx context.Context, isbn string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("isbns", isbn)
	if g.key != "" {
		q.Set("key", g.key)
	}
	body, err := getJSON(ctx, g.client, g.baseURL+"/book/review_counts.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var counts reviewCounts
	if err := json.Unmarshal(body, &counts); err != nil {
		return nil, errors.Wrap(err, "failed to parse goodReads response")
	}
	if len(counts.Books) == 0 {
		return nil, errors.WithStack(ErrNoRecord)
	}
	return counts.Books[0], nil
}
