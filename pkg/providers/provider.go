package providers

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	NameGoodReads   = "goodReads"
	NameOpenLibrary = "openLibrary"
)

// ErrNoRecord is returned by a provider that answered but has nothing for the
// requested ISBN.
var ErrNoRecord = errors.New("provider has no record for this isbn")

// Provider fetches the raw record a bibliographic service holds for an ISBN.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, isbn string) (json.RawMessage, error)
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create provider request")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.WithStack(ErrNoRecord)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("provider responded with HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read provider response")
	}
	if !json.Valid(body) {
		return nil, errors.New("provider responded with invalid json")
	}
	return body, nil
}
