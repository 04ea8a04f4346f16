package topics

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Lexicon tells whether a word is a recognized term and lists its synonyms.
type Lexicon interface {
	Lookup(ctx context.Context, word string) (*LexiconEntry, error)
}

type LexiconEntry struct {
	// Recognized is false when the lexicon has no definitions for the word.
	Recognized bool
	Synonyms   []string
}

// WordsAPI is a Lexicon backed by a words API.
type WordsAPI struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewWordsAPI(baseURL, key string, client *http.Client) *WordsAPI {
	return &WordsAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		client:  client,
	}
}

type wordsResponse struct {
	Results []struct {
		Definition string   `json:"definition"`
		Synonyms   []string `json:"synonyms"`
	} `json:"results"`
}

func (w *WordsAPI) Lookup(ctx context.Context, word string) (*LexiconEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/words/"+url.PathEscape(word), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create lexicon request")
	}
	if w.key != "" {
		req.Header.Set("X-Mashape-Key", w.key)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "lexicon request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &LexiconEntry{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("lexicon responded with HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read lexicon response")
	}
	var parsed wordsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse lexicon response")
	}

	entry := &LexiconEntry{Recognized: len(parsed.Results) > 0, Synonyms: []string{}}
	for _, r := range parsed.Results {
		entry.Synonyms = append(entry.Synonyms, r.Synonyms...)
	}
	return entry, nil
}
