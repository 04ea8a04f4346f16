package ingest

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/images"
	"github.com/keenpages/catalog/pkg/migrations"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/keenpages/catalog/pkg/providers"
	"github.com/keenpages/catalog/pkg/scrape"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

type stubProvider struct {
	name    string
	payload string
	err     error

	mu    sync.Mutex
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(_ context.Context, _ string) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

type stubUploader struct {
	result *images.UploadResult
	err    error
}

func (s *stubUploader) Upload(_ context.Context, _ string) (*images.UploadResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return &images.UploadResult{SecureURL: "https://cdn.example.com/covers/1.jpg", PublicID: "covers/1"}, nil
}

type stubScraper struct {
	product *scrape.Product
	err     error
}

func (s *stubScraper) Scrape(_ context.Context, _ string) (*scrape.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

type recordingNotifier struct {
	books []*models.Book
	users []int
	err   error
}

func (n *recordingNotifier) BookAdded(_ context.Context, book *models.Book, userID int) error {
	n.books = append(n.books, book)
	n.users = append(n.users, userID)
	return n.err
}

type fixture struct {
	db          *bun.DB
	pipeline    *Pipeline
	goodReads   *stubProvider
	openLibrary *stubProvider
	uploader    *stubUploader
	scraper     *stubScraper
	notifier    *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		db:          setupTestDB(t),
		goodReads:   &stubProvider{name: providers.NameGoodReads, payload: `{"average_rating":"4.25"}`},
		openLibrary: &stubProvider{name: providers.NameOpenLibrary, payload: `{"title":"Dune"}`},
		uploader:    &stubUploader{},
		scraper: &stubScraper{product: &scrape.Product{
			PictureLink: "https://images.example.com/dune.jpg",
			Title:       "Dune (Deluxe Edition)",
		}},
		notifier: &recordingNotifier{},
	}
	f.pipeline = NewWithDB(
		f.db,
		providers.NewAggregator(f.goodReads, f.openLibrary),
		images.NewProcessor(f.uploader),
		f.scraper,
		f.notifier,
	)
	return f
}

func (f *fixture) count(t *testing.T, model interface{}) int {
	t.Helper()
	n, err := f.db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return n
}

func requireCode(t *testing.T, err error, code string) *errcodes.Error {
	t.Helper()
	var e *errcodes.Error
	require.True(t, errors.As(err, &e), "expected an errcodes error, got %v", err)
	require.Equal(t, code, e.Code)
	return e
}

type testState struct {
	outcome
	visited []string
}

func TestRunStages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mark := func(name string) stage[testState] {
		return stage[testState]{name, func(_ context.Context, s testState) (testState, error) {
			s.visited = append(s.visited, name)
			return s, nil
		}}
	}

	t.Run("halt skips the remaining stages", func(tt *testing.T) {
		var last testState
		halt := stage[testState]{"halt", func(_ context.Context, s testState) (testState, error) {
			s.result = &Result{Status: StatusExisting}
			s.halt = true
			last = s
			return s, nil
		}}
		tail := stage[testState]{"tail", func(_ context.Context, s testState) (testState, error) {
			tt.Fatal("stage after halt ran")
			return s, nil
		}}

		result, err := runStages(ctx, []stage[testState]{mark("a"), halt, tail}, testState{})
		require.NoError(tt, err)
		assert.Equal(tt, StatusExisting, result.Status)
		assert.Equal(tt, []string{"a"}, last.visited)
	})

	t.Run("untyped failures become unexpected errors", func(tt *testing.T) {
		fail := stage[testState]{"fail", func(_ context.Context, s testState) (testState, error) {
			return s, errors.New("boom")
		}}

		_, err := runStages(ctx, []stage[testState]{fail}, testState{})
		requireCode(tt, err, errcodes.CodeUnexpected)
		assert.Contains(tt, err.Error(), "boom")
	})

	t.Run("typed failures pass through", func(tt *testing.T) {
		fail := stage[testState]{"fail", func(_ context.Context, s testState) (testState, error) {
			return s, errcodes.NotFound("Topic")
		}}

		_, err := runStages(ctx, []stage[testState]{fail}, testState{})
		assert.ErrorIs(tt, err, errcodes.NotFound("Topic"))
	})

	t.Run("finishing without a result is unexpected", func(tt *testing.T) {
		_, err := runStages(ctx, []stage[testState]{mark("a")}, testState{})
		requireCode(tt, err, errcodes.CodeUnexpected)
	})
}
