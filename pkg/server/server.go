package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/keenpages/catalog/pkg/auth"
	"github.com/keenpages/catalog/pkg/binder"
	"github.com/keenpages/catalog/pkg/books"
	"github.com/keenpages/catalog/pkg/config"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/images"
	"github.com/keenpages/catalog/pkg/ingest"
	"github.com/keenpages/catalog/pkg/notify"
	"github.com/keenpages/catalog/pkg/providers"
	"github.com/keenpages/catalog/pkg/scrape"
	"github.com/keenpages/catalog/pkg/testutils"
	"github.com/keenpages/catalog/pkg/topics"
	"github.com/keenpages/catalog/pkg/version"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(ctx context.Context, cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	pipeline, lexicon, err := newCollaborators(ctx, cfg, db)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	_, authMiddleware := auth.RegisterRoutes(e, db, cfg.JWTSecret)

	booksGroup := e.Group("/books")
	books.RegisterRoutesWithGroup(booksGroup, db, authMiddleware)
	ingest.RegisterRoutesWithGroup(booksGroup, pipeline, authMiddleware)

	topics.RegisterRoutesWithGroup(e.Group("/topics"), db, lexicon)

	if cfg.Environment == config.EnvironmentTest {
		testutils.RegisterRoutes(e, db, cfg.JWTSecret)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// newCollaborators builds the outbound clients: bibliographic providers, the
// image store, the purchase page scraper, the notifier and the lexicon.
func newCollaborators(ctx context.Context, cfg *config.Config, db *bun.DB) (*ingest.Pipeline, topics.Lexicon, error) {
	client := &http.Client{Timeout: cfg.ProviderHTTPTimeout}

	aggregator := providers.NewAggregator(
		providers.NewGoodReads(cfg.GoodReadsBaseURL, cfg.GoodReadsKey, client),
		providers.NewOpenLibrary(cfg.OpenLibraryBaseURL, client),
	)

	s3Client, err := images.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	uploader := images.NewS3Uploader(s3Client, client, cfg.ImageStorageBucket, cfg.ImageStoragePublicBaseURL)

	pipeline := ingest.NewWithDB(
		db,
		aggregator,
		images.NewProcessor(uploader),
		scrape.New(client, version.UserAgent()),
		notify.New(cfg.NotifyWebhookURL, client),
	)

	return pipeline, topics.NewWordsAPI(cfg.LexiconBaseURL, cfg.LexiconKey, client), nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
