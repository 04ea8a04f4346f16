package ingest

import (
	"context"

	"github.com/keenpages/catalog/pkg/authors"
	"github.com/keenpages/catalog/pkg/books"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/images"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/keenpages/catalog/pkg/notify"
	"github.com/keenpages/catalog/pkg/providers"
	"github.com/keenpages/catalog/pkg/scrape"
	"github.com/keenpages/catalog/pkg/topics"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Status string

const (
	// StatusCreated means the submission produced a new book.
	StatusCreated Status = "created"
	// StatusExisting means the book was already catalogued and is returned
	// unchanged.
	StatusExisting Status = "existing"
)

type Result struct {
	Status Status       `json:"status"`
	Book   *models.Book `json:"book"`
}

// outcome is embedded in every pipeline state. A stage that sets halt ends the
// run successfully with result.
type outcome struct {
	result *Result
	halt   bool
}

func (o outcome) terminal() outcome {
	return o
}

type state interface {
	terminal() outcome
}

type stage[S state] struct {
	name string
	run  func(ctx context.Context, s S) (S, error)
}

// runStages feeds each stage the state returned by the previous one. The first
// failure stops the run and is returned as an errcodes error; no stage undoes
// what earlier stages stored.
func runStages[S state](ctx context.Context, stages []stage[S], s S) (*Result, error) {
	log := logger.FromContext(ctx)

	for _, st := range stages {
		next, err := st.run(ctx, s)
		if err != nil {
			var e *errcodes.Error
			if !errors.As(err, &e) {
				err = errcodes.Unexpected(err)
			}
			log.Err(err).Warn("ingestion stopped", logger.Data{"stage": st.name})
			return nil, errors.WithStack(err)
		}
		s = next
		if o := s.terminal(); o.halt {
			log.Info("ingestion finished early", logger.Data{"stage": st.name})
			return o.result, nil
		}
	}

	o := s.terminal()
	if o.result == nil {
		return nil, errcodes.Unexpected(errors.New("ingestion finished without a book"))
	}
	return o.result, nil
}

// BookStore is the subset of the book service the pipelines read from.
type BookStore interface {
	RetrieveBook(ctx context.Context, opts books.RetrieveBookOptions) (*models.Book, error)
	FindDuplicate(ctx context.Context, isbn, amazonLink string) (*models.Book, error)
}

type AuthorStore interface {
	RetrieveAuthor(ctx context.Context, opts authors.RetrieveAuthorOptions) (*models.Author, error)
	CreateAuthor(ctx context.Context, author *models.Author) error
}

type TopicStore interface {
	ListTopics(ctx context.Context, opts topics.ListTopicsOptions) ([]*models.Topic, error)
}

type Scraper interface {
	Scrape(ctx context.Context, link string) (*scrape.Product, error)
}

type BookWriter interface {
	Write(ctx context.Context, d books.Draft) (*models.Book, error)
}

// Dependencies are the collaborators the pipelines run against. Notifier is
// optional.
type Dependencies struct {
	Books            BookStore
	Authors          AuthorStore
	Topics           TopicStore
	AuthorReconciler *authors.Reconciler
	TopicReconciler  *topics.Reconciler
	Aggregator       *providers.Aggregator
	Images           *images.Processor
	Scraper          Scraper
	CatalogWriter    BookWriter
	ManualWriter     BookWriter
	Notifier         notify.Notifier
}

type Pipeline struct {
	deps Dependencies
}

func New(deps Dependencies) *Pipeline {
	return &Pipeline{deps}
}

// NewWithDB builds both pipelines over the stores in db.
func NewWithDB(db *bun.DB, aggregator *providers.Aggregator, processor *images.Processor, scraper Scraper, notifier notify.Notifier) *Pipeline {
	bookService := books.NewService(db)
	authorService := authors.NewService(db)
	topicService := topics.NewService(db)

	return New(Dependencies{
		Books:            bookService,
		Authors:          authorService,
		Topics:           topicService,
		AuthorReconciler: authors.NewReconciler(authorService, authors.DefaultPolicy),
		TopicReconciler:  topics.NewReconciler(topicService),
		Aggregator:       aggregator,
		Images:           processor,
		Scraper:          scraper,
		CatalogWriter:    books.NewWriter(bookService, books.MessageCatalogSaveFailed),
		ManualWriter:     books.NewWriter(bookService, books.MessageManualSaveFailed),
		Notifier:         notifier,
	})
}

func (p *Pipeline) notifyBookAdded(ctx context.Context, book *models.Book, userID int) {
	if p.deps.Notifier == nil {
		return
	}
	if err := p.deps.Notifier.BookAdded(ctx, book, userID); err != nil {
		logger.FromContext(ctx).Err(err).Warn("could not announce new book", logger.Data{"book_id": book.ID})
	}
}
