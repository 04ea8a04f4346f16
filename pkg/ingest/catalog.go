package ingest

import (
	"context"
	"strings"

	"github.com/keenpages/catalog/pkg/books"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/images"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/keenpages/catalog/pkg/providers"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type catalogState struct {
	outcome

	sub       *CatalogSubmission
	aggregate *providers.Aggregate
	record    *providers.CatalogRecord
	authors   []*models.Author
	topics    []*models.Topic
	image     *images.Image
	book      *models.Book
}

// Catalog ingests a book submitted by the search-engine provider. A book that
// is already stored under the same gId is returned as-is.
func (p *Pipeline) Catalog(ctx context.Context, sub *CatalogSubmission) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	stages := []stage[catalogState]{
		{"validate", p.validateCatalog},
		{"aggregate", p.aggregate},
		{"reconcile_authors", p.reconcileAuthors},
		{"reconcile_topics", p.reconcileTopics},
		{"process_image", p.processImage},
		{"write", p.writeCatalog},
		{"notify", p.notifyCatalog},
	}

	return runStages(ctx, stages, catalogState{sub: sub})
}

func (p *Pipeline) validateCatalog(ctx context.Context, s catalogState) (catalogState, error) {
	var missing []string
	if s.sub.GID == "" {
		missing = append(missing, "gId")
	}
	if s.sub.GTag == "" {
		missing = append(missing, "gTag")
	}
	if s.sub.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return s, errcodes.MissingFields(missing)
	}

	existing, err := p.deps.Books.RetrieveBook(ctx, books.RetrieveBookOptions{GID: &s.sub.GID, Populate: true})
	switch {
	case err == nil:
		s.result = &Result{Status: StatusExisting, Book: existing}
		s.halt = true
	case errors.Is(err, errcodes.NotFound("Book")):
	default:
		// Not fatal. The unique gId index still refuses a second copy.
		logger.FromContext(ctx).Err(err).Warn("could not check for an existing book", logger.Data{"g_id": s.sub.GID})
	}
	return s, nil
}

func (p *Pipeline) aggregate(ctx context.Context, s catalogState) (catalogState, error) {
	s.aggregate = p.deps.Aggregator.Fetch(ctx, s.sub.ISBN10, s.sub.ISBN13)
	s.record = s.aggregate.CatalogRecord(ctx)

	logger.FromContext(ctx).Info("providers consulted", logger.Data{
		"isbn":   s.aggregate.ISBN,
		"status": s.aggregate.Status,
	})
	return s, nil
}

func (p *Pipeline) reconcileAuthors(ctx context.Context, s catalogState) (catalogState, error) {
	resolved, err := p.deps.AuthorReconciler.Reconcile(ctx, s.sub.authorNames(), s.record.AuthorNames())
	if err != nil {
		return s, errors.WithStack(err)
	}
	s.authors = resolved
	return s, nil
}

func (p *Pipeline) reconcileTopics(ctx context.Context, s catalogState) (catalogState, error) {
	resolved, err := p.deps.TopicReconciler.Reconcile(ctx, s.sub.topicNames(), s.record.SubjectNames())
	if err != nil {
		return s, errors.WithStack(err)
	}
	s.topics = resolved
	return s, nil
}

func (p *Pipeline) processImage(ctx context.Context, s catalogState) (catalogState, error) {
	s.image = p.deps.Images.Process(ctx, s.sub.pictureLinks())
	return s, nil
}

func (p *Pipeline) writeCatalog(ctx context.Context, s catalogState) (catalogState, error) {
	book, err := p.deps.CatalogWriter.Write(ctx, books.Draft{
		Book: &models.Book{
			GID:         s.sub.GID,
			GTag:        s.sub.GTag,
			Title:       s.sub.Title,
			Description: s.sub.Description,
			AmazonLink:  strings.ToLower(s.sub.AmazonLink),
			ISBN:        s.aggregate.ISBN,
			ISBN10:      s.sub.ISBN10,
			ISBN13:      s.sub.ISBN13,
			Active:      true,
		},
		Authors:   s.authors,
		Topics:    s.topics,
		Image:     s.image,
		Aggregate: s.aggregate,
	})
	if err != nil {
		return s, errors.WithStack(err)
	}

	s.book = book
	s.result = &Result{Status: StatusCreated, Book: book}
	logger.FromContext(ctx).Info("book catalogued", logger.Data{"book_id": book.ID, "g_id": book.GID})
	return s, nil
}

func (p *Pipeline) notifyCatalog(ctx context.Context, s catalogState) (catalogState, error) {
	p.notifyBookAdded(ctx, s.book, 0)
	return s, nil
}
