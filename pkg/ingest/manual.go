package ingest

import (
	"context"
	"strings"

	"github.com/keenpages/catalog/pkg/authors"
	"github.com/keenpages/catalog/pkg/binder"
	"github.com/keenpages/catalog/pkg/books"
	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/identifiers"
	"github.com/keenpages/catalog/pkg/images"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/keenpages/catalog/pkg/scrape"
	"github.com/keenpages/catalog/pkg/topics"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	MessageDuplicateBook   = "A book already exists with this ISBN."
	MessageDuplicateLookup = "Server error checking for an existing book."
	MessageWriterSave      = "Server error saving new author."
	MessageTopicLookup     = "Server error processing topics for this book."
	MessageBadPurchaseLink = "Please check the purchase link you pasted."
	MessagePictureSave     = "Error saving picture for this book on media server."
	MessageLinkShape       = `"amazon_link" must be an http or https link`
)

type manualState struct {
	outcome

	sub     *ManualSubmission
	userID  int
	isbn    string
	writer  *models.Author
	topics  []*models.Topic
	product *scrape.Product
	image   *images.Image
	book    *models.Book
}

// Manual ingests a book entered by userID from a purchase link. A book that
// already has the ISBN or link is reported as a conflict.
func (p *Pipeline) Manual(ctx context.Context, sub *ManualSubmission, userID int) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	stages := []stage[manualState]{
		{"validate", p.validateManual},
		{"resolve_writer", p.resolveWriter},
		{"check_topics", p.checkTopics},
		{"scrape", p.scrapeProduct},
		{"upload_picture", p.uploadPicture},
		{"write", p.writeManual},
		{"notify", p.notifyManual},
	}

	return runStages(ctx, stages, manualState{sub: sub, userID: userID})
}

func (p *Pipeline) validateManual(ctx context.Context, s manualState) (manualState, error) {
	var missing []string
	if s.sub.Title == "" {
		missing = append(missing, "title")
	}
	if s.sub.Writer.empty() {
		missing = append(missing, "writer")
	}
	if len(s.sub.Topics) == 0 {
		missing = append(missing, "topics")
	}
	s.isbn = identifiers.NormalizeISBN(s.sub.ISBN)
	if s.isbn == "" {
		missing = append(missing, "isbn")
	}
	if s.sub.AmazonLink == "" {
		missing = append(missing, "amazon_link")
	}
	if len(missing) > 0 {
		return s, errcodes.MissingFields(missing)
	}
	if !binder.IsHTTPLink(s.sub.AmazonLink) {
		return s, errcodes.ValidationError(MessageLinkShape)
	}

	existing, err := p.deps.Books.FindDuplicate(ctx, s.isbn, s.sub.AmazonLink)
	switch {
	case err == nil:
		return s, errcodes.Conflict(MessageDuplicateBook, existing)
	case errors.Is(err, errcodes.NotFound("Book")):
		return s, nil
	default:
		return s, errcodes.Persistence(MessageDuplicateLookup, err, nil)
	}
}

func (p *Pipeline) resolveWriter(ctx context.Context, s manualState) (manualState, error) {
	if s.sub.Writer.ID != 0 {
		writer, err := p.deps.Authors.RetrieveAuthor(ctx, authors.RetrieveAuthorOptions{ID: &s.sub.Writer.ID})
		if err != nil {
			return s, errors.WithStack(err)
		}
		s.writer = writer
		return s, nil
	}

	writer := &models.Author{Name: s.sub.Writer.Name}
	if err := p.deps.Authors.CreateAuthor(ctx, writer); err != nil {
		return s, errcodes.Persistence(MessageWriterSave, err, nil)
	}
	logger.FromContext(ctx).Info("created author", logger.Data{"author_id": writer.ID, "name": writer.Name})
	s.writer = writer
	return s, nil
}

func (p *Pipeline) checkTopics(ctx context.Context, s manualState) (manualState, error) {
	ids := s.sub.topicIDs()
	found, err := p.deps.Topics.ListTopics(ctx, topics.ListTopicsOptions{IDs: ids})
	if err != nil {
		return s, errcodes.Persistence(MessageTopicLookup, err, nil)
	}

	byID := make(map[int]*models.Topic, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}

	// Keep the submitted order and drop repeated references.
	resolved := make([]*models.Topic, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return s, errcodes.NotFound("Topic")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		resolved = append(resolved, t)
	}

	s.topics = resolved
	return s, nil
}

func (p *Pipeline) scrapeProduct(ctx context.Context, s manualState) (manualState, error) {
	product, err := p.deps.Scraper.Scrape(ctx, s.sub.AmazonLink)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("could not read purchase page", logger.Data{"link": s.sub.AmazonLink})
		return s, errcodes.ValidationError(MessageBadPurchaseLink)
	}
	s.product = product
	return s, nil
}

func (p *Pipeline) uploadPicture(ctx context.Context, s manualState) (manualState, error) {
	image, err := p.deps.Images.Upload(ctx, s.product.PictureLink)
	if err != nil {
		return s, errcodes.Persistence(MessagePictureSave, err, nil)
	}
	s.image = image
	return s, nil
}

func (p *Pipeline) writeManual(ctx context.Context, s manualState) (manualState, error) {
	book := &models.Book{
		Title:       s.sub.Title,
		ISBN:        s.isbn,
		AmazonLink:  strings.ToLower(s.sub.AmazonLink),
		Description: s.product.Title,
		Active:      true,
		CreatedByID: &s.userID,
	}
	switch identifiers.DetectISBN(s.isbn) {
	case identifiers.TypeISBN10:
		book.ISBN10 = s.isbn
	case identifiers.TypeISBN13:
		book.ISBN13 = s.isbn
	}

	written, err := p.deps.ManualWriter.Write(ctx, books.Draft{
		Book:     book,
		Authors:  []*models.Author{s.writer},
		Topics:   s.topics,
		AgreedBy: []int{s.userID},
		Image:    s.image,
	})
	if err != nil {
		return s, errors.WithStack(err)
	}

	s.book = written
	s.result = &Result{Status: StatusCreated, Book: written}
	logger.FromContext(ctx).Info("book added", logger.Data{"book_id": written.ID, "user_id": s.userID})
	return s, nil
}

func (p *Pipeline) notifyManual(ctx context.Context, s manualState) (manualState, error) {
	p.notifyBookAdded(ctx, s.book, s.userID)
	return s, nil
}
