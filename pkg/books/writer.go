package books

import (
	"context"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/images"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/keenpages/catalog/pkg/providers"
	"github.com/robinjoseph08/golib/logger"
)

const (
	MessageCatalogSaveFailed = "Server error saving this book"
	MessageManualSaveFailed  = "Server error saving new book."
)

// Store is the subset of the book service the writer needs.
type Store interface {
	CreateBook(ctx context.Context, book *models.Book) error
	RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error)
}

// Draft is a book that has been fully reconciled but not yet stored.
type Draft struct {
	// Book holds the scalar fields. Its collections are replaced on write.
	Book    *models.Book
	Authors []*models.Author
	Topics  []*models.Topic
	// AgreedBy seeds the agreement set of every topic association.
	AgreedBy  []int
	Image     *images.Image
	Aggregate *providers.Aggregate
}

type Writer struct {
	store          Store
	failureMessage string
}

// NewWriter returns a writer that reports store failures with failureMessage.
func NewWriter(store Store, failureMessage string) *Writer {
	return &Writer{store, failureMessage}
}

// Write stores the draft and returns it populated. A failed populate is
// logged and the book is returned as written.
func (w *Writer) Write(ctx context.Context, d Draft) (*models.Book, error) {
	book := assemble(d)

	if err := w.store.CreateBook(ctx, book); err != nil {
		return nil, errcodes.Persistence(w.failureMessage, err, nil)
	}

	populated, err := w.store.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID, Populate: true})
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("could not populate book after write", logger.Data{"book_id": book.ID})
		fillEmpty(book)
		return book, nil
	}
	return populated, nil
}

func assemble(d Draft) *models.Book {
	book := d.Book
	book.Likes = []int{}

	book.Authors = make([]*models.BookAuthor, 0, len(d.Authors))
	for _, a := range d.Authors {
		book.Authors = append(book.Authors, &models.BookAuthor{AuthorID: a.ID, Author: a})
	}

	book.Topics = make([]*models.BookTopic, 0, len(d.Topics))
	for _, t := range d.Topics {
		agreed := make([]int, len(d.AgreedBy))
		copy(agreed, d.AgreedBy)
		book.Topics = append(book.Topics, &models.BookTopic{TopicID: t.ID, Topic: t, Agreed: agreed})
	}

	book.Pictures = []*models.Picture{}
	if d.Image != nil {
		book.Pictures = append(book.Pictures, &models.Picture{
			Link:      d.Image.Link,
			PublicID:  d.Image.PublicID,
			IsDefault: true,
		})
	}

	present := d.Aggregate.Present()
	book.ThirdPartyData = make([]*models.ThirdPartyData, 0, len(present))
	for _, s := range present {
		book.ThirdPartyData = append(book.ThirdPartyData, &models.ThirdPartyData{
			Provider: s.Provider,
			Payload:  s.Payload,
		})
	}

	return book
}
