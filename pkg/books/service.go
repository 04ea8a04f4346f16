package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID  *int
	GID *string

	// Populate loads authors, topics, pictures and third-party data.
	Populate bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts the book together with its author and topic
// associations, pictures and third-party snapshots in one transaction. The
// association slices are updated in place with their stored IDs.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt
	if book.Likes == nil {
		book.Likes = []int{}
	}

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if len(book.Authors) > 0 {
			for i, a := range book.Authors {
				a.BookID = book.ID
				a.SortOrder = i
			}
			_, err = tx.
				NewInsert().
				Model(&book.Authors).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if len(book.Topics) > 0 {
			for i, t := range book.Topics {
				t.BookID = book.ID
				t.SortOrder = i
				if t.Agreed == nil {
					t.Agreed = []int{}
				}
			}
			_, err = tx.
				NewInsert().
				Model(&book.Topics).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if len(book.Pictures) > 0 {
			for i, p := range book.Pictures {
				p.BookID = book.ID
				p.SortOrder = i
			}
			_, err = tx.
				NewInsert().
				Model(&book.Pictures).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if len(book.ThirdPartyData) > 0 {
			for i, d := range book.ThirdPartyData {
				d.BookID = book.ID
				d.SortOrder = i
			}
			_, err = tx.
				NewInsert().
				Model(&book.ThirdPartyData).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
	return errors.WithStack(err)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book)

	if opts.Populate {
		q = populate(q)
	}
	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.GID != nil {
		q = q.Where("b.g_id = ?", *opts.GID)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	fillEmpty(book)
	return book, nil
}

// FindDuplicate returns the oldest book whose ISBN or purchase link matches.
// The link is compared lower-cased.
func (svc *Service) FindDuplicate(ctx context.Context, isbn, amazonLink string) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.
		NewSelect().
		Model(book).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("b.isbn = ?", isbn).
				WhereOr("lower(b.amazon_link) = ?", strings.ToLower(amazonLink))
		}).
		Order("b.id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	fillEmpty(book)
	return book, nil
}

func (svc *Service) IncrementViews(ctx context.Context, bookID int) error {
	_, err := svc.db.
		NewUpdate().
		Model((*models.Book)(nil)).
		Set("views = views + 1").
		Where("id = ?", bookID).
		Exec(ctx)
	return errors.WithStack(err)
}

// AddTopics associates each topic with the book unless it is already
// associated. New associations start with userID in their agreement set. It
// returns the number of associations added.
func (svc *Service) AddTopics(ctx context.Context, bookID int, topics []*models.Topic, userID int) (int, error) {
	added := 0

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := []*models.BookTopic{}
		err := tx.
			NewSelect().
			Model(&existing).
			Where("bt.book_id = ?", bookID).
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		seen := make(map[int]bool, len(existing))
		next := 0
		for _, bt := range existing {
			seen[bt.TopicID] = true
			if bt.SortOrder >= next {
				next = bt.SortOrder + 1
			}
		}

		additions := []*models.BookTopic{}
		for _, t := range topics {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			additions = append(additions, &models.BookTopic{
				BookID:    bookID,
				TopicID:   t.ID,
				Agreed:    []int{userID},
				SortOrder: next,
			})
			next++
		}
		if len(additions) == 0 {
			return nil
		}

		_, err = tx.
			NewInsert().
			Model(&additions).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		added = len(additions)
		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return added, nil
}

// ToggleAgreement flips userID's membership in the agreement set of one of
// the book's topic associations.
func (svc *Service) ToggleAgreement(ctx context.Context, bookID, bookTopicID, userID int) (*models.BookTopic, error) {
	bt := &models.BookTopic{}

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.
			NewSelect().
			Model(bt).
			Where("bt.id = ?", bookTopicID).
			Where("bt.book_id = ?", bookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Topic")
			}
			return errors.WithStack(err)
		}

		bt.ToggleAgreement(userID)

		_, err = tx.
			NewUpdate().
			Model(bt).
			Column("agreed").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return bt, nil
}

// ToggleLike flips userID's membership in the book's likes.
func (svc *Service) ToggleLike(ctx context.Context, bookID, userID int) (*models.Book, error) {
	book := &models.Book{}

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.
			NewSelect().
			Model(book).
			Where("b.id = ?", bookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		book.ToggleLike(userID)
		book.UpdatedAt = time.Now()

		_, err = tx.
			NewUpdate().
			Model(book).
			Column("likes", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	fillEmpty(book)
	return book, nil
}

func populate(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("Authors", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ba.sort_order ASC")
		}).
		Relation("Authors.Author").
		Relation("Topics", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bt.sort_order ASC")
		}).
		Relation("Topics.Topic").
		Relation("Pictures", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bp.sort_order ASC")
		}).
		Relation("ThirdPartyData", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("tpd.sort_order ASC")
		})
}

// fillEmpty replaces nil collections so they render as [] rather than null.
func fillEmpty(book *models.Book) {
	if book.Likes == nil {
		book.Likes = []int{}
	}
	if book.Authors == nil {
		book.Authors = []*models.BookAuthor{}
	}
	if book.Topics == nil {
		book.Topics = []*models.BookTopic{}
	}
	for _, bt := range book.Topics {
		if bt.Agreed == nil {
			bt.Agreed = []int{}
		}
	}
	if book.Pictures == nil {
		book.Pictures = []*models.Picture{}
	}
	if book.ThirdPartyData == nil {
		book.ThirdPartyData = []*models.ThirdPartyData{}
	}
}
