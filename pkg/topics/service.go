package topics

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

type RetrieveTopicOptions struct {
	ID   *int
	Name *string

	// WithSimilar loads the similar topics.
	WithSimilar bool
}

type ListTopicsOptions struct {
	Names  []string
	IDs    []int
	Search *string
	Limit  *int
	Offset *int
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateTopic(ctx context.Context, topic *models.Topic) error {
	return svc.createTopic(ctx, svc.db, topic)
}

func (svc *Service) createTopic(ctx context.Context, db bun.IDB, topic *models.Topic) error {
	now := time.Now()
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = now
	}
	topic.UpdatedAt = topic.CreatedAt

	_, err := db.
		NewInsert().
		Model(topic).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

// CreateTopicWithSimilar inserts the topic and its links to similarIDs in one
// transaction.
func (svc *Service) CreateTopicWithSimilar(ctx context.Context, topic *models.Topic, similarIDs []int) error {
	return svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := svc.createTopic(ctx, tx, topic); err != nil {
			return err
		}
		for _, id := range similarIDs {
			if err := addSimilar(ctx, tx, topic.ID, id); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddSimilar records similarID as similar to topicID. Adding an existing link
// is a no-op.
func (svc *Service) AddSimilar(ctx context.Context, topicID, similarID int) error {
	return addSimilar(ctx, svc.db, topicID, similarID)
}

func addSimilar(ctx context.Context, db bun.IDB, topicID, similarID int) error {
	link := &models.TopicSimilar{TopicID: topicID, SimilarID: similarID}
	_, err := db.
		NewInsert().
		Model(link).
		On("CONFLICT (topic_id, similar_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveTopic(ctx context.Context, opts RetrieveTopicOptions) (*models.Topic, error) {
	topic := &models.Topic{}

	q := svc.db.
		NewSelect().
		Model(topic)

	if opts.WithSimilar {
		q = q.Relation("Similar", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("ts.id ASC")
		}).Relation("Similar.Similar")
	}
	if opts.ID != nil {
		q = q.Where("t.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("t.name = ?", *opts.Name).Order("t.id ASC").Limit(1)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Topic")
		}
		return nil, errors.WithStack(err)
	}

	return topic, nil
}

func (svc *Service) ListTopics(ctx context.Context, opts ListTopicsOptions) ([]*models.Topic, error) {
	t, _, err := svc.listTopicsWithTotal(ctx, opts, false)
	return t, errors.WithStack(err)
}

func (svc *Service) ListTopicsWithTotal(ctx context.Context, opts ListTopicsOptions) ([]*models.Topic, int, error) {
	return svc.listTopicsWithTotal(ctx, opts, true)
}

func (svc *Service) listTopicsWithTotal(ctx context.Context, opts ListTopicsOptions, includeTotal bool) ([]*models.Topic, int, error) {
	topics := []*models.Topic{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&topics).
		Order("t.id ASC")

	if opts.Names != nil {
		if len(opts.Names) == 0 {
			return topics, 0, nil
		}
		q = q.Where("t.name IN (?)", bun.In(opts.Names))
	}
	if opts.IDs != nil {
		if len(opts.IDs) == 0 {
			return topics, 0, nil
		}
		q = q.Where("t.id IN (?)", bun.In(opts.IDs))
	}
	if opts.Search != nil && *opts.Search != "" {
		prefix := likeEscaper.Replace(*opts.Search) + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("t.name LIKE ? ESCAPE '!'", prefix).
				WhereOr("t.description LIKE ? ESCAPE '!'", prefix)
		})
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return topics, total, nil
}

// EnsureTopics returns the stored topic for each draft, matched by normalized
// name, creating the drafts that have no match. Drafts naming the same topic
// collapse into one.
func (svc *Service) EnsureTopics(ctx context.Context, drafts []*models.Topic) ([]*models.Topic, error) {
	resolved := make([]*models.Topic, 0, len(drafts))
	seen := map[string]bool{}

	for _, d := range drafts {
		name := NormalizeName(d.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		topic, err := svc.RetrieveTopic(ctx, RetrieveTopicOptions{Name: &name})
		if err == nil {
			resolved = append(resolved, topic)
			continue
		}
		if !errors.Is(err, errcodes.NotFound("Topic")) {
			return nil, errors.WithStack(err)
		}

		topic = &models.Topic{Name: name, Description: d.Description, Active: d.Active}
		if err := svc.CreateTopic(ctx, topic); err != nil {
			return nil, errors.WithStack(err)
		}
		resolved = append(resolved, topic)
	}

	return resolved, nil
}
