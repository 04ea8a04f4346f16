package topics

import (
	"context"
	"strings"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// Creator adds topics outside of book ingestion. A topic only becomes active
// once the lexicon recognizes it, and it is linked both ways to existing
// topics named after its synonyms.
type Creator struct {
	svc     *Service
	lexicon Lexicon
}

func NewCreator(svc *Service, lexicon Lexicon) *Creator {
	return &Creator{svc, lexicon}
}

func (c *Creator) Create(ctx context.Context, name, description string) (*models.Topic, error) {
	name = NormalizeName(name)
	if name == "" {
		return nil, errcodes.ValidationError("You must include a name for this topic.")
	}
	log := logger.FromContext(ctx)

	topic := &models.Topic{Name: name, Description: strings.TrimSpace(description)}

	var synonyms []string
	entry, err := c.lexicon.Lookup(ctx, name)
	if err != nil {
		log.Err(err).Warn("lexicon lookup failed, saving topic as inactive", logger.Data{"name": name})
	} else {
		topic.Active = entry.Recognized
		synonyms = entry.Synonyms
	}

	similarIDs, err := c.collectSimilar(ctx, synonyms)
	if err != nil {
		return nil, err
	}

	if err := c.svc.CreateTopicWithSimilar(ctx, topic, similarIDs); err != nil {
		return nil, errcodes.Persistence("Server error saving new topic. Please try again later.", err, nil)
	}

	for _, id := range similarIDs {
		if err := c.svc.AddSimilar(ctx, id, topic.ID); err != nil {
			return nil, errcodes.Persistence("Your topic has been saved, but we could not update those terms that are similar.", err, topic)
		}
	}

	saved, err := c.svc.RetrieveTopic(ctx, RetrieveTopicOptions{ID: &topic.ID, WithSimilar: true})
	if err != nil {
		log.Err(err).Warn("could not reload saved topic")
		return topic, nil
	}
	return saved, nil
}

func (c *Creator) collectSimilar(ctx context.Context, synonyms []string) ([]int, error) {
	names := normalizeNames(synonyms)
	if len(names) == 0 {
		return []int{}, nil
	}
	existing, err := c.svc.ListTopics(ctx, ListTopicsOptions{Names: names})
	if err != nil {
		return nil, errcodes.Persistence("Server error processing similar entries to this topic", err, nil)
	}
	ids := make([]int, 0, len(existing))
	for _, t := range existing {
		ids = append(ids, t.ID)
	}
	return ids, nil
}
