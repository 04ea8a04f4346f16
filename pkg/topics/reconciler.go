package topics

import (
	"context"
	"strings"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// Store is the subset of the topic service the reconciler needs.
type Store interface {
	ListTopics(ctx context.Context, opts ListTopicsOptions) ([]*models.Topic, error)
	CreateTopic(ctx context.Context, topic *models.Topic) error
}

type Reconciler struct {
	store Store
}

func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store}
}

// NormalizeName is the case-normalized form topics are stored and matched
// under.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Reconcile maps topic names from the submission and subject names from the
// library catalog onto stored topics. When every candidate matched, the
// matches are returned as-is. Otherwise each candidate name missing from the
// matches is created active, one at a time, and appended to the matches.
func (r *Reconciler) Reconcile(ctx context.Context, supplied, subjects []string) ([]*models.Topic, error) {
	candidates := normalizeNames(append(append([]string{}, supplied...), subjects...))
	if len(candidates) == 0 {
		return []*models.Topic{}, nil
	}

	matched, err := r.store.ListTopics(ctx, ListTopicsOptions{Names: candidates})
	if err != nil {
		return nil, errcodes.Persistence("Server error processing topics for this book.", err, nil)
	}
	if len(matched) == len(candidates) {
		return matched, nil
	}

	found := make(map[string]bool, len(matched))
	for _, t := range matched {
		found[t.Name] = true
	}

	log := logger.FromContext(ctx)
	created := make([]*models.Topic, 0, len(candidates)-len(matched))
	for _, name := range candidates {
		if found[name] {
			continue
		}
		// Guards against a name listed twice among the candidates.
		found[name] = true

		topic := &models.Topic{Name: name, Active: true}
		if err := r.store.CreateTopic(ctx, topic); err != nil {
			return nil, errcodes.Persistence("Error creating new topics for this book.", err, created)
		}
		log.Info("created topic", logger.Data{"topic_id": topic.ID, "name": name})
		created = append(created, topic)
	}

	return append(matched, created...), nil
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = NormalizeName(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
