package authors

import (
	"context"
	"strings"

	"github.com/keenpages/catalog/pkg/errcodes"
	"github.com/keenpages/catalog/pkg/models"
	"github.com/robinjoseph08/golib/logger"
)

// Policy decides what happens to supplied names that have no match when some
// other candidate did match.
type Policy int

const (
	// PolicyAnyMatchBlocksCreation reuses the matched authors and creates
	// nothing as soon as any candidate matches, even if some supplied names
	// stay unresolved.
	PolicyAnyMatchBlocksCreation Policy = iota
	// PolicyCreateUnmatched reuses the matched authors and creates one author
	// for every supplied name without a match.
	PolicyCreateUnmatched
)

// DefaultPolicy is the policy the ingestion pipeline runs with.
const DefaultPolicy = PolicyAnyMatchBlocksCreation

// Store is the subset of the author service the reconciler needs.
type Store interface {
	ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error)
	CreateAuthor(ctx context.Context, author *models.Author) error
}

type Reconciler struct {
	store  Store
	policy Policy
}

func NewReconciler(store Store, policy Policy) *Reconciler {
	return &Reconciler{store, policy}
}

// Reconcile maps author names onto stored authors. supplied are the names in
// the submission; enriched are names surfaced by the library catalog, used
// only for matching. New authors are only ever created from supplied names,
// one at a time. If a creation fails, the error carries the authors already
// created.
func (r *Reconciler) Reconcile(ctx context.Context, supplied, enriched []string) ([]*models.Author, error) {
	supplied = normalizeNames(supplied)
	if len(supplied) == 0 {
		return []*models.Author{}, nil
	}
	candidates := append(append([]string{}, supplied...), normalizeNames(enriched)...)

	matched, err := r.store.ListAuthors(ctx, ListAuthorsOptions{Names: candidates})
	if err != nil {
		return nil, errcodes.Persistence("Server error processing authors for this book", err, nil)
	}

	var toCreate []string
	switch {
	case len(matched) == 0:
		toCreate = distinct(supplied)
	case r.policy == PolicyCreateUnmatched:
		found := map[string]bool{}
		for _, a := range matched {
			found[a.Name] = true
		}
		for _, name := range distinct(supplied) {
			if !found[name] {
				toCreate = append(toCreate, name)
			}
		}
	default:
		return matched, nil
	}

	created, err := r.create(ctx, toCreate)
	if err != nil {
		return nil, err
	}
	return append(matched, created...), nil
}

func (r *Reconciler) create(ctx context.Context, names []string) ([]*models.Author, error) {
	log := logger.FromContext(ctx)
	created := make([]*models.Author, 0, len(names))
	for _, name := range names {
		author := &models.Author{Name: name}
		if err := r.store.CreateAuthor(ctx, author); err != nil {
			return nil, errcodes.Persistence("Error creating new author for this book", err, created)
		}
		log.Info("created author", logger.Data{"author_id": author.ID, "name": name})
		created = append(created, author)
	}
	return created, nil
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func distinct(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
