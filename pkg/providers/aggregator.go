package providers

import (
	"context"

	"github.com/keenpages/catalog/pkg/identifiers"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	// StatusNoop means no ISBN was available so no provider was asked.
	StatusNoop Status = "noop"
	// StatusOK means every provider answered.
	StatusOK Status = "ok"
	// StatusDegraded means at least one provider failed and its slot is
	// empty.
	StatusDegraded Status = "degraded"
)

// Slot is one provider's contribution. Payload is nil when the provider
// failed, in which case Err says why.
type Slot struct {
	Provider string
	Payload  json.RawMessage
	Err      error
}

// Aggregate is the merged, in-memory result of a provider fan-out. It is never
// persisted as-is; only the slots that carry a payload are.
type Aggregate struct {
	ISBN   string
	Status Status
	Slots  []Slot
}

// Payload returns the named provider's payload, or nil when the provider
// failed or was never asked.
func (a *Aggregate) Payload(provider string) json.RawMessage {
	if a == nil {
		return nil
	}
	for _, s := range a.Slots {
		if s.Provider == provider {
			return s.Payload
		}
	}
	return nil
}

// Present returns the slots that carry a payload, in provider order.
func (a *Aggregate) Present() []Slot {
	if a == nil {
		return nil
	}
	present := make([]Slot, 0, len(a.Slots))
	for _, s := range a.Slots {
		if s.Payload != nil {
			present = append(present, s)
		}
	}
	return present
}

// CatalogRecord decodes the openLibrary slot. An absent or unreadable slot
// yields an empty record.
func (a *Aggregate) CatalogRecord(ctx context.Context) *CatalogRecord {
	record, err := ParseCatalogRecord(a.Payload(NameOpenLibrary))
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("unreadable openLibrary payload")
		return &CatalogRecord{}
	}
	return record
}

type Aggregator struct {
	providers []Provider
}

func NewAggregator(providers ...Provider) *Aggregator {
	return &Aggregator{providers}
}

// Fetch asks every provider concurrently for the ISBN (10-digit preferred) and
// waits for all of them. It never fails: a provider error empties that slot
// and marks the aggregate degraded.
func (a *Aggregator) Fetch(ctx context.Context, isbn10, isbn13 string) *Aggregate {
	isbn := identifiers.LookupISBN(isbn10, isbn13)
	if isbn == "" {
		return &Aggregate{Status: StatusNoop}
	}

	log := logger.FromContext(ctx)
	slots := make([]Slot, len(a.providers))

	var g errgroup.Group
	for i, p := range a.providers {
		g.Go(func() error {
			payload, err := p.Fetch(ctx, isbn)
			slots[i] = Slot{Provider: p.Name(), Payload: payload, Err: err}
			if err != nil {
				slots[i].Payload = nil
				log.Err(err).Warn("provider fetch failed", logger.Data{"provider": p.Name(), "isbn": isbn})
			}
			return nil
		})
	}
	_ = g.Wait()

	status := StatusOK
	for _, s := range slots {
		if s.Err != nil {
			status = StatusDegraded
			break
		}
	}

	return &Aggregate{ISBN: isbn, Status: status, Slots: slots}
}
