package notify

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/keenpages/catalog/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

const EventBookAdded = "book.added"

// Notifier announces catalog events. Callers treat delivery as best-effort.
type Notifier interface {
	BookAdded(ctx context.Context, book *models.Book, userID int) error
}

type Event struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurred_at"`
	UserID     int          `json:"user_id"`
	Book       *models.Book `json:"book"`
}

// New returns a webhook notifier when url is set, and a log notifier
// otherwise.
func New(url string, client *http.Client) Notifier {
	if url == "" {
		return &LogNotifier{}
	}
	return &WebhookNotifier{url: url, client: client}
}

type WebhookNotifier struct {
	url    string
	client *http.Client
}

func (n *WebhookNotifier) BookAdded(ctx context.Context, book *models.Book, userID int) error {
	body, err := json.Marshal(Event{
		Type:       EventBookAdded,
		OccurredAt: time.Now().UTC(),
		UserID:     userID,
		Book:       book,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to deliver notification")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("notification endpoint responded with HTTP %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier only writes the event to the log.
type LogNotifier struct{}

func (*LogNotifier) BookAdded(ctx context.Context, book *models.Book, userID int) error {
	logger.FromContext(ctx).Info("book added", logger.Data{"book_id": book.ID, "title": book.Title, "user_id": userID})
	return nil
}
