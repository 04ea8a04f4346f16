package images

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Image is a stored cover ready to be attached to a book.
type Image struct {
	Link     string
	PublicID string
}

type Processor struct {
	uploader Uploader
}

func NewProcessor(uploader Uploader) *Processor {
	return &Processor{uploader}
}

// Process uploads the first candidate link, if any. Failures are logged and
// reported as no image since a book without a cover is still a book.
func (p *Processor) Process(ctx context.Context, links []string) *Image {
	link := firstLink(links)
	if link == "" {
		return nil
	}

	img, err := p.Upload(ctx, link)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("image upload failed, continuing without a picture", logger.Data{"link": link})
		return nil
	}
	return img
}

// Upload copies a single link into storage. Both a failed call and an upload
// refused by the store are returned as errors.
func (p *Processor) Upload(ctx context.Context, link string) (*Image, error) {
	result, err := p.uploader.Upload(ctx, link)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if result.Failed() {
		msg := "upload returned no result"
		if result != nil {
			msg = result.Error.Message
		}
		return nil, errors.Errorf("image store refused upload: %s", msg)
	}
	return &Image{Link: result.SecureURL, PublicID: result.PublicID}, nil
}

func firstLink(links []string) string {
	if len(links) == 0 {
		return ""
	}
	return links[0]
}
