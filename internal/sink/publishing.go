package sink

import (
	"context"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
	"github.com/samvad-hq/pagemeta-crawler/internal/logger"
	"github.com/samvad-hq/pagemeta-crawler/pkg/publishers"
)

// Destination is a result sink that can be reset before a run starts.
type Destination interface {
	Prepare() error
	Append(ctx context.Context, res domain.CrawlResult) error
}

// EventPublisher publishes mirrored rows downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// PublishingSink appends to an inner destination and then mirrors each
// stored row to publishers. Publishing happens outside the inner sink's lock
// and its failures are logged only.
type PublishingSink struct {
	inner Destination
	pub   EventPublisher
	runID string
	log   logger.Logger
}

// NewPublishingSink wraps inner. A nil pub makes it a plain passthrough.
func NewPublishingSink(inner Destination, pub EventPublisher, runID string, log logger.Logger) *PublishingSink {
	return &PublishingSink{
		inner: inner,
		pub:   pub,
		runID: runID,
		log:   logger.Ensure(log),
	}
}

// Prepare forwards to the inner destination.
func (p *PublishingSink) Prepare() error {
	return p.inner.Prepare()
}

// Append stores res and, once stored, publishes it.
func (p *PublishingSink) Append(ctx context.Context, res domain.CrawlResult) error {
	if err := p.inner.Append(ctx, res); err != nil {
		return err
	}
	if p.pub == nil {
		return nil
	}

	delivered, err := p.pub.Publish(ctx, publishers.NewEvent(p.runID, res))
	if err != nil {
		p.log.WarnObj("result publish failed", "publish_error", map[string]any{
			"run_id":    p.runID,
			"url":       res.URL,
			"delivered": delivered,
			"error":     err.Error(),
		})
	}
	return nil
}
