package publishers

import (
	"time"

	"github.com/samvad-hq/pagemeta-crawler/internal/domain"
)

// Event represents the payload published downstream for one stored row.
type Event struct {
	RunID       string             `json:"run_id"`
	Result      domain.CrawlResult `json:"result"`
	CollectedAt time.Time          `json:"collected_at"`
}

// NewEvent constructs an Event for the given run and result.
func NewEvent(runID string, res domain.CrawlResult) Event {
	return Event{
		RunID:       runID,
		Result:      res,
		CollectedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached to queue/topic messages.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"run_id": e.RunID,
		"url":    e.Result.URL,
	}
}
