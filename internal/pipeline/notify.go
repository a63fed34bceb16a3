package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/XavierBriggs/fortuna/services/stats-explorer/pkg/models"
)

// Notifier receives pipeline lifecycle events
type Notifier interface {
	Notify(ctx context.Context, event models.PipelineEvent) error
}

// Notifiers fans an event out to every registered notifier.
// Delivery failures are logged and never fail the caller.
type Notifiers struct {
	targets []Notifier
}

// NewNotifiers creates a fan-out over the given targets
func NewNotifiers(targets ...Notifier) *Notifiers {
	return &Notifiers{targets: targets}
}

// Add registers another target
func (n *Notifiers) Add(target Notifier) {
	n.targets = append(n.targets, target)
}

// Notify stamps and delivers an event
func (n *Notifiers) Notify(ctx context.Context, event models.PipelineEvent) {
	if n == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, t := range n.targets {
		if err := t.Notify(ctx, event); err != nil {
			log.Printf("[events] Error delivering %s for season %d: %v", event.Type, event.Season, err)
		}
	}
}
