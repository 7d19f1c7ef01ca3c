package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kilianp07/kgc/core/events"
	"github.com/kilianp07/kgc/core/logger"
	"github.com/kilianp07/kgc/internal/eventbus"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// UpdatedMessage is published, retained, after each successful load.
type UpdatedMessage struct {
	SnapshotID string    `json:"snapshot_id"`
	LoadedAt   time.Time `json:"loaded_at"`
	Records    int       `json:"records"`
	Runs       int       `json:"runs"`
	Leagues    []string  `json:"leagues"`
}

// ErrorMessage is published after each failed load.
type ErrorMessage struct {
	Error string    `json:"error"`
	Time  time.Time `json:"time"`
}

// Notifier maps load events to MQTT messages.
type Notifier struct {
	pub    Publisher
	prefix string
	log    logger.Logger
}

// NewNotifier publishes under prefix, e.g. "kgc/schedule/updated".
func NewNotifier(pub Publisher, prefix string, log logger.Logger) *Notifier {
	if prefix == "" {
		prefix = "kgc"
	}
	return &Notifier{pub: pub, prefix: prefix, log: logger.OrNop(log)}
}

// UpdatedTopic returns the retained topic of successful loads.
func (n *Notifier) UpdatedTopic() string { return n.prefix + "/schedule/updated" }

// ErrorTopic returns the topic of failed loads.
func (n *Notifier) ErrorTopic() string { return n.prefix + "/schedule/error" }

// Notify publishes the message matching ev. Other events are ignored.
func (n *Notifier) Notify(ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.ScheduleLoaded:
		leagues := make([]string, 0, len(e.Stats.Leagues))
		for _, l := range e.Stats.Leagues {
			leagues = append(leagues, l.League)
		}
		b, err := json.Marshal(UpdatedMessage{
			SnapshotID: e.Snapshot.ID,
			LoadedAt:   e.Snapshot.LoadedAt,
			Records:    len(e.Snapshot.Records),
			Runs:       e.Stats.Runs,
			Leagues:    leagues,
		})
		if err != nil {
			return err
		}
		return n.pub.Publish(n.UpdatedTopic(), b, true)
	case events.LoadFailed:
		msg := ErrorMessage{Time: e.Time}
		if e.Err != nil {
			msg.Error = e.Err.Error()
		}
		b, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return n.pub.Publish(n.ErrorTopic(), b, false)
	}
	return nil
}

// Start forwards bus events until ctx is canceled or the bus is closed.
// The returned channel closes when the goroutine exits.
func (n *Notifier) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := n.Notify(ev); err != nil {
					n.log.Errorf("mqtt notify: %v", err)
				}
			}
		}
	}()
	return done
}
