// Package notify is the change-notification feed. Services publish a small
// "something changed" signal after each successful mutation; observers react
// by re-fetching through the normal read operations, never by applying the
// payload directly.
package notify

import (
	"fmt"
	"log"

	"github.com/tanawat-p/openhouse-queue/pkg/rabbitmq"
)

const (
	TableEvents  = "events"
	TableEntries = "entries"

	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Change identifies what moved, not what it moved to. Consumers re-fetch.
type Change struct {
	Table   string `json:"table"`
	Action  string `json:"action"`
	EventID uint   `json:"event_id"`
	EntryID uint   `json:"entry_id,omitempty"`
}

type Notifier interface {
	EventChanged(action string, eventID uint)
	EntryChanged(action string, eventID, entryID uint)
}

// RabbitNotifier fans changes out on the openhouse topic exchange with
// routing keys of the form event.<id>.<table>.<action>, so one event's
// observers can bind a single pattern.
type RabbitNotifier struct {
	publisher *rabbitmq.Publisher
}

func NewRabbitNotifier(publisher *rabbitmq.Publisher) *RabbitNotifier {
	return &RabbitNotifier{publisher: publisher}
}

func (n *RabbitNotifier) EventChanged(action string, eventID uint) {
	n.publish(Change{Table: TableEvents, Action: action, EventID: eventID})
}

func (n *RabbitNotifier) EntryChanged(action string, eventID, entryID uint) {
	n.publish(Change{Table: TableEntries, Action: action, EventID: eventID, EntryID: entryID})
}

// publish is best effort: a lost signal costs observers one refresh, never
// the mutation itself.
func (n *RabbitNotifier) publish(ch Change) {
	key := fmt.Sprintf("event.%d.%s.%s", ch.EventID, ch.Table, ch.Action)
	if err := n.publisher.Publish(key, ch); err != nil {
		log.Printf("[Notifier] publish %s failed: %v", key, err)
	}
}

// NopNotifier drops all signals. Used in tests and when the broker is absent.
type NopNotifier struct{}

func (NopNotifier) EventChanged(action string, eventID uint)          {}
func (NopNotifier) EntryChanged(action string, eventID, entryID uint) {}
