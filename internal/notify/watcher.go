package notify

import (
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tanawat-p/openhouse-queue/pkg/rabbitmq"
)

// Watcher is the consumer side of the feed: a restartable subscription that
// turns broker deliveries into Change signals for one event. Delivery is
// at-least-once and unordered; consumers must treat every signal as "go
// re-fetch", never as state.
type Watcher struct {
	consumer *rabbitmq.Consumer
}

// NewWatcher subscribes to every change for one event.
func NewWatcher(url string, eventID uint) (*Watcher, error) {
	queue := fmt.Sprintf("openhouse.watch.event-%d", eventID)
	binding := fmt.Sprintf("event.%d.#", eventID)
	consumer, err := rabbitmq.NewConsumer(url, queue, binding)
	if err != nil {
		return nil, err
	}
	return &Watcher{consumer: consumer}, nil
}

// Changes starts delivering signals on the returned channel. The channel
// closes when the broker connection drops; callers re-create the Watcher to
// resume.
func (w *Watcher) Changes() (<-chan Change, error) {
	msgs, err := w.consumer.Consume()
	if err != nil {
		return nil, err
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for msg := range msgs {
			w.handleDelivery(msg, out)
		}
		log.Println("[Watcher] channel closed, stopping watcher")
	}()
	return out, nil
}

func (w *Watcher) handleDelivery(msg amqp.Delivery, out chan<- Change) {
	var ch Change
	if err := json.Unmarshal(msg.Body, &ch); err != nil {
		log.Printf("[Watcher] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}
	out <- ch
	msg.Ack(false)
}

func (w *Watcher) Close() {
	w.consumer.Close()
}
