package broker

import (
	"sync"
)

type subscription[TID comparable, TPayload any] struct {
	ID      TID
	Channel chan TPayload
}

type publication[TID comparable, TPayload any] struct {
	ID      TID
	Payload TPayload
}

// Hub fans payloads published under an ID out to every subscriber of that ID.
//
// Publishing never blocks on subscribers. Each subscriber has a buffered channel and a subscriber that falls
// behind by more than the buffer is disconnected by closing its channel. This suits server-sent event streams
// where the consumer is expected to reconnect and resynchronise its complete state, which is preferable to
// silently missing updates.
type Hub[TID comparable, TPayload any] struct {
	buffer             int
	stopChannel        chan struct{}
	publishChannel     chan publication[TID, TPayload]
	subscribeChannel   chan subscription[TID, TPayload]
	unsubscribeChannel chan subscription[TID, TPayload]
	countChannel       chan chan int
	stopOnce           sync.Once
}

// NewHub creates a new Hub whose subscribers can lag behind by buffer payloads.
// Start must be called to run the goroutine that handles it. Use Stop() to stop the goroutine.
func NewHub[TID comparable, TPayload any](buffer int) *Hub[TID, TPayload] {
	return &Hub[TID, TPayload]{
		buffer:             buffer,
		stopChannel:        make(chan struct{}),
		publishChannel:     make(chan publication[TID, TPayload]),
		subscribeChannel:   make(chan subscription[TID, TPayload]),
		unsubscribeChannel: make(chan subscription[TID, TPayload]),
		countChannel:       make(chan chan int),
	}
}

// Start listening for publish, subscribe, and unsubscribe events. This function blocks until Stop() is called,
// so it should be called in a goroutine. All subscriber channels are closed when it returns.
func (h *Hub[TID, TPayload]) Start() {
	subscribers := map[TID]map[chan TPayload]struct{}{}
	remove := func(id TID, channel chan TPayload) {
		channels := subscribers[id]
		if _, ok := channels[channel]; !ok {
			return
		}
		delete(channels, channel)
		close(channel)
		if len(channels) == 0 {
			delete(subscribers, id)
		}
	}
	defer func() {
		for id, channels := range subscribers {
			for channel := range channels {
				remove(id, channel)
			}
		}
	}()

	for {
		select {
		case <-h.stopChannel:
			return

		case s := <-h.subscribeChannel:
			if subscribers[s.ID] == nil {
				subscribers[s.ID] = map[chan TPayload]struct{}{}
			}
			subscribers[s.ID][s.Channel] = struct{}{}

		case s := <-h.unsubscribeChannel:
			remove(s.ID, s.Channel)

		case p := <-h.publishChannel:
			for channel := range subscribers[p.ID] {
				select {
				case channel <- p.Payload:
				default:
					// Slow subscriber
					remove(p.ID, channel)
				}
			}

		case reply := <-h.countChannel:
			n := 0
			for _, channels := range subscribers {
				n += len(channels)
			}
			reply <- n
		}
	}
}

// Stop the goroutine that handles the hub. Stop is safe to call more than once.
func (h *Hub[TID, TPayload]) Stop() {
	h.stopOnce.Do(func() { close(h.stopChannel) })
}

// Subscribe to the payloads published with ID. The returned channel is closed when unsubscribe is called, when
// the subscriber falls behind, or when the hub stops. Unsubscribe is safe to call more than once.
func (h *Hub[TID, TPayload]) Subscribe(id TID) (<-chan TPayload, func()) {
	s := subscription[TID, TPayload]{ID: id, Channel: make(chan TPayload, h.buffer)}
	select {
	case h.subscribeChannel <- s:
	case <-h.stopChannel:
		close(s.Channel)
		return s.Channel, func() {}
	}
	unsubscribe := func() {
		select {
		case h.unsubscribeChannel <- s:
		case <-h.stopChannel:
		}
	}
	return s.Channel, unsubscribe
}

// Publish payload to the current subscribers of ID. Payloads published without subscribers are dropped.
func (h *Hub[TID, TPayload]) Publish(id TID, payload TPayload) {
	select {
	case h.publishChannel <- publication[TID, TPayload]{ID: id, Payload: payload}:
	case <-h.stopChannel:
	}
}

// Subscribers returns the total number of subscribers across all IDs.
func (h *Hub[TID, TPayload]) Subscribers() int {
	reply := make(chan int, 1)
	select {
	case h.countChannel <- reply:
		return <-reply
	case <-h.stopChannel:
		return 0
	}
}
