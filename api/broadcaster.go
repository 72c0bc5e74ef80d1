package api

import "sync"

// EventType categorizes a BroadcastEvent.
type EventType string

const (
	EventTypeState     EventType = "state"
	EventTypeOutput    EventType = "output"
	EventTypeExecution EventType = "event"
)

// StateUpdate is a PC/counter snapshot taken after a step or run batch.
// Only the latest one matters to a client: an older StateUpdate carries
// no information a newer one doesn't already supersede.
type StateUpdate struct {
	PC      uint32 `json:"pc"`
	Cycle   uint64 `json:"cycle"`
	Instret uint64 `json:"instret"`
}

// ConsoleOutput is a run of bytes the guest wrote to the MMIO console
// device. Unlike a StateUpdate, every byte matters and none may be
// dropped in favor of a later one, or the client's terminal stream
// corrupts.
type ConsoleOutput struct {
	Bytes []byte `json:"bytes"`
}

// ExecutionEvent reports a Step/Run outcome that isn't a plain retire:
// a trap or a halt.
type ExecutionEvent struct {
	Kind    string `json:"kind"` // vm.StepKind.String()
	Cause   string `json:"cause,omitempty"`
	Address uint32 `json:"address"`
}

// BroadcastEvent is pushed to every subscribed WebSocket client. Exactly
// one of State, Output, or Execution is set, matching Type.
type BroadcastEvent struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"sessionId"`
	State     *StateUpdate    `json:"state,omitempty"`
	Output    *ConsoleOutput  `json:"output,omitempty"`
	Execution *ExecutionEvent `json:"execution,omitempty"`
}

// Subscription is one client's filter over the event stream.
type Subscription struct {
	SessionID  string
	EventTypes map[EventType]bool
	Channel    chan BroadcastEvent
}

// Broadcaster fans out BroadcastEvents to every matching Subscription
// without letting a slow client block the emitter: hosts observe state,
// they never block the interpreter. State events are a live snapshot, so
// a pending undelivered one is replaced rather than queued behind a new
// one; console output is a byte stream, so it is never coalesced or
// displaced once it reaches a subscriber's queue.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan BroadcastEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan BroadcastEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.dispatch(event)

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

func (b *Broadcaster) dispatch(event BroadcastEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscriptions {
		if sub.SessionID != "" && sub.SessionID != event.SessionID {
			continue
		}
		if len(sub.EventTypes) > 0 && !sub.EventTypes[event.Type] {
			continue
		}
		if event.Type == EventTypeState {
			deliverLatest(sub.Channel, event)
		} else {
			deliverQueued(sub.Channel, event)
		}
	}
}

// deliverLatest sends event, dropping one stale queued entry to make
// room if the channel is full rather than dropping event itself. A
// register snapshot is only ever interesting as "the current one".
func deliverLatest(ch chan BroadcastEvent, event BroadcastEvent) {
	select {
	case ch <- event:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- event:
	default:
	}
}

// deliverQueued sends event without displacing anything already queued.
// If the subscriber's channel is saturated the event is dropped, same
// as a TCP receive buffer drop would be, rather than corrupting order
// by discarding a different, older event to make room.
func deliverQueued(ch chan BroadcastEvent, event BroadcastEvent) {
	select {
	case ch <- event:
	default:
	}
}

func (b *Broadcaster) Subscribe(sub *Subscription)   { b.register <- sub }
func (b *Broadcaster) Unsubscribe(sub *Subscription) { b.unregister <- sub }

func (b *Broadcaster) Publish(event BroadcastEvent) {
	select {
	case b.broadcast <- event:
	default:
	}
}

func (b *Broadcaster) Close() { close(b.done) }
