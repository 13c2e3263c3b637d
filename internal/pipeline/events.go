package pipeline

import "sync"

// eventChannelBuffer sizes each listener channel. Slow listeners drop
// events rather than stall the pipeline.
const eventChannelBuffer = 16

// Broadcaster fans authentication events out to any number of listeners
// (SSE clients, the MQTT publisher, tests).
type Broadcaster struct {
	mu        sync.RWMutex
	listeners []chan AuthEvent
	closed    bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// AddListener registers a new buffered listener channel.
func (b *Broadcaster) AddListener() chan AuthEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan AuthEvent, eventChannelBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes a listener channel.
func (b *Broadcaster) RemoveListener(ch chan AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends an event to all listeners without blocking.
func (b *Broadcaster) Publish(event AuthEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full; drop rather than stall the pipeline.
		}
	}
}

// Close closes all listener channels. Publish becomes a no-op.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, listener := range b.listeners {
		close(listener)
	}
	b.listeners = nil
}
