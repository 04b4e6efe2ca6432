// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package events carries status notifications from the export worker to the
// interactive shell. Events flow one way: the worker publishes, the shell
// subscribes and owns all rendering.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pdiddy/docbundle/pkg/types"
)

// EventType identifies the kind of an event.
type EventType string

const (
	EventStatus   EventType = "status"
	EventControls EventType = "controls"
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
)

const defaultBufferSize = 64

// Event is implemented by every event published on a Bus.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides the common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// StatusEvent reports a phase transition together with the number of
// documents involved.
type StatusEvent struct {
	BaseEvent
	Count int
	Phase types.Phase
}

// Text returns the status line shown to the user.
func (e *StatusEvent) Text() string { return e.Phase.Text() }

// ControlsEvent tells the shell whether its import, rename, reset and
// export controls may be used.
type ControlsEvent struct {
	BaseEvent
	Enabled bool
}

// ProgressEvent reports one converted document.
type ProgressEvent struct {
	BaseEvent
	Done  int
	Total int
	Entry types.Entry
}

// ResultEvent closes an export run. Err is nil on success.
type ResultEvent struct {
	BaseEvent
	ArchivePath string
	Err         error
}

// Bus fans events out to subscribers. Publishing never blocks: events are
// dropped for subscribers whose buffer is full.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewBus creates a bus whose subscriptions buffer bufferSize events.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{bufferSize: bufferSize}
}

// Subscribe returns a channel receiving every event published from now on.
// The channel is closed by Close.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
}

// PublishStatus publishes a StatusEvent.
func (b *Bus) PublishStatus(count int, phase types.Phase) {
	b.Publish(&StatusEvent{
		BaseEvent: BaseEvent{EventType: EventStatus, Time: time.Now()},
		Count:     count,
		Phase:     phase,
	})
}

// PublishControls publishes a ControlsEvent.
func (b *Bus) PublishControls(enabled bool) {
	b.Publish(&ControlsEvent{
		BaseEvent: BaseEvent{EventType: EventControls, Time: time.Now()},
		Enabled:   enabled,
	})
}

// PublishProgress publishes a ProgressEvent.
func (b *Bus) PublishProgress(done, total int, e types.Entry) {
	b.Publish(&ProgressEvent{
		BaseEvent: BaseEvent{EventType: EventProgress, Time: time.Now()},
		Done:      done,
		Total:     total,
		Entry:     e,
	})
}

// PublishResult publishes a ResultEvent.
func (b *Bus) PublishResult(archivePath string, err error) {
	b.Publish(&ResultEvent{
		BaseEvent:   BaseEvent{EventType: EventResult, Time: time.Now()},
		ArchivePath: archivePath,
		Err:         err,
	})
}
