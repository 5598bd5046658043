package framework

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
)

// Handler processes one event. Returning an error aborts the whole dispatch:
// the hook fails and the persisted deferred queue is left as it was.
type Handler func(ctx context.Context, event *Event) error

type observer struct {
	name    string
	handler Handler
}

// notice is a deferred delivery of an event to one observer.
type notice struct {
	Observer string `json:"observer"`
	Event    *Event `json:"event"`
}

// Framework delivers events to observers one at a time and keeps the queue of
// deferred notices across hook invocations. It is not safe for concurrent use;
// the runtime runs a single hook at a time.
type Framework struct {
	store     StateStore
	log       logr.Logger
	observers map[string][]observer
	pending   []notice
}

// New returns a Framework persisting deferred notices through store.
func New(store StateStore, log logr.Logger) *Framework {
	return &Framework{
		store:     store,
		log:       log,
		observers: map[string][]observer{},
	}
}

// Observe registers handler for events named eventName. observerName must be
// unique per event name; it identifies the observer in deferred notices.
func (f *Framework) Observe(eventName, observerName string, handler Handler) {
	f.observers[eventName] = append(f.observers[eventName], observer{name: observerName, handler: handler})
}

// Emit delivers event synchronously to each of its observers in registration order.
func (f *Framework) Emit(ctx context.Context, event *Event) error {
	for _, o := range f.observers[event.Name] {
		if err := f.deliver(ctx, o, event.copyFor()); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch re-delivers previously deferred notices, then delivers event (which
// may be nil when the hook has no observers), and persists what was deferred.
func (f *Framework) Dispatch(ctx context.Context, event *Event) error {
	queue, err := f.load(ctx)
	if err != nil {
		return err
	}
	f.pending = nil

	for _, n := range queue {
		o, ok := f.lookup(n.Event.Name, n.Observer)
		if !ok {
			f.log.Info("Dropping deferred event with no observer", "Event", n.Event.Name, "Observer", n.Observer)
			continue
		}
		f.log.V(1).Info("Re-emitting deferred event", "Event", n.Event.Name, "Observer", n.Observer, "ID", n.Event.ID)
		if err := f.deliver(ctx, o, n.Event.copyFor()); err != nil {
			return err
		}
	}

	if event != nil {
		f.log.V(1).Info("Emitting event", "Event", event.Name, "ID", event.ID)
		if err := f.Emit(ctx, event); err != nil {
			return err
		}
	}

	if len(queue) == 0 && len(f.pending) == 0 {
		return nil
	}
	return f.save(ctx, f.pending)
}

// Pending returns the number of notices deferred during the current dispatch.
func (f *Framework) Pending() int {
	return len(f.pending)
}

func (f *Framework) deliver(ctx context.Context, o observer, event *Event) error {
	if err := o.handler(ctx, event); err != nil {
		return fmt.Errorf("%s failed handling %s: %w", o.name, event.Name, err)
	}
	if event.Deferred() {
		f.log.Info("Deferring event", "Event", event.Name, "Observer", o.name)
		f.pending = append(f.pending, notice{Observer: o.name, Event: event})
	}
	return nil
}

func (f *Framework) lookup(eventName, observerName string) (observer, bool) {
	for _, o := range f.observers[eventName] {
		if o.name == observerName {
			return o, true
		}
	}
	return observer{}, false
}

func (f *Framework) load(ctx context.Context) ([]notice, error) {
	raw, err := f.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load deferred events: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var queue []notice
	if err := json.Unmarshal(raw, &queue); err != nil {
		return nil, fmt.Errorf("failed to decode deferred events: %w", err)
	}
	return queue, nil
}

func (f *Framework) save(ctx context.Context, queue []notice) error {
	if len(queue) == 0 {
		return f.store.Save(ctx, nil)
	}
	raw, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("failed to encode deferred events: %w", err)
	}
	if err := f.store.Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to save deferred events: %w", err)
	}
	return nil
}
