// Package events fans engine audit records out to in-process subscribers.
package events

import (
	"log/slog"
	"sync"
)

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// records are dropped for it.
const subscriberBuffer = 64

var (
	defaultRouter *Router
	routerOnce    sync.Once
)

// GetDefaultRouter returns the process-wide router.
func GetDefaultRouter() *Router {
	routerOnce.Do(func() {
		defaultRouter = NewRouter()
	})
	return defaultRouter
}

// Router delivers every published record to every subscriber. Publishing
// never blocks; a subscriber with a full buffer misses the record.
type Router struct {
	subscribers sync.Map
	mutexes     sync.Map
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		subscribers: sync.Map{},
		mutexes:     sync.Map{},
	}
}

// Subscribe registers a subscriber under an id and returns its record channel.
// Subscribing again under the same id replaces the previous channel.
func (r *Router) Subscribe(id string) <-chan Record {
	mutex, _ := r.mutexes.LoadOrStore(id, &sync.Mutex{})
	mutex.(*sync.Mutex).Lock()
	defer mutex.(*sync.Mutex).Unlock()

	ch := make(chan Record, subscriberBuffer)
	if prev, ok := r.subscribers.Load(id); ok {
		close(prev.(chan Record))
	}
	r.subscribers.Store(id, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (r *Router) Unsubscribe(id string) {
	mutex, ok := r.mutexes.Load(id)
	if !ok {
		return
	}
	mutex.(*sync.Mutex).Lock()
	defer mutex.(*sync.Mutex).Unlock()

	if ch, ok := r.subscribers.Load(id); ok {
		r.subscribers.Delete(id)
		close(ch.(chan Record))
	}
	r.mutexes.Delete(id)
}

// Publish delivers a record to all current subscribers.
func (r *Router) Publish(record Record) {
	r.subscribers.Range(func(id, value any) bool {
		mutex, ok := r.mutexes.Load(id)
		if !ok {
			return true
		}
		mutex.(*sync.Mutex).Lock()
		defer mutex.(*sync.Mutex).Unlock()

		current, ok := r.subscribers.Load(id)
		if !ok || current != value {
			return true
		}

		select {
		case current.(chan Record) <- record:
		default:
			slog.Warn("Dropping record for slow subscriber",
				"subscriber", id,
				"record_type", record.RecordType(),
			)
		}
		return true
	})
}
