// Package outbound correlates server-initiated requests with the responses
// the peer eventually sends back.
package outbound

import (
	"errors"
	"strconv"
	"sync"

	"github.com/ggoodman/mcp-engine-go/internal/jsonrpc"
)

// DefaultCapacity bounds the number of requests awaiting a response.
const DefaultCapacity = 100

// IDPrefix starts every server-allocated id.
const IDPrefix = "s"

// ErrUnknownRequest is returned when a response names an id that is not
// pending.
var ErrUnknownRequest = errors.New("unknown outbound request")

// Tracker hands out request ids and remembers the purpose of each request
// until its response arrives. When full, the oldest entry is evicted.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	next     uint64
	order    []string
	pending  map[string]string // id -> purpose
}

// NewTracker returns a tracker holding at most capacity requests. A
// non-positive capacity selects DefaultCapacity.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{capacity: capacity, pending: make(map[string]string, capacity)}
}

// Track allocates the next id and records purpose against it. The second
// return value is the purpose of an entry evicted to make room, if any.
func (t *Tracker) Track(purpose string) (id *jsonrpc.RequestID, evicted string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.pending) >= t.capacity && len(t.order) > 0 {
		oldest := t.order[0]
		t.order = t.order[1:]
		if p, ok := t.pending[oldest]; ok {
			delete(t.pending, oldest)
			evicted = oldest + ":" + p
		}
	}

	t.next++
	key := IDPrefix + strconv.FormatUint(t.next, 10)
	t.pending[key] = purpose
	t.order = append(t.order, key)
	return jsonrpc.NewRequestID(key), evicted
}

// NewRequest tracks a request for method, using the method name as its
// purpose, and builds the request to send. evicted is as for Track.
func (t *Tracker) NewRequest(method string, params any) (req *jsonrpc.Request, evicted string, err error) {
	id, evicted := t.Track(method)
	req, err = jsonrpc.NewRequest(id, method, params)
	if err != nil {
		_, _ = t.Resolve(id)
		return nil, evicted, err
	}
	return req, evicted, nil
}

// Resolve removes id and returns the purpose it was tracked with.
func (t *Tracker) Resolve(id *jsonrpc.RequestID) (string, error) {
	if id.IsNil() {
		return "", ErrUnknownRequest
	}
	key := id.String()

	t.mu.Lock()
	defer t.mu.Unlock()
	purpose, ok := t.pending[key]
	if !ok {
		return "", ErrUnknownRequest
	}
	delete(t.pending, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return purpose, nil
}

// Pending reports whether id is awaiting a response.
func (t *Tracker) Pending(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[id]
	return ok
}

// Len reports the number of pending requests.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
