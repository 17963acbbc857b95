// Package sse implements a Server-Sent Events broker that tells clients
// when the documentation corpus has been rescanned.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types emitted by the broker.
const (
	EventDocumentAdded    = "document.added"
	EventDocumentModified = "document.modified"
	EventDocumentRemoved  = "document.removed"
	EventCatalogUpdated   = "catalog.updated"
)

// rescanBatch carries the document changes found by one rescan.
type rescanBatch []Change

// hub is the broker loop's private state: the connected SSE streams and
// the time catalog.updated was last sent.
type hub struct {
	clients     map[chan []byte]struct{}
	lastCatalog time.Time
}

// send encodes event once as an SSE frame and offers it to every stream.
// A stream whose buffer is full misses the frame; it will still see the
// next catalog.updated and can refetch.
func (h *hub) send(event Event) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	frame := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
		}
	}
}

// applyBatch emits one document.* event per changed path, then a
// catalog.updated summary unless one went out within minGap.
func (h *hub) applyBatch(batch rescanBatch, minGap time.Duration) {
	counts := map[string]int{}
	for _, c := range batch {
		switch c.Kind {
		case EventDocumentAdded, EventDocumentModified, EventDocumentRemoved:
			h.send(Event{Type: c.Kind, Data: map[string]string{"path": c.Path}})
			counts[strings.TrimPrefix(c.Kind, "document.")]++
		}
	}

	now := time.Now()
	if now.Sub(h.lastCatalog) < minGap {
		return
	}
	h.lastCatalog = now
	h.send(Event{Type: EventCatalogUpdated, Data: counts})
}

// Broker fans catalog events out to SSE streams.
//
// One goroutine owns the hub; Subscribe, Publish and the rescan methods
// hand it work over channels, so the client set needs no lock.
type Broker struct {
	catalogMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	batchCh       chan rescanBatch
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. catalog.updated is emitted at most
// once per throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		catalogMin:    throttle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		batchCh:       make(chan rescanBatch, 64),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	h := &hub{clients: make(map[chan []byte]struct{})}

	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			h.clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			h.send(event)

		case batch := <-b.batchCh:
			h.applyBatch(batch, b.catalogMin)

		case resp := <-b.countReqCh:
			resp <- len(h.clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange publishes a single document change followed by a
// throttled catalog.updated. kind is one of the EventDocument* constants;
// any other kind only refreshes the catalog.
func (b *Broker) PublishChange(kind, path string) {
	b.publishBatch(rescanBatch{{Kind: kind, Path: path}})
}

// PublishDiff publishes the differences between two path->checksum
// snapshots as one rescan: a document event per changed path in sorted
// order, then at most one catalog.updated. It returns the number of
// changed paths. Nothing is sent when the snapshots match.
func (b *Broker) PublishDiff(prev, next map[string]string) int {
	changes := Diff(prev, next)
	if len(changes) > 0 {
		b.publishBatch(changes)
	}
	return len(changes)
}

func (b *Broker) publishBatch(batch rescanBatch) {
	if b.closed.Load() {
		return
	}
	select {
	case b.batchCh <- batch:
	case <-b.stopped:
	}
}

// Change is a single document difference between two scans.
type Change struct {
	Kind string
	Path string
}

// Diff compares two path->checksum snapshots.
func Diff(prev, next map[string]string) []Change {
	var out []Change
	for p, sum := range next {
		old, ok := prev[p]
		switch {
		case !ok:
			out = append(out, Change{Kind: EventDocumentAdded, Path: p})
		case old != sum:
			out = append(out, Change{Kind: EventDocumentModified, Path: p})
		}
	}
	for p := range prev {
		if _, ok := next[p]; !ok {
			out = append(out, Change{Kind: EventDocumentRemoved, Path: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
