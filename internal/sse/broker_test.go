package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventDocumentAdded, Data: map[string]string{"path": "a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: document.added") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// drain collects every frame delivered so far.
func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var frames []string
	for {
		select {
		case msg := <-ch:
			frames = append(frames, string(msg))
		default:
			return frames
		}
	}
}

func countFrames(frames []string) (catalog, docs int) {
	for _, f := range frames {
		if strings.Contains(f, "event: "+EventCatalogUpdated) {
			catalog++
		} else {
			docs++
		}
	}
	return catalog, docs
}

func TestPublishChange_CatalogThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(EventDocumentAdded, "a.md")
	b.PublishChange(EventDocumentModified, "b.md")

	catalog, docs := countFrames(drain(ch))
	if docs != 2 {
		t.Errorf("document events = %d, want 2", docs)
	}
	if catalog != 1 {
		t.Errorf("catalog events = %d, want 1 (throttled)", catalog)
	}
}

func TestPublishChange_UnknownKindOnlyRefreshesCatalog(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange("bogus", "a.md")

	catalog, docs := countFrames(drain(ch))
	if docs != 0 || catalog != 1 {
		t.Errorf("got %d document and %d catalog events, want 0 and 1", docs, catalog)
	}
}

func TestDiff(t *testing.T) {
	prev := map[string]string{"a.md": "1", "b.md": "2", "c.md": "3"}
	next := map[string]string{"a.md": "1", "b.md": "20", "d.md": "4"}

	want := []Change{
		{Kind: EventDocumentModified, Path: "b.md"},
		{Kind: EventDocumentRemoved, Path: "c.md"},
		{Kind: EventDocumentAdded, Path: "d.md"},
	}
	if got := Diff(prev, next); !reflect.DeepEqual(got, want) {
		t.Errorf("Diff = %v, want %v", got, want)
	}
	if got := Diff(next, next); len(got) != 0 {
		t.Errorf("Diff of identical snapshots = %v, want none", got)
	}
}

func TestPublishDiff_OneRescanOneSummary(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	n := b.PublishDiff(map[string]string{"gone.md": "1"}, map[string]string{"a.md": "1", "b.md": "2"})
	if n != 3 {
		t.Fatalf("PublishDiff = %d, want 3", n)
	}

	frames := drain(ch)
	if len(frames) != 4 {
		t.Fatalf("frames = %d, want 4: %q", len(frames), frames)
	}
	for i, path := range []string{"a.md", "b.md", "gone.md"} {
		if !strings.Contains(frames[i], `"path":"`+path+`"`) {
			t.Errorf("frame %d = %q, want path %s", i, frames[i], path)
		}
	}
	last := frames[3]
	if !strings.Contains(last, "event: catalog.updated") ||
		!strings.Contains(last, `"added":2`) || !strings.Contains(last, `"removed":1`) {
		t.Errorf("catalog summary = %q", last)
	}
}

func TestPublishDiff_NoChangesSendsNothing(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	snap := map[string]string{"a.md": "1"}
	if n := b.PublishDiff(snap, snap); n != 0 {
		t.Errorf("PublishDiff = %d, want 0", n)
	}
	if frames := drain(ch); len(frames) != 0 {
		t.Errorf("unexpected frames %q", frames)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: EventDocumentModified, Data: map[string]string{"path": "x.md"}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if body := w.Body.String(); !strings.Contains(body, "event: document.modified") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Buffer holds 64; the extra publishes must not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.Publish(Event{Type: EventDocumentModified, Data: map[string]string{"path": "x.md"}})
	b.PublishChange(EventDocumentModified, "x.md")
	b.PublishDiff(nil, map[string]string{"x.md": "1"})
	b.Close()
}
