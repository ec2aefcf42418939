package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherDeliversInOrder(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	ctx := context.Background()
	d.Emit(ctx, Event{EventType: "first"})
	d.Emit(ctx, Event{EventType: "second"})

	for _, want := range []string{"first", "second"} {
		select {
		case got := <-sink.Events():
			if got.EventType != want {
				t.Fatalf("expected %q, got %q", want, got.EventType)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	d.Close()
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(ctx, Event{EventType: "e"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestNilDispatcherIsInert(t *testing.T) {
	var d *Dispatcher

	d.Emit(context.Background(), Event{EventType: "ignored"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	if d := NewDispatcher(Config{Enabled: false}, NoOpSink{}); d != nil {
		t.Fatal("disabled config must yield a nil dispatcher")
	}
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		EventType: "signin_failure",
		UserID:    "u1",
		Error:     "invalid_credentials",
	})

	line := bytes.TrimSpace(buf.Bytes())
	var decoded Event
	if err := json.Unmarshal(line, &decoded); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if decoded.EventType != "signin_failure" || decoded.UserID != "u1" {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
}

func TestCloseFlushesBufferedEvents(t *testing.T) {
	sink := NewChannelSink(16)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, Event{EventType: "buffered"})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
			if received == 5 {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("expected 5 events after Close, got %d", received)
		}
	}
}
