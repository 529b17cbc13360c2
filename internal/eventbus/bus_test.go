package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/neurahub/dispatch/internal/adapter/localbus"
	"github.com/neurahub/dispatch/internal/domain/event"
	"github.com/neurahub/dispatch/internal/port/eventbus"
)

// failingTransport rejects every publish.
type failingTransport struct {
	subscribed []string
}

func (f *failingTransport) Publish(_ context.Context, _ string, _ []byte) error {
	return errors.New("transport unavailable")
}

func (f *failingTransport) Subscribe(eventType string, _ eventbus.Handler) error {
	f.subscribed = append(f.subscribed, eventType)
	return nil
}

func (f *failingTransport) Close() error { return nil }

func TestEmitAlwaysAcknowledges(t *testing.T) {
	b := New(&failingTransport{}, nil)

	ok := b.Emit(context.Background(), event.ChatMessageReceived{
		DepartmentKey: "ceo",
		Message:       "hello",
	})
	if !ok {
		t.Fatal("Emit must acknowledge even when the transport fails")
	}
}

func TestEmitAcknowledgesWithFailingHandler(t *testing.T) {
	b := New(localbus.New(), nil)

	err := b.On(event.TypeChatMessageReceived, func(_ context.Context, _ string, _ []byte) {
		panic("subscriber exploded")
	})
	if err != nil {
		t.Fatal(err)
	}

	ok := b.Emit(context.Background(), event.ChatMessageReceived{DepartmentKey: "ceo", Message: "hi"})
	if !ok {
		t.Fatal("Emit must acknowledge even when a handler panics")
	}
}

func TestRoundTrip(t *testing.T) {
	b := New(localbus.New(), nil)

	var got []event.ChatMessageReceived
	err := b.On(event.TypeChatMessageReceived, func(_ context.Context, _ string, data []byte) {
		var p event.ChatMessageReceived
		if err := json.Unmarshal(data, &p); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		got = append(got, p)
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []event.ChatMessageReceived{
		{DepartmentKey: "ceo", Message: "first", CorrelationID: "c-1"},
		{DepartmentKey: "cto", Message: "second", UserID: "u-7"},
		{DepartmentKey: "cmo", Message: "third"},
	}
	for _, p := range want {
		if !b.Emit(context.Background(), p) {
			t.Fatal("Emit returned false")
		}
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestOnSubscribesByEventType(t *testing.T) {
	tr := &failingTransport{}
	b := New(tr, nil)

	if err := b.On(event.TypeLeadQualified, func(_ context.Context, _ string, _ []byte) {}); err != nil {
		t.Fatal(err)
	}

	if len(tr.subscribed) != 1 || tr.subscribed[0] != string(event.TypeLeadQualified) {
		t.Errorf("expected subscription for %s, got %v", event.TypeLeadQualified, tr.subscribed)
	}
}

func TestPreviewTruncatesLongPayloads(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	p := preview(long)
	if len(p) != logPreviewBytes+3 {
		t.Errorf("expected %d bytes, got %d", logPreviewBytes+3, len(p))
	}

	short := []byte(`{"ok":true}`)
	if preview(short) != string(short) {
		t.Errorf("short payloads must not be truncated")
	}
}
