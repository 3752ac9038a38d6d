package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type recordedEvent struct {
	event string
	data  string
}

func parseAll(t *testing.T, stream string, chunkSize int) []recordedEvent {
	t.Helper()
	var got []recordedEvent
	emit := func(event string, data []byte) {
		got = append(got, recordedEvent{event, string(data)})
	}

	var p sseParser
	raw := []byte(stream)
	for len(raw) > 0 {
		n := chunkSize
		if n > len(raw) {
			n = len(raw)
		}
		p.feed(raw[:n], emit)
		raw = raw[n:]
	}
	p.finish(emit)
	return got
}

func TestSSEParser_Framing(t *testing.T) {
	stream := "event: newMessageContent\n" +
		"data: {\"message_id\":\"m1\"}\n" +
		"\n" +
		"event: messageContentChunk\n" +
		"data: {\"delta\":\"he\"}\n" +
		"data: {\"delta\":\"llo\"}\n" +
		"\n" +
		"data: bare\n"

	got := parseAll(t, stream, len(stream))
	want := []recordedEvent{
		{"newMessageContent", `{"message_id":"m1"}`},
		{"messageContentChunk", `{"delta":"he"}`},
		{"messageContentChunk", `{"delta":"llo"}`},
		{"", "bare"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSSEParser_ChunkingEquivalence(t *testing.T) {
	stream := "event: toolCall\n" +
		"data: {\"tool_name\":\"search\"}\n" +
		"\n" +
		": keep-alive\n" +
		"event: complete\n" +
		"data: {}\n" +
		"\n" +
		"data: tail without newline"

	whole := parseAll(t, stream, len(stream))
	if len(whole) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(whole), whole)
	}

	for _, size := range []int{1, 2, 3, 7, 100} {
		chunked := parseAll(t, stream, size)
		if len(chunked) != len(whole) {
			t.Fatalf("chunk size %d: got %d events, want %d", size, len(chunked), len(whole))
		}
		for i := range whole {
			if chunked[i] != whole[i] {
				t.Errorf("chunk size %d: event %d = %+v, want %+v", size, i, chunked[i], whole[i])
			}
		}
	}
}

func TestSSEParser_CommentsAndSentinels(t *testing.T) {
	stream := ": ping\n" +
		"data: start\n" +
		"data: [DONE]\n" +
		"data: real\n"

	got := parseAll(t, stream, len(stream))
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(got), got)
	}
	if got[0].event != "" || got[0].data != "real" {
		t.Errorf("event = %+v", got[0])
	}
}

func TestSSEParser_BlankLineResetsEventName(t *testing.T) {
	stream := "event: toolResult\n" +
		"data: first\n" +
		"\n" +
		"data: second\n"

	got := parseAll(t, stream, len(stream))
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(got), got)
	}
	if got[0].event != "toolResult" {
		t.Errorf("events[0].event = %q", got[0].event)
	}
	if got[1].event != "" {
		t.Errorf("events[1].event = %q, want reset", got[1].event)
	}
}

func TestSSEParser_CRLFAndFieldSpacing(t *testing.T) {
	stream := "event: complete\r\n" +
		"data:{\"x\":1}\r\n" +
		"\r\n" +
		"data:  two spaces\n"

	got := parseAll(t, stream, len(stream))
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(got), got)
	}
	if got[0].event != "complete" || got[0].data != `{"x":1}` {
		t.Errorf("events[0] = %+v", got[0])
	}
	// Only the first space after the colon is field syntax.
	if got[1].data != " two spaces" {
		t.Errorf("events[1].data = %q, want %q", got[1].data, " two spaces")
	}
}

func TestStreamMux_Routing(t *testing.T) {
	var named, fallback []string
	m := &StreamMux{Default: func(event string, data json.RawMessage) {
		fallback = append(fallback, event)
	}}
	m.Handle("known", func(event string, data json.RawMessage) {
		named = append(named, string(data))
	})

	m.dispatch("known", []byte("a"))
	m.dispatch("mystery", []byte("b"))
	m.dispatch("known", []byte("c"))

	if len(named) != 2 || named[0] != "a" || named[1] != "c" {
		t.Errorf("named = %v", named)
	}
	if len(fallback) != 1 || fallback[0] != "mystery" {
		t.Errorf("fallback = %v", fallback)
	}
}

func sseHandler(t *testing.T, fn func(w http.ResponseWriter, fl http.Flusher, r *http.Request)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		fl, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer is not a flusher")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fn(w, fl, r)
	}
}

func TestStream_DispatchesTypedEvents(t *testing.T) {
	c := newTestClient(t, sseHandler(t, func(w http.ResponseWriter, fl http.Flusher, r *http.Request) {
		fmt.Fprint(w, "event: connected\ndata: {}\n\n")
		fl.Flush()
		fmt.Fprint(w, "event: newAssistantMessage\ndata: {\"message_id\":\"6ba7b810-9dad-11d1-80b4-00c04fd430c8\"}\n\n")
		fmt.Fprint(w, "event: messageContentChunk\ndata: {\"delta\":\"hel\"}\n\n")
		fmt.Fprint(w, "event: messageContentChunk\ndata: {\"delta\":\"lo\"}\n\n")
		fmt.Fprint(w, "event: somethingNew\ndata: {\"k\":1}\n\n")
		fmt.Fprint(w, "event: complete\ndata: {}\n\n")
	}))

	var connected, complete bool
	var text strings.Builder
	var unknown []string
	err := c.SendMessage(context.Background(), SendMessageRequest{Content: "hi"}, ChatStreamHandlers{
		Connected:    func() { connected = true },
		ContentChunk: func(e ContentChunkEvent) { text.WriteString(e.Delta) },
		Complete:     func() { complete = true },
		Unknown: func(event string, data json.RawMessage) {
			unknown = append(unknown, event)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !connected || !complete {
		t.Errorf("connected = %v, complete = %v", connected, complete)
	}
	if text.String() != "hello" {
		t.Errorf("streamed text = %q, want %q", text.String(), "hello")
	}
	// newAssistantMessage has no handler registered, so it falls through too.
	if len(unknown) != 2 || unknown[0] != "newAssistantMessage" || unknown[1] != "somethingNew" {
		t.Errorf("unknown = %v", unknown)
	}
}

func TestStream_StopEndsQuietly(t *testing.T) {
	c := newTestClient(t, sseHandler(t, func(w http.ResponseWriter, fl http.Flusher, r *http.Request) {
		fmt.Fprint(w, "event: tick\ndata: {\"n\":1}\n\n")
		fl.Flush()
		// Hold the stream open until the client hangs up.
		<-r.Context().Done()
	}))

	var stop func()
	ticks := 0
	mux := &StreamMux{OnOpen: func(s func()) { stop = s }}
	mux.Handle("tick", func(event string, data json.RawMessage) {
		ticks++
		stop()
	})

	err := c.Stream(context.Background(), EndpointChatSendMessage, Params{"content": "hi"}, mux)
	if err != nil {
		t.Fatalf("stopped stream returned error: %v", err)
	}
	if ticks != 1 {
		t.Errorf("ticks = %d, want 1", ticks)
	}
}

func TestStream_ContextCancelEndsQuietly(t *testing.T) {
	c := newTestClient(t, sseHandler(t, func(w http.ResponseWriter, fl http.Flusher, r *http.Request) {
		fmt.Fprint(w, "data: {}\n\n")
		fl.Flush()
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	mux := &StreamMux{Default: func(string, json.RawMessage) { cancel() }}

	if err := c.Stream(ctx, EndpointChatSendMessage, nil, mux); err != nil {
		t.Fatalf("cancelled stream returned error: %v", err)
	}
}

func TestStream_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"Chat disabled","error_code":"PermissionDenied"}`)
	})

	err := c.Stream(context.Background(), EndpointChatSendMessage, Params{"content": "hi"}, &StreamMux{})
	if !IsPermissionDenied(err) {
		t.Fatalf("err = %v, want 403 APIError", err)
	}
}

func TestStream_WrongContentType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok":true}`)
	})

	err := c.Stream(context.Background(), EndpointChatSendMessage, Params{"content": "hi"}, &StreamMux{})
	if err == nil || !strings.Contains(err.Error(), "expected event stream") {
		t.Errorf("err = %v, want content type mismatch", err)
	}
}

func TestStream_MissingParam(t *testing.T) {
	requests := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { requests++ })

	err := c.Stream(context.Background(), EndpointChatEditMessage, Params{"content": "x"}, &StreamMux{})
	var missing *MissingParamError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingParamError", err)
	}
	if missing.Param != "message_id" {
		t.Errorf("Param = %q", missing.Param)
	}
	if requests != 0 {
		t.Errorf("server saw %d requests, want 0", requests)
	}
}

func TestChatStreamHandlers_DropsUndecodable(t *testing.T) {
	chunks := 0
	m := ChatStreamHandlers{
		ContentChunk: func(ContentChunkEvent) { chunks++ },
	}.mux()

	m.dispatch(EventMessageContentChunk, []byte("not json"))
	m.dispatch(EventMessageContentChunk, []byte(`{"delta":"ok"}`))

	if chunks != 1 {
		t.Errorf("chunks = %d, want 1", chunks)
	}
}
