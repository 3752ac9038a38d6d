package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// EventHandler receives one parsed stream event. Data is the raw payload of
// a single data line, JSON for every event the chat server emits.
type EventHandler func(event string, data json.RawMessage)

// StreamMux routes stream events to named handlers. The zero value is usable.
type StreamMux struct {
	// OnOpen, when set, receives a stop function after the stream is
	// established and before the first event is dispatched. Calling stop
	// ends the stream at the next chunk boundary.
	OnOpen func(stop func())

	// Default receives events with no matching named handler.
	Default EventHandler

	handlers map[string]EventHandler
}

// Handle registers h for the named event, replacing any previous handler.
func (m *StreamMux) Handle(event string, h EventHandler) {
	if m.handlers == nil {
		m.handlers = make(map[string]EventHandler)
	}
	m.handlers[event] = h
}

func (m *StreamMux) dispatch(event string, data []byte) {
	if h, ok := m.handlers[event]; ok {
		h(event, json.RawMessage(data))
		return
	}
	if m.Default != nil {
		m.Default(event, json.RawMessage(data))
	}
}

// Stream dispatches one request and reads the response as Server-Sent
// Events, routing each data payload through mux. It blocks until the server
// closes the stream, the stop function handed to mux.OnOpen is called, or
// ctx is cancelled. Stopping either way ends the stream quietly; only
// transport and server failures return an error.
func (c *Client) Stream(ctx context.Context, endpoint Endpoint, params Params, mux *StreamMux) error {
	streamCtx, stop := context.WithCancel(ctx)
	defer stop()

	req, err := c.newRequest(streamCtx, endpoint, params)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if streamCtx.Err() != nil {
			slog.Debug("stream aborted", "endpoint", string(endpoint))
			return nil
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return parseError(resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		return fmt.Errorf("expected event stream, got %q", ct)
	}

	if mux.OnOpen != nil {
		mux.OnOpen(stop)
	}

	var parser sseParser
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			parser.feed(buf[:n], mux.dispatch)
		}
		if err == io.EOF {
			parser.finish(mux.dispatch)
			return nil
		}
		if err != nil {
			// A stop() or ctx cancellation surfaces as a read error on the
			// body; that is expected shutdown, not a failure.
			if streamCtx.Err() != nil {
				slog.Debug("stream aborted", "endpoint", string(endpoint))
				return nil
			}
			return fmt.Errorf("reading stream: %w", err)
		}
	}
}

// sseParser incrementally decodes text/event-stream framing. "event:" lines
// set the current event name, each "data:" line dispatches one event under
// that name, and a blank line resets the name. Partial lines are buffered
// across chunks, so feeding the same bytes in any chunking produces the same
// event sequence.
type sseParser struct {
	buf   []byte
	event string
}

func (p *sseParser) feed(chunk []byte, emit func(event string, data []byte)) {
	p.buf = append(p.buf, chunk...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return
		}
		line := p.buf[:i]
		p.buf = p.buf[i+1:]
		p.line(line, emit)
	}
}

// finish flushes a trailing line that arrived without a newline.
func (p *sseParser) finish(emit func(event string, data []byte)) {
	if len(p.buf) == 0 {
		return
	}
	line := p.buf
	p.buf = nil
	p.line(line, emit)
}

func (p *sseParser) line(line []byte, emit func(event string, data []byte)) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	switch {
	case len(line) == 0:
		p.event = ""
	case line[0] == ':':
		// comment line, skipped
	case bytes.HasPrefix(line, []byte("event:")):
		p.event = string(trimFieldValue(line[len("event:"):]))
	case bytes.HasPrefix(line, []byte("data:")):
		data := trimFieldValue(line[len("data:"):])
		if isStreamSentinel(data) {
			return
		}
		emit(p.event, bytes.Clone(data))
	}
}

// trimFieldValue drops the single optional space after the field colon.
func trimFieldValue(v []byte) []byte {
	if len(v) > 0 && v[0] == ' ' {
		return v[1:]
	}
	return v
}

// isStreamSentinel matches the open/close markers some endpoints emit as
// data payloads. They frame the stream and are never dispatched.
func isStreamSentinel(data []byte) bool {
	return bytes.Equal(data, []byte("[DONE]")) || bytes.Equal(data, []byte("start"))
}
