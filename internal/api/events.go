package api

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// Chat stream event names as the server emits them.
const (
	EventConnected               = "connected"
	EventNewUserMessage          = "newUserMessage"
	EventNewAssistantMessage     = "newAssistantMessage"
	EventNewMessageContent       = "newMessageContent"
	EventMessageContentChunk     = "messageContentChunk"
	EventToolCall                = "toolCall"
	EventToolCallPendingApproval = "toolCallPendingApproval"
	EventToolResult              = "toolResult"
	EventTitleUpdated            = "titleUpdated"
	EventMaxIterationReached     = "maxIterationReached"
	EventComplete                = "complete"
	EventError                   = "error"
	EventEditedMessage           = "editedMessage"
	EventCreatedBranch           = "createdBranch"
)

// NewMessageEvent announces a message row created for the stream.
type NewMessageEvent struct {
	MessageID uuid.UUID `json:"message_id"`
}

// NewMessageContentEvent opens a content block within a message.
type NewMessageContentEvent struct {
	MessageContentID uuid.UUID `json:"message_content_id"`
	MessageID        uuid.UUID `json:"message_id"`
}

// ContentChunkEvent carries one delta of streamed assistant text.
type ContentChunkEvent struct {
	MessageContentID uuid.UUID `json:"message_content_id"`
	Delta            string    `json:"delta"`
}

// ToolCallEvent reports a tool invocation requested by the model.
type ToolCallEvent struct {
	MessageContentID uuid.UUID       `json:"message_content_id"`
	MessageID        uuid.UUID       `json:"message_id"`
	ToolName         string          `json:"tool_name"`
	ServerID         uuid.UUID       `json:"server_id"`
	Arguments        json.RawMessage `json:"arguments"`
	CallID           string          `json:"call_id,omitempty"`
}

// ToolResultEvent reports the outcome of a tool invocation.
type ToolResultEvent struct {
	MessageContentID uuid.UUID       `json:"message_content_id"`
	MessageID        uuid.UUID       `json:"message_id"`
	CallID           string          `json:"call_id"`
	Result           json.RawMessage `json:"result"`
	Success          bool            `json:"success"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
}

// TitleUpdatedEvent carries a regenerated conversation title.
type TitleUpdatedEvent struct {
	Title string `json:"title"`
}

// MaxIterationEvent reports that the tool loop hit its iteration cap.
type MaxIterationEvent struct {
	Iteration int `json:"iteration"`
}

// StreamErrorEvent is a server-side failure delivered mid-stream.
type StreamErrorEvent struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ChatStreamHandlers receives typed chat stream events. Nil fields drop
// their event. Unknown routes anything without a dedicated field, including
// events added by newer servers.
type ChatStreamHandlers struct {
	// OnOpen receives a stop function once the stream is established.
	OnOpen func(stop func())

	Connected           func()
	NewUserMessage      func(NewMessageEvent)
	NewAssistantMessage func(NewMessageEvent)
	NewMessageContent   func(NewMessageContentEvent)
	ContentChunk        func(ContentChunkEvent)
	ToolCall            func(ToolCallEvent)
	ToolCallPending     func(ToolCallEvent)
	ToolResult          func(ToolResultEvent)
	TitleUpdated        func(TitleUpdatedEvent)
	MaxIteration        func(MaxIterationEvent)
	EditedMessage       func(Message)
	CreatedBranch       func(MessageBranch)
	Complete            func()
	Error               func(StreamErrorEvent)
	Unknown             EventHandler
}

// mux wires the typed handlers onto a StreamMux. Payloads that fail to
// decode are logged and dropped rather than aborting the stream.
func (h ChatStreamHandlers) mux() *StreamMux {
	m := &StreamMux{OnOpen: h.OnOpen, Default: h.Unknown}
	if h.Connected != nil {
		m.Handle(EventConnected, func(string, json.RawMessage) { h.Connected() })
	}
	if h.NewUserMessage != nil {
		m.Handle(EventNewUserMessage, typedEvent(h.NewUserMessage))
	}
	if h.NewAssistantMessage != nil {
		m.Handle(EventNewAssistantMessage, typedEvent(h.NewAssistantMessage))
	}
	if h.NewMessageContent != nil {
		m.Handle(EventNewMessageContent, typedEvent(h.NewMessageContent))
	}
	if h.ContentChunk != nil {
		m.Handle(EventMessageContentChunk, typedEvent(h.ContentChunk))
	}
	if h.ToolCall != nil {
		m.Handle(EventToolCall, typedEvent(h.ToolCall))
	}
	if h.ToolCallPending != nil {
		m.Handle(EventToolCallPendingApproval, typedEvent(h.ToolCallPending))
	}
	if h.ToolResult != nil {
		m.Handle(EventToolResult, typedEvent(h.ToolResult))
	}
	if h.TitleUpdated != nil {
		m.Handle(EventTitleUpdated, typedEvent(h.TitleUpdated))
	}
	if h.MaxIteration != nil {
		m.Handle(EventMaxIterationReached, typedEvent(h.MaxIteration))
	}
	if h.EditedMessage != nil {
		m.Handle(EventEditedMessage, typedEvent(h.EditedMessage))
	}
	if h.CreatedBranch != nil {
		m.Handle(EventCreatedBranch, typedEvent(h.CreatedBranch))
	}
	if h.Complete != nil {
		m.Handle(EventComplete, func(string, json.RawMessage) { h.Complete() })
	}
	if h.Error != nil {
		m.Handle(EventError, typedEvent(h.Error))
	}
	return m
}

func typedEvent[T any](h func(T)) EventHandler {
	return func(event string, data json.RawMessage) {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			slog.Warn("dropping undecodable stream event", "event", event, "error", err)
			return
		}
		h(v)
	}
}
