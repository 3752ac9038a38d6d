package api

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation is one chat thread.
type Conversation struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Title          string     `json:"title"`
	AssistantID    *uuid.UUID `json:"assistant_id,omitempty"`
	ModelID        *uuid.UUID `json:"model_id,omitempty"`
	ActiveBranchID *uuid.UUID `json:"active_branch_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	UserID      uuid.UUID  `json:"user_id"`
	AssistantID *uuid.UUID `json:"assistant_id,omitempty"`
	ModelID     *uuid.UUID `json:"model_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastMessage *string    `json:"last_message,omitempty"`
}

// ConversationList is one page of conversations.
type ConversationList struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PerPage       int                   `json:"per_page"`
}

// Message is one entry in a conversation.
type Message struct {
	ID               uuid.UUID  `json:"id"`
	ConversationID   uuid.UUID  `json:"conversation_id"`
	Role             string     `json:"role"`
	Content          string     `json:"content"`
	OriginatedFromID *uuid.UUID `json:"originated_from_id,omitempty"`
	EditCount        *int       `json:"edit_count,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MessageBranch is one edit lineage within a conversation.
type MessageBranch struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	IsClone        bool      `json:"is_clone"`
}

// ListConversations returns one page of the user's conversations.
func (c *Client) ListConversations(ctx context.Context, page, perPage int) (*ConversationList, error) {
	var out ConversationList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointChatListConversations, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchConversations returns conversations matching the query text.
func (c *Client) SearchConversations(ctx context.Context, query string, page, perPage int) (*ConversationList, error) {
	var out ConversationList
	p := Params{"q": query, "page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointChatSearch, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversationRequest names the conversation and optionally pins an
// assistant and model.
type CreateConversationRequest struct {
	Title       string     `json:"title"`
	AssistantID *uuid.UUID `json:"assistant_id,omitempty"`
	ModelID     *uuid.UUID `json:"model_id,omitempty"`
}

// CreateConversation starts a new conversation.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (*Conversation, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	var out Conversation
	if err := c.CallJSON(ctx, EndpointChatCreateConversation, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches one conversation by id.
func (c *Client) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var out Conversation
	if err := c.CallJSON(ctx, EndpointChatGetConversation, Params{"conversation_id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateConversationRequest carries the fields to change; nil fields stay
// untouched.
type UpdateConversationRequest struct {
	Title       *string    `json:"title,omitempty"`
	AssistantID *uuid.UUID `json:"assistant_id,omitempty"`
	ModelID     *uuid.UUID `json:"model_id,omitempty"`
}

// UpdateConversation changes a conversation's title, assistant or model.
func (c *Client) UpdateConversation(ctx context.Context, id uuid.UUID, req UpdateConversationRequest) (*Conversation, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["conversation_id"] = id
	var out Conversation
	if err := c.CallJSON(ctx, EndpointChatUpdateConversation, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return c.CallJSON(ctx, EndpointChatDeleteConversation, Params{"conversation_id": id}, nil)
}

// MessageBranches lists the edit branches rooted at a message.
func (c *Client) MessageBranches(ctx context.Context, messageID uuid.UUID) ([]MessageBranch, error) {
	var out []MessageBranch
	if err := c.CallJSON(ctx, EndpointChatMessageBranches, Params{"message_id": messageID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SwitchBranch makes the given branch the conversation's active one.
func (c *Client) SwitchBranch(ctx context.Context, conversationID, branchID uuid.UUID) error {
	p := Params{"conversation_id": conversationID, "branch_id": branchID}
	return c.CallJSON(ctx, EndpointChatSwitchBranch, p, nil)
}

// BranchMessages returns the messages of one branch of a conversation.
func (c *Client) BranchMessages(ctx context.Context, conversationID, branchID uuid.UUID) ([]Message, error) {
	var out []Message
	p := Params{"conversation_id": conversationID, "branch_id": branchID}
	if err := c.CallJSON(ctx, EndpointChatBranchMessages, p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessageRequest submits user content to a conversation. The reply
// arrives as a stream of events.
type SendMessageRequest struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
	Role           string    `json:"role"`
	ModelID        uuid.UUID `json:"model_id"`
}

// SendMessage posts a message and streams the assistant's reply through h.
// It blocks until the stream completes or is stopped.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest, h ChatStreamHandlers) error {
	p, err := asParams(req)
	if err != nil {
		return err
	}
	return c.Stream(ctx, EndpointChatSendMessage, p, h.mux())
}

// EditMessage rewrites a message's content and streams the regenerated reply
// through h. The server forks a new branch for the edit.
func (c *Client) EditMessage(ctx context.Context, messageID uuid.UUID, content string, h ChatStreamHandlers) error {
	p := Params{"message_id": messageID, "content": content}
	return c.Stream(ctx, EndpointChatEditMessage, p, h.mux())
}
