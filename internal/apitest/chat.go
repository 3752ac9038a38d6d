package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziee-ai/ziee-go/internal/api"
)

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.ConversationSummary, 0, len(s.convOrder))
	for i := len(s.convOrder) - 1; i >= 0; i-- {
		all = append(all, summaryOf(s.convs[s.convOrder[i]]))
	}
	writeJSON(w, api.ConversationList{
		Conversations: pageOf(all, page, perPage),
		Total:         int64(len(all)),
		Page:          page,
		PerPage:       perPage,
	})
}

func (s *Server) handleSearchConversations(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := []api.ConversationSummary{}
	for i := len(s.convOrder) - 1; i >= 0; i-- {
		c := s.convs[s.convOrder[i]]
		if q == "" || conversationMatches(c, q) {
			all = append(all, summaryOf(c))
		}
	}
	writeJSON(w, api.ConversationList{
		Conversations: pageOf(all, page, perPage),
		Total:         int64(len(all)),
		Page:          page,
		PerPage:       perPage,
	})
}

func conversationMatches(c *conversation, q string) bool {
	if strings.Contains(strings.ToLower(c.meta.Title), q) {
		return true
	}
	for _, m := range c.messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
	}
	return false
}

func summaryOf(c *conversation) api.ConversationSummary {
	sum := api.ConversationSummary{
		ID:          c.meta.ID,
		Title:       c.meta.Title,
		UserID:      c.meta.UserID,
		AssistantID: c.meta.AssistantID,
		ModelID:     c.meta.ModelID,
		CreatedAt:   c.meta.CreatedAt,
		UpdatedAt:   c.meta.UpdatedAt,
	}
	if n := len(c.messages); n > 0 {
		last := c.messages[n-1].Content
		sum.LastMessage = &last
	}
	return sum
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	user := s.requestUser(r)
	var req api.CreateConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	branchID := uuid.New()
	conv := &conversation{
		meta: api.Conversation{
			ID:             uuid.New(),
			UserID:         user.ID,
			Title:          req.Title,
			AssistantID:    req.AssistantID,
			ModelID:        req.ModelID,
			ActiveBranchID: &branchID,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
	conv.branches = []api.MessageBranch{{
		ID:             branchID,
		ConversationID: conv.meta.ID,
		CreatedAt:      now,
	}}
	s.convs[conv.meta.ID] = conv
	s.convOrder = append(s.convOrder, conv.meta.ID)
	writeJSON(w, conv.meta)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		notFound(w, "conversation")
		return
	}
	writeJSON(w, conv.meta)
}

func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}
	var req api.UpdateConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		notFound(w, "conversation")
		return
	}
	if req.Title != nil {
		conv.meta.Title = *req.Title
	}
	if req.AssistantID != nil {
		conv.meta.AssistantID = req.AssistantID
	}
	if req.ModelID != nil {
		conv.meta.ModelID = req.ModelID
	}
	conv.meta.UpdatedAt = time.Now().UTC()
	writeJSON(w, conv.meta)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[id]; !ok {
		notFound(w, "conversation")
		return
	}
	delete(s.convs, id)
	for i, cid := range s.convOrder {
		if cid == id {
			s.convOrder = append(s.convOrder[:i], s.convOrder[i+1:]...)
			break
		}
	}
	for pid, ids := range s.projectConvs {
		for i, cid := range ids {
			if cid == id {
				s.projectConvs[pid] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleMessageBranches(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "message_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, _ := s.findMessageLocked(id)
	if conv == nil {
		notFound(w, "message")
		return
	}
	writeJSON(w, conv.branches)
}

func (s *Server) handleSwitchBranch(w http.ResponseWriter, r *http.Request) {
	convID, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}
	var req struct {
		BranchID uuid.UUID `json:"branch_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok {
		notFound(w, "conversation")
		return
	}
	for _, b := range conv.branches {
		if b.ID == req.BranchID {
			id := req.BranchID
			conv.meta.ActiveBranchID = &id
			writeJSON(w, map[string]string{"status": "switched"})
			return
		}
	}
	notFound(w, "branch")
}

func (s *Server) handleBranchMessages(w http.ResponseWriter, r *http.Request) {
	convID, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}
	branchID, ok := uuidParam(w, r, "branch_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok {
		notFound(w, "conversation")
		return
	}
	for _, b := range conv.branches {
		if b.ID == branchID {
			writeJSON(w, conv.messages)
			return
		}
	}
	notFound(w, "branch")
}

func (s *Server) findMessageLocked(id uuid.UUID) (*conversation, *api.Message) {
	for _, c := range s.convs {
		for i := range c.messages {
			if c.messages[i].ID == id {
				return c, &c.messages[i]
			}
		}
	}
	return nil, nil
}

// --- Streaming ---

// eventStream writes text/event-stream frames, flushing after each one.
type eventStream struct {
	w http.ResponseWriter
	f http.Flusher
	r *http.Request
}

func openStream(w http.ResponseWriter, r *http.Request) (*eventStream, bool) {
	f, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "InternalError", "streaming unsupported")
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &eventStream{w: w, f: f, r: r}, true
}

// emit writes one frame. It reports false once the client is gone.
func (es *eventStream) emit(event string, payload any) bool {
	if es.r.Context().Err() != nil {
		return false
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	fmt.Fprintf(es.w, "event: %s\ndata: %s\n\n", event, data)
	es.f.Flush()
	return true
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req api.SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	conv, ok := s.convs[req.ConversationID]
	if !ok {
		s.mu.Unlock()
		notFound(w, "conversation")
		return
	}

	now := time.Now().UTC()
	role := req.Role
	if role == "" {
		role = "user"
	}
	userMsg := api.Message{
		ID:             uuid.New(),
		ConversationID: conv.meta.ID,
		Role:           role,
		Content:        req.Content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	chunks := append([]string(nil), s.ChunkScript...)
	replyMsg := api.Message{
		ID:             uuid.New(),
		ConversationID: conv.meta.ID,
		Role:           "assistant",
		Content:        strings.Join(chunks, ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	conv.messages = append(conv.messages, userMsg, replyMsg)
	var newTitle string
	if conv.meta.Title == "" {
		newTitle = "New chat"
		conv.meta.Title = newTitle
	}
	conv.meta.UpdatedAt = now
	s.mu.Unlock()

	es, ok := openStream(w, r)
	if !ok {
		return
	}
	if !es.emit(api.EventConnected, struct{}{}) {
		return
	}
	if !es.emit(api.EventNewUserMessage, api.NewMessageEvent{MessageID: userMsg.ID}) {
		return
	}
	s.streamReply(es, replyMsg.ID, chunks, newTitle)
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	msgID, ok := uuidParam(w, r, "message_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	conv, edited := s.findMessageLocked(msgID)
	if conv == nil {
		s.mu.Unlock()
		notFound(w, "message")
		return
	}
	now := time.Now().UTC()
	edited.Content = req.Content
	edited.UpdatedAt = now
	if edited.EditCount == nil {
		one := 1
		edited.EditCount = &one
	} else {
		*edited.EditCount++
	}
	branch := api.MessageBranch{
		ID:             uuid.New(),
		ConversationID: conv.meta.ID,
		CreatedAt:      now,
		IsClone:        true,
	}
	conv.branches = append(conv.branches, branch)
	activeID := branch.ID
	conv.meta.ActiveBranchID = &activeID

	chunks := append([]string(nil), s.ChunkScript...)
	replyMsg := api.Message{
		ID:             uuid.New(),
		ConversationID: conv.meta.ID,
		Role:           "assistant",
		Content:        strings.Join(chunks, ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	conv.messages = append(conv.messages, replyMsg)
	conv.meta.UpdatedAt = now
	editedCopy := *edited
	s.mu.Unlock()

	es, ok := openStream(w, r)
	if !ok {
		return
	}
	if !es.emit(api.EventConnected, struct{}{}) {
		return
	}
	if !es.emit(api.EventEditedMessage, editedCopy) {
		return
	}
	if !es.emit(api.EventCreatedBranch, branch) {
		return
	}
	s.streamReply(es, replyMsg.ID, chunks, "")
}

// streamReply plays the assistant side of a chat stream: the message and
// content envelopes, one chunk per script entry, an optional title event,
// and the completion marker.
func (s *Server) streamReply(es *eventStream, messageID uuid.UUID, chunks []string, newTitle string) {
	contentID := uuid.New()
	if !es.emit(api.EventNewAssistantMessage, api.NewMessageEvent{MessageID: messageID}) {
		return
	}
	if !es.emit(api.EventNewMessageContent, api.NewMessageContentEvent{
		MessageContentID: contentID,
		MessageID:        messageID,
	}) {
		return
	}
	for _, delta := range chunks {
		if !es.emit(api.EventMessageContentChunk, api.ContentChunkEvent{
			MessageContentID: contentID,
			Delta:            delta,
		}) {
			return
		}
	}
	if newTitle != "" {
		if !es.emit(api.EventTitleUpdated, api.TitleUpdatedEvent{Title: newTitle}) {
			return
		}
	}
	es.emit(api.EventComplete, struct{}{})
}
