// Package mcpserver exposes ziee over the Model Context Protocol: MCP
// clients get tools for chatting, searching history, probing retrieval
// indexes and listing models, served over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziee-ai/ziee-go/internal/api"
	"github.com/ziee-ai/ziee-go/internal/cache"
)

// Messenger abstracts conversation creation and streamed sends.
type Messenger interface {
	CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*api.Conversation, error)
	SendMessage(ctx context.Context, req api.SendMessageRequest, h api.ChatStreamHandlers) error
}

// History abstracts conversation listing and search.
type History interface {
	ListConversations(ctx context.Context, page, perPage int) (*api.ConversationList, error)
	SearchConversations(ctx context.Context, query string, page, perPage int) (*api.ConversationList, error)
}

// Catalog abstracts the provider and model listings.
type Catalog interface {
	ListProviders(ctx context.Context) ([]api.Provider, error)
	ListProviderModels(ctx context.Context, providerID uuid.UUID) ([]api.Model, error)
}

// Indexes abstracts the retrieval index listings.
type Indexes interface {
	ListRAGInstances(ctx context.Context, page, perPage int) (*api.RAGInstanceList, error)
	ListRAGFiles(ctx context.Context, instanceID uuid.UUID, page, perPage int) (*api.RAGFileList, error)
}

// Deps holds the dependencies for the MCP server. A single *api.Client
// satisfies every interface.
type Deps struct {
	Chat     Messenger
	History  History
	Catalog  Catalog
	Indexes  Indexes
	ModelTTL time.Duration // model catalog cache lifetime; zero means cache.DefaultTTL
}

// NewServer creates an MCP server with all ziee tools and resources registered.
func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"ziee",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("ziee: chat with configured model providers, search conversation history, and inspect retrieval indexes."),
		server.WithRecovery(),
	)

	models := newModelCache(deps)

	// Tools
	s.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send a message to a ziee conversation and return the assistant's full reply."),
			mcp.WithString("content", mcp.Description("Message text to send"), mcp.Required()),
			mcp.WithString("conversation_id", mcp.Description("Existing conversation to continue; omit to start a new one")),
			mcp.WithString("model_id", mcp.Description("Model to answer with; omit to use the first available model")),
			mcp.WithString("title", mcp.Description("Title for a newly created conversation")),
		),
		mcpSendMessage(deps, models),
	)

	s.AddTool(
		mcp.NewTool("search_conversations",
			mcp.WithDescription("Search conversation history by title and message content."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchConversations(deps),
	)

	s.AddTool(
		mcp.NewTool("rag_query",
			mcp.WithDescription("Find documents in the user's retrieval indexes whose index or file names match the query."),
			mcp.WithString("query", mcp.Description("Text to match against index and file names"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpRAGQuery(deps),
	)

	s.AddTool(
		mcp.NewTool("list_models",
			mcp.WithDescription("List models available across enabled providers."),
			mcp.WithString("provider", mcp.Description("Only include models of this provider (matched by name)")),
		),
		mcpListModels(deps, models),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"ziee://conversations/recent",
			"Recent Conversations",
			mcp.WithResourceDescription("Last 10 conversations as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"ziee://models",
			"Model Catalog",
			mcp.WithResourceDescription("Models available across enabled providers as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceModels(deps, models),
	)

	return s
}

// catalogModel is the flattened provider+model view the tools report.
type catalogModel struct {
	ID       uuid.UUID `json:"id"`
	Provider string    `json:"provider"`
	Name     string    `json:"name"`
	Alias    string    `json:"alias"`
}

const catalogKey = "models"

// newModelCache builds the catalog cache shared by the model-aware tools.
func newModelCache(deps Deps) *cache.Cache[string, []catalogModel] {
	return cache.New[string, []catalogModel](deps.ModelTTL)
}

// loadCatalog returns the flattened model catalog, fetching it at most once
// per cache lifetime.
func loadCatalog(ctx context.Context, deps Deps, models *cache.Cache[string, []catalogModel]) ([]catalogModel, error) {
	if v, ok := models.Get(catalogKey); ok {
		return v, nil
	}

	providers, err := deps.Catalog.ListProviders(ctx)
	if err != nil {
		return nil, err
	}

	var out []catalogModel
	for _, p := range providers {
		list, err := deps.Catalog.ListProviderModels(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range list {
			out = append(out, catalogModel{ID: m.ID, Provider: p.Name, Name: m.Name, Alias: m.Alias})
		}
	}

	models.Put(catalogKey, out)
	return out, nil
}

func mcpSendMessage(deps Deps, models *cache.Cache[string, []catalogModel]) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}

		modelID, err := resolveModel(ctx, deps, models, req.GetString("model_id", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		convID, err := resolveConversation(ctx, deps, req.GetString("conversation_id", ""), req.GetString("title", ""), modelID)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		var (
			reply     strings.Builder
			messageID uuid.UUID
			title     string
			streamErr error
		)
		h := api.ChatStreamHandlers{
			NewAssistantMessage: func(e api.NewMessageEvent) { messageID = e.MessageID },
			ContentChunk:        func(e api.ContentChunkEvent) { reply.WriteString(e.Delta) },
			TitleUpdated:        func(e api.TitleUpdatedEvent) { title = e.Title },
			Error: func(e api.StreamErrorEvent) {
				streamErr = fmt.Errorf("%s: %s", e.Code, e.Error)
			},
		}
		send := api.SendMessageRequest{
			ConversationID: convID,
			Content:        content,
			Role:           "user",
			ModelID:        modelID,
		}
		if err := deps.Chat.SendMessage(ctx, send, h); err != nil {
			return mcpError(fmt.Sprintf("send failed: %v", err)), nil
		}
		if streamErr != nil {
			return mcpError(fmt.Sprintf("stream failed: %v", streamErr)), nil
		}

		result := struct {
			ConversationID uuid.UUID `json:"conversation_id"`
			MessageID      uuid.UUID `json:"message_id"`
			Reply          string    `json:"reply"`
			Title          string    `json:"title,omitempty"`
		}{convID, messageID, reply.String(), title}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

// resolveModel parses an explicit model id or falls back to the first model
// in the catalog.
func resolveModel(ctx context.Context, deps Deps, models *cache.Cache[string, []catalogModel], arg string) (uuid.UUID, error) {
	if arg != "" {
		id, err := uuid.Parse(arg)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid model_id: %v", err)
		}
		return id, nil
	}

	catalog, err := loadCatalog(ctx, deps, models)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load model catalog: %v", err)
	}
	if len(catalog) == 0 {
		return uuid.Nil, fmt.Errorf("no models available")
	}
	return catalog[0].ID, nil
}

// resolveConversation parses an existing conversation id or creates a fresh
// conversation pinned to the chosen model.
func resolveConversation(ctx context.Context, deps Deps, arg, title string, modelID uuid.UUID) (uuid.UUID, error) {
	if arg != "" {
		id, err := uuid.Parse(arg)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid conversation_id: %v", err)
		}
		return id, nil
	}

	conv, err := deps.Chat.CreateConversation(ctx, api.CreateConversationRequest{
		Title:   title,
		ModelID: &modelID,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create conversation: %v", err)
	}
	return conv.ID, nil
}

func mcpSearchConversations(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		list, err := deps.History.SearchConversations(ctx, query, 1, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(list.Conversations) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(conversationHits(list.Conversations))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRAGQuery(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		instances, err := deps.Indexes.ListRAGInstances(ctx, 1, 100)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list retrieval indexes: %v", err)), nil
		}

		type ragHit struct {
			InstanceID uuid.UUID  `json:"instance_id"`
			Instance   string     `json:"instance"`
			FileID     *uuid.UUID `json:"file_id,omitempty"`
			Filename   string     `json:"filename,omitempty"`
			SizeBytes  int64      `json:"size_bytes,omitempty"`
		}

		var hits []ragHit
		for _, inst := range instances.Instances {
			instMatch := matchesQuery(query, inst.Name, inst.Alias)
			if !instMatch && inst.Description != nil {
				instMatch = matchesQuery(query, *inst.Description)
			}

			files, err := deps.Indexes.ListRAGFiles(ctx, inst.ID, 1, 100)
			if err != nil {
				return mcpError(fmt.Sprintf("failed to list files of %s: %v", inst.Name, err)), nil
			}

			// A matching index surfaces all of its documents; otherwise only
			// documents whose filename matches.
			if instMatch && len(files.Files) == 0 {
				hits = append(hits, ragHit{InstanceID: inst.ID, Instance: inst.Name})
			}
			for _, f := range files.Files {
				if !instMatch && !matchesQuery(query, f.Filename) {
					continue
				}
				id := f.ID
				hits = append(hits, ragHit{
					InstanceID: inst.ID,
					Instance:   inst.Name,
					FileID:     &id,
					Filename:   f.Filename,
					SizeBytes:  f.FileSize,
				})
			}
			if len(hits) >= limit {
				break
			}
		}
		if len(hits) > limit {
			hits = hits[:limit]
		}

		if len(hits) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(hits)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListModels(deps Deps, models *cache.Cache[string, []catalogModel]) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		catalog, err := loadCatalog(ctx, deps, models)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load model catalog: %v", err)), nil
		}

		if provider := req.GetString("provider", ""); provider != "" {
			var kept []catalogModel
			for _, m := range catalog {
				if strings.EqualFold(m.Provider, provider) {
					kept = append(kept, m)
				}
			}
			catalog = kept
		}

		if len(catalog) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(catalog)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal models: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := deps.History.ListConversations(ctx, 1, 10)
		if err != nil {
			return nil, fmt.Errorf("failed to list conversations: %w", err)
		}

		b, err := json.Marshal(conversationHits(list.Conversations))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal conversations: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceModels(deps Deps, models *cache.Cache[string, []catalogModel]) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		catalog, err := loadCatalog(ctx, deps, models)
		if err != nil {
			return nil, fmt.Errorf("failed to load model catalog: %w", err)
		}
		if catalog == nil {
			catalog = []catalogModel{}
		}

		b, err := json.Marshal(catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal models: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// conversationHit is the compact listing the search tool and the recent
// resource share.
type conversationHit struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	UpdatedAt   string    `json:"updated_at"`
	LastMessage string    `json:"last_message,omitempty"`
}

func conversationHits(summaries []api.ConversationSummary) []conversationHit {
	hits := make([]conversationHit, len(summaries))
	for i, c := range summaries {
		hit := conversationHit{
			ID:        c.ID,
			Title:     c.Title,
			UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
		}
		if c.LastMessage != nil {
			hit.LastMessage = truncate(*c.LastMessage, 200)
		}
		hits[i] = hit
	}
	return hits
}

// truncate caps s at n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// matchesQuery reports whether any candidate contains the query,
// case-insensitively.
func matchesQuery(query string, candidates ...string) bool {
	q := strings.ToLower(query)
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
