// Package apitest provides an in-process fake ziee server for tests. It
// speaks the same wire format as the real server: JSON bodies, the
// {error, error_code} failure shape, SSE chat streams and multipart
// uploads, backed by in-memory state seeded with one admin account, one
// model provider and a default assistant.
package apitest

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziee-ai/ziee-go/internal/api"
)

// Server holds the fake's mutable state. Exported fields are seeded by New
// and safe to read from tests; everything else is guarded by mu.
type Server struct {
	// Password is accepted for every known user on login.
	Password string

	// ChunkScript is the assistant reply, one content chunk per entry,
	// played back by the chat stream endpoints.
	ChunkScript []string

	// Seeded records.
	Admin            api.User
	Provider         api.Provider
	Models           []api.Model
	RAGProvider      api.RAGProvider
	DefaultAssistant api.Assistant

	mu sync.Mutex

	needsSetup   bool
	registration bool
	language     string
	proxy        api.ProxySettings
	hubVersion   string

	users  map[uuid.UUID]*api.User
	tokens map[string]uuid.UUID
	nextID int

	convs     map[uuid.UUID]*conversation
	convOrder []uuid.UUID

	files        map[uuid.UUID]*storedFile
	messageFiles map[uuid.UUID][]uuid.UUID

	instances map[uuid.UUID]*api.RAGInstance
	ragOrder  []uuid.UUID
	ragFiles  map[uuid.UUID][]uuid.UUID

	projects     map[uuid.UUID]*api.Project
	projectOrder []uuid.UUID
	projectConvs map[uuid.UUID][]uuid.UUID
	projectFiles map[uuid.UUID][]uuid.UUID

	groups     map[uuid.UUID]*api.UserGroup
	groupOrder []uuid.UUID
	members    map[uuid.UUID][]uuid.UUID

	providers     map[uuid.UUID]*api.Provider
	providerOrder []uuid.UUID
	models        map[uuid.UUID]*api.Model
	modelOrder    []uuid.UUID

	assistants     map[uuid.UUID]*api.Assistant
	assistantOrder []uuid.UUID

	settings map[string]api.UserSetting
}

type conversation struct {
	meta     api.Conversation
	messages []api.Message
	branches []api.MessageBranch
}

type storedFile struct {
	meta    api.File
	content []byte
	mime    string
}

// New builds a fake server with one admin account ("admin" / s.Password),
// one enabled provider carrying two models, one RAG provider and a default
// assistant.
func New() *Server {
	now := time.Now().UTC()

	s := &Server{
		Password:     "secret",
		ChunkScript:  []string{"Hello", " there"},
		registration: true,
		language:     "en",
		hubVersion:   "1",

		users:  make(map[uuid.UUID]*api.User),
		tokens: make(map[string]uuid.UUID),

		convs:        make(map[uuid.UUID]*conversation),
		files:        make(map[uuid.UUID]*storedFile),
		messageFiles: make(map[uuid.UUID][]uuid.UUID),

		instances: make(map[uuid.UUID]*api.RAGInstance),
		ragFiles:  make(map[uuid.UUID][]uuid.UUID),

		projects:     make(map[uuid.UUID]*api.Project),
		projectConvs: make(map[uuid.UUID][]uuid.UUID),
		projectFiles: make(map[uuid.UUID][]uuid.UUID),

		groups:  make(map[uuid.UUID]*api.UserGroup),
		members: make(map[uuid.UUID][]uuid.UUID),

		providers: make(map[uuid.UUID]*api.Provider),
		models:    make(map[uuid.UUID]*api.Model),

		assistants: make(map[uuid.UUID]*api.Assistant),
		settings:   make(map[string]api.UserSetting),
	}

	group := api.UserGroup{
		ID:          uuid.New(),
		Name:        "admins",
		Permissions: []string{"*"},
		ProviderIDs: []uuid.UUID{},
		IsProtected: true,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.groups[group.ID] = &group
	s.groupOrder = append(s.groupOrder, group.ID)

	admin := api.User{
		ID:          uuid.New(),
		Username:    "admin",
		Emails:      []api.UserEmail{{Address: "admin@example.com", Verified: true}},
		IsActive:    true,
		IsProtected: true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Groups:      []api.UserGroup{group},
	}
	s.users[admin.ID] = &admin
	s.members[group.ID] = []uuid.UUID{admin.ID}
	s.Admin = admin

	provider := api.Provider{
		ID:        uuid.New(),
		Name:      "OpenAI",
		Type:      "openai",
		Enabled:   true,
		BuiltIn:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.providers[provider.ID] = &provider
	s.providerOrder = append(s.providerOrder, provider.ID)
	s.Provider = provider

	for _, name := range []string{"gpt-4o", "gpt-4o-mini"} {
		m := api.Model{
			ID:         uuid.New(),
			ProviderID: provider.ID,
			Name:       name,
			Alias:      name,
			Enabled:    true,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.models[m.ID] = &m
		s.modelOrder = append(s.modelOrder, m.ID)
		s.Models = append(s.Models, m)
	}

	s.RAGProvider = api.RAGProvider{
		ID:        uuid.New(),
		Name:      "Local Vectors",
		Type:      "simple_vector",
		Enabled:   true,
		BuiltIn:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	assistant := api.Assistant{
		ID:        uuid.New(),
		Name:      "Assistant",
		IsDefault: true,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.assistants[assistant.ID] = &assistant
	s.assistantOrder = append(s.assistantOrder, assistant.ID)
	s.DefaultAssistant = assistant

	return s
}

// SetNeedsSetup puts the fake into the fresh-install state where only
// /api/auth/setup works.
func (s *Server) SetNeedsSetup(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsSetup = v
}

// IssueToken mints a session token for the admin account, for tests that
// skip the login flow.
func (s *Server) IssueToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(s.Admin.ID)
}

// LinkMessageFile attaches a stored file to a message, seeding state for the
// message-file endpoints. No upload route creates these links.
func (s *Server) LinkMessageFile(messageID, fileID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageFiles[messageID] = append(s.messageFiles[messageID], fileID)
}

func (s *Server) issueTokenLocked(userID uuid.UUID) string {
	s.nextID++
	token := fmt.Sprintf("ziee-test-token-%d", s.nextID)
	s.tokens[token] = userID
	return token
}

// Router returns the fake's HTTP handler; wrap it in httptest.NewServer.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/api/auth/init", s.handleInit)
	r.Post("/api/auth/setup", s.handleSetup)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/register", s.handleRegister)
	r.Get("/api/config/user-registration", s.handleRegistrationStatus)
	r.Get("/api/config/default-language", s.handleDefaultLanguage)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/api/auth/logout", s.handleLogout)
		r.Get("/api/auth/me", s.handleMe)

		r.Get("/api/chat/conversations", s.handleListConversations)
		r.Post("/api/chat/conversations", s.handleCreateConversation)
		r.Get("/api/chat/conversations/search", s.handleSearchConversations)
		r.Get("/api/chat/conversations/{conversation_id}", s.handleGetConversation)
		r.Put("/api/chat/conversations/{conversation_id}", s.handleUpdateConversation)
		r.Delete("/api/chat/conversations/{conversation_id}", s.handleDeleteConversation)
		r.Post("/api/chat/messages/stream", s.handleSendMessage)
		r.Put("/api/chat/messages/{message_id}/stream", s.handleEditMessage)
		r.Get("/api/chat/messages/{message_id}/branches", s.handleMessageBranches)
		r.Put("/api/chat/conversations/{conversation_id}/branch/switch", s.handleSwitchBranch)
		r.Get("/api/chat/conversations/{conversation_id}/messages/{branch_id}", s.handleBranchMessages)

		r.Post("/api/files/upload", s.handleUploadFiles)
		r.Get("/api/files/{id}", s.handleGetFile)
		r.Delete("/api/files/{id}", s.handleDeleteFile)
		r.Get("/api/files/{id}/download", s.handleDownloadFile)
		r.Post("/api/files/{id}/download-token", s.handleDownloadToken)
		r.Get("/api/files/{id}/preview", s.handleFilePreview)
		r.Get("/api/messages/{id}/files", s.handleMessageFiles)
		r.Delete("/api/files/{file_id}/messages/{message_id}", s.handleUnlinkMessageFile)

		r.Get("/api/rag/providers", s.handleRAGProviders)
		r.Get("/api/rag/instances", s.handleRAGInstances)
		r.Post("/api/rag/providers/{provider_id}/instances", s.handleCreateRAGInstance)
		r.Get("/api/rag/instances/{instance_id}", s.handleGetRAGInstance)
		r.Put("/api/rag/instances/{instance_id}", s.handleUpdateRAGInstance)
		r.Delete("/api/rag/instances/{instance_id}", s.handleDeleteRAGInstance)
		r.Get("/api/rag/instances/{instance_id}/files", s.handleRAGFiles)
		r.Post("/api/rag/instances/{instance_id}/files", s.handleUploadRAGFiles)
		r.Delete("/api/rag/instances/{instance_id}/files/{file_id}", s.handleDeleteRAGFile)

		r.Get("/api/projects", s.handleListProjects)
		r.Post("/api/projects", s.handleCreateProject)
		r.Get("/api/projects/{project_id}", s.handleGetProject)
		r.Put("/api/projects/{project_id}", s.handleUpdateProject)
		r.Delete("/api/projects/{project_id}", s.handleDeleteProject)
		r.Post("/api/projects/{project_id}/conversations/{conversation_id}", s.handleLinkConversation)
		r.Delete("/api/projects/{project_id}/conversations/{conversation_id}", s.handleUnlinkConversation)
		r.Post("/api/projects/{id}/files", s.handleUploadProjectFiles)
		r.Get("/api/projects/{id}/files", s.handleListProjectFiles)

		r.Get("/api/providers", s.handleListProviders)
		r.Get("/api/providers/{provider_id}/models", s.handleProviderModels)

		r.Get("/api/assistants", s.handleListAssistants)
		r.Post("/api/assistants", s.handleCreateAssistant)
		r.Get("/api/assistants/default", s.handleDefaultAssistant)
		r.Get("/api/assistants/{assistant_id}", s.handleGetAssistant)
		r.Put("/api/assistants/{assistant_id}", s.handleUpdateAssistant)
		r.Delete("/api/assistants/{assistant_id}", s.handleDeleteAssistant)

		r.Get("/api/user/settings", s.handleListSettings)
		r.Post("/api/user/settings", s.handleSetSetting)
		r.Delete("/api/user/settings/all", s.handleDeleteAllSettings)
		r.Get("/api/user/settings/{key}", s.handleGetSetting)
		r.Delete("/api/user/settings/{key}", s.handleDeleteSetting)

		r.Get("/api/admin/users", s.handleAdminListUsers)
		r.Get("/api/admin/users/{user_id}", s.handleAdminGetUser)
		r.Put("/api/admin/users/{user_id}", s.handleAdminUpdateUser)
		r.Post("/api/admin/users/{user_id}/toggle-active", s.handleAdminToggleUser)
		r.Post("/api/admin/users/reset-password", s.handleAdminResetPassword)

		r.Get("/api/admin/groups", s.handleAdminListGroups)
		r.Post("/api/admin/groups", s.handleAdminCreateGroup)
		r.Post("/api/admin/groups/assign", s.handleAdminAssignUser)
		r.Post("/api/admin/groups/assign-model-provider", s.handleAdminAssignProvider)
		r.Get("/api/admin/groups/{group_id}", s.handleAdminGetGroup)
		r.Put("/api/admin/groups/{group_id}", s.handleAdminUpdateGroup)
		r.Delete("/api/admin/groups/{group_id}", s.handleAdminDeleteGroup)
		r.Get("/api/admin/groups/{group_id}/members", s.handleAdminGroupMembers)
		r.Delete("/api/admin/groups/{user_id}/{group_id}/remove", s.handleAdminRemoveUser)
		r.Get("/api/admin/groups/{group_id}/model-providers", s.handleAdminGroupProviders)
		r.Delete("/api/admin/groups/{group_id}/model-providers/{provider_id}", s.handleAdminRemoveProvider)

		r.Get("/api/admin/model-providers", s.handleAdminListProviders)
		r.Post("/api/admin/model-providers", s.handleAdminCreateProvider)
		r.Get("/api/admin/model-providers/{provider_id}", s.handleAdminGetProvider)
		r.Put("/api/admin/model-providers/{provider_id}", s.handleAdminUpdateProvider)
		r.Delete("/api/admin/model-providers/{provider_id}", s.handleAdminDeleteProvider)
		r.Post("/api/admin/model-providers/{provider_id}/clone", s.handleAdminCloneProvider)
		r.Post("/api/admin/model-providers/{provider_id}/test-proxy", s.handleAdminTestProxy)
		r.Post("/api/admin/model-providers/{provider_id}/models", s.handleAdminCreateModel)
		r.Get("/api/admin/models/{model_id}", s.handleAdminGetModel)
		r.Put("/api/admin/models/{model_id}", s.handleAdminUpdateModel)
		r.Delete("/api/admin/models/{model_id}", s.handleAdminDeleteModel)

		r.Get("/api/admin/config/user-registration", s.handleRegistrationStatus)
		r.Put("/api/admin/config/user-registration", s.handleSetRegistration)
		r.Get("/api/admin/config/default-language", s.handleDefaultLanguage)
		r.Put("/api/admin/config/default-language", s.handleSetLanguage)
		r.Get("/api/admin/config/proxy", s.handleGetProxy)
		r.Put("/api/admin/config/proxy", s.handleSetProxy)

		r.Get("/api/hub/data", s.handleHubData)
		r.Post("/api/hub/refresh", s.handleHubRefresh)
		r.Get("/api/hub/version", s.handleHubVersion)
	})

	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) || s.userForToken(auth[len(prefix):]) == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) userForToken(token string) *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, id := range s.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return s.users[id]
		}
	}
	return nil
}

// requestUser resolves the account behind the request's bearer token. Inside
// the authed route group it never returns nil.
func (s *Server) requestUser(r *http.Request) *api.User {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return nil
	}
	return s.userForToken(auth[len(prefix):])
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":      fmt.Sprintf(format, args...),
		"error_code": code,
	})
}

func notFound(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotFound, "NotFound", "%s not found", what)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid request body: %v", err)
		return false
	}
	return true
}

func intQuery(r *http.Request, key string, def, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func pageOf[T any](items []T, page, perPage int) []T {
	start := (page - 1) * perPage
	if start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func uuidParam(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid %s: %v", key, err)
		return uuid.Nil, false
	}
	return id, true
}
