package apitest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziee-ai/ziee-go/internal/api"
)

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.Provider{}
	for _, id := range s.providerOrder {
		p := *s.providers[id]
		if !p.Enabled {
			continue
		}
		p.APIKey = nil
		out = append(out, p)
	}
	writeJSON(w, out)
}

func (s *Server) handleProviderModels(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[id]; !ok {
		notFound(w, "provider")
		return
	}
	out := []api.Model{}
	for _, mid := range s.modelOrder {
		m := s.models[mid]
		if m.ProviderID == id && m.Enabled {
			out = append(out, *m)
		}
	}
	writeJSON(w, out)
}

// --- Assistants ---

func (s *Server) handleListAssistants(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.Assistant, 0, len(s.assistantOrder))
	for _, id := range s.assistantOrder {
		all = append(all, *s.assistants[id])
	}
	writeJSON(w, api.AssistantList{
		Assistants: pageOf(all, page, perPage),
		Total:      int64(len(all)),
		Page:       page,
		PerPage:    perPage,
	})
}

func (s *Server) handleCreateAssistant(w http.ResponseWriter, r *http.Request) {
	user := s.requestUser(r)
	var req api.AssistantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	a := api.Assistant{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Parameters:   req.Parameters,
		CreatedBy:    &user.ID,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	s.assistants[a.ID] = &a
	s.assistantOrder = append(s.assistantOrder, a.ID)
	writeJSON(w, a)
}

func (s *Server) handleDefaultAssistant(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.assistantOrder {
		if a := s.assistants[id]; a.IsDefault {
			writeJSON(w, a)
			return
		}
	}
	notFound(w, "default assistant")
}

func (s *Server) handleGetAssistant(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "assistant_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assistants[id]
	if !ok {
		notFound(w, "assistant")
		return
	}
	writeJSON(w, a)
}

func (s *Server) handleUpdateAssistant(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "assistant_id")
	if !ok {
		return
	}
	var req api.AssistantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assistants[id]
	if !ok {
		notFound(w, "assistant")
		return
	}
	a.Name = req.Name
	a.Description = req.Description
	a.Instructions = req.Instructions
	if req.Parameters != nil {
		a.Parameters = req.Parameters
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	a.UpdatedAt = time.Now().UTC()
	writeJSON(w, a)
}

func (s *Server) handleDeleteAssistant(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "assistant_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assistants[id]
	if !ok {
		notFound(w, "assistant")
		return
	}
	if a.IsDefault {
		writeError(w, http.StatusForbidden, "PermissionDenied", "cannot delete the default assistant")
		return
	}
	delete(s.assistants, id)
	for i, aid := range s.assistantOrder {
		if aid == id {
			s.assistantOrder = append(s.assistantOrder[:i], s.assistantOrder[i+1:]...)
			break
		}
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

// --- User settings ---

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.UserSetting, 0, len(s.settings))
	for _, v := range s.settings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	writeJSON(w, out)
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	user := s.requestUser(r)
	var req struct {
		Key   string          `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	setting, ok := s.settings[req.Key]
	if !ok {
		setting = api.UserSetting{
			ID:        uuid.New(),
			UserID:    user.ID,
			Key:       req.Key,
			CreatedAt: now,
		}
	}
	setting.Value = req.Value
	setting.UpdatedAt = now
	s.settings[req.Key] = setting
	writeJSON(w, setting)
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.mu.Lock()
	defer s.mu.Unlock()
	setting, ok := s.settings[key]
	if !ok {
		notFound(w, "setting")
		return
	}
	writeJSON(w, setting)
}

func (s *Server) handleDeleteSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings[key]; !ok {
		notFound(w, "setting")
		return
	}
	delete(s.settings, key)
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteAllSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = make(map[string]api.UserSetting)
	writeJSON(w, map[string]string{"status": "deleted"})
}

// --- Admin: providers and models ---

func (s *Server) handleAdminListProviders(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.Provider, 0, len(s.providerOrder))
	for _, id := range s.providerOrder {
		all = append(all, *s.providers[id])
	}
	writeJSON(w, api.ProviderList{
		Providers: pageOf(all, page, perPage),
		Total:     int64(len(all)),
		Page:      page,
		PerPage:   perPage,
	})
}

func (s *Server) handleAdminCreateProvider(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProviderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p := api.Provider{
		ID:            uuid.New(),
		Name:          req.Name,
		Type:          req.Type,
		Enabled:       true,
		APIKey:        req.APIKey,
		BaseURL:       req.BaseURL,
		ProxySettings: req.ProxySettings,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}
	s.providers[p.ID] = &p
	s.providerOrder = append(s.providerOrder, p.ID)
	writeJSON(w, p)
}

func (s *Server) handleAdminGetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		notFound(w, "provider")
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleAdminUpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	var req api.UpdateProviderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		notFound(w, "provider")
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}
	if req.APIKey != nil {
		p.APIKey = req.APIKey
	}
	if req.BaseURL != nil {
		p.BaseURL = req.BaseURL
	}
	if req.ProxySettings != nil {
		p.ProxySettings = req.ProxySettings
	}
	p.UpdatedAt = time.Now().UTC()
	writeJSON(w, p)
}

func (s *Server) handleAdminDeleteProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		notFound(w, "provider")
		return
	}
	if p.BuiltIn {
		writeError(w, http.StatusForbidden, "PermissionDenied", "cannot delete a built-in provider")
		return
	}
	delete(s.providers, id)
	for i, pid := range s.providerOrder {
		if pid == id {
			s.providerOrder = append(s.providerOrder[:i], s.providerOrder[i+1:]...)
			break
		}
	}
	kept := s.modelOrder[:0]
	for _, mid := range s.modelOrder {
		if s.models[mid].ProviderID == id {
			delete(s.models, mid)
			continue
		}
		kept = append(kept, mid)
	}
	s.modelOrder = kept
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminCloneProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.providers[id]
	if !ok {
		notFound(w, "provider")
		return
	}
	now := time.Now().UTC()
	clone := *src
	clone.ID = uuid.New()
	clone.Name = src.Name + " (Copy)"
	clone.BuiltIn = false
	clone.CreatedAt = now
	clone.UpdatedAt = now
	s.providers[clone.ID] = &clone
	s.providerOrder = append(s.providerOrder, clone.ID)

	for _, mid := range append([]uuid.UUID(nil), s.modelOrder...) {
		orig := s.models[mid]
		if orig.ProviderID != id {
			continue
		}
		m := *orig
		m.ID = uuid.New()
		m.ProviderID = clone.ID
		m.CreatedAt = now
		m.UpdatedAt = now
		s.models[m.ID] = &m
		s.modelOrder = append(s.modelOrder, m.ID)
	}
	writeJSON(w, clone)
}

func (s *Server) handleAdminTestProxy(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[id]; !ok {
		notFound(w, "provider")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAdminCreateModel(w http.ResponseWriter, r *http.Request) {
	providerID, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	var req api.CreateModelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[providerID]; !ok {
		notFound(w, "provider")
		return
	}
	now := time.Now().UTC()
	m := api.Model{
		ID:           uuid.New(),
		ProviderID:   providerID,
		Name:         req.Name,
		Alias:        req.Alias,
		Description:  req.Description,
		Enabled:      true,
		IsActive:     true,
		Capabilities: req.Capabilities,
		Parameters:   req.Parameters,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Enabled != nil {
		m.Enabled = *req.Enabled
	}
	s.models[m.ID] = &m
	s.modelOrder = append(s.modelOrder, m.ID)
	writeJSON(w, m)
}

func (s *Server) handleAdminGetModel(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "model_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	if !ok {
		notFound(w, "model")
		return
	}
	writeJSON(w, m)
}

func (s *Server) handleAdminUpdateModel(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "model_id")
	if !ok {
		return
	}
	var req api.UpdateModelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[id]
	if !ok {
		notFound(w, "model")
		return
	}
	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Alias != nil {
		m.Alias = *req.Alias
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.Enabled != nil {
		m.Enabled = *req.Enabled
	}
	if req.Capabilities != nil {
		m.Capabilities = req.Capabilities
	}
	if req.Parameters != nil {
		m.Parameters = req.Parameters
	}
	m.UpdatedAt = time.Now().UTC()
	writeJSON(w, m)
}

func (s *Server) handleAdminDeleteModel(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "model_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[id]; !ok {
		notFound(w, "model")
		return
	}
	delete(s.models, id)
	s.modelOrder = withoutID(s.modelOrder, id)
	writeJSON(w, map[string]string{"status": "deleted"})
}

// --- Hub ---

func (s *Server) hubDataLocked() api.HubData {
	return api.HubData{
		Assistants: []json.RawMessage{json.RawMessage(`{"name":"Hub Assistant"}`)},
		Models:     []json.RawMessage{json.RawMessage(`{"name":"hub-model"}`)},
		HubVersion: s.hubVersion,
	}
}

func (s *Server) handleHubData(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.hubDataLocked())
}

func (s *Server) handleHubRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, err := strconv.Atoi(s.hubVersion); err == nil {
		s.hubVersion = strconv.Itoa(v + 1)
	}
	data := s.hubDataLocked()
	updated := time.Now().UTC().Format(time.RFC3339)
	data.LastUpdate = &updated
	writeJSON(w, data)
}

func (s *Server) handleHubVersion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, api.HubVersion{HubVersion: s.hubVersion})
}
