package apitest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ziee-ai/ziee-go/internal/api"
)

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, api.InitStatus{NeedsSetup: s.needsSetup})
}

func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.needsSetup {
		writeError(w, http.StatusConflict, "AlreadyInitialized", "server is already set up")
		return
	}
	s.needsSetup = false
	user := s.addUserLocked(req.Username, req.Email)
	s.Password = req.Password
	writeJSON(w, api.AuthSession{
		Token:     s.issueTokenLocked(user.ID),
		User:      *user,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UsernameOrEmail string `json:"username_or_email"`
		Password        string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.findUserLocked(req.UsernameOrEmail)
	if user == nil || req.Password != s.Password {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	now := time.Now().UTC()
	user.LastLoginAt = &now
	writeJSON(w, api.AuthSession{
		Token:     s.issueTokenLocked(user.ID),
		User:      *user,
		ExpiresAt: now.Add(24 * time.Hour),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.registration {
		writeError(w, http.StatusForbidden, "PermissionDenied", "registration is disabled")
		return
	}
	if s.findUserLocked(req.Username) != nil {
		writeError(w, http.StatusConflict, "Conflict", "username %q is taken", req.Username)
		return
	}
	user := s.addUserLocked(req.Username, req.Email)
	writeJSON(w, api.AuthSession{
		Token:     s.issueTokenLocked(user.ID),
		User:      *user,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")[len("Bearer "):]
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	writeJSON(w, map[string]string{"status": "logged_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.requestUser(r))
}

func (s *Server) findUserLocked(usernameOrEmail string) *api.User {
	for _, u := range s.users {
		if u.Username == usernameOrEmail {
			return u
		}
		for _, e := range u.Emails {
			if e.Address == usernameOrEmail {
				return u
			}
		}
	}
	return nil
}

func (s *Server) addUserLocked(username, email string) *api.User {
	now := time.Now().UTC()
	user := api.User{
		ID:        uuid.New(),
		Username:  username,
		Emails:    []api.UserEmail{{Address: email, Verified: true}},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		Groups:    []api.UserGroup{},
	}
	s.users[user.ID] = &user
	return &user
}

// --- Public config ---

func (s *Server) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, api.RegistrationStatus{Enabled: s.registration})
}

func (s *Server) handleDefaultLanguage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, api.DefaultLanguage{Language: s.language})
}

// --- Admin: users ---

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, *u)
	}
	writeJSON(w, api.UserList{
		Users:   pageOf(all, page, perPage),
		Total:   int64(len(all)),
		Page:    page,
		PerPage: perPage,
	})
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		notFound(w, "user")
		return
	}
	writeJSON(w, u)
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	var req api.UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		notFound(w, "user")
		return
	}
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Emails = []api.UserEmail{{Address: *req.Email, Verified: false}}
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	if req.Profile != nil {
		u.Profile = req.Profile
	}
	u.UpdatedAt = time.Now().UTC()
	writeJSON(w, u)
}

func (s *Server) handleAdminToggleUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		notFound(w, "user")
		return
	}
	if u.IsProtected {
		writeError(w, http.StatusForbidden, "PermissionDenied", "cannot deactivate a protected user")
		return
	}
	u.IsActive = !u.IsActive
	u.UpdatedAt = time.Now().UTC()
	writeJSON(w, u)
}

func (s *Server) handleAdminResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      uuid.UUID `json:"user_id"`
		NewPassword string    `json:"new_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.UserID]; !ok {
		notFound(w, "user")
		return
	}
	s.Password = req.NewPassword
	writeJSON(w, map[string]string{"status": "password_reset"})
}

// --- Admin: groups ---

func (s *Server) handleAdminListGroups(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.UserGroup, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		all = append(all, *s.groups[id])
	}
	writeJSON(w, api.UserGroupList{
		Groups:  pageOf(all, page, perPage),
		Total:   int64(len(all)),
		Page:    page,
		PerPage: perPage,
	})
}

func (s *Server) handleAdminCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	g := api.UserGroup{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		ProviderIDs: req.ProviderIDs,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if g.Permissions == nil {
		g.Permissions = []string{}
	}
	if g.ProviderIDs == nil {
		g.ProviderIDs = []uuid.UUID{}
	}
	s.groups[g.ID] = &g
	s.groupOrder = append(s.groupOrder, g.ID)
	writeJSON(w, g)
}

func (s *Server) handleAdminGetGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		notFound(w, "group")
		return
	}
	writeJSON(w, g)
}

func (s *Server) handleAdminUpdateGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}
	var req api.UpdateGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		notFound(w, "group")
		return
	}
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = req.Description
	}
	if req.Permissions != nil {
		g.Permissions = req.Permissions
	}
	if req.ProviderIDs != nil {
		g.ProviderIDs = req.ProviderIDs
	}
	if req.IsActive != nil {
		g.IsActive = *req.IsActive
	}
	g.UpdatedAt = time.Now().UTC()
	writeJSON(w, g)
}

func (s *Server) handleAdminDeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		notFound(w, "group")
		return
	}
	if g.IsProtected {
		writeError(w, http.StatusForbidden, "PermissionDenied", "cannot delete a protected group")
		return
	}
	delete(s.groups, id)
	for i, gid := range s.groupOrder {
		if gid == id {
			s.groupOrder = append(s.groupOrder[:i], s.groupOrder[i+1:]...)
			break
		}
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminGroupMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[id]; !ok {
		notFound(w, "group")
		return
	}
	out := []api.User{}
	for _, uid := range s.members[id] {
		if u, ok := s.users[uid]; ok {
			out = append(out, *u)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleAdminAssignUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  uuid.UUID `json:"user_id"`
		GroupID uuid.UUID `json:"group_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[req.GroupID]
	if !ok {
		notFound(w, "group")
		return
	}
	u, ok := s.users[req.UserID]
	if !ok {
		notFound(w, "user")
		return
	}
	for _, uid := range s.members[req.GroupID] {
		if uid == req.UserID {
			writeJSON(w, map[string]string{"status": "assigned"})
			return
		}
	}
	s.members[req.GroupID] = append(s.members[req.GroupID], req.UserID)
	u.Groups = append(u.Groups, *g)
	writeJSON(w, map[string]string{"status": "assigned"})
}

func (s *Server) handleAdminRemoveUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := uuidParam(w, r, "user_id")
	if !ok {
		return
	}
	groupID, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		notFound(w, "group")
		return
	}
	ids := s.members[groupID]
	for i, uid := range ids {
		if uid == userID {
			s.members[groupID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if u, ok := s.users[userID]; ok {
		kept := u.Groups[:0]
		for _, g := range u.Groups {
			if g.ID != groupID {
				kept = append(kept, g)
			}
		}
		u.Groups = kept
	}
	writeJSON(w, map[string]string{"status": "removed"})
}

func (s *Server) handleAdminGroupProviders(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		notFound(w, "group")
		return
	}
	out := []api.Provider{}
	for _, pid := range g.ProviderIDs {
		if p, ok := s.providers[pid]; ok {
			out = append(out, *p)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleAdminAssignProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID    uuid.UUID `json:"group_id"`
		ProviderID uuid.UUID `json:"provider_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[req.GroupID]
	if !ok {
		notFound(w, "group")
		return
	}
	if _, ok := s.providers[req.ProviderID]; !ok {
		notFound(w, "provider")
		return
	}
	for _, pid := range g.ProviderIDs {
		if pid == req.ProviderID {
			writeJSON(w, map[string]string{"status": "assigned"})
			return
		}
	}
	g.ProviderIDs = append(g.ProviderIDs, req.ProviderID)
	writeJSON(w, map[string]string{"status": "assigned"})
}

func (s *Server) handleAdminRemoveProvider(w http.ResponseWriter, r *http.Request) {
	groupID, ok := uuidParam(w, r, "group_id")
	if !ok {
		return
	}
	providerID, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		notFound(w, "group")
		return
	}
	kept := g.ProviderIDs[:0]
	for _, pid := range g.ProviderIDs {
		if pid != providerID {
			kept = append(kept, pid)
		}
	}
	g.ProviderIDs = kept
	writeJSON(w, map[string]string{"status": "removed"})
}

// --- Admin: instance config ---

func (s *Server) handleSetRegistration(w http.ResponseWriter, r *http.Request) {
	var req api.RegistrationStatus
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.registration = req.Enabled
	s.mu.Unlock()
	writeJSON(w, req)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req api.DefaultLanguage
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.language = req.Language
	s.mu.Unlock()
	writeJSON(w, req)
}

func (s *Server) handleGetProxy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.proxy)
}

func (s *Server) handleSetProxy(w http.ResponseWriter, r *http.Request) {
	var req api.ProxySettings
	if !decodeBody(w, r, &req) {
		return
	}
	s.mu.Lock()
	s.proxy = req
	s.mu.Unlock()
	writeJSON(w, req)
}
