package apitest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ziee-ai/ziee-go/internal/api"
)

// storeUpload reads every "file" part of a multipart request into memory and
// registers it. It writes the error response itself when it reports false.
func (s *Server) storeUpload(w http.ResponseWriter, r *http.Request, projectID *uuid.UUID) ([]api.File, bool) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid multipart form: %v", err)
		return nil, false
	}
	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "BadRequest", "no file parts in request")
		return nil, false
	}
	user := s.requestUser(r)

	var out []api.File
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ph := range parts {
		part, err := ph.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "opening part %s: %v", ph.Filename, err)
			return nil, false
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "BadRequest", "reading part %s: %v", ph.Filename, err)
			return nil, false
		}

		sum := sha256.Sum256(content)
		checksum := hex.EncodeToString(sum[:])
		mime := http.DetectContentType(content)
		now := time.Now().UTC()
		meta := api.File{
			ID:        uuid.New(),
			UserID:    user.ID,
			Filename:  ph.Filename,
			FileSize:  int64(len(content)),
			MimeType:  &mime,
			Checksum:  &checksum,
			ProjectID: projectID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.files[meta.ID] = &storedFile{meta: meta, content: content, mime: mime}
		out = append(out, meta)
	}
	return out, true
}

func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	files, ok := s.storeUpload(w, r, nil)
	if !ok {
		return
	}
	writeJSON(w, api.UploadedFile{File: files[0]})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		notFound(w, "file")
		return
	}
	writeJSON(w, f.meta)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		notFound(w, "file")
		return
	}
	delete(s.files, id)
	for iid, ids := range s.ragFiles {
		s.ragFiles[iid] = withoutID(ids, id)
	}
	for pid, ids := range s.projectFiles {
		s.projectFiles[pid] = withoutID(ids, id)
	}
	for mid, ids := range s.messageFiles {
		s.messageFiles[mid] = withoutID(ids, id)
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func withoutID(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	kept := ids[:0]
	for _, id := range ids {
		if id != drop {
			kept = append(kept, id)
		}
	}
	return kept
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	f, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		notFound(w, "file")
		return
	}
	w.Header().Set("Content-Type", f.mime)
	w.Write(f.content)
}

func (s *Server) handleDownloadToken(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, exists := s.files[id]
	s.mu.Unlock()
	if !exists {
		notFound(w, "file")
		return
	}
	writeJSON(w, api.DownloadToken{
		Token:     "download-" + uuid.NewString(),
		ExpiresAt: time.Now().UTC().Add(5 * time.Minute),
	})
}

// handleFilePreview serves the stored bytes as the preview; the fake does not
// render thumbnails.
func (s *Server) handleFilePreview(w http.ResponseWriter, r *http.Request) {
	s.handleDownloadFile(w, r)
}

func (s *Server) handleMessageFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []api.File{}
	for _, fid := range s.messageFiles[id] {
		if f, ok := s.files[fid]; ok {
			out = append(out, f.meta)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleUnlinkMessageFile(w http.ResponseWriter, r *http.Request) {
	fileID, ok := uuidParam(w, r, "file_id")
	if !ok {
		return
	}
	messageID, ok := uuidParam(w, r, "message_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageFiles[messageID] = withoutID(s.messageFiles[messageID], fileID)
	writeJSON(w, map[string]string{"status": "unlinked"})
}

// --- RAG ---

func (s *Server) handleRAGProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []api.RAGProvider{s.RAGProvider})
}

func (s *Server) handleRAGInstances(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.RAGInstance, 0, len(s.ragOrder))
	for _, id := range s.ragOrder {
		all = append(all, *s.instances[id])
	}
	writeJSON(w, api.RAGInstanceList{
		Instances: pageOf(all, page, perPage),
		Total:     int64(len(all)),
		Page:      page,
		PerPage:   perPage,
	})
}

func (s *Server) handleCreateRAGInstance(w http.ResponseWriter, r *http.Request) {
	providerID, ok := uuidParam(w, r, "provider_id")
	if !ok {
		return
	}
	var req api.CreateRAGInstanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if providerID != s.RAGProvider.ID {
		notFound(w, "rag provider")
		return
	}
	user := s.requestUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	inst := api.RAGInstance{
		ID:          uuid.New(),
		ProviderID:  providerID,
		UserID:      &user.ID,
		Name:        req.Name,
		Alias:       req.Alias,
		Description: req.Description,
		Enabled:     true,
		IsActive:    true,
		EngineType:  s.RAGProvider.Type,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.instances[inst.ID] = &inst
	s.ragOrder = append(s.ragOrder, inst.ID)
	writeJSON(w, inst)
}

func (s *Server) handleGetRAGInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "instance_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		notFound(w, "rag instance")
		return
	}
	writeJSON(w, inst)
}

func (s *Server) handleUpdateRAGInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "instance_id")
	if !ok {
		return
	}
	var req api.UpdateRAGInstanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		notFound(w, "rag instance")
		return
	}
	if req.Name != nil {
		inst.Name = *req.Name
	}
	if req.Description != nil {
		inst.Description = req.Description
	}
	if req.Enabled != nil {
		inst.Enabled = *req.Enabled
	}
	inst.UpdatedAt = time.Now().UTC()
	writeJSON(w, inst)
}

func (s *Server) handleDeleteRAGInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "instance_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		notFound(w, "rag instance")
		return
	}
	for _, fid := range s.ragFiles[id] {
		delete(s.files, fid)
	}
	delete(s.ragFiles, id)
	delete(s.instances, id)
	for i, iid := range s.ragOrder {
		if iid == id {
			s.ragOrder = append(s.ragOrder[:i], s.ragOrder[i+1:]...)
			break
		}
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleRAGFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "instance_id")
	if !ok {
		return
	}
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		notFound(w, "rag instance")
		return
	}
	all := []api.File{}
	for _, fid := range s.ragFiles[id] {
		if f, ok := s.files[fid]; ok {
			all = append(all, f.meta)
		}
	}
	writeJSON(w, api.RAGFileList{
		Files:   pageOf(all, page, perPage),
		Total:   int64(len(all)),
		Page:    page,
		PerPage: perPage,
	})
}

func (s *Server) handleUploadRAGFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "instance_id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, exists := s.instances[id]
	s.mu.Unlock()
	if !exists {
		notFound(w, "rag instance")
		return
	}

	files, ok := s.storeUpload(w, r, nil)
	if !ok {
		return
	}
	s.mu.Lock()
	for _, f := range files {
		s.ragFiles[id] = append(s.ragFiles[id], f.ID)
	}
	s.mu.Unlock()
	writeJSON(w, api.UploadedFile{File: files[0]})
}

func (s *Server) handleDeleteRAGFile(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "instance_id")
	if !ok {
		return
	}
	fileID, ok := uuidParam(w, r, "file_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		notFound(w, "rag instance")
		return
	}
	linked := false
	for _, fid := range s.ragFiles[id] {
		if fid == fileID {
			linked = true
			break
		}
	}
	if !linked {
		notFound(w, "file")
		return
	}
	s.ragFiles[id] = withoutID(s.ragFiles[id], fileID)
	delete(s.files, fileID)
	writeJSON(w, map[string]string{"status": "deleted"})
}

// --- Projects ---

func (s *Server) projectView(p *api.Project) api.Project {
	out := *p
	docs := int64(len(s.projectFiles[p.ID]))
	convs := int64(len(s.projectConvs[p.ID]))
	out.DocumentCount = &docs
	out.ConversationCount = &convs
	return out
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]api.Project, 0, len(s.projectOrder))
	for _, id := range s.projectOrder {
		all = append(all, s.projectView(s.projects[id]))
	}
	writeJSON(w, api.ProjectList{
		Projects: pageOf(all, page, perPage),
		Total:    int64(len(all)),
		Page:     page,
		PerPage:  perPage,
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	user := s.requestUser(r)
	var req api.CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p := api.Project{
		ID:          uuid.New(),
		UserID:      user.ID,
		Name:        req.Name,
		Description: req.Description,
		IsPrivate:   req.IsPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.projects[p.ID] = &p
	s.projectOrder = append(s.projectOrder, p.ID)
	writeJSON(w, s.projectView(&p))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "project_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		notFound(w, "project")
		return
	}
	writeJSON(w, s.projectView(p))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "project_id")
	if !ok {
		return
	}
	var req api.UpdateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		notFound(w, "project")
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.IsPrivate != nil {
		p.IsPrivate = *req.IsPrivate
	}
	p.UpdatedAt = time.Now().UTC()
	writeJSON(w, s.projectView(p))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "project_id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		notFound(w, "project")
		return
	}
	delete(s.projects, id)
	delete(s.projectConvs, id)
	delete(s.projectFiles, id)
	for i, pid := range s.projectOrder {
		if pid == id {
			s.projectOrder = append(s.projectOrder[:i], s.projectOrder[i+1:]...)
			break
		}
	}
	writeJSON(w, map[string]string{"status": "deleted"})
}

func (s *Server) handleLinkConversation(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "project_id")
	if !ok {
		return
	}
	convID, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		notFound(w, "project")
		return
	}
	if _, ok := s.convs[convID]; !ok {
		notFound(w, "conversation")
		return
	}
	for _, cid := range s.projectConvs[projectID] {
		if cid == convID {
			writeJSON(w, map[string]string{"status": "linked"})
			return
		}
	}
	s.projectConvs[projectID] = append(s.projectConvs[projectID], convID)
	writeJSON(w, map[string]string{"status": "linked"})
}

func (s *Server) handleUnlinkConversation(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "project_id")
	if !ok {
		return
	}
	convID, ok := uuidParam(w, r, "conversation_id")
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		notFound(w, "project")
		return
	}
	s.projectConvs[projectID] = withoutID(s.projectConvs[projectID], convID)
	writeJSON(w, map[string]string{"status": "unlinked"})
}

func (s *Server) handleUploadProjectFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	_, exists := s.projects[id]
	s.mu.Unlock()
	if !exists {
		notFound(w, "project")
		return
	}

	files, ok := s.storeUpload(w, r, &id)
	if !ok {
		return
	}
	s.mu.Lock()
	for _, f := range files {
		s.projectFiles[id] = append(s.projectFiles[id], f.ID)
	}
	s.mu.Unlock()
	writeJSON(w, api.UploadedFile{File: files[0]})
}

func (s *Server) handleListProjectFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	page := intQuery(r, "page", 1, 0)
	perPage := intQuery(r, "per_page", 20, 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		notFound(w, "project")
		return
	}
	all := []api.File{}
	for _, fid := range s.projectFiles[id] {
		if f, ok := s.files[fid]; ok {
			all = append(all, f.meta)
		}
	}
	writeJSON(w, api.FileList{
		Files:   pageOf(all, page, perPage),
		Total:   int64(len(all)),
		Page:    page,
		PerPage: perPage,
	})
}
