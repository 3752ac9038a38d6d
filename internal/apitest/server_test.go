package apitest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ziee-ai/ziee-go/internal/api"
)

type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), t != "" }

func newTestClient(t *testing.T) (*Server, *api.Client) {
	t.Helper()
	fake := New()
	srv := httptest.NewServer(fake.Router())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, api.WithTokenSource(staticToken(fake.IssueToken())))
	return fake, client
}

func TestLogin(t *testing.T) {
	fake := New()
	srv := httptest.NewServer(fake.Router())
	defer srv.Close()
	client := api.NewClient(srv.URL)

	sess, err := client.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.Token == "" {
		t.Error("Login() returned empty token")
	}
	if sess.User.Username != "admin" {
		t.Errorf("Login() user = %q, want %q", sess.User.Username, "admin")
	}

	if _, err := client.Login(context.Background(), "admin", "wrong"); !api.IsUnauthorized(err) {
		t.Errorf("Login() with bad password error = %v, want unauthorized", err)
	}
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	fake := New()
	srv := httptest.NewServer(fake.Router())
	defer srv.Close()
	client := api.NewClient(srv.URL)

	if _, err := client.ListConversations(context.Background(), 1, 20); !api.IsUnauthorized(err) {
		t.Errorf("ListConversations() error = %v, want unauthorized", err)
	}
}

func TestConversationLifecycle(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{Title: "greetings"})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if conv.ActiveBranchID == nil {
		t.Fatal("CreateConversation() returned no active branch")
	}

	list, err := client.ListConversations(ctx, 1, 20)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if list.Total != 1 || len(list.Conversations) != 1 {
		t.Fatalf("ListConversations() total = %d, len = %d, want 1, 1", list.Total, len(list.Conversations))
	}
	if list.Conversations[0].Title != "greetings" {
		t.Errorf("listed title = %q, want %q", list.Conversations[0].Title, "greetings")
	}

	title := "renamed"
	updated, err := client.UpdateConversation(ctx, conv.ID, api.UpdateConversationRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateConversation() error = %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("updated title = %q, want %q", updated.Title, "renamed")
	}

	if err := client.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if _, err := client.GetConversation(ctx, conv.ID); !api.IsNotFound(err) {
		t.Errorf("GetConversation() after delete error = %v, want not found", err)
	}
}

func TestSendMessageStream(t *testing.T) {
	fake, client := newTestClient(t)
	fake.ChunkScript = []string{"stream", "ed ", "reply"}
	ctx := context.Background()

	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}

	var (
		chunks    []string
		title     string
		completed bool
	)
	err = client.SendMessage(ctx, api.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        "hi",
		ModelID:        fake.Models[0].ID,
	}, api.ChatStreamHandlers{
		ContentChunk: func(e api.ContentChunkEvent) { chunks = append(chunks, e.Delta) },
		TitleUpdated: func(e api.TitleUpdatedEvent) { title = e.Title },
		Complete:     func() { completed = true },
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got := strings.Join(chunks, ""); got != "streamed reply" {
		t.Errorf("streamed content = %q, want %q", got, "streamed reply")
	}
	if title == "" {
		t.Error("no title event for an untitled conversation")
	}
	if !completed {
		t.Error("complete event not delivered")
	}

	msgs, err := client.BranchMessages(ctx, conv.ID, *conv.ActiveBranchID)
	if err != nil {
		t.Fatalf("BranchMessages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("BranchMessages() len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %q, %q, want user, assistant", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != "streamed reply" {
		t.Errorf("stored reply = %q, want %q", msgs[1].Content, "streamed reply")
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	fake, client := newTestClient(t)

	err := client.SendMessage(context.Background(), api.SendMessageRequest{
		ConversationID: fake.Admin.ID, // any id that is not a conversation
		Content:        "hi",
	}, api.ChatStreamHandlers{})
	if !api.IsNotFound(err) {
		t.Errorf("SendMessage() error = %v, want not found", err)
	}
}

func TestEditMessageForksBranch(t *testing.T) {
	fake, client := newTestClient(t)
	ctx := context.Background()

	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{Title: "t"})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	var userMsg api.NewMessageEvent
	err = client.SendMessage(ctx, api.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        "original",
		ModelID:        fake.Models[0].ID,
	}, api.ChatStreamHandlers{
		NewUserMessage: func(e api.NewMessageEvent) { userMsg = e },
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	var (
		edited  *api.Message
		branch  *api.MessageBranch
		chunked bool
	)
	err = client.EditMessage(ctx, userMsg.MessageID, "rewritten", api.ChatStreamHandlers{
		EditedMessage: func(m api.Message) { edited = &m },
		CreatedBranch: func(b api.MessageBranch) { branch = &b },
		ContentChunk:  func(api.ContentChunkEvent) { chunked = true },
	})
	if err != nil {
		t.Fatalf("EditMessage() error = %v", err)
	}
	if edited == nil || edited.Content != "rewritten" {
		t.Fatalf("edited message = %+v, want content %q", edited, "rewritten")
	}
	if edited.EditCount == nil || *edited.EditCount != 1 {
		t.Errorf("edit count = %v, want 1", edited.EditCount)
	}
	if branch == nil || !branch.IsClone {
		t.Fatalf("created branch = %+v, want a clone branch", branch)
	}
	if !chunked {
		t.Error("edit stream delivered no content chunks")
	}

	branches, err := client.MessageBranches(ctx, userMsg.MessageID)
	if err != nil {
		t.Fatalf("MessageBranches() error = %v", err)
	}
	if len(branches) != 2 {
		t.Errorf("MessageBranches() len = %d, want 2", len(branches))
	}

	got, err := client.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if got.ActiveBranchID == nil || *got.ActiveBranchID != branch.ID {
		t.Errorf("active branch = %v, want %v", got.ActiveBranchID, branch.ID)
	}
}

func TestUploadStoreAndDownload(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()
	content := []byte("plain text payload")

	var final api.FileProgress
	uploaded, err := client.UploadFiles(ctx, []api.UploadFile{{
		ID:     "f1",
		Name:   "notes.txt",
		Reader: bytes.NewReader(content),
		Size:   int64(len(content)),
	}}, api.UploadCallbacks{
		OnProgress: func(p api.FileProgress) { final = p },
	})
	if err != nil {
		t.Fatalf("UploadFiles() error = %v", err)
	}
	if uploaded.File.Filename != "notes.txt" {
		t.Errorf("uploaded filename = %q, want %q", uploaded.File.Filename, "notes.txt")
	}
	if uploaded.File.FileSize != int64(len(content)) {
		t.Errorf("uploaded size = %d, want %d", uploaded.File.FileSize, len(content))
	}
	if uploaded.File.Checksum == nil || *uploaded.File.Checksum == "" {
		t.Error("uploaded file has no checksum")
	}
	if final.Percent != 100 || final.Status != api.UploadCompleted {
		t.Errorf("final progress = %+v, want completed at 100", final)
	}

	meta, err := client.GetFile(ctx, uploaded.File.ID)
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if meta.MimeType == nil || !strings.HasPrefix(*meta.MimeType, "text/plain") {
		t.Errorf("mime type = %v, want text/plain", meta.MimeType)
	}

	blob, _, err := client.DownloadFile(ctx, uploaded.File.ID)
	if err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}
	if !bytes.Equal(blob, content) {
		t.Errorf("downloaded %q, want %q", blob, content)
	}

	if err := client.DeleteFile(ctx, uploaded.File.ID); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if _, err := client.GetFile(ctx, uploaded.File.ID); !api.IsNotFound(err) {
		t.Errorf("GetFile() after delete error = %v, want not found", err)
	}
}

func TestRAGInstanceFlow(t *testing.T) {
	fake, client := newTestClient(t)
	ctx := context.Background()

	providers, err := client.ListRAGProviders(ctx)
	if err != nil {
		t.Fatalf("ListRAGProviders() error = %v", err)
	}
	if len(providers) != 1 || providers[0].ID != fake.RAGProvider.ID {
		t.Fatalf("ListRAGProviders() = %+v, want the seeded provider", providers)
	}

	inst, err := client.CreateRAGInstance(ctx, fake.RAGProvider.ID, api.CreateRAGInstanceRequest{
		Name:  "Docs",
		Alias: "docs",
	})
	if err != nil {
		t.Fatalf("CreateRAGInstance() error = %v", err)
	}
	if inst.EngineType != fake.RAGProvider.Type {
		t.Errorf("engine type = %q, want %q", inst.EngineType, fake.RAGProvider.Type)
	}

	got, err := client.GetRAGInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetRAGInstance() error = %v", err)
	}
	if got.Name != "Docs" || got.Alias != "docs" {
		t.Errorf("GetRAGInstance() = %s/%s, want Docs/docs", got.Name, got.Alias)
	}

	doc := []byte("indexed document")
	if _, err := client.UploadRAGFiles(ctx, inst.ID, []api.UploadFile{{
		ID:     "d1",
		Name:   "doc.txt",
		Reader: bytes.NewReader(doc),
		Size:   int64(len(doc)),
	}}, api.UploadCallbacks{}); err != nil {
		t.Fatalf("UploadRAGFiles() error = %v", err)
	}

	files, err := client.ListRAGFiles(ctx, inst.ID, 1, 20)
	if err != nil {
		t.Fatalf("ListRAGFiles() error = %v", err)
	}
	if files.Total != 1 {
		t.Fatalf("ListRAGFiles() total = %d, want 1", files.Total)
	}

	if err := client.DeleteRAGFile(ctx, inst.ID, files.Files[0].ID); err != nil {
		t.Fatalf("DeleteRAGFile() error = %v", err)
	}
	if err := client.DeleteRAGInstance(ctx, inst.ID); err != nil {
		t.Fatalf("DeleteRAGInstance() error = %v", err)
	}
	if _, err := client.GetRAGInstance(ctx, inst.ID); !api.IsNotFound(err) {
		t.Errorf("GetRAGInstance() after delete error = %v, want not found", err)
	}
}

func TestProjectLinksAndCounts(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	project, err := client.CreateProject(ctx, api.CreateProjectRequest{Name: "research"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{Title: "notes"})
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if err := client.LinkConversation(ctx, project.ID, conv.ID); err != nil {
		t.Fatalf("LinkConversation() error = %v", err)
	}

	data := []byte("project file")
	if _, err := client.UploadProjectFile(ctx, project.ID, []api.UploadFile{{
		ID:     "p1",
		Name:   "plan.txt",
		Reader: bytes.NewReader(data),
		Size:   int64(len(data)),
	}}, api.UploadCallbacks{}); err != nil {
		t.Fatalf("UploadProjectFile() error = %v", err)
	}

	got, err := client.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if got.ConversationCount == nil || *got.ConversationCount != 1 {
		t.Errorf("conversation count = %v, want 1", got.ConversationCount)
	}
	if got.DocumentCount == nil || *got.DocumentCount != 1 {
		t.Errorf("document count = %v, want 1", got.DocumentCount)
	}

	files, err := client.ListProjectFiles(ctx, project.ID, 1, 20)
	if err != nil {
		t.Fatalf("ListProjectFiles() error = %v", err)
	}
	if files.Total != 1 || files.Files[0].ProjectID == nil || *files.Files[0].ProjectID != project.ID {
		t.Fatalf("ListProjectFiles() = %+v, want one file owned by the project", files)
	}

	if err := client.UnlinkConversation(ctx, project.ID, conv.ID); err != nil {
		t.Fatalf("UnlinkConversation() error = %v", err)
	}
	got, err = client.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if *got.ConversationCount != 0 {
		t.Errorf("conversation count after unlink = %d, want 0", *got.ConversationCount)
	}
}

func TestAdminGroupProviderAssignment(t *testing.T) {
	fake, client := newTestClient(t)
	ctx := context.Background()

	group, err := client.AdminCreateGroup(ctx, api.CreateGroupRequest{
		Name:        "analysts",
		Permissions: []string{"chat::use"},
	})
	if err != nil {
		t.Fatalf("AdminCreateGroup() error = %v", err)
	}

	if err := client.AdminAssignUserToGroup(ctx, fake.Admin.ID, group.ID); err != nil {
		t.Fatalf("AdminAssignUserToGroup() error = %v", err)
	}
	members, err := client.AdminGroupMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("AdminGroupMembers() error = %v", err)
	}
	if len(members) != 1 || members[0].ID != fake.Admin.ID {
		t.Fatalf("AdminGroupMembers() = %+v, want the admin", members)
	}

	if err := client.AdminAssignProviderToGroup(ctx, group.ID, fake.Provider.ID); err != nil {
		t.Fatalf("AdminAssignProviderToGroup() error = %v", err)
	}
	groupProviders, err := client.AdminGroupProviders(ctx, group.ID)
	if err != nil {
		t.Fatalf("AdminGroupProviders() error = %v", err)
	}
	if len(groupProviders) != 1 || groupProviders[0].ID != fake.Provider.ID {
		t.Fatalf("AdminGroupProviders() = %+v, want the seeded provider", groupProviders)
	}

	if err := client.AdminRemoveUserFromGroup(ctx, fake.Admin.ID, group.ID); err != nil {
		t.Fatalf("AdminRemoveUserFromGroup() error = %v", err)
	}
	members, err = client.AdminGroupMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("AdminGroupMembers() error = %v", err)
	}
	if len(members) != 0 {
		t.Errorf("AdminGroupMembers() after removal = %+v, want none", members)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	set, err := client.SetSetting(ctx, "theme", "dark")
	if err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if string(set.Value) != `"dark"` {
		t.Errorf("stored value = %s, want %q", set.Value, `"dark"`)
	}

	got, err := client.GetSetting(ctx, "theme")
	if err != nil {
		t.Fatalf("GetSetting() error = %v", err)
	}
	if got.ID != set.ID {
		t.Errorf("GetSetting() id = %v, want %v", got.ID, set.ID)
	}

	if err := client.DeleteSetting(ctx, "theme"); err != nil {
		t.Fatalf("DeleteSetting() error = %v", err)
	}
	if _, err := client.GetSetting(ctx, "theme"); !api.IsNotFound(err) {
		t.Errorf("GetSetting() after delete error = %v, want not found", err)
	}
}

func TestHubRefreshBumpsVersion(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	before, err := client.GetHubVersion(ctx)
	if err != nil {
		t.Fatalf("GetHubVersion() error = %v", err)
	}
	refreshed, err := client.RefreshHub(ctx)
	if err != nil {
		t.Fatalf("RefreshHub() error = %v", err)
	}
	if refreshed.HubVersion == before.HubVersion {
		t.Errorf("RefreshHub() version = %q, want a bump from %q", refreshed.HubVersion, before.HubVersion)
	}
	if refreshed.LastUpdate == nil {
		t.Error("RefreshHub() returned no last_update")
	}
}

func TestProviderModelCatalog(t *testing.T) {
	fake, client := newTestClient(t)
	ctx := context.Background()

	providers, err := client.ListProviders(ctx)
	if err != nil {
		t.Fatalf("ListProviders() error = %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("ListProviders() len = %d, want 1", len(providers))
	}
	if providers[0].APIKey != nil {
		t.Error("ListProviders() leaked an API key outside the admin surface")
	}

	models, err := client.ListProviderModels(ctx, fake.Provider.ID)
	if err != nil {
		t.Fatalf("ListProviderModels() error = %v", err)
	}
	if len(models) != len(fake.Models) {
		t.Errorf("ListProviderModels() len = %d, want %d", len(models), len(fake.Models))
	}
}
