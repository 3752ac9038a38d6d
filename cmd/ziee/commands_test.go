package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ziee-ai/ziee-go/internal/api"
	"github.com/ziee-ai/ziee-go/internal/apitest"
	"github.com/ziee-ai/ziee-go/internal/session"
	"github.com/ziee-ai/ziee-go/internal/transcript"
)

var ctx = context.Background()

func newFakeClient(t *testing.T) (*api.Client, *apitest.Server) {
	t.Helper()
	fake := apitest.New()
	srv := httptest.NewServer(fake.Router())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, api.WithTokenSource(staticToken(fake.IssueToken())))
	return client, fake
}

func TestResolveModelRef(t *testing.T) {
	client, fake := newFakeClient(t)

	byAlias, err := resolveModelRef(ctx, client, strings.ToUpper(fake.Models[1].Alias))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byAlias != fake.Models[1].ID {
		t.Errorf("by alias = %s, want %s", byAlias, fake.Models[1].ID)
	}

	byID, err := resolveModelRef(ctx, client, fake.Models[0].ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID != fake.Models[0].ID {
		t.Errorf("by id = %s, want %s", byID, fake.Models[0].ID)
	}

	first, err := resolveModelRef(ctx, client, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != fake.Models[0].ID {
		t.Errorf("default = %s, want first model %s", first, fake.Models[0].ID)
	}

	if _, err := resolveModelRef(ctx, client, "no-such-model"); err == nil {
		t.Fatal("expected error for unknown model reference")
	}
}

func TestStreamReply(t *testing.T) {
	client, fake := newFakeClient(t)
	fake.ChunkScript = []string{"Hel", "lo ", "CLI"}

	modelID := fake.Models[0].ID
	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{Title: "stream test", ModelID: &modelID})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	var out bytes.Buffer
	reply, title, err := streamReply(ctx, client, &out, api.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        "hi",
		Role:           "user",
		ModelID:        modelID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hello CLI" {
		t.Errorf("reply = %q, want %q", reply, "Hello CLI")
	}
	if title != "" {
		t.Errorf("title = %q, want empty for a titled conversation", title)
	}
	if got := out.String(); got != "Hello CLI\n" {
		t.Errorf("stream output = %q, want %q", got, "Hello CLI\n")
	}
}

func TestChatOnce_RecordsTranscript(t *testing.T) {
	client, fake := newFakeClient(t)

	modelID := fake.Models[0].ID
	conv, err := client.CreateConversation(ctx, api.CreateConversationRequest{ModelID: &modelID})
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	recorder, err := transcript.Open(":memory:")
	if err != nil {
		t.Fatalf("open transcript store: %v", err)
	}
	defer recorder.Close()

	// os.Stdout noise is fine here; the assertions read the store.
	if err := chatOnce(ctx, client, recorder, conv.ID, modelID, "hello there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	messages, err := recorder.Messages(conv.ID.String())
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content != "hello there" {
		t.Errorf("first message = %s %q", messages[0].Role, messages[0].Content)
	}
	if messages[1].Role != "assistant" || messages[1].Content != "Hello there" {
		t.Errorf("second message = %s %q", messages[1].Role, messages[1].Content)
	}

	// An untitled conversation gets its generated title recorded too.
	recorded, err := recorder.GetConversation(conv.ID.String())
	if err != nil {
		t.Fatalf("reading conversation: %v", err)
	}
	if recorded.Title != "New chat" {
		t.Errorf("recorded title = %q, want %q", recorded.Title, "New chat")
	}
}

func TestUploadPaths_Concurrent(t *testing.T) {
	client, _ := newFakeClient(t)

	dir := t.TempDir()
	paths := make([]string, 3)
	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(strings.Repeat("x", (i+1)*100)), 0o644); err != nil {
			t.Fatal(err)
		}
		paths[i] = p
	}

	files, err := uploadPaths(ctx, client, uploadOptions{paths: paths, concurrency: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 uploaded files, got %d", len(files))
	}
	for i, f := range files {
		wantName := filepath.Base(paths[i])
		if f.Filename != wantName {
			t.Errorf("file %d name = %q, want %q", i, f.Filename, wantName)
		}
		if f.FileSize != int64((i+1)*100) {
			t.Errorf("file %d size = %d, want %d", i, f.FileSize, (i+1)*100)
		}
		stored, err := client.GetFile(ctx, f.ID)
		if err != nil {
			t.Errorf("file %d not retrievable: %v", i, err)
		} else if stored.Filename != wantName {
			t.Errorf("stored name = %q, want %q", stored.Filename, wantName)
		}
	}
}

func TestUploadPaths_Project(t *testing.T) {
	client, _ := newFakeClient(t)

	project, err := client.CreateProject(ctx, api.CreateProjectRequest{Name: "docs"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	path := filepath.Join(t.TempDir(), "readme.md")
	if err := os.WriteFile(path, []byte("# readme"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := uploadPaths(ctx, client, uploadOptions{paths: []string{path}, projectID: &project.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, err := client.ListProjectFiles(ctx, project.ID, 1, 10)
	if err != nil {
		t.Fatalf("list project files: %v", err)
	}
	if len(list.Files) != 1 || list.Files[0].Filename != "readme.md" {
		t.Errorf("project files = %+v, want one readme.md", list.Files)
	}
}

func TestOpenUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("some notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	uf, cleanup, err := openUpload(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	if uf.Name != "notes.txt" {
		t.Errorf("name = %q, want notes.txt", uf.Name)
	}
	if uf.Size != int64(len("some notes")) {
		t.Errorf("size = %d, want %d", uf.Size, len("some notes"))
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(uf.Reader); err != nil {
		t.Fatalf("reading upload: %v", err)
	}
	if buf.String() != "some notes" {
		t.Errorf("content = %q, want %q", buf.String(), "some notes")
	}
}

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)

	for _, pct := range []int{3, 20, 26, 30, 51, 99} {
		p.update(api.FileProgress{FileID: "f1", Filename: "a.txt", Percent: pct, Status: api.UploadUploading})
	}
	p.update(api.FileProgress{FileID: "f1", Filename: "a.txt", Percent: 100, Status: api.UploadCompleted})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	want := []string{"25%  a.txt", "50%  a.txt", "75%  a.txt", "done  a.txt"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, w := range want {
		if !strings.Contains(lines[i], w) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], w)
		}
	}
}

func TestRagQueryMatches(t *testing.T) {
	client, fake := newFakeClient(t)

	seedIndex := func(name string, filenames ...string) uuid.UUID {
		t.Helper()
		inst, err := client.CreateRAGInstance(ctx, fake.RAGProvider.ID, api.CreateRAGInstanceRequest{Name: name, Alias: name})
		if err != nil {
			t.Fatalf("create index %s: %v", name, err)
		}
		for _, fn := range filenames {
			uf := api.UploadFile{ID: fn, Name: fn, Reader: strings.NewReader("data"), Size: 4}
			if _, err := client.UploadRAGFiles(ctx, inst.ID, []api.UploadFile{uf}, api.UploadCallbacks{}); err != nil {
				t.Fatalf("upload %s: %v", fn, err)
			}
		}
		return inst.ID
	}

	seedIndex("papers", "go-generics.pdf", "rust-notes.md")
	seedIndex("recipes", "pasta.txt")

	// Filename match: only the matching document surfaces.
	matches, err := ragQueryMatches(ctx, client, "go", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].file == nil || matches[0].file.Filename != "go-generics.pdf" {
		t.Errorf("match = %+v, want go-generics.pdf", matches[0])
	}
	if matches[0].instance.Name != "papers" {
		t.Errorf("instance = %q, want papers", matches[0].instance.Name)
	}

	// Index name match surfaces every document in it.
	matches, err = ragQueryMatches(ctx, client, "papers", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	// The limit truncates.
	matches, err = ragQueryMatches(ctx, client, "papers", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match with limit 1, got %d", len(matches))
	}
}

func TestSaveAndClearSession(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZIEE_STORAGE_DATA_DIR", dir)

	sess := &api.AuthSession{Token: "tok-123"}
	sess.User.Username = "casey"

	if err := saveSession(sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := session.Open(filepath.Join(dir, "session.json"))
	token, ok := store.Token()
	if !ok || token != "tok-123" {
		t.Errorf("token = %q ok=%t, want tok-123 true", token, ok)
	}
	if !strings.Contains(string(store.User()), "casey") {
		t.Errorf("user snapshot = %s, want it to mention casey", store.User())
	}

	if err := clearSession(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store = session.Open(filepath.Join(dir, "session.json"))
	if _, ok := store.Token(); ok {
		t.Error("expected no token after clearSession")
	}
}

func TestFilesUpload_MissingArgs(t *testing.T) {
	defer rootCmd.SetArgs(nil)

	rootCmd.SetArgs([]string{"files", "upload"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing args")
	}
	if !strings.Contains(err.Error(), "arg") {
		t.Errorf("error = %q, want it to mention missing args", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestCountLabel(t *testing.T) {
	tests := []struct {
		count, limit int
		want         string
	}{
		{5, 100, "5"},
		{0, 100, "0"},
		{100, 100, "100+"},
		{150, 100, "150+"},
	}
	for _, tt := range tests {
		got := countLabel(tt.count, tt.limit)
		if got != tt.want {
			t.Errorf("countLabel(%d, %d) = %q, want %q", tt.count, tt.limit, got, tt.want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		got := formatSize(tt.n)
		if got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
