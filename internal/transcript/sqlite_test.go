package transcript

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) == 0 {
		t.Fatal("expected at least one applied migration")
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestAppendCreatesConversation(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AppendMessage(Message{
		ConversationID: "conv-1",
		Role:           "user",
		Content:        "hello",
		Model:          "gpt-test",
	})
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if id == 0 {
		t.Error("AppendMessage returned id 0")
	}

	c, err := s.GetConversation("conv-1")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if c.MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", c.MessageCount)
	}
	if c.Model != "gpt-test" {
		t.Errorf("Model = %q, want gpt-test", c.Model)
	}
}

func TestMessagesOrdered(t *testing.T) {
	s := openTestStore(t)

	contents := []string{"first", "second", "third"}
	for _, content := range contents {
		if _, err := s.AppendMessage(Message{ConversationID: "conv-1", Role: "user", Content: content}); err != nil {
			t.Fatalf("AppendMessage(%q): %v", content, err)
		}
	}

	msgs, err := s.Messages("conv-1")
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(contents))
	}
	for i, m := range msgs {
		if m.Content != contents[i] {
			t.Errorf("msgs[%d].Content = %q, want %q", i, m.Content, contents[i])
		}
	}
	if msgs[0].ID >= msgs[1].ID || msgs[1].ID >= msgs[2].ID {
		t.Errorf("message ids not ascending: %d, %d, %d", msgs[0].ID, msgs[1].ID, msgs[2].ID)
	}
}

func TestMessages_UnknownConversation(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Messages("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Messages(nope) error = %v, want ErrNotFound", err)
	}
}

func TestConversationsRecentFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := Message{ConversationID: "old", Role: "user", Content: "a", CreatedAt: base}
	newer := Message{ConversationID: "new", Role: "user", Content: "b", CreatedAt: base.Add(time.Hour)}

	if _, err := s.AppendMessage(older); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendMessage(newer); err != nil {
		t.Fatal(err)
	}

	convs, err := s.Conversations(10)
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != "new" || convs[1].ID != "old" {
		t.Errorf("order = [%s, %s], want [new, old]", convs[0].ID, convs[1].ID)
	}
}

func TestAppendBumpsUpdatedAt(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := s.AppendMessage(Message{ConversationID: "c", Role: "user", Content: "a", CreatedAt: base}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendMessage(Message{ConversationID: "c", Role: "assistant", Content: "b", CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}

	c, err := s.GetConversation("c")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if !c.UpdatedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("UpdatedAt = %v, want %v", c.UpdatedAt, base.Add(time.Minute))
	}
	if !c.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", c.CreatedAt, base)
	}
}

func TestSetTitle(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AppendMessage(Message{ConversationID: "c", Role: "user", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTitle("c", "Greetings"); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}

	c, err := s.GetConversation("c")
	if err != nil {
		t.Fatal(err)
	}
	if c.Title != "Greetings" {
		t.Errorf("Title = %q, want Greetings", c.Title)
	}

	if err := s.SetTitle("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetTitle(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteConversation(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.AppendMessage(Message{ConversationID: "c", Role: "user", Content: "hi"}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteConversation("c"); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}

	if _, err := s.GetConversation("c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConversation after delete = %v, want ErrNotFound", err)
	}
	if _, err := s.Messages("c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Messages after delete = %v, want ErrNotFound", err)
	}

	var orphans int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM messages WHERE conversation_id = 'c'").Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("%d orphaned messages left behind", orphans)
	}

	if err := s.DeleteConversation("c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestSearchMessages(t *testing.T) {
	s := openTestStore(t)

	for _, content := range []string{"deploy the service", "roll back deploy", "unrelated"} {
		if _, err := s.AppendMessage(Message{ConversationID: "c", Role: "user", Content: content}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SearchMessages("deploy", 10)
	if err != nil {
		t.Fatalf("SearchMessages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	// Newest first.
	if got[0].Content != "roll back deploy" {
		t.Errorf("got[0].Content = %q, want newest match first", got[0].Content)
	}

	none, err := s.SearchMessages("absent", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("got %d matches for absent term, want 0", len(none))
	}
}

func TestSearchMessages_EscapesWildcards(t *testing.T) {
	s := openTestStore(t)

	for _, content := range []string{"100% done", "100x done"} {
		if _, err := s.AppendMessage(Message{ConversationID: "c", Role: "user", Content: content}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.SearchMessages("100%", 10)
	if err != nil {
		t.Fatalf("SearchMessages: %v", err)
	}
	if len(got) != 1 || got[0].Content != "100% done" {
		t.Errorf("wildcard not escaped: got %d matches", len(got))
	}
}
