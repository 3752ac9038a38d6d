package api

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
)

func TestEndpoint_Parts(t *testing.T) {
	e := Endpoint("GET /api/chat/conversations/{conversation_id}")
	if e.Method() != "GET" {
		t.Errorf("Method() = %q, want %q", e.Method(), "GET")
	}
	if e.PathTemplate() != "/api/chat/conversations/{conversation_id}" {
		t.Errorf("PathTemplate() = %q", e.PathTemplate())
	}
}

func TestEndpoint_Malformed(t *testing.T) {
	for _, e := range []Endpoint{"", "GET", "GETapi/x", "GET api/x"} {
		if _, _, err := e.buildPath(nil); err == nil {
			t.Errorf("buildPath(%q) succeeded, want error", string(e))
		}
	}
}

func TestBuildPath_Substitution(t *testing.T) {
	e := Endpoint("DELETE /api/rag/instances/{instance_id}/files/{file_id}")
	p := Params{
		"instance_id": "inst-1",
		"file_id":     "file-9",
		"extra":       "kept",
	}

	path, consumed, err := e.buildPath(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api/rag/instances/inst-1/files/file-9" {
		t.Errorf("path = %q", path)
	}
	if !consumed["instance_id"] || !consumed["file_id"] {
		t.Errorf("consumed = %v, want both captures", consumed)
	}
	if consumed["extra"] {
		t.Error("extra key marked consumed")
	}
}

func TestBuildPath_EscapesValues(t *testing.T) {
	e := Endpoint("GET /api/user/settings/{key}")
	path, _, err := e.buildPath(Params{"key": "theme color/dark"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api/user/settings/theme%20color%2Fdark" {
		t.Errorf("path = %q", path)
	}
}

func TestBuildPath_MissingParam(t *testing.T) {
	e := EndpointRAGDeleteFile
	_, _, err := e.buildPath(Params{"instance_id": "inst-1"})

	var missing *MissingParamError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingParamError", err)
	}
	if missing.Param != "file_id" {
		t.Errorf("Param = %q, want %q", missing.Param, "file_id")
	}
	if missing.Endpoint != e {
		t.Errorf("Endpoint = %q, want %q", missing.Endpoint, e)
	}
}

func TestBuildPath_NilParamValue(t *testing.T) {
	e := Endpoint("GET /api/files/{id}")
	_, _, err := e.buildPath(Params{"id": nil})

	var missing *MissingParamError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingParamError", err)
	}
	if missing.Param != "id" {
		t.Errorf("Param = %q, want %q", missing.Param, "id")
	}
}

func TestBuildPath_StringerValue(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	e := Endpoint("GET /api/files/{id}")
	path, _, err := e.buildPath(Params{"id": id})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api/files/6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Errorf("path = %q", path)
	}
}

func TestEncodeQuery_SortedAndTyped(t *testing.T) {
	p := Params{
		"page":     2,
		"per_page": int64(25),
		"q":        "hello world",
		"exact":    true,
		"score":    0.5,
	}
	got := encodeQuery(p, nil)
	want := "exact=true&page=2&per_page=25&q=hello+world&score=0.5"
	if got != want {
		t.Errorf("encodeQuery = %q, want %q", got, want)
	}
}

func TestEncodeQuery_SlicesRepeatKey(t *testing.T) {
	p := Params{
		"tag": []string{"b", "a"},
		"id":  []any{1, nil, 2},
	}
	got := encodeQuery(p, nil)
	want := "id=1&id=2&tag=b&tag=a"
	if got != want {
		t.Errorf("encodeQuery = %q, want %q", got, want)
	}
}

func TestEncodeQuery_SkipsNilAndConsumed(t *testing.T) {
	p := Params{
		"conversation_id": "c1",
		"filter":          nil,
		"page":            1,
	}
	got := encodeQuery(p, map[string]bool{"conversation_id": true})
	if got != "page=1" {
		t.Errorf("encodeQuery = %q, want %q", got, "page=1")
	}
}

func TestEncodeQuery_RoundTrip(t *testing.T) {
	p := Params{
		"q":        "caffè & milk?",
		"page":     3,
		"per_page": 50,
	}
	parsed, err := url.ParseQuery(encodeQuery(p, nil))
	if err != nil {
		t.Fatalf("parsing query: %v", err)
	}
	if parsed.Get("q") != "caffè & milk?" {
		t.Errorf("q = %q", parsed.Get("q"))
	}
	if parsed.Get("page") != "3" || parsed.Get("per_page") != "50" {
		t.Errorf("pagination = %v", parsed)
	}
}

func TestBodyParams_ExcludesConsumed(t *testing.T) {
	p := Params{
		"conversation_id": "c1",
		"title":           "renamed",
		"archived":        false,
	}
	body := bodyParams(p, map[string]bool{"conversation_id": true})
	if len(body) != 2 {
		t.Fatalf("len(body) = %d, want 2", len(body))
	}
	if _, ok := body["conversation_id"]; ok {
		t.Error("capture key leaked into body")
	}
	if body["title"] != "renamed" {
		t.Errorf("title = %v", body["title"])
	}
}

func TestParamString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"plain", "plain"},
		{42, "42"},
		{int64(9000000000), "9000000000"},
		{1.25, "1.25"},
		{true, "true"},
		{uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
	}
	for _, tt := range tests {
		if got := paramString(tt.in); got != tt.want {
			t.Errorf("paramString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
