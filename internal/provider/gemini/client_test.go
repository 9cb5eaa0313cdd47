package gemini_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/petasbytes/charlotte-bridge/internal/logger"
	"github.com/petasbytes/charlotte-bridge/internal/provider"
	"github.com/petasbytes/charlotte-bridge/internal/provider/gemini"
	"github.com/petasbytes/charlotte-bridge/memory"
)

func history() []memory.Message {
	return []memory.Message{
		memory.FramingMessage("  you are Charlotte, this is the system prompt  "),
		{Role: memory.RoleUser, Content: memory.NewText("hi")},
		{Role: memory.RoleAssistant, Content: memory.NewText("hello")},
		{Role: memory.RoleUser, Content: memory.NewText("how are you")},
	}
}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string, logs *bytes.Buffer) *gemini.Client {
	return gemini.NewClient("test-key", url, "test-model", 5*time.Second, logger.New(logs, true))
}

func TestGenerate_Text(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Hi there"}],"role":"model"}}]}`)
	var logs bytes.Buffer

	got, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
	if err != nil {
		t.Fatal(err)
	}
	if got != "Hi there" {
		t.Fatalf("got %q", got)
	}
}

func TestGenerate_RequestShape(t *testing.T) {
	var gotPath, gotKey, gotCT string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotCT = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	if _, err := newClient(srv.URL, &logs).Generate(context.Background(), history()); err != nil {
		t.Fatal(err)
	}

	if gotPath != "/v1beta/models/test-model:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("key = %q", gotKey)
	}
	if gotCT != "application/json" {
		t.Fatalf("content-type = %q", gotCT)
	}
	contents, ok := gotBody["contents"].([]any)
	if !ok || len(contents) != 4 {
		t.Fatalf("contents = %#v", gotBody["contents"])
	}
	first := contents[0].(map[string]any)
	if first["role"] != "user" {
		t.Fatalf("first role = %v", first["role"])
	}
	firstText := first["parts"].([]any)[0].(map[string]any)["text"]
	if firstText != "you are Charlotte, this is the system prompt" {
		t.Fatalf("first text not trimmed: %q", firstText)
	}
	if role := contents[2].(map[string]any)["role"]; role != "model" {
		t.Fatalf("assistant not mapped to model: %v", role)
	}
}

func TestGenerate_NoCandidates(t *testing.T) {
	for _, body := range []string{`{}`, `{"candidates":[]}`, `[1,2]`} {
		srv := newServer(t, http.StatusOK, body)
		var logs bytes.Buffer
		_, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
		if !errors.Is(err, provider.ErrNoCandidates) {
			t.Fatalf("body %s: err = %v", body, err)
		}
	}
}

func TestGenerate_NoText(t *testing.T) {
	for _, body := range []string{
		`{"candidates":[{"finishReason":"SAFETY"}]}`,
		`{"candidates":[{"content":{"parts":[]}}]}`,
		`{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`,
	} {
		srv := newServer(t, http.StatusOK, body)
		var logs bytes.Buffer
		_, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
		if !errors.Is(err, provider.ErrNoText) {
			t.Fatalf("body %s: err = %v", body, err)
		}
	}
}

func TestGenerate_InvalidJSON(t *testing.T) {
	srv := newServer(t, http.StatusOK, `not json`)
	var logs bytes.Buffer

	_, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
	if !errors.Is(err, provider.ErrMalformedResponse) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(logs.String(), "not json") {
		t.Fatalf("body not logged: %s", logs.String())
	}
}

func TestGenerate_ErrorMessage(t *testing.T) {
	srv := newServer(t, http.StatusForbidden, `{"error":{"message":"bad key"}}`)
	var logs bytes.Buffer

	_, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %#v", err)
	}
	if got := provider.ResponseText("", err); got != "[API Error 403]: bad key" {
		t.Fatalf("response text = %q", got)
	}
	if !strings.Contains(logs.String(), `Error 403: {"error":{"message":"bad key"}}`) {
		t.Fatalf("status line not logged: %s", logs.String())
	}
}

func TestGenerate_ErrorRawBody(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `upstream exploded`)
	var logs bytes.Buffer

	_, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
	if got := provider.ResponseText("", err); got != "[API Error 500]: upstream exploded" {
		t.Fatalf("response text = %q", got)
	}
}

func TestGenerate_ErrorJSONWithoutMessage(t *testing.T) {
	srv := newServer(t, http.StatusBadRequest, `{"error":{"code":400}}`)
	var logs bytes.Buffer

	_, err := newClient(srv.URL, &logs).Generate(context.Background(), history())
	if got := provider.ResponseText("", err); got != `[API Error 400]: {"error":{"code":400}}` {
		t.Fatalf("response text = %q", got)
	}
}

func TestGenerate_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var logs bytes.Buffer
	_, err := newClient(url, &logs).Generate(context.Background(), history())
	if !errors.Is(err, provider.ErrRequestFailed) {
		t.Fatalf("err = %v", err)
	}
	if strings.Contains(logs.String(), "test-key") {
		t.Fatalf("api key leaked into logs: %s", logs.String())
	}
}

func TestGenerate_ContextCancelled(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"late"}]}}]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var logs bytes.Buffer
	_, err := newClient(srv.URL, &logs).Generate(ctx, history())
	if !errors.Is(err, provider.ErrRequestFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c := gemini.NewClient("k y", "", "", 0, nil)
	if c.Name() != provider.Gemini || c.Model() != gemini.DefaultModel {
		t.Fatalf("name=%q model=%q", c.Name(), c.Model())
	}
	want := gemini.DefaultBaseURL + "/v1beta/models/" + gemini.DefaultModel + ":generateContent?key=k+y"
	if got := c.Endpoint(); got != want {
		t.Fatalf("endpoint = %q, want %q", got, want)
	}
}
