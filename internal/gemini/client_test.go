package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rcliao/agent-tutor/internal/model"
)

// recorder captures the last request body and path seen by a fake server.
type recorder struct {
	path   string
	apiKey string
	body   generateRequest
}

func newServer(t *testing.T, rec *recorder, status int, reply any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.path = r.URL.Path
			rec.apiKey = r.Header.Get("x-goog-api-key")
			if err := json.NewDecoder(r.Body).Decode(&rec.body); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(reply); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func textReply(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
}

func TestChatSendsHistoryAndAppendsSources(t *testing.T) {
	rec := &recorder{}
	reply := textReply("Membranes regulate transport.")
	reply["candidates"].([]any)[0].(map[string]any)["groundingMetadata"] = map[string]any{
		"groundingChunks": []any{
			map[string]any{"web": map[string]any{"uri": "https://a.example", "title": "A"}},
			map[string]any{"web": map[string]any{"uri": "https://a.example", "title": "A"}},
			map[string]any{"web": map[string]any{"uri": "https://b.example", "title": "B"}},
			map[string]any{"web": map[string]any{"uri": "", "title": "skip"}},
		},
	}
	srv := newServer(t, rec, http.StatusOK, reply)

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	history := []model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleModel, Content: "hello"},
	}
	res, err := c.Chat(context.Background(), history, "What is a membrane?", "SYSTEM", true)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if rec.path != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("unexpected path %s", rec.path)
	}
	if rec.apiKey != "k" {
		t.Errorf("expected api key header, got %q", rec.apiKey)
	}
	if len(rec.body.Contents) != 3 || rec.body.Contents[1].Role != "model" {
		t.Errorf("unexpected contents: %+v", rec.body.Contents)
	}
	if rec.body.SystemInstruction == nil || rec.body.SystemInstruction.Parts[0].Text != "SYSTEM" {
		t.Errorf("expected system instruction, got %+v", rec.body.SystemInstruction)
	}
	if len(rec.body.Tools) != 1 || rec.body.Tools[0].GoogleSearch == nil {
		t.Errorf("expected googleSearch tool, got %+v", rec.body.Tools)
	}

	if len(res.Sources) != 2 {
		t.Fatalf("expected 2 unique sources, got %+v", res.Sources)
	}
	want := "Membranes regulate transport.\n\n**Search Sources:**\n- [A](https://a.example)\n- [B](https://b.example)\n"
	if res.Text != want {
		t.Errorf("unexpected text:\n%q\nwant\n%q", res.Text, want)
	}
}

func TestChatWithoutSearchOmitsTools(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, http.StatusOK, textReply(""))
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	res, err := c.Chat(context.Background(), nil, "hi", "", false)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(rec.body.Tools) != 0 {
		t.Errorf("expected no tools, got %+v", rec.body.Tools)
	}
	if rec.body.SystemInstruction != nil {
		t.Errorf("expected no system instruction")
	}
	if res.Text != "I couldn't generate a response." {
		t.Errorf("expected fallback text, got %q", res.Text)
	}
}

func TestSummarizeMediaUsesModelPerType(t *testing.T) {
	tests := []struct {
		typ       model.MaterialType
		wantModel string
		wantCtx   string
	}{
		{model.MaterialVideo, "gemini-3-pro-preview", "Analyze this video specifically"},
		{model.MaterialAudio, "gemini-2.5-flash", `CONTEXT: You are a tutor for the course "Bio: Cells".`},
		{model.MaterialDocument, "gemini-3-pro-preview", `CONTEXT: You are a tutor for the course "Bio: Cells".`},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			rec := &recorder{}
			srv := newServer(t, rec, http.StatusOK, textReply("summary"))
			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

			res, err := c.SummarizeMedia(context.Background(), tt.typ, []byte("raw"), "application/octet-stream", "Summarize.", "Bio: Cells")
			if err != nil {
				t.Fatalf("summarize: %v", err)
			}
			if res.Text != "summary" {
				t.Errorf("unexpected text %q", res.Text)
			}
			if !strings.Contains(rec.path, tt.wantModel+":generateContent") {
				t.Errorf("expected model %s, got path %s", tt.wantModel, rec.path)
			}
			parts := rec.body.Contents[0].Parts
			if parts[0].InlineData == nil || parts[0].InlineData.Data != base64.StdEncoding.EncodeToString([]byte("raw")) {
				t.Errorf("expected inline base64 payload, got %+v", parts[0])
			}
			if !strings.Contains(parts[1].Text, tt.wantCtx) || !strings.HasSuffix(parts[1].Text, "\n\nSummarize.") {
				t.Errorf("unexpected prompt %q", parts[1].Text)
			}
		})
	}
}

func TestSummarizeTextRejectsEmpty(t *testing.T) {
	c := NewClient(Config{APIKey: "k", BaseURL: "http://unused"})
	_, err := c.SummarizeText(context.Background(), "  ", "Summarize.", "")
	if KindOf(err) != KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestResearchReturnsSources(t *testing.T) {
	rec := &recorder{}
	reply := textReply("Overview")
	reply["candidates"].([]any)[0].(map[string]any)["groundingMetadata"] = map[string]any{
		"groundingChunks": []any{
			map[string]any{"web": map[string]any{"uri": "https://x.example", "title": "X"}},
		},
	}
	srv := newServer(t, rec, http.StatusOK, reply)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	res, err := c.Research(context.Background(), "photosynthesis", "Biology 101: Cells")
	if err != nil {
		t.Fatalf("research: %v", err)
	}
	if res.Text != "Overview" || len(res.Sources) != 1 || res.Sources[0].URL != "https://x.example" {
		t.Errorf("unexpected result %+v", res)
	}
	prompt := rec.body.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Be detailed and structured: photosynthesis") {
		t.Errorf("unexpected prompt %q", prompt)
	}
}

func TestSynthesizePrompt(t *testing.T) {
	rec := &recorder{}
	srv := newServer(t, rec, http.StatusOK, textReply("Syllabus"))
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	mats := []model.Material{{Title: "Notes", Type: model.MaterialDocument, Summary: "Cells have membranes."}}
	res, err := c.Synthesize(context.Background(), mats, "Biology 101")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if res.Text != "Syllabus" {
		t.Errorf("unexpected text %q", res.Text)
	}
	prompt := rec.body.Contents[0].Parts[0].Text
	for _, want := range []string{`"Biology 101"`, "Title: Notes (document)\nSummary: Cells have membranes.", "**Gap Analysis**"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTitleForStripsQuotes(t *testing.T) {
	srv := newServer(t, nil, http.StatusOK, textReply(" \"Cell Membranes\" \n"))
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	title, err := c.TitleFor(context.Background(), "What is a membrane?")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != "Cell Membranes" {
		t.Errorf("expected stripped title, got %q", title)
	}
}

func TestTextToSpeech(t *testing.T) {
	rec := &recorder{}
	pcm := []byte{1, 0, 2, 0}
	reply := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"inlineData": map[string]any{"mimeType": "audio/L16;rate=24000", "data": base64.StdEncoding.EncodeToString(pcm)}},
			}}},
		},
	}
	srv := newServer(t, rec, http.StatusOK, reply)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Voice: "Puck"})

	got, err := c.TextToSpeech(context.Background(), "hello")
	if err != nil {
		t.Fatalf("tts: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("unexpected pcm %v", got)
	}
	gc := rec.body.GenerationConfig
	if gc == nil || gc.ResponseModalities[0] != "AUDIO" || gc.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Errorf("unexpected generation config %+v", gc)
	}
	if !strings.Contains(rec.path, "gemini-2.5-flash-preview-tts") {
		t.Errorf("expected tts model, got %s", rec.path)
	}
}

func TestTextToSpeechNoAudio(t *testing.T) {
	srv := newServer(t, nil, http.StatusOK, textReply("not audio"))
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.TextToSpeech(context.Background(), "hello"); KindOf(err) != KindEmpty {
		t.Fatalf("expected empty error, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusTooManyRequests, KindQuota},
		{http.StatusBadGateway, KindNetwork},
		{http.StatusBadRequest, KindBadResponse},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := newServer(t, nil, tt.status, map[string]any{"error": map[string]any{"message": "nope"}})
			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

			_, err := c.Chat(context.Background(), nil, "hi", "", false)
			var ge *Error
			if !errors.As(err, &ge) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ge.Kind != tt.want || ge.Status != tt.status || ge.Message != "nope" {
				t.Errorf("unexpected error %+v", ge)
			}
		})
	}
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"})
	_, err := c.Research(context.Background(), "q", "")
	if KindOf(err) != KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("expected hint in message, got %q", err.Error())
	}
}

func TestNoCandidates(t *testing.T) {
	srv := newServer(t, nil, http.StatusOK, map[string]any{"candidates": []any{}})
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})
	if _, err := c.TitleFor(context.Background(), "x"); KindOf(err) != KindEmpty {
		t.Fatalf("expected empty error, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.Chat(context.Background(), nil, "hi", "", false)
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}
