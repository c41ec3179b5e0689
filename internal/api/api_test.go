package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rcliao/agent-tutor/internal/gemini"
	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/store"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

type stubCollab struct {
	chatErr error
}

func (s *stubCollab) SummarizeMedia(ctx context.Context, typ model.MaterialType, data []byte, mimeType, instruction, hint string) (gemini.Result, error) {
	return gemini.Result{Text: "media summary"}, nil
}

func (s *stubCollab) SummarizeText(ctx context.Context, text, instruction, hint string) (gemini.Result, error) {
	return gemini.Result{Text: "text summary"}, nil
}

func (s *stubCollab) Chat(ctx context.Context, history []model.Message, text, systemInstruction string, webSearch bool) (gemini.Result, error) {
	if s.chatErr != nil {
		return gemini.Result{}, s.chatErr
	}
	return gemini.Result{Text: "reply to " + text}, nil
}

func (s *stubCollab) Research(ctx context.Context, query, hint string) (gemini.Result, error) {
	return gemini.Result{Text: "overview"}, nil
}

func (s *stubCollab) Synthesize(ctx context.Context, materials []model.Material, courseTitle string) (gemini.Result, error) {
	return gemini.Result{Text: "synthesis"}, nil
}

func (s *stubCollab) TitleFor(ctx context.Context, message string) (string, error) {
	return "", nil
}

func (s *stubCollab) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	return []byte{0, 0, 1, 1}, nil
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	svc    *tutor.Service
	collab *stubCollab
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	collab := &stubCollab{}
	svc := tutor.New(store.NewMemoryStore(), collab, nil)
	t.Cleanup(svc.WaitTitles)
	return &testAPI{t: t, router: NewRouter(svc, nil, opts), svc: svc, collab: collab}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login() {
	a.t.Helper()
	if rec := a.do(http.MethodPost, "/api/login", map[string]string{"name": "Ada"}); rec.Code != http.StatusOK {
		a.t.Fatalf("login: %d %s", rec.Code, rec.Body)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body, err)
	}
	return env.Error
}

func TestHealthzAndRequestID(t *testing.T) {
	a := newTestAPI(t, Options{})

	rec := a.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc" {
		t.Errorf("expected propagated request id, got %q", got)
	}
}

func TestCoursesRequireLogin(t *testing.T) {
	a := newTestAPI(t, Options{})

	rec := a.do(http.MethodGet, "/api/courses", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "permission" {
		t.Errorf("expected permission code, got %+v", e)
	}

	a.login()
	rec = a.do(http.MethodGet, "/api/courses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var courses []model.Course
	json.Unmarshal(rec.Body.Bytes(), &courses)
	if len(courses) != 2 {
		t.Errorf("expected seeded courses, got %+v", courses)
	}

	a.do(http.MethodPost, "/api/logout", nil)
	if rec := a.do(http.MethodGet, "/api/courses", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.login()
	rec := a.do(http.MethodGet, "/api/me", nil)
	var me struct {
		Authenticated bool   `json:"authenticated"`
		Name          string `json:"name"`
	}
	json.Unmarshal(rec.Body.Bytes(), &me)
	if !me.Authenticated || me.Name != "Ada" {
		t.Errorf("unexpected me %+v", me)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.login()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"empty course title", http.MethodPost, "/api/courses", map[string]string{"title": " "}, http.StatusBadRequest, "validation"},
		{"unknown course", http.MethodGet, "/api/courses/nope", nil, http.StatusNotFound, "not_found"},
		{"duplicate folder", http.MethodPost, "/api/courses/1/folders", map[string]string{"name": "Week 1"}, http.StatusBadRequest, "validation"},
		{"unknown folder target", http.MethodPut, "/api/courses/1/target", map[string]string{"name": "Nope"}, http.StatusBadRequest, "validation"},
		{"synthesis without materials", http.MethodPost, "/api/courses/1/synthesis", nil, http.StatusConflict, "invariant"},
		{"unknown session", http.MethodDelete, "/api/courses/1/sessions/nope", nil, http.StatusNotFound, "not_found"},
		{"empty message", http.MethodPost, "/api/courses/1/sessions/1/messages", map[string]string{"text": ""}, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body)
			}
			if e := decodeError(t, rec); e.Code != tt.code {
				t.Errorf("expected code %s, got %+v", tt.code, e)
			}
		})
	}
}

func TestFolderRoutes(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.login()

	rec := a.do(http.MethodPost, "/api/courses/1/folders", map[string]string{"name": "Labs"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create folder: %d %s", rec.Code, rec.Body)
	}
	rec = a.do(http.MethodPut, "/api/courses/1/folders/Labs", map[string]string{"name": "Lab Work"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Lab Work") {
		t.Fatalf("rename folder: %d %s", rec.Code, rec.Body)
	}
	rec = a.do(http.MethodPost, "/api/courses/1/folders/Lab%20Work/toggle", nil)
	var view model.View
	json.Unmarshal(rec.Body.Bytes(), &view)
	if !view.IsExpanded("Lab Work") {
		t.Errorf("expected folder expanded, got %+v", view)
	}
	rec = a.do(http.MethodDelete, "/api/courses/1/folders/Lab%20Work", nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "Lab Work") {
		t.Errorf("delete folder: %d %s", rec.Code, rec.Body)
	}
}

func multipartBody(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", "lecture.mp3")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		fw.Write(file)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUploadMaterial(t *testing.T) {
	a := newTestAPI(t, Options{MaxUploadBytes: 1 << 10})
	a.login()

	body, ct := multipartBody(t, map[string]string{"type": "audio", "folder": "Week 2"}, []byte("fake audio"))
	req := httptest.NewRequest(http.MethodPost, "/api/courses/1/materials", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body)
	}
	var mat model.Material
	json.Unmarshal(rec.Body.Bytes(), &mat)
	if mat.Title != "lecture.mp3" || mat.Summary != "media summary" || mat.Folder != "Week 2" {
		t.Errorf("unexpected material %+v", mat)
	}

	rec = a.do(http.MethodGet, "/api/courses/1/materials?folder=Week%202", nil)
	var mats []model.Material
	json.Unmarshal(rec.Body.Bytes(), &mats)
	if len(mats) != 1 {
		t.Errorf("expected 1 material in Week 2, got %d", len(mats))
	}

	body, ct = multipartBody(t, map[string]string{"type": "audio"}, bytes.Repeat([]byte("x"), 4<<10))
	req = httptest.NewRequest(http.MethodPost, "/api/courses/1/materials", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for oversized upload, got %d %s", rec.Code, rec.Body)
	}

	rec = a.do(http.MethodDelete, "/api/courses/1/materials/"+mat.ID, nil)
	if !strings.Contains(rec.Body.String(), `"removed":true`) {
		t.Errorf("expected removal, got %s", rec.Body)
	}
}

func TestSendMessage(t *testing.T) {
	a := newTestAPI(t, Options{})
	a.login()

	rec := a.do(http.MethodGet, "/api/courses/1/sessions", nil)
	var list struct {
		Active string `json:"active"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)

	rec = a.do(http.MethodPost, "/api/courses/1/sessions/"+list.Active+"/messages", map[string]string{"text": "What is DNA?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("send: %d %s", rec.Code, rec.Body)
	}
	var resp struct {
		Model   model.Message `json:"model"`
		Warning string        `json:"warning"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Model.Content != "reply to What is DNA?" || resp.Warning != "" {
		t.Errorf("unexpected reply %+v", resp)
	}

	a.collab.chatErr = errors.New("quota")
	rec = a.do(http.MethodPost, "/api/courses/1/sessions/"+list.Active+"/messages", map[string]string{"text": "again"})
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if rec.Code != http.StatusOK || resp.Warning == "" {
		t.Errorf("expected apology with warning, got %d %s", rec.Code, rec.Body)
	}

	rec = a.do(http.MethodGet, "/api/courses/1/sessions/"+list.Active+"/transcript", nil)
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Biology_101_chat.txt") {
		t.Errorf("unexpected disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "You:\nWhat is DNA?") {
		t.Errorf("unexpected transcript %s", rec.Body)
	}
}

func TestSpeech(t *testing.T) {
	a := newTestAPI(t, Options{})
	rec := a.do(http.MethodPost, "/api/speech", map[string]string{"text": "**hello**"})
	if rec.Code != http.StatusOK {
		t.Fatalf("speech: %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("expected audio/wav, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("RIFF")) {
		t.Error("expected RIFF header")
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	a := newTestAPI(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("unexpected allow-origin header %q", got)
	}
}
