package tutor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rcliao/agent-tutor/internal/gemini"
	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/store"
)

// fakeCollab is a scripted Collaborator that records every call.
type fakeCollab struct {
	mu    sync.Mutex
	calls []string

	summary      string
	summarizeErr error
	lastHint     string
	lastPrompt   string
	lastMime     string

	chatReply   string
	chatErr     error
	chatSystem  []string
	chatHistory [][]model.Message
	chatStarted chan struct{}
	chatGate    chan struct{}

	research    gemini.Result
	researchErr error

	synthText string
	synthErr  error
	// synthStarted and synthGate, when set, hold Synthesize until released.
	synthStarted chan struct{}
	synthGate    chan struct{}

	title     string
	titleErr  error
	titleGate chan struct{}

	pcm      []byte
	ttsErr   error
	ttsInput string
	// ttsStarted and ttsGate, when set, hold TextToSpeech until released
	// or cancelled.
	ttsStarted chan struct{}
	ttsGate    chan struct{}
}

func (f *fakeCollab) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCollab) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeCollab) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCollab) SummarizeMedia(ctx context.Context, typ model.MaterialType, data []byte, mimeType, instruction, hint string) (gemini.Result, error) {
	f.record("summarize_media")
	f.mu.Lock()
	f.lastHint, f.lastPrompt, f.lastMime = hint, instruction, mimeType
	f.mu.Unlock()
	if f.summarizeErr != nil {
		return gemini.Result{}, f.summarizeErr
	}
	return gemini.Result{Text: f.summary}, nil
}

func (f *fakeCollab) SummarizeText(ctx context.Context, text, instruction, hint string) (gemini.Result, error) {
	f.record("summarize_text")
	f.mu.Lock()
	f.lastHint, f.lastPrompt = hint, instruction
	f.mu.Unlock()
	if f.summarizeErr != nil {
		return gemini.Result{}, f.summarizeErr
	}
	return gemini.Result{Text: f.summary}, nil
}

func (f *fakeCollab) Chat(ctx context.Context, history []model.Message, text, systemInstruction string, webSearch bool) (gemini.Result, error) {
	f.record("chat")
	f.mu.Lock()
	f.chatSystem = append(f.chatSystem, systemInstruction)
	f.chatHistory = append(f.chatHistory, append([]model.Message(nil), history...))
	f.mu.Unlock()
	if f.chatStarted != nil {
		f.chatStarted <- struct{}{}
	}
	if f.chatGate != nil {
		<-f.chatGate
	}
	if f.chatErr != nil {
		return gemini.Result{}, f.chatErr
	}
	reply := f.chatReply
	if reply == "" {
		reply = "answer to " + text
	}
	return gemini.Result{Text: reply}, nil
}

func (f *fakeCollab) Research(ctx context.Context, query, hint string) (gemini.Result, error) {
	f.record("research")
	f.mu.Lock()
	f.lastHint = hint
	f.mu.Unlock()
	return f.research, f.researchErr
}

func (f *fakeCollab) Synthesize(ctx context.Context, materials []model.Material, courseTitle string) (gemini.Result, error) {
	f.record("synthesize")
	f.mu.Lock()
	started, gate := f.synthStarted, f.synthGate
	f.mu.Unlock()
	if gate != nil {
		started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return gemini.Result{}, ctx.Err()
		}
	}
	if f.synthErr != nil {
		return gemini.Result{}, f.synthErr
	}
	return gemini.Result{Text: f.synthText}, nil
}

func (f *fakeCollab) TitleFor(ctx context.Context, message string) (string, error) {
	f.record("title")
	if f.titleGate != nil {
		<-f.titleGate
	}
	return f.title, f.titleErr
}

func (f *fakeCollab) TextToSpeech(ctx context.Context, text string) ([]byte, error) {
	f.record("speech")
	f.mu.Lock()
	f.ttsInput = text
	started, gate := f.ttsStarted, f.ttsGate
	f.mu.Unlock()
	if gate != nil {
		started <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.pcm, f.ttsErr
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeCollab) {
	t.Helper()
	fc := &fakeCollab{}
	svc := New(newTestStore(t), fc, nil, opts...)
	t.Cleanup(svc.WaitTitles)
	return svc, fc
}

// bio is the id of the seeded "Biology 101" course.
const bio = "1"

func setFolders(t *testing.T, svc *Service, courseID string, folders ...string) {
	t.Helper()
	err := svc.update(context.Background(), courseID, folderKinds, func(cs *courseState) error {
		return cs.setFolders(folders)
	})
	if err != nil {
		t.Fatalf("set folders: %v", err)
	}
}

func addMaterial(t *testing.T, svc *Service, folder, title, summary string) *model.Material {
	t.Helper()
	m, err := svc.AddMaterial(context.Background(), AddMaterialParams{
		CourseID: bio,
		Type:     model.MaterialDocument,
		Title:    title,
		Summary:  summary,
		Folder:   folder,
	})
	if err != nil {
		t.Fatalf("add material %s: %v", title, err)
	}
	return m
}
