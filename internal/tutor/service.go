// Package tutor is the per-course state manager: courses, folders, materials,
// chat sessions, grounding context and the course synthesis.
//
// Every mutation is a read-modify-write over the latest persisted state
// through store.Update, so concurrent flows (an upload racing a chat turn,
// two uploads into the same folder) never lose each other's writes.
package tutor

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rcliao/agent-tutor/internal/audio"
	"github.com/rcliao/agent-tutor/internal/chunker"
	"github.com/rcliao/agent-tutor/internal/gemini"
	"github.com/rcliao/agent-tutor/internal/logging"
	"github.com/rcliao/agent-tutor/internal/model"
	"github.com/rcliao/agent-tutor/internal/store"
)

// Collaborator is the generative AI backend.
type Collaborator interface {
	SummarizeMedia(ctx context.Context, typ model.MaterialType, data []byte, mimeType, instruction, hint string) (gemini.Result, error)
	SummarizeText(ctx context.Context, text, instruction, hint string) (gemini.Result, error)
	Chat(ctx context.Context, history []model.Message, text, systemInstruction string, webSearch bool) (gemini.Result, error)
	Research(ctx context.Context, query, hint string) (gemini.Result, error)
	Synthesize(ctx context.Context, materials []model.Material, courseTitle string) (gemini.Result, error)
	TitleFor(ctx context.Context, message string) (string, error)
	TextToSpeech(ctx context.Context, text string) ([]byte, error)
}

// Service implements every tutoring operation on top of a Store.
type Service struct {
	store  store.Store
	collab Collaborator
	log    *logging.Logger

	now         func() time.Time
	newID       func() string
	pickColor   func() string
	webSearch   bool
	speechRunes int

	mu       sync.Mutex
	awaiting map[string]bool

	titles    sync.WaitGroup
	synthesis singleflight.Group
	playback  audio.Slot
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how entity ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithColorPicker overrides the palette choice for new courses.
func WithColorPicker(pick func() string) Option {
	return func(s *Service) { s.pickColor = pick }
}

// WithWebSearch toggles search grounding for chat turns. Enabled by default.
func WithWebSearch(enabled bool) Option {
	return func(s *Service) { s.webSearch = enabled }
}

// WithSpeechSegment sets the longest text sent in one speech request.
func WithSpeechSegment(runes int) Option {
	return func(s *Service) { s.speechRunes = runes }
}

// New creates a Service.
func New(st store.Store, collab Collaborator, log *logging.Logger, opts ...Option) *Service {
	if log == nil {
		log = logging.Nop()
	}
	s := &Service{
		store:       st,
		collab:      collab,
		log:         log,
		now:         time.Now,
		newID:       func() string { return ulid.Make().String() },
		pickColor:   randomColor,
		webSearch:   true,
		speechRunes: chunker.DefaultMaxRunes,
		awaiting:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the current time at millisecond precision, strictly after
// prev so that messages within a session keep a total order.
func (s *Service) stamp(prev time.Time) time.Time {
	t := s.now().UTC().Truncate(time.Millisecond)
	if !prev.IsZero() && !t.After(prev) {
		t = prev.Add(time.Millisecond)
	}
	return t
}
