package tutor

import (
	"context"
	"errors"
	"strings"

	"github.com/rcliao/agent-tutor/internal/audio"
	"github.com/rcliao/agent-tutor/internal/chunker"
)

var markdownStripper = strings.NewReplacer("**", "", "##", "")

// Speak renders text as a WAV clip. Long text is spoken segment by segment.
// Starting a new clip stops any clip still being generated, which then
// fails with ErrSpeechStopped, as does a clip stopped by StopSpeech.
func (s *Service) Speak(ctx context.Context, text string) ([]byte, error) {
	clean := strings.TrimSpace(markdownStripper.Replace(text))
	if clean == "" {
		return nil, ErrEmptyMessage
	}

	ctx, release := s.playback.Acquire(ctx)
	defer release()

	segments := chunker.Split(clean, s.speechRunes)
	var pcm []byte
	for _, seg := range segments {
		if ctx.Err() != nil {
			return nil, speechErr(ctx)
		}
		part, err := s.collab.TextToSpeech(ctx, seg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, speechErr(ctx)
			}
			return nil, collaboratorErr("speech", err)
		}
		pcm = append(pcm, part...)
	}

	wav, err := audio.WAV(pcm)
	if err != nil {
		return nil, collaboratorErr("speech", err)
	}
	s.log.Debug("speech generated", "chars", len(clean), "segments", len(segments), "millis", audio.DurationMillis(pcm))
	return wav, nil
}

func speechErr(ctx context.Context) error {
	if cause := context.Cause(ctx); errors.Is(cause, audio.ErrReplaced) || errors.Is(cause, audio.ErrStopped) {
		return ErrSpeechStopped
	}
	return ctx.Err()
}

// StopSpeech stops the clip currently being generated, if any.
func (s *Service) StopSpeech() {
	s.playback.Release()
}
