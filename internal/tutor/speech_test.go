package tutor

import (
	"context"
	"errors"
	"testing"
)

func TestSpeak(t *testing.T) {
	svc, fc := newTestService(t)
	ctx := context.Background()
	fc.pcm = []byte{0, 1, 0, 2}

	wav, err := svc.Speak(ctx, "## Summary\n**Cells** are small")
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if fc.ttsInput != "Summary\nCells are small" {
		t.Errorf("expected markdown stripped, got %q", fc.ttsInput)
	}
	if string(wav[:4]) != "RIFF" || len(wav) != 44+4 {
		t.Errorf("expected wav container, got %d bytes", len(wav))
	}

	if _, err := svc.Speak(ctx, "** ##"); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	fc.ttsErr = errors.New("no audio")
	if _, err := svc.Speak(ctx, "hi"); KindOf(err) != KindCollaborator {
		t.Errorf("expected collaborator error, got %v", err)
	}
}

func TestSpeakLongTextInSegments(t *testing.T) {
	svc, fc := newTestService(t, WithSpeechSegment(30))
	fc.pcm = []byte{1, 0}

	text := "First paragraph is here.\n\nSecond paragraph is here.\n\nThird one."
	wav, err := svc.Speak(context.Background(), text)
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if n := fc.count("speech"); n != 3 {
		t.Errorf("expected 3 speech calls, got %d", n)
	}
	if len(wav) != 44+3*2 {
		t.Errorf("expected concatenated pcm, got %d bytes", len(wav))
	}
}

func TestSpeakStoppedByNewerClip(t *testing.T) {
	svc, fc := newTestService(t)
	fc.pcm = []byte{1, 0}
	fc.ttsStarted = make(chan struct{}, 2)
	fc.ttsGate = make(chan struct{})

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Speak(context.Background(), "first clip")
		errc <- err
	}()
	<-fc.ttsStarted

	done := make(chan error, 1)
	go func() {
		_, err := svc.Speak(context.Background(), "second clip")
		done <- err
	}()
	if err := <-errc; !errors.Is(err, ErrSpeechStopped) {
		t.Fatalf("expected first clip stopped, got %v", err)
	}
	<-fc.ttsStarted
	close(fc.ttsGate)
	if err := <-done; err != nil {
		t.Fatalf("second clip: %v", err)
	}
	if KindOf(ErrSpeechStopped) != KindInvariant {
		t.Error("stopped speech should classify as invariant")
	}
}
