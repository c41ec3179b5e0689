package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
)

func TestWAVHeader(t *testing.T) {
	pcm := make([]byte, 48000) // one second
	out, err := WAV(pcm)
	if err != nil {
		t.Fatalf("wav: %v", err)
	}
	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" || string(out[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q %q %q", out[0:4], out[8:12], out[36:40])
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != SampleRate {
		t.Errorf("expected sample rate %d, got %d", SampleRate, got)
	}
	if got := binary.LittleEndian.Uint16(out[22:24]); got != 1 {
		t.Errorf("expected mono, got %d channels", got)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(pcm)) {
		t.Errorf("expected data size %d, got %d", len(pcm), got)
	}
	if DurationMillis(pcm) != 1000 {
		t.Errorf("expected 1000ms, got %d", DurationMillis(pcm))
	}
}

func TestWAVOddLength(t *testing.T) {
	if _, err := WAV([]byte{1, 2, 3}); !errors.Is(err, ErrOddLength) {
		t.Fatalf("expected ErrOddLength, got %v", err)
	}
}

func TestSlotReplacesActiveStream(t *testing.T) {
	var s Slot
	first, releaseFirst := s.Acquire(context.Background())
	second, releaseSecond := s.Acquire(context.Background())

	if !errors.Is(context.Cause(first), ErrReplaced) {
		t.Errorf("expected first stream replaced, got %v", context.Cause(first))
	}
	if second.Err() != nil {
		t.Error("second stream should be active")
	}

	// Releasing the stale stream must not stop the current one.
	releaseFirst()
	if second.Err() != nil || !s.Active() {
		t.Error("stale release stopped the active stream")
	}

	releaseSecond()
	if second.Err() == nil || s.Active() {
		t.Error("expected slot empty after release")
	}
}

func TestSlotRelease(t *testing.T) {
	var s Slot
	ctx, _ := s.Acquire(context.Background())
	s.Release()
	if !errors.Is(context.Cause(ctx), ErrStopped) {
		t.Errorf("expected stream stopped on Release, got %v", context.Cause(ctx))
	}
	s.Release()
}
