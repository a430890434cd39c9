package audiorouter

import (
	"testing"
	"time"

	"github.com/northlane/voicebridge/internal/domain"
)

func frame(seq uint32, n int) domain.AudioFrame {
	return domain.AudioFrame{
		PCM16:      make([]byte, n),
		SampleRate: 24000,
		Seq:        seq,
		CaptureTs:  time.Now(),
	}
}

func TestRingPushPopRoundTrip(t *testing.T) {
	r := NewRing(4096)
	r.Push(frame(1, 320))
	r.Push(frame(2, 320))

	f1, ok := r.Pop()
	if !ok || f1.Seq != 1 {
		t.Fatalf("expected first-in frame seq 1, got %+v ok=%v", f1, ok)
	}
	f2, ok := r.Pop()
	if !ok || f2.Seq != 2 {
		t.Fatalf("expected second frame seq 2, got %+v ok=%v", f2, ok)
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("expected empty ring after draining both frames")
	}
}

func TestRingDropsOldestOnOverflow(t *testing.T) {
	r := NewRing(200) // holds two 72-byte records (40-byte frame + headers), forcing eviction
	for i := uint32(1); i <= 5; i++ {
		r.Push(frame(i, 40))
	}
	if r.Dropped() == 0 {
		t.Fatal("expected at least one dropped frame under overflow")
	}

	f, ok := r.Pop()
	if !ok {
		t.Fatal("expected at least one survivor frame")
	}
	if f.Seq == 1 {
		t.Fatal("expected the oldest frame (seq 1) to have been evicted, not survive")
	}
}

func TestRingOversizedFrameIsDroppedNotStored(t *testing.T) {
	r := NewRing(16)
	r.Push(frame(1, 1000))
	if r.Dropped() == 0 {
		t.Fatal("expected an oversized frame to be counted as dropped")
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("expected nothing stored for a frame that can never fit")
	}
}
