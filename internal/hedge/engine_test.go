package hedge

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestEngineDueFiresAfterArmDelay(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{LangEnglish: {make([]byte, 640)}})
	e := NewEngine(lib)

	now := time.Now()
	e.Arm(LangEnglish, now)

	if e.Due(now.Add(200 * time.Millisecond)) {
		t.Fatal("should not be due before the arm delay elapses")
	}
	if !e.Due(now.Add(ArmDelay + time.Millisecond)) {
		t.Fatal("expected due once the arm delay elapses")
	}
}

func TestEngineDisarmCancelsPending(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{LangEnglish: {make([]byte, 640)}})
	e := NewEngine(lib)
	now := time.Now()
	e.Arm(LangEnglish, now)
	e.Disarm()
	if e.Due(now.Add(ArmDelay + time.Second)) {
		t.Fatal("expected Disarm to cancel the pending timer")
	}
}

func TestEngineFireMarksPlaying(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{LangEnglish: {make([]byte, 640)}})
	e := NewEngine(lib)
	e.Arm(LangEnglish, time.Now())

	if e.IsPlaying() {
		t.Fatal("should not be playing before Fire")
	}
	clip, ok := e.Fire()
	if !ok || len(clip) == 0 {
		t.Fatal("expected Fire to return a clip")
	}
	if !e.IsPlaying() {
		t.Fatal("expected IsPlaying true after Fire")
	}
}

func TestEngineFireFailsWithoutClips(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{})
	e := NewEngine(lib)
	e.Arm(LangEnglish, time.Now())
	if _, ok := e.Fire(); ok {
		t.Fatal("expected Fire to fail when no clips are registered")
	}
}

func TestCrossfadeOutBlendsTowardModelAudio(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{LangEnglish: {make([]byte, 640)}})
	e := NewEngine(lib)
	e.Arm(LangEnglish, time.Now())

	fillerClip := make([]byte, 640)
	for i := 0; i < len(fillerClip)/2; i++ {
		binary.LittleEndian.PutUint16(fillerClip[i*2:], uint16(int16(10000)))
	}
	e.clip = fillerClip
	e.playing = true

	modelChunk := make([]byte, 640)
	modelSample := int16(-10000)
	for i := 0; i < len(modelChunk)/2; i++ {
		binary.LittleEndian.PutUint16(modelChunk[i*2:], uint16(modelSample))
	}

	blended := e.CrossfadeOut(modelChunk)
	if len(blended) != len(modelChunk) {
		t.Fatalf("expected blended output to match model chunk length, got %d", len(blended))
	}

	first := int16(binary.LittleEndian.Uint16(blended[0:]))
	if first == -10000 {
		t.Fatal("expected the first blended sample to lean toward the filler tail, not be pure model audio")
	}
	if e.IsPlaying() {
		t.Fatal("expected CrossfadeOut to stop playback")
	}
}

func TestCrossfadeOutWithNoClipReturnsModelChunkUnchanged(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{})
	e := NewEngine(lib)
	modelChunk := []byte{1, 2, 3, 4}
	blended := e.CrossfadeOut(modelChunk)
	if string(blended) != string(modelChunk) {
		t.Fatal("expected unchanged model chunk when no filler clip is playing")
	}
}
