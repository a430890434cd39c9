package hedge

import (
	"encoding/binary"
	"time"
)

// ArmDelay is the wall-clock gap the engine tolerates before playing a
// filler (spec §4.5: "arm a 400 ms timer").
const ArmDelay = 400 * time.Millisecond

// crossfadeFrames is how many trailing filler samples are blended with the
// model's first chunk rather than cut hard.
const crossfadeFrames = 160 // 10ms at 16kHz

// Engine arms a timer on userSpeechEnded and emits a filler clip if the
// model hasn't produced its first audio chunk by the time it fires.
type Engine struct {
	lib *Library

	armedAt time.Time
	armed   bool
	playing bool
	clip    []byte
	lang    Language
}

// NewEngine builds an Engine backed by lib.
func NewEngine(lib *Library) *Engine {
	return &Engine{lib: lib}
}

// Arm starts the 400ms countdown following userSpeechEnded.
func (e *Engine) Arm(lang Language, now time.Time) {
	e.armedAt = now
	e.armed = true
	e.lang = lang
}

// Disarm cancels a pending arm without having played anything (model
// produced audio before the timer fired).
func (e *Engine) Disarm() {
	e.armed = false
	e.playing = false
	e.clip = nil
}

// Due reports whether the arm timer has elapsed at instant now and a filler
// has not already started playing.
func (e *Engine) Due(now time.Time) bool {
	return e.armed && !e.playing && now.Sub(e.armedAt) >= ArmDelay
}

// Fire selects the next filler clip for the armed language and marks the
// engine as playing. Returns false if no clip is available for the
// language.
func (e *Engine) Fire() ([]byte, bool) {
	clip, ok := e.lib.Next(e.lang)
	if !ok {
		return nil, false
	}
	e.clip = clip
	e.playing = true
	return clip, true
}

// IsPlaying reports whether a filler is currently being emitted.
func (e *Engine) IsPlaying() bool {
	return e.playing
}

// CrossfadeOut blends the tail of the currently-playing filler clip with the
// head of the model's first real audio chunk over one frame, rather than
// cutting hard (spec §4.5: "crossfade out the filler over one frame (no
// hard cut)"), and stops playback.
func (e *Engine) CrossfadeOut(modelFirstChunk []byte) []byte {
	defer func() {
		e.playing = false
		e.armed = false
		e.clip = nil
	}()

	if len(e.clip) == 0 {
		return modelFirstChunk
	}

	n := crossfadeFrames * 2 // bytes, 2 bytes/sample
	if n > len(e.clip) {
		n = len(e.clip)
	}
	if n > len(modelFirstChunk) {
		n = len(modelFirstChunk)
	}
	if n == 0 {
		return modelFirstChunk
	}

	tailStart := len(e.clip) - n
	blended := make([]byte, len(modelFirstChunk))
	copy(blended, modelFirstChunk)

	for i := 0; i < n/2; i++ {
		fillerSample := int32(int16(binary.LittleEndian.Uint16(e.clip[tailStart+i*2:])))
		modelSample := int32(int16(binary.LittleEndian.Uint16(modelFirstChunk[i*2:])))

		weight := float64(i) / float64(n/2) // 0 -> all filler, 1 -> all model
		mixed := float64(fillerSample)*(1-weight) + float64(modelSample)*weight
		if mixed > 32767 {
			mixed = 32767
		}
		if mixed < -32768 {
			mixed = -32768
		}
		binary.LittleEndian.PutUint16(blended[i*2:], uint16(int16(mixed)))
	}
	return blended
}
