// Package hedge implements the latency-masking filler engine (spec §4.5):
// a small in-memory library of pre-generated PCM16 filler clips, keyed by
// language, played while the model produces its first audio chunk.
package hedge

import "sync"

// Language identifies a supported filler language (spec §4.5).
type Language string

const (
	LangHinglish Language = "hinglish"
	LangEnglish  Language = "english"
	LangSpanish  Language = "spanish"
	LangFrench   Language = "french"
)

// Library is a read-only-after-startup collection of filler clips, safe to
// share across sessions (spec §5: "the filler-buffer library: read-only
// after startup; safe to share across sessions").
type Library struct {
	clips map[Language][][]byte

	mu      sync.Mutex
	cursors map[Language]int
}

// NewLibrary builds a filler library from clips supplied per language. The
// caller is responsible for sourcing the actual PCM16 buffers (pre-generated
// offline); this type only owns selection state.
func NewLibrary(clips map[Language][][]byte) *Library {
	return &Library{
		clips:   clips,
		cursors: make(map[Language]int),
	}
}

// Next returns the next filler clip for lang via deterministic round-robin
// selection (spec §4.5: "deterministic round-robin per language, to avoid
// repetition artifacts across turns in the same session"), and false if no
// clips are registered for that language.
func (l *Library) Next(lang Language) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	clips := l.clips[lang]
	if len(clips) == 0 {
		return nil, false
	}
	idx := l.cursors[lang] % len(clips)
	l.cursors[lang] = (idx + 1) % len(clips)
	return clips[idx], true
}
