package hedge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadClipsFromDirSortsAndSkipsMissingLanguages(t *testing.T) {
	root := t.TempDir()
	englishDir := filepath.Join(root, string(LangEnglish))
	if err := os.MkdirAll(englishDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(englishDir, "b.pcm"), []byte("second"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(englishDir, "a.pcm"), []byte("first"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(englishDir, "ignore.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	clips, err := LoadClipsFromDir(root)
	if err != nil {
		t.Fatalf("LoadClipsFromDir: %v", err)
	}

	english := clips[LangEnglish]
	if len(english) != 2 {
		t.Fatalf("expected 2 .pcm clips, got %d", len(english))
	}
	if string(english[0]) != "first" || string(english[1]) != "second" {
		t.Fatalf("expected clips sorted by filename, got %q then %q", english[0], english[1])
	}

	if len(clips[LangSpanish]) != 0 {
		t.Fatal("expected no clips for a missing language subdirectory")
	}
}

func TestLoadClipsFromDirMissingRootIsNotAnError(t *testing.T) {
	clips, err := LoadClipsFromDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("expected no error for a missing root, got %v", err)
	}
	if len(clips) != 0 {
		t.Fatalf("expected no clips, got %v", clips)
	}
}
