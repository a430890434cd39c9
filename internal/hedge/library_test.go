package hedge

import "testing"

func TestLibraryNextRoundRobins(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{
		LangEnglish: {[]byte("a"), []byte("b"), []byte("c")},
	})

	seen := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		clip, ok := lib.Next(LangEnglish)
		if !ok {
			t.Fatalf("expected a clip at iteration %d", i)
		}
		seen = append(seen, string(clip))
	}

	want := []string{"a", "b", "c", "a", "b", "c"}
	for i, w := range want {
		if seen[i] != w {
			t.Fatalf("expected round-robin order %v, got %v", want, seen)
		}
	}
}

func TestLibraryNextMissingLanguage(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{LangEnglish: {[]byte("a")}})
	if _, ok := lib.Next(LangSpanish); ok {
		t.Fatal("expected no clip for an unregistered language")
	}
}

func TestLibraryNextEmptyClipSet(t *testing.T) {
	lib := NewLibrary(map[Language][][]byte{LangFrench: {}})
	if _, ok := lib.Next(LangFrench); ok {
		t.Fatal("expected no clip for an empty clip set")
	}
}
