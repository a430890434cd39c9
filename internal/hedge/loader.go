package hedge

import (
	"os"
	"path/filepath"
	"sort"
)

// LoadClipsFromDir walks dir/<language>/*.pcm and loads each file as one
// pre-generated PCM16 filler clip, matching NewLibrary's map[Language][][]byte
// shape. Missing language subdirectories simply yield no clips for that
// language rather than an error, since not every deployment ships every
// language (spec §4.5 lists Hinglish/English/Spanish/French as supported,
// not required).
func LoadClipsFromDir(dir string) (map[Language][][]byte, error) {
	clips := make(map[Language][][]byte)
	for _, lang := range []Language{LangHinglish, LangEnglish, LangSpanish, LangFrench} {
		langDir := filepath.Join(dir, string(lang))
		entries, err := os.ReadDir(langDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && filepath.Ext(e.Name()) == ".pcm" {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			data, err := os.ReadFile(filepath.Join(langDir, name))
			if err != nil {
				return nil, err
			}
			clips[lang] = append(clips[lang], data)
		}
	}
	return clips, nil
}
