package stages

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"blank lines dropped", "a\n\n\n  \nb\n", []string{"a", "b"}},
		{"separators become spaces", "Clean up “um,” “uh,” and repetitions", []string{"Clean up “um ” “uh ” and repetitions"}},
		{"semicolons", "one;two ;  three", []string{"one two three"}},
		{"tabs collapsed", "\tpitch\t\tloudness  ", []string{"pitch loudness"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Parse()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDefault(t *testing.T) {
	captions := Default()
	if len(captions) != 81 {
		t.Fatalf("len(Default()) = %d, want 81", len(captions))
	}
	if captions[0] != "🔹 Preprocessing Stage" {
		t.Errorf("first caption = %q", captions[0])
	}
	if captions[len(captions)-1] != "Output the fully processed translated video for end-use." {
		t.Errorf("last caption = %q", captions[len(captions)-1])
	}
}

func TestLoad(t *testing.T) {
	captions, err := Load("")
	if err != nil || len(captions) != 81 {
		t.Fatalf("Load(\"\") = %d captions, %v", len(captions), err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "script.txt")
	os.WriteFile(path, []byte("Upload\n\nTranslate, dub\n"), 0644)
	captions, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(captions) != 2 || captions[1] != "Translate dub" {
		t.Errorf("Load() = %q", captions)
	}

	empty := filepath.Join(dir, "empty.txt")
	os.WriteFile(empty, []byte("\n \n"), 0644)
	if _, err := Load(empty); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("Load(empty) error = %v, want ErrEmptyScript", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want not exist", err)
	}
}
