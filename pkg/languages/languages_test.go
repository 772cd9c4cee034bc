package languages

import (
	"errors"
	"strings"
	"testing"
)

func TestSwap(t *testing.T) {
	tests := []struct{ source, target string }{
		{"en", "hi"},
		{"ta", "ta"},
		{"", "gu"},
	}
	for _, tt := range tests {
		s, g := Swap(tt.source, tt.target)
		if s != tt.target || g != tt.source {
			t.Errorf("Swap(%q, %q) = %q, %q", tt.source, tt.target, s, g)
		}
		s, g = Swap(Swap(tt.source, tt.target))
		if s != tt.source || g != tt.target {
			t.Errorf("double Swap(%q, %q) = %q, %q, want identity", tt.source, tt.target, s, g)
		}
	}
}

func TestCatalogs(t *testing.T) {
	full := Full()
	if len(full.Target) != 11 || full.Target[0].Code != "df" {
		t.Errorf("Full().Target = %v", full.Target)
	}
	if len(full.Source) != 20 {
		t.Errorf("len(Full().Source) = %d, want 20", len(full.Source))
	}

	simple := Simple()
	if len(simple.Target) != 10 || simple.Target[0].Code != "hi" {
		t.Errorf("Simple().Target = %v", simple.Target)
	}
	if len(simple.Source) != 15 {
		t.Errorf("len(Simple().Source) = %d, want 15", len(simple.Source))
	}
	if simple.DefaultTarget != "hi" || full.DefaultTarget != "df" {
		t.Errorf("default targets = %q, %q", simple.DefaultTarget, full.DefaultTarget)
	}
}

func TestLabel(t *testing.T) {
	c := Full()
	if got := Label(c.Target, "ta"); got != "Tamil (தமிழ்)" {
		t.Errorf("Label(ta) = %q", got)
	}
	if got := Label(c.Target, "xx"); got != "xx" {
		t.Errorf("Label(xx) = %q, want code back", got)
	}
}

func TestDemoTranslation(t *testing.T) {
	c := Simple()
	got, err := DemoTranslation(c, "Good morning", "en", "hi")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "[Demo Translation from English to Hindi (हिन्दी)]\n\nGood morning\n\n→ ") {
		t.Errorf("DemoTranslation() = %q", got)
	}

	if _, err := DemoTranslation(c, "  \n", "en", "hi"); !errors.Is(err, ErrMissingInput) {
		t.Errorf("blank input error = %v, want ErrMissingInput", err)
	}
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"ta": "Tamil",
		"df": "Hindi",
		"en": "English",
		"ur": "Urdu",
		"xx": "xx",
	}
	for code, want := range tests {
		if got := Name(code); got != want {
			t.Errorf("Name(%q) = %q, want %q", code, got, want)
		}
	}
}
