package wordset

import (
	"testing"

	"github.com/spf13/afero"
)

func TestValidword(t *testing.T) {
	cases := map[string]bool{
		"abc":       true,
		"Apple":     true,
		"ice-cream": true,
		"don't":     true,
		"1abc":      false,
		"abc1":      false,
		"ab c":      false,
		"abå˜¿":      false,
		"-abc":      false,
	}
	for word, want := range cases {
		if got := validword.MatchString(word); got != want {
			t.Errorf("validword(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestDefaultIsCopy(t *testing.T) {
	a := Default()
	a[0].Word = "changed"
	if Default()[0].Word != "hamburger" {
		t.Fatal("Default must return an independent copy")
	}
	if len(Default()) != 15 {
		t.Fatalf("expected 15 default words, got %d", len(Default()))
	}
}

func TestDecodeBothForms(t *testing.T) {
	l, err := Decode([]byte(`[
		{"word": " apple ", "exampleSentence": "An apple a day..."},
		{"w": "school", "s": "We walk to school every morning."}
	]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(l) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(l))
	}
	if l[0].Word != "apple" || l[0].ExampleSentence != "An apple a day..." {
		t.Errorf("unexpected first entry %+v", l[0])
	}
	if l[1].Word != "school" || l[1].ExampleSentence == "" {
		t.Errorf("unexpected second entry %+v", l[1])
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	if _, err := Decode([]byte(`[{"word": "ab1", "exampleSentence": "x"}]`)); err == nil {
		t.Error("expected error for invalid word")
	}
	if _, err := Decode([]byte(`[{"word": "apple"}]`)); err == nil {
		t.Error("expected error for missing sentence")
	}
	if _, err := Decode([]byte(`{"word": "apple"}`)); err == nil {
		t.Error("expected error for non-array document")
	}
}

func TestImport(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/words.json", []byte(`[{"w":"yellow","s":"The sun is bright and yellow."}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/empty.json", []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := Import(fs, "/words.json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(l) != 1 || l[0].Word != "yellow" {
		t.Fatalf("unexpected list %+v", l)
	}
	if _, err := Import(fs, "/empty.json"); err == nil {
		t.Error("expected error for empty list")
	}
	if _, err := Import(fs, "/missing.json"); err == nil {
		t.Error("expected error for missing file")
	}
}
