package wordset

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// WordEntry is one practice unit.
type WordEntry struct {
	Word            string `json:"word"`
	ExampleSentence string `json:"exampleSentence"`
}

// UnmarshalJSON accepts both the long form and the short {"w","s"} form
// used by the shipped words.json.
func (e *WordEntry) UnmarshalJSON(b []byte) error {
	var raw struct {
		Word     string `json:"word"`
		Sentence string `json:"exampleSentence"`
		W        string `json:"w"`
		S        string `json:"s"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.Word = raw.Word
	if e.Word == "" {
		e.Word = raw.W
	}
	e.ExampleSentence = raw.Sentence
	if e.ExampleSentence == "" {
		e.ExampleSentence = raw.S
	}
	return nil
}

type WordList []WordEntry

var defaultWords = WordList{
	{"hamburger", "I'd like to eat a hamburger."},
	{"apple", "An apple a day keeps the doctor away."},
	{"school", "We walk to school every morning."},
	{"friend", "My friend and I play at the park."},
	{"yellow", "The sun is bright and yellow."},
	{"basket", "Put the toys in the basket."},
	{"purple", "She drew a purple flower."},
	{"pencil", "Sharpen your pencil before class."},
	{"teacher", "The teacher reads a story."},
	{"animal", "The zoo has an animal show."},
	{"garden", "Tomatoes are growing in the garden."},
	{"music", "We listen to music together."},
	{"family", "My family eats dinner at six."},
	{"window", "Open the window to let in air."},
	{"cookie", "She baked a chocolate chip cookie."},
}

// Default returns a fresh copy of the word list shipped with the app.
func Default() WordList {
	return append(WordList(nil), defaultWords...)
}

var validword = regexp.MustCompile(`^[A-Za-z]+([-'][A-Za-z]+)*$`)

// Validate rejects entries a learner could not type or that have no sentence.
func (l WordList) Validate() error {
	for i, e := range l {
		word := strings.TrimSpace(e.Word)
		if !validword.MatchString(word) {
			return fmt.Errorf("entry %d: invalid word '%s'", i, e.Word)
		}
		if strings.TrimSpace(e.ExampleSentence) == "" {
			return fmt.Errorf("entry %d: word '%s' has no example sentence", i, e.Word)
		}
	}
	return nil
}

// Decode reads a JSON array of entries and trims every field.
func Decode(b []byte) (WordList, error) {
	var l WordList
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("decode word list: %w", err)
	}
	for i := range l {
		l[i].Word = strings.TrimSpace(l[i].Word)
		l[i].ExampleSentence = strings.TrimSpace(l[i].ExampleSentence)
	}
	return l, l.Validate()
}

// Import loads and validates a word list file. Empty files are rejected so an
// import never silently resets play to the default list.
func Import(fs afero.Fs, p string) (WordList, error) {
	if path.Base(p) == "/" || p == "" {
		return nil, fmt.Errorf("invalid word list path '%s'", p)
	}
	data, err := afero.ReadFile(fs, p)
	if err != nil {
		return nil, fmt.Errorf("read file %s %s", p, err.Error())
	}
	l, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if len(l) == 0 {
		return nil, fmt.Errorf("word list %s is empty", p)
	}
	return l, nil
}
