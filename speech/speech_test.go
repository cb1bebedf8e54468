package speech

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeSynth struct {
	mu      sync.Mutex
	voices  []Voice
	spoken  []string
	voice   []*Voice
	active  int
	maxSeen int
	block   bool
}

func (f *fakeSynth) Voices(ctx context.Context) ([]Voice, error) {
	return f.voices, nil
}

func (f *fakeSynth) Speak(ctx context.Context, text string, voice *Voice, opts Options) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.voice = append(f.voice, voice)
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	block := f.block
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance did not finish")
	}
}

func waitSpoken(t *testing.T, f *fakeSynth, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		got := len(f.spoken)
		f.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d utterances to start", n)
}

func TestChooseVoice(t *testing.T) {
	voices := []Voice{
		{ID: "fr", Name: "French", Lang: "fr-fr"},
		{ID: "en-gb", Name: "English (Great Britain)", Lang: "en-gb"},
		{ID: "en-us", Name: "English (America)", Lang: "en_US"},
	}
	tests := []struct {
		name      string
		voices    []Voice
		preferred string
		want      string
		ok        bool
	}{
		{"preferred name", voices, "English (America)", "en-us", true},
		{"preferred missing falls back to english", voices, "Klingon", "en-gb", true},
		{"no preference picks english", voices, "", "en-gb", true},
		{"no english picks first", voices[:1], "", "fr", true},
		{"no voices", nil, "English (America)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := ChooseVoice(tt.voices, tt.preferred)
			if ok != tt.ok || v.ID != tt.want {
				t.Fatalf("ChooseVoice() = %q, %v; want %q, %v", v.ID, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSpeakWithoutBackend(t *testing.T) {
	s := NewService(nil, "", nil)
	done, err := s.Speak("hello", DefaultOptions)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel without a backend")
	}
	if _, err := s.LoadVoices(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from LoadVoices, got %v", err)
	}
	s.Stop()
}

func TestSpeakUsesChosenVoice(t *testing.T) {
	synth := &fakeSynth{voices: []Voice{{ID: "de", Lang: "de"}, {ID: "en-us", Name: "US", Lang: "en-us"}}}
	s := NewService(synth, "", nil)
	if _, err := s.LoadVoices(context.Background()); err != nil {
		t.Fatal(err)
	}
	done, err := s.Speak("Spell apple", DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, done)
	if len(synth.voice) != 1 || synth.voice[0] == nil || synth.voice[0].ID != "en-us" {
		t.Fatalf("expected en-us voice, got %+v", synth.voice)
	}
}

func TestSpeakCancelsInFlightUtterance(t *testing.T) {
	synth := &fakeSynth{block: true}
	s := NewService(synth, "", nil)

	first, err := s.Speak("first", DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	waitSpoken(t, synth, 1)

	second, err := s.Speak("second", DefaultOptions)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, first)
	waitSpoken(t, synth, 2)
	s.Stop()
	waitDone(t, second)

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if synth.maxSeen != 1 {
		t.Fatalf("expected at most one utterance at a time, saw %d", synth.maxSeen)
	}
	if !reflect.DeepEqual(synth.spoken, []string{"first", "second"}) {
		t.Fatalf("unexpected utterances %v", synth.spoken)
	}
}

func TestParseVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-gb           --/M      English_(Great_Britain) gmw/en               (en 2)
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
`)
	voices := parseVoices(out)
	want := []Voice{
		{ID: "af", Lang: "af", Name: "Afrikaans"},
		{ID: "en-gb", Lang: "en-gb", Name: "English (Great Britain)"},
		{ID: "en-us", Lang: "en-us", Name: "English (America)"},
	}
	if !reflect.DeepEqual(voices, want) {
		t.Fatalf("got %+v\nwant %+v", voices, want)
	}
}

func TestEspeakArgs(t *testing.T) {
	args := espeakArgs("Spell apple", &Voice{ID: "en-us"}, Options{Rate: 1.05, Pitch: 1})
	want := []string{"-v", "en-us", "-s", "184", "-p", "50", "--", "Spell apple"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	args = espeakArgs("x", nil, Options{Pitch: 3})
	want = []string{"-s", "166", "-p", "99", "--", "x"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
}
