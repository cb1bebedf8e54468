// Package speech speaks prompts aloud through a text-to-speech backend.
package speech

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sync"

	"github.com/charmbracelet/log"
)

var ErrUnavailable = errors.New("speech: no text-to-speech backend available")

// Options tunes one utterance. Rate and Pitch are relative, 1.0 is normal.
type Options struct {
	Rate  float64
	Pitch float64
}

var DefaultOptions = Options{Rate: 0.95, Pitch: 1.0}

type Voice struct {
	ID   string // identifier passed to the backend
	Name string
	Lang string
}

// Synthesizer is a text-to-speech backend. Speak blocks until the text has
// been spoken or ctx is cancelled.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, text string, voice *Voice, opts Options) error
}

var english = regexp.MustCompile(`(?i)en[-_]`)

// ChooseVoice prefers the named voice, then any English voice, then the first
// one listed.
func ChooseVoice(voices []Voice, preferred string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	if preferred != "" {
		for _, v := range voices {
			if v.Name == preferred {
				return v, true
			}
		}
	}
	for _, v := range voices {
		if english.MatchString(v.Lang) {
			return v, true
		}
	}
	return voices[0], true
}

// Service plays one utterance at a time. Starting a new one cancels the
// previous one and waits for it to go quiet.
type Service struct {
	synth     Synthesizer
	preferred string
	logger    *log.Logger

	mu     sync.Mutex
	voices []Voice
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService wraps synth. A nil synth gives a service that reports
// ErrUnavailable on every Speak.
func NewService(synth Synthesizer, preferred string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{synth: synth, preferred: preferred, logger: logger}
}

func (s *Service) Available() bool {
	return s != nil && s.synth != nil
}

// LoadVoices refreshes the voice list used for selection.
func (s *Service) LoadVoices(ctx context.Context) ([]Voice, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	voices, err := s.synth.Voices(ctx)
	if err != nil {
		s.logger.Warn("unable to list voices", "error", err)
		return nil, err
	}
	s.mu.Lock()
	s.voices = voices
	s.mu.Unlock()
	s.logger.Debug("loaded voices", "count", len(voices))
	return voices, nil
}

// SetPreferred changes the preferred voice name for later utterances.
func (s *Service) SetPreferred(name string) {
	s.mu.Lock()
	s.preferred = name
	s.mu.Unlock()
}

// Speak starts speaking text and returns a channel closed once it ends,
// fails or is interrupted. Without a backend the channel is already closed
// and ErrUnavailable is returned.
func (s *Service) Speak(text string, opts Options) (<-chan struct{}, error) {
	done := make(chan struct{})
	if !s.Available() {
		close(done)
		return done, ErrUnavailable
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	prev := s.done
	s.cancel = cancel
	s.done = done
	var voice *Voice
	if v, ok := ChooseVoice(s.voices, s.preferred); ok {
		voice = &v
	}
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}
		err := s.synth.Speak(ctx, text, voice, opts)
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("speech failed", "error", err)
		}
	}()
	return done, nil
}

// Stop interrupts the current utterance and waits for it to end.
func (s *Service) Stop() {
	if !s.Available() {
		return
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
