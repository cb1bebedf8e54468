// Package practice runs the spelling quiz: word selection, attempt counting,
// the quiz/confirm mode switch and the spoken prompts.
package practice

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lai323/spellstr/speech"
	"github.com/lai323/spellstr/utils"
	"github.com/lai323/spellstr/wordset"
)

const MaxIncorrectTries = 3

const (
	HintListen      = "Listen to the word and example sentence."
	HintUnavailable = "Speech is not available on this system."
)

type Mode int

const (
	Quiz Mode = iota
	Confirm
)

func (m Mode) String() string {
	return [...]string{"quiz", "confirm"}[m]
}

type View int

const (
	Landing View = iota
	Practicing
)

type FeedbackKind int

const (
	FeedbackNone FeedbackKind = iota
	FeedbackOK
	FeedbackErr
)

type Feedback struct {
	Kind FeedbackKind
	Text string
}

type Stats struct {
	CorrectCount int `json:"correctCount"`
	AttemptCount int `json:"attemptCount"`
}

func (s Stats) Valid() bool {
	return s.CorrectCount >= 0 && s.CorrectCount <= s.AttemptCount
}

func (s Stats) String() string {
	return fmt.Sprintf("%d correct out of %d attempted", s.CorrectCount, s.AttemptCount)
}

// Session is the state of the word being practiced. It is reset by NextWord.
type Session struct {
	Current        wordset.WordEntry
	IncorrectTries int
	Mode           Mode
	LastPrompt     string

	counted bool
}

// Transition is a deferred NextWord. The owner of the engine waits Delay and
// then calls Advance with ID.
type Transition struct {
	ID    uint64
	Delay time.Duration
}

type Outcome int

const (
	Ignored Outcome = iota
	Correct
	Retry
	Revealed
	Confirmed
	Retype
)

func (o Outcome) String() string {
	return [...]string{"ignored", "correct", "retry", "revealed", "confirmed", "retype"}[o]
}

// Result describes what one submission did. Transition is set when the
// engine wants to move on to the next word.
type Result struct {
	Outcome    Outcome
	Feedback   Feedback
	Transition *Transition
}

// Speaker is the speech capability the engine needs. The returned channel is
// closed once the utterance ends.
type Speaker interface {
	Speak(text string, opts speech.Options) (<-chan struct{}, error)
}

type EngineConfig struct {
	SuccessDelay  time.Duration
	ConfirmDelay  time.Duration
	SpeechOptions speech.Options
	Rand          *rand.Rand
	Logger        *log.Logger
}

var successOptions = speech.Options{Rate: 1.05, Pitch: 1.0}

type Engine struct {
	cfg     EngineConfig
	store   *Persistent
	speaker Speaker
	logger  *log.Logger
	rnd     *rand.Rand

	words    wordset.WordList
	stats    Stats
	view     View
	session  Session
	feedback Feedback
	hint     string
	pending  *Transition
	seq      uint64
}

// NewEngine loads the word list and stats from kv, using the defaults for
// anything missing or unusable. kv and speaker may be nil.
func NewEngine(kv KV, speaker Speaker, cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.SpeechOptions == (speech.Options{}) {
		cfg.SpeechOptions = speech.DefaultOptions
	}
	e := &Engine{
		cfg:     cfg,
		store:   NewPersistent(kv, cfg.Logger),
		speaker: speaker,
		logger:  cfg.Logger,
		rnd:     cfg.Rand,
		hint:    HintListen,
	}

	var words wordset.WordList
	if e.store.Load(WordListKey, &words) && words.Validate() == nil {
		e.words = words
	} else {
		e.words = wordset.Default()
	}
	var stats Stats
	if e.store.Load(StatsKey, &stats) && stats.Valid() {
		e.stats = stats
	}
	return e
}

func (e *Engine) View() View { return e.view }
func (e *Engine) Mode() Mode { return e.session.Mode }
func (e *Engine) Stats() Stats { return e.stats }
func (e *Engine) Feedback() Feedback { return e.feedback }
func (e *Engine) Hint() string { return e.hint }
func (e *Engine) Current() wordset.WordEntry { return e.session.Current }
func (e *Engine) Session() Session { return e.session }
func (e *Engine) Pending() bool { return e.pending != nil }

func (e *Engine) Words() wordset.WordList {
	return append(wordset.WordList(nil), e.words...)
}

// Start leaves the landing view and prompts the first word.
func (e *Engine) Start() {
	if e.view == Practicing {
		return
	}
	e.view = Practicing
	e.NextWord()
}

// NextWord picks a word at random, with replacement, and prompts it. Any
// pending transition is dropped.
func (e *Engine) NextWord() {
	e.pending = nil
	if len(e.words) == 0 {
		e.words = wordset.Default()
		e.store.Save(WordListKey, e.words)
	}
	e.session = Session{
		Current: e.words[e.rnd.Intn(len(e.words))],
		Mode:    Quiz,
	}
	e.feedback = Feedback{}
	e.logger.Debug("next word", "word", e.session.Current.Word)
	e.prompt()
}

func (e *Engine) prompt() {
	w := e.session.Current
	text := fmt.Sprintf("Spell %s, as in: \"%s\"", w.Word, w.ExampleSentence)
	e.session.LastPrompt = text
	e.hint = HintListen
	e.say(text, e.cfg.SpeechOptions)
}

// Submit checks one typed answer. Nothing happens outside the practice view
// or while a transition is pending.
func (e *Engine) Submit(raw string) Result {
	if e.view != Practicing || e.pending != nil {
		return Result{Outcome: Ignored}
	}
	w := e.session.Current.Word
	match := utils.Normalize(raw) == utils.Normalize(w)

	if e.session.Mode == Confirm {
		if match {
			e.feedback = Feedback{FeedbackOK, "Correct. Let's try the next word."}
			e.say("Correct. Great job.", successOptions)
			return Result{Confirmed, e.feedback, e.schedule(e.cfg.ConfirmDelay)}
		}
		e.feedback = Feedback{FeedbackErr, fmt.Sprintf("Please type the correct spelling shown: \"%s\".", w)}
		e.say("Please type the correct spelling shown.", e.cfg.SpeechOptions)
		return Result{Outcome: Retype, Feedback: e.feedback}
	}

	if match {
		e.count(true)
		e.feedback = Feedback{FeedbackOK, "Correct! Great job."}
		e.say(e.feedback.Text, successOptions)
		return Result{Correct, e.feedback, e.schedule(e.cfg.SuccessDelay)}
	}

	e.session.IncorrectTries++
	if e.session.IncorrectTries < MaxIncorrectTries {
		e.feedback = Feedback{FeedbackErr, "Not quite. Try again."}
		e.say(e.feedback.Text, e.cfg.SpeechOptions)
		return Result{Outcome: Retry, Feedback: e.feedback}
	}

	e.count(false)
	e.session.Mode = Confirm
	e.feedback = Feedback{FeedbackErr, fmt.Sprintf("The correct spelling is \"%s\". Please type it to continue.", w)}
	e.say(fmt.Sprintf("The correct spelling is %s. Please type it to continue.", w), e.cfg.SpeechOptions)
	return Result{Outcome: Revealed, Feedback: e.feedback}
}

// HearAgain repeats the last prompt.
func (e *Engine) HearAgain() {
	if e.view != Practicing {
		return
	}
	if e.session.LastPrompt != "" {
		e.say(e.session.LastPrompt, e.cfg.SpeechOptions)
		return
	}
	e.prompt()
}

// Skip moves on to a new word. The skipped word costs an attempt unless it
// was already counted, by a third miss or by a success waiting to advance.
// The returned notice is meant to be shown after the new prompt.
func (e *Engine) Skip() Feedback {
	if e.view != Practicing {
		return Feedback{}
	}
	if !e.session.counted {
		e.count(false)
	}
	e.logger.Debug("skip", "word", e.session.Current.Word)
	e.NextWord()
	return Feedback{FeedbackErr, "Skipped. Try the next word."}
}

// Advance runs the pending transition with the given id. Ids from cancelled
// or already fired transitions are ignored.
func (e *Engine) Advance(id uint64) bool {
	if e.pending == nil || e.pending.ID != id {
		return false
	}
	e.NextWord()
	return true
}

// ReplaceWords installs and persists a new word list. The current word is
// kept until the next one is drawn.
func (e *Engine) ReplaceWords(list wordset.WordList) error {
	if len(list) == 0 {
		return errors.New("word list is empty")
	}
	if err := list.Validate(); err != nil {
		return err
	}
	e.words = append(wordset.WordList(nil), list...)
	e.store.Save(WordListKey, e.words)
	return nil
}

func (e *Engine) count(correct bool) {
	e.stats.AttemptCount++
	if correct {
		e.stats.CorrectCount++
	}
	e.session.counted = true
	e.store.Save(StatsKey, e.stats)
}

func (e *Engine) schedule(d time.Duration) *Transition {
	e.seq++
	e.pending = &Transition{ID: e.seq, Delay: d}
	t := *e.pending
	return &t
}

func (e *Engine) say(text string, opts speech.Options) {
	if e.speaker == nil {
		e.hint = HintUnavailable
		return
	}
	if _, err := e.speaker.Speak(text, opts); err != nil {
		if errors.Is(err, speech.ErrUnavailable) {
			e.hint = HintUnavailable
			return
		}
		e.logger.Warn("speak failed", "error", err)
	}
}
