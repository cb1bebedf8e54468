package practice

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m *PracModel, s string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(m *PracModel, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

func newTestModel(t *testing.T) (*PracModel, *fakeSpeaker) {
	t.Helper()
	kv := newMemKV()
	withWords(t, kv, apple)
	sp := &fakeSpeaker{}
	m := NewPracModel(newTestEngine(t, kv, sp))
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, sp
}

func TestModelLanding(t *testing.T) {
	m, sp := newTestModel(t)
	if !strings.Contains(m.View(), "press enter to start") {
		t.Fatalf("landing view missing start hint")
	}
	typeText(m, "apple")
	if m.engine.View() != Landing || len(sp.said) != 0 {
		t.Fatal("typing on the landing view started practice")
	}
	press(m, tea.KeyEnter)
	if m.engine.View() != Practicing {
		t.Fatal("enter did not start practice")
	}
	if len(sp.said) != 1 {
		t.Errorf("spoke %d prompts", len(sp.said))
	}
}

func TestModelSubmitAndAdvance(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, tea.KeyEnter)
	typeText(m, "apple")
	cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("correct answer scheduled nothing")
	}
	if !strings.Contains(m.View(), "Correct! Great job.") {
		t.Errorf("feedback not shown")
	}
	if !strings.Contains(m.View(), "1 correct out of 1 attempted") {
		t.Errorf("stats line not shown")
	}

	m.Update(AdvanceMsg{ID: 99})
	if m.engine.Feedback().Kind == FeedbackNone {
		t.Fatal("stale advance moved on")
	}
	m.Update(AdvanceMsg{ID: 1})
	if m.engine.Feedback().Kind != FeedbackNone {
		t.Fatal("advance did not move on")
	}
	if m.textInput.Value() != "" {
		t.Errorf("input not cleared: %q", m.textInput.Value())
	}
}

func TestModelRevealClearsInput(t *testing.T) {
	m, _ := newTestModel(t)
	press(m, tea.KeyEnter)
	for _, s := range []string{"a", "b", "c"} {
		m.textInput.SetValue(s)
		press(m, tea.KeyEnter)
	}
	if m.engine.Mode() != Confirm {
		t.Fatalf("mode = %v", m.engine.Mode())
	}
	if m.textInput.Value() != "" {
		t.Errorf("input kept after reveal: %q", m.textInput.Value())
	}
	if !strings.Contains(m.View(), `The correct spelling is "apple"`) {
		t.Errorf("reveal not shown")
	}
}

func TestModelSkipAndHear(t *testing.T) {
	m, sp := newTestModel(t)
	press(m, tea.KeyEnter)
	press(m, tea.KeyTab)
	if len(sp.said) != 2 || sp.said[0].text != sp.said[1].text {
		t.Fatalf("hear again spoke %+v", sp.said)
	}
	press(m, tea.KeyCtrlN)
	if m.engine.Stats().AttemptCount != 1 {
		t.Errorf("skip not counted")
	}
	if !strings.Contains(m.View(), "Skipped. Try the next word.") {
		t.Errorf("skip notice not shown")
	}
}

func TestModelHelpToggle(t *testing.T) {
	m, _ := newTestModel(t)
	typeText(m, "?")
	if !m.helpmode.Active || !strings.Contains(m.View(), "hear again") {
		t.Fatal("help not shown")
	}
	press(m, tea.KeyEnter)
	if m.engine.View() != Landing {
		t.Error("enter reached the engine while help was shown")
	}
	press(m, tea.KeyEsc)
	if m.helpmode.Active {
		t.Error("esc did not close help")
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t)
	cmd := press(m, tea.KeyCtrlC)
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
}

func TestMaskWord(t *testing.T) {
	got := maskWord("An Apple a day keeps the doctor away, apple.", "apple")
	if got != "An _____ a day keeps the doctor away, _____." {
		t.Errorf("mask = %q", got)
	}
}
