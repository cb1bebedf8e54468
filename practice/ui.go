package practice

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lai323/spellstr/ui"
	"github.com/muesli/reflow/wordwrap"
)

const minWidth = 40

type AdvanceMsg struct {
	ID uint64
}

func advanceCmd(t *Transition) tea.Cmd {
	if t == nil {
		return nil
	}
	id := t.ID
	return tea.Tick(t.Delay, func(time.Time) tea.Msg {
		return AdvanceMsg{ID: id}
	})
}

type PracModel struct {
	engine    *Engine
	textInput textinput.Model
	viewport  viewport.Model
	width     int
	ready     bool
	helpmode  ui.HelpModel
	notice    Feedback
}

func NewPracModel(engine *Engine) *PracModel {
	m := &PracModel{engine: engine}
	m.textInput = textinput.New()
	m.textInput.Prompt = ""
	m.textInput.Placeholder = "__________"
	m.textInput.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.InputTextColor))
	m.textInput.CharLimit = 64
	m.textInput.Width = 40
	m.helpmode = ui.HelpModel{
		Keyhelp: [][]string{
			{"?", "back"},
			{"enter", "start / submit"},
			{"tab", "hear again"},
			{"ctrl+n", "skip"},
			{"ctrl+c", "quit"},
		},
	}
	return m
}

func (m *PracModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *PracModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmds []tea.Cmd
		cmd  tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "?":
			m.helpmode.Active = !m.helpmode.Active
			return m, nil
		case "esc":
			if m.helpmode.Active {
				m.helpmode.Active = false
				return m, nil
			}
		}
		if m.helpmode.Active {
			return m, nil
		}
		if m.engine.View() == Landing {
			if msg.String() == "enter" {
				m.engine.Start()
				m.reset()
			}
			return m, nil
		}
		switch msg.String() {
		case "enter":
			res := m.engine.Submit(m.textInput.Value())
			if res.Outcome == Ignored {
				return m, nil
			}
			m.notice = Feedback{}
			switch res.Outcome {
			case Revealed:
				m.textInput.SetValue("")
			case Correct, Confirmed:
				m.textInput.Blur()
			}
			return m, advanceCmd(res.Transition)
		case "tab":
			m.engine.HearAgain()
			return m, nil
		case "ctrl+n":
			notice := m.engine.Skip()
			m.reset()
			m.notice = notice
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		viewportHeight := msg.Height - 2 // infobar and footer
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}

	case AdvanceMsg:
		if m.engine.Advance(msg.ID) {
			m.reset()
		}
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *PracModel) reset() {
	m.notice = Feedback{}
	m.textInput.SetValue("")
	m.textInput.Focus()
}

func (m *PracModel) View() string {
	if !m.ready {
		return "\n  Initalizing..."
	}
	if m.width < minWidth {
		return fmt.Sprintf("Terminal window too narrow to render content\nResize to fix (%d/%d)", m.width, minWidth)
	}
	var content string
	switch {
	case m.helpmode.Active:
		content = m.helpmode.View()
	case m.engine.View() == Landing:
		content = m.landingView()
	default:
		content = m.pracView()
	}
	m.viewport.SetContent(wordwrap.String(content, m.viewport.Width))
	return strings.Join(
		[]string{
			m.viewport.View(), "\n",
			infobar(m.engine.Stats(), m.engine.Mode(), m.engine.View(), m.viewport.Width), "\n",
			ui.Footer(m.viewport.Width),
		},
		"",
	)
}

func (m *PracModel) landingView() string {
	return ui.JoinLines(
		"",
		"",
		"  "+ui.StyleWord("Listen, then spell."),
		"",
		"  Each word is spoken with an example sentence. You get three tries,",
		"  after that the spelling is shown and has to be typed once to move on.",
		"",
		"  "+ui.StyleHint("press enter to start"),
	)
}

func (m *PracModel) pracView() string {
	s := m.engine.Session()
	lines := []string{
		"",
		"  " + ui.StyleHint(m.engine.Hint()),
		"",
		"  " + ui.StyleSentence(maskWord(s.Current.ExampleSentence, s.Current.Word)),
		"",
		"  " + m.textInput.View(),
		"",
	}
	if fb := m.engine.Feedback(); fb.Kind != FeedbackNone {
		lines = append(lines, "  "+styleFeedback(fb))
	}
	if m.notice.Kind != FeedbackNone {
		lines = append(lines, "  "+styleFeedback(m.notice))
	}
	return ui.JoinLines(lines...)
}

func styleFeedback(fb Feedback) string {
	if fb.Kind == FeedbackOK {
		return ui.StyleSuccess(fb.Text)
	}
	return ui.StyleFail(fb.Text)
}

// maskWord hides the word inside its example sentence.
func maskWord(sentence, word string) string {
	if word == "" {
		return sentence
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(word))
	return re.ReplaceAllString(sentence, strings.Repeat("_", len(word)))
}

func infobar(stats Stats, mode Mode, view View, width int) string {
	statstext := stats.String()
	modetext := ""
	if view == Practicing {
		modetext = "mode " + mode.String()
	}
	return ui.Line(
		width,
		ui.Cell{
			Width: len(statstext) + 4,
			Text:  "  " + ui.StyleWordCount(statstext),
		},
		ui.Cell{
			Text:  ui.StyleWordCount(modetext),
			Align: ui.RightAlign,
		},
	)
}

// Start runs the practice screen until the user quits.
func Start(engine *Engine) error {
	_, err := tea.NewProgram(NewPracModel(engine), tea.WithAltScreen()).Run()
	return err
}
