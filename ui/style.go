package ui

import (
	te "github.com/muesli/termenv"
)

var (
	StyleLogo      = NewStyle("#ffc27d", "#f37329", true, false)
	StyleHelp      = NewStyle("#4e4e4e", "", true, false)
	StyleWord      = NewStyle("#ffffff", "", true, false)
	StyleSentence  = NewStyle("#B9BFCA", "", false, true)
	StyleHint      = NewStyle("#66C2CD", "", false, true)
	StyleKey       = NewStyle("#D290E4", "", true, false)
	StyleKeyHelp   = NewStyle("#B9BFCA", "", false, false)
	StyleSuccess   = NewStyle("#5fd787", "", true, false)
	StyleFail      = NewStyle("#ff5f5f", "", true, false)
	StyleWordCount = NewStyle("#4e4e4e", "", false, false)
)

const (
	InputTextColor = "#ff5faf"
)

func NewStyle(fg string, bg string, bold bool, italic bool) func(string) string {
	s := te.Style{}.Foreground(te.ColorProfile().Color(fg)).Background(te.ColorProfile().Color(bg))
	if bold {
		s = s.Bold()
	}
	if italic {
		s = s.Italic()
	}
	return s.Styled
}
