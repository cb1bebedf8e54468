package ui

import (
	"strings"
)

type HelpModel struct {
	Keyhelp [][]string
	Active  bool
}

func (m HelpModel) View() string {
	var text []string
	text = append(text, "")
	text = append(text, "")
	for _, info := range m.Keyhelp {
		k, help := info[0], info[1]
		text = append(text,
			Line(
				40,
				Cell{
					Width: 4,
				},
				Cell{
					Width: 10,
					Align: LeftAlign,
					Text:  StyleKey(k),
				},
				Cell{
					Align: LeftAlign,
					Text:  StyleKeyHelp(help),
				},
			))
	}
	return strings.Join(text, "\n")
}

// Footer is the bottom line of every view.
func Footer(width int) string {
	return Line(
		width,
		Cell{
			Width: 10,
			Text:  StyleLogo(" spellstr "),
		},
		Cell{
			Align: RightAlign,
			Text:  StyleHelp("? help  ctrl+c quit"),
		},
	)
}
