package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
)

type Align int

const (
	LeftAlign Align = iota
	RightAlign
)

// Cell is one column of a Line. A Width of zero takes a share of the columns
// the fixed cells leave over.
type Cell struct {
	Text  string
	Width int
	Align Align
}

// Line pads or cuts every cell to its width and joins them. Widths are
// measured in display columns with ANSI sequences ignored.
func Line(width int, cells ...Cell) string {
	flex, rest := 0, width
	for _, c := range cells {
		if c.Width > 0 {
			rest -= c.Width
		} else {
			flex++
		}
	}
	share, extra := 0, 0
	if flex > 0 && rest > 0 {
		share, extra = rest/flex, rest%flex
	}

	var b strings.Builder
	for _, c := range cells {
		w := c.Width
		if w <= 0 {
			w = share
			if extra > 0 {
				w++
				extra--
			}
		}
		b.WriteString(fit(c.Text, w, c.Align))
	}
	return b.String()
}

func fit(text string, width int, align Align) string {
	n := ansi.PrintableRuneWidth(text)
	if n > width {
		text = truncate(text, width)
		n = runewidth.StringWidth(text)
	}
	pad := strings.Repeat(" ", width-n)
	if align == RightAlign {
		return pad + text
	}
	return text + pad
}

// truncate keeps the first n display columns of s. Styling is dropped when s
// has to be cut.
func truncate(s string, n int) string {
	var (
		b      strings.Builder
		cols   int
		inANSI bool
	)
	for _, c := range s {
		switch {
		case c == ansi.Marker:
			inANSI = true
		case inANSI:
			inANSI = !ansi.IsTerminator(c)
		default:
			w := runewidth.RuneWidth(c)
			if cols+w > n {
				return b.String()
			}
			b.WriteRune(c)
			cols += w
		}
	}
	return b.String()
}

func JoinLines(texts ...string) string {
	return strings.Join(texts, "\n")
}
