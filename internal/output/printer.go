// Package output writes styled text to the terminal. It owns the ANSI
// color table and the box-drawing art tables the grid renderer frames
// cells with.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ArtStyle selects the box-drawing glyph set.
type ArtStyle string

const (
	ArtFancy ArtStyle = "fancy"
	ArtASCII ArtStyle = "ascii"
)

var colorCodes = map[string]string{
	"default":       "\033[0m",
	"black":         "\033[0;30m",
	"red":           "\033[0;31m",
	"green":         "\033[0;32m",
	"yellow":        "\033[0;33m",
	"blue":          "\033[0;34m",
	"magenta":       "\033[0;35m",
	"cyan":          "\033[0;36m",
	"white":         "\033[0;37m",
	"brightblack":   "\033[30;1m",
	"brightred":     "\033[31;1m",
	"brightgreen":   "\033[32;1m",
	"brightyellow":  "\033[33;1m",
	"brightblue":    "\033[34;1m",
	"brightmagenta": "\033[35;1m",
	"brightcyan":    "\033[36;1m",
	"brightwhite":   "\033[37;1m",
}

var artTables = map[ArtStyle]map[string]string{
	ArtFancy: {
		"hrz": "─", "vrt": "│",
		"ulc": "┌", "urc": "┐",
		"llc": "└", "lrc": "┘",
		"ute": "┬", "bte": "┴",
		"lte": "├", "rte": "┤",
		"crs": "┼",
	},
	ArtASCII: {
		"hrz": "-", "vrt": "|",
		"ulc": "+", "urc": "+",
		"llc": "+", "lrc": "+",
		"ute": "+", "bte": "+",
		"lte": "+", "rte": "+",
		"crs": "+",
	},
}

// ValidColorName reports whether name is a recognized color.
func ValidColorName(name string) bool {
	_, ok := colorCodes[name]
	return ok
}

// Printer writes colored messages and art glyphs. Color is dropped when
// UseColor is false.
type Printer struct {
	Out      io.Writer
	Err      io.Writer
	UseColor bool
	Style    ArtStyle
}

// New builds a printer for out/err. Color is enabled only when out is a
// terminal and noColor is false.
func New(out, errw io.Writer, noColor bool, style ArtStyle) *Printer {
	useColor := !noColor
	if f, ok := out.(*os.File); ok {
		useColor = useColor && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
	}
	if style == "" {
		style = ArtFancy
	}
	return &Printer{Out: out, Err: errw, UseColor: useColor, Style: style}
}

// Msg writes text in the named color. Unknown or empty color names fall
// back to default.
func (p *Printer) Msg(text, color string) {
	if !p.UseColor {
		_, _ = io.WriteString(p.Out, text)
		return
	}
	code, ok := colorCodes[color]
	if !ok {
		code = colorCodes["default"]
	}
	_, _ = fmt.Fprintf(p.Out, "%s%s%s", code, text, colorCodes["default"])
}

// ErrMsg writes a diagnostic line to the error stream, in bright red
// when color is on.
func (p *Printer) ErrMsg(text string) {
	if p.UseColor {
		_, _ = fmt.Fprintf(p.Err, "%s%s%s", colorCodes["brightred"], text, colorCodes["default"])
		return
	}
	_, _ = io.WriteString(p.Err, text)
}

// Art returns the named box-drawing glyph for the active style.
func (p *Printer) Art(name string) string {
	return artTables[p.Style][name]
}

// ArtMsg writes one art glyph in the named color.
func (p *Printer) ArtMsg(name, color string) {
	p.Msg(p.Art(name), color)
}
