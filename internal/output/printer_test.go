package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestMsgColorWrapping(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, false, ArtFancy)

	p.Msg("hello", "yellow")
	got := out.String()
	if !strings.HasPrefix(got, "\033[0;33m") || !strings.HasSuffix(got, "\033[0m") {
		t.Errorf("colored output = %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Errorf("text missing: %q", got)
	}
}

func TestMsgUnknownColorFallsBack(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, false, ArtFancy)

	p.Msg("x", "no-such-color")
	if !strings.HasPrefix(out.String(), "\033[0m") {
		t.Errorf("fallback missing: %q", out.String())
	}
}

func TestMsgNoColor(t *testing.T) {
	var out bytes.Buffer
	p := New(&out, &bytes.Buffer{}, true, ArtFancy)

	p.Msg("plain", "yellow")
	if out.String() != "plain" {
		t.Errorf("got %q, want bare text", out.String())
	}
}

func TestErrMsgWritesToErrStream(t *testing.T) {
	var out, errw bytes.Buffer
	p := New(&out, &errw, true, ArtFancy)

	p.ErrMsg("warning: something\n")
	if out.Len() != 0 {
		t.Errorf("stdout polluted: %q", out.String())
	}
	if errw.String() != "warning: something\n" {
		t.Errorf("stderr = %q", errw.String())
	}
}

func TestArtTables(t *testing.T) {
	var out bytes.Buffer
	fancy := New(&out, &bytes.Buffer{}, true, ArtFancy)
	ascii := New(&out, &bytes.Buffer{}, true, ArtASCII)

	if fancy.Art("ulc") != "┌" || fancy.Art("crs") != "┼" {
		t.Errorf("fancy glyphs wrong: %q %q", fancy.Art("ulc"), fancy.Art("crs"))
	}
	if ascii.Art("ulc") != "+" || ascii.Art("hrz") != "-" || ascii.Art("vrt") != "|" {
		t.Errorf("ascii glyphs wrong")
	}

	out.Reset()
	ascii.ArtMsg("vrt", "white")
	if out.String() != "|" {
		t.Errorf("ArtMsg wrote %q", out.String())
	}
}

func TestValidColorName(t *testing.T) {
	for _, name := range []string{"default", "yellow", "brightred", "brightyellow", "white"} {
		if !ValidColorName(name) {
			t.Errorf("ValidColorName(%q) = false", name)
		}
	}
	if ValidColorName("mauve") {
		t.Error("ValidColorName(mauve) = true")
	}
}

func TestDefaultStyle(t *testing.T) {
	p := New(&bytes.Buffer{}, &bytes.Buffer{}, true, "")
	if p.Style != ArtFancy {
		t.Errorf("default style = %q, want fancy", p.Style)
	}
}
