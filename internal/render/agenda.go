package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/agis/ecal/internal/event"
	"github.com/agis/ecal/internal/textwidth"
)

const (
	agendaIndent  = "            "        // 12 columns, matches day headers
	detailsIndent = "                   " // 19 columns, detail sub-blocks
)

// Agenda renders a pre-sorted, pre-filtered event list as a flat
// chronological listing.
type Agenda struct {
	Printer Printer
	Opts    Options
	Now     time.Time
}

// RenderList prints the banner and every event, with a date header
// whenever the day changes (or on every line when yearDate is set).
// origins marks listings of defining events of recurring series, which
// print a "Recurs" tag in place of a start time. Returns the number of
// events actually printed; 0 means the "no events" message was shown.
func (a *Agenda) RenderList(events []event.Event, yearDate, origins bool) int {
	if len(events) == 0 {
		a.Printer.Msg("\nNo Events Found...\n", "yellow")
		return 0
	}
	a.Printer.Msg(fmt.Sprintf("\n%d Events Found\n", len(events)), "yellow")
	return a.renderEvents(events, yearDate, origins)
}

// RenderEvents prints events without the banner, used for previews and
// confirmation listings.
func (a *Agenda) RenderEvents(events []event.Event, yearDate, origins bool) int {
	return a.renderEvents(events, yearDate, origins)
}

func (a *Agenda) renderEvents(events []event.Event, yearDate, origins bool) int {
	selected := 0
	dayFormat := "\n%a %b %d  "
	if yearDate {
		dayFormat = "\n%a %d-%b-%y"
	}
	day := ""
	for _, ev := range events {
		if a.Opts.IgnoreStarted && ev.Start.Before(a.Now) {
			continue
		}
		selected++
		dayStr := strftime.Format(dayFormat, ev.Start)
		prefix := ""
		if yearDate || dayStr != day {
			day = dayStr
			prefix = dayStr
		}
		a.printEvent(ev, prefix, origins)
	}
	return selected
}

// printEvent writes one agenda line plus optional description block.
func (a *Agenda) printEvent(ev event.Event, prefix string, origins bool) {
	if prefix == "" {
		prefix = agendaIndent
	}
	a.Printer.Msg(prefix, a.Opts.ColorDate)

	happeningNow := !ev.Start.After(a.Now) && !ev.EffectiveEnd().Before(a.Now)
	eventColor := "default"
	if happeningNow && !ev.AllDay {
		eventColor = a.Opts.ColorNowMarker
	}

	switch {
	case origins:
		// Aligned with " HH:MM to HH:MM" (military) or the 12h variant.
		width := 14
		if a.Opts.Military {
			width = 10
		}
		a.Printer.Msg(fmt.Sprintf("     %*s", width, "Recurs"), eventColor)
	case ev.AllDay:
		a.Printer.Msg(fmt.Sprintf(" %s", strings.Repeat(" ", a.clockWidth())), eventColor)
		if a.Opts.Outputs.End {
			a.Printer.Msg(fmt.Sprintf(" to %-*s", a.clockWidth(), a.dateString(ev.EffectiveEnd())), eventColor)
		}
	default:
		a.Printer.Msg(fmt.Sprintf(" %-*s", a.clockWidth(), clockString(ev.Start, a.Opts.Military)), eventColor)
		if a.Opts.Outputs.End {
			a.Printer.Msg(fmt.Sprintf(" to %-*s", a.clockWidth(), clockString(ev.EffectiveEnd(), a.Opts.Military)), eventColor)
		}
	}

	if a.Opts.Outputs.Alarms {
		if len(ev.Alarms) > 0 {
			minutes := -ev.Alarms[0].Trigger.Minutes()
			a.Printer.Msg(fmt.Sprintf(" AL:%.0fm", minutes), "default")
		} else {
			a.Printer.Msg(strings.Repeat(" ", 7), "default")
		}
	}
	if a.Opts.Outputs.FreeBusy {
		if ev.Transparency == event.TranspFree {
			a.Printer.Msg(" free ", eventColor)
		} else {
			a.Printer.Msg(" busy ", eventColor)
		}
	}

	a.Printer.Msg("  "+strings.TrimSpace(ev.DisplayTitle()), eventColor)

	if a.Opts.Outputs.Location && strings.TrimSpace(ev.Location) != "" {
		a.Printer.Msg(fmt.Sprintf(" [%s]", strings.TrimSpace(ev.Location)), "default")
	}
	if a.Opts.Outputs.UID {
		a.Printer.Msg(fmt.Sprintf(" <%s>", strings.TrimSpace(ev.UID)), "default")
	}
	a.Printer.Msg("\n", "default")

	if a.Opts.Outputs.Description && strings.TrimSpace(ev.Description) != "" {
		a.printDescription(strings.TrimSpace(ev.Description))
	}
}

// printDescription renders the description in a boxed sub-block wrapped
// to the configured output width.
func (a *Agenda) printDescription(descr string) {
	indent := detailsIndent + "  "
	width := a.Opts.Outputs.Width
	inner := width - len(indent) - 2 // columns between the vertical borders
	if inner < 4 {
		inner = 4
	}

	top := indent + a.Printer.Art("ulc") + strings.Repeat(a.Printer.Art("hrz"), inner) + a.Printer.Art("urc")
	bottom := indent + a.Printer.Art("llc") + strings.Repeat(a.Printer.Art("hrz"), inner) + a.Printer.Art("lrc")

	var body strings.Builder
	for _, line := range strings.Split(descr, "\n") {
		for _, chunk := range wrapChunks(line, inner-2) {
			pad := strings.Repeat(" ", max(0, inner-2-textwidth.PrintedWidth(chunk)))
			body.WriteString(indent)
			body.WriteString(a.Printer.Art("vrt"))
			body.WriteString(" " + chunk + pad + " ")
			body.WriteString(a.Printer.Art("vrt"))
			body.WriteString("\n")
		}
	}

	a.Printer.Msg(detailsIndent+"  Description:\n", "default")
	a.Printer.Msg(top+"\n", "default")
	a.Printer.Msg(body.String(), "default")
	a.Printer.Msg(bottom+"\n", "default")
}

// wrapChunks splits a line into pieces no wider than width printed
// columns, reusing the grid's cut policy.
func wrapChunks(line string, width int) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return []string{""}
	}
	var out []string
	for line != "" {
		_, cut := textwidth.CutPoint(line, width)
		runes := []rune(line)
		if cut <= 0 || cut > len(runes) {
			out = append(out, line)
			break
		}
		out = append(out, strings.TrimSpace(string(runes[:cut])))
		line = strings.TrimSpace(string(runes[cut:]))
	}
	return out
}

func (a *Agenda) clockWidth() int {
	if a.Opts.Military {
		return 5
	}
	return 7
}

// dateString renders an all-day end date, short form.
func (a *Agenda) dateString(t time.Time) string {
	if a.Opts.Military {
		return strftime.Format("%d-%m", t)
	}
	return strings.TrimLeft(strftime.Format("%d-%b", t), "0")
}
