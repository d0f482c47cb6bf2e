package render

import (
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/agis/ecal/internal/event"
	"github.com/agis/ecal/internal/textwidth"
)

// Mode selects week or month layout.
type Mode int

const (
	ModeWeek Mode = iota
	ModeMonth
)

// fragment is one pending piece of cell text with its color. Fragments
// are enqueued per day-column and drained line by line during
// pagination.
type fragment struct {
	text  string
	color string
}

// cellQueue is the per-column queue of pending fragments.
type cellQueue []fragment

func (q *cellQueue) empty() bool { return len(*q) == 0 }

func (q *cellQueue) head() fragment { return (*q)[0] }

func (q *cellQueue) dequeue() { *q = (*q)[1:] }

func (q *cellQueue) replaceHead(f fragment) { (*q)[0] = f }

func (q *cellQueue) enqueue(f fragment) { *q = append(*q, f) }

// Grid renders weeks in rows, days of week in columns, and wrapped
// event titles in cells.
type Grid struct {
	Printer Printer
	Opts    Options
	Now     time.Time
}

// Render draws count weeks (ModeWeek) or the weeks covering one month
// (ModeMonth, count recomputed internally) starting at start, which must
// be a local midnight. Events are expected pre-filtered to the displayed
// range.
func (g *Grid) Render(mode Mode, start time.Time, count int, events []event.Event) {
	borderColor := g.Opts.ColorBorder
	days := g.Opts.days()
	line := strings.Repeat(g.Printer.Art("hrz"), g.Opts.CalWidth)

	divider := func(left, center, right string) string {
		var b strings.Builder
		b.WriteString(g.Printer.Art(left))
		b.WriteString(line)
		for i := 1; i < days; i++ {
			b.WriteString(g.Printer.Art(center))
			b.WriteString(line)
		}
		b.WriteString(g.Printer.Art(right))
		return b.String()
	}

	weekTop := divider("ulc", "ute", "urc")
	weekDivider := divider("lte", "crs", "rte")
	weekBottom := divider("llc", "bte", "lrc")
	emptyDay := strings.Repeat(" ", g.Opts.CalWidth)

	if mode == ModeMonth {
		g.Printer.Msg(divider("ulc", "hrz", "urc")+"\n", borderColor)
		title := strftime.Format("%B %Y", start)
		monthWidth := g.Opts.CalWidth*days + days - 1
		title += strings.Repeat(" ", max(0, monthWidth-textwidth.PrintedWidth(title)))
		g.Printer.ArtMsg("vrt", borderColor)
		g.Printer.Msg(title, g.Opts.ColorTitle)
		g.Printer.ArtMsg("vrt", borderColor)
		g.Printer.Msg("\n"+divider("lte", "ute", "rte")+"\n", borderColor)
	} else {
		g.Printer.Msg(weekTop+"\n", borderColor)
	}

	g.Printer.ArtMsg("vrt", borderColor)
	for _, name := range g.dayNames(days) {
		name += strings.Repeat(" ", max(0, g.Opts.CalWidth-textwidth.PrintedWidth(name)))
		g.Printer.Msg(name, g.Opts.ColorDate)
		g.Printer.ArtMsg("vrt", borderColor)
	}
	g.Printer.Msg("\n"+weekDivider+"\n", borderColor)

	curMonth := strftime.Format("%b", start)

	if mode == ModeMonth {
		offset := g.Opts.shiftDay(int(start.Weekday()))
		start = start.AddDate(0, 0, -offset)
	}
	weekStart := start
	weekEnd := weekStart.AddDate(0, 0, 7)

	for i := 0; i < count; i++ {
		for j := 0; j < days; j++ {
			day := weekStart.AddDate(0, 0, j)
			var d string
			if mode == ModeWeek {
				d = strftime.Format("%d %b", day)
			} else {
				d = strftime.Format("%d", day)
				if curMonth != strftime.Format("%b", day) {
					d = ""
				}
			}
			dateColor := g.Opts.ColorDate
			if sameDay(g.Now, day) {
				dateColor = g.Opts.ColorNowMarker
				d += " **"
			}
			d += strings.Repeat(" ", max(0, g.Opts.CalWidth-textwidth.PrintedWidth(d)))
			g.Printer.ArtMsg("vrt", borderColor)
			g.Printer.Msg(d, dateColor)
		}
		g.Printer.ArtMsg("vrt", borderColor)
		g.Printer.Msg("\n", "default")

		queues := g.weekEvents(weekStart, weekEnd, events)

		weekStart = weekEnd
		weekEnd = weekEnd.AddDate(0, 0, 7)

		// Drain the column queues one printed line at a time. Cell
		// heights differ per day and are only known once every fragment
		// has been wrapped, so this is iterative rather than
		// single-pass.
		for {
			done := true
			g.Printer.ArtMsg("vrt", borderColor)
			for j := 0; j < days; j++ {
				q := &queues[j]
				if q.empty() {
					g.Printer.Msg(emptyDay+g.Printer.Art("vrt"), borderColor)
					continue
				}
				cur := q.head()
				printLen, cutIdx := textwidth.CutPoint(cur.text, g.Opts.CalWidth)
				runes := []rune(cur.text)
				padding := strings.Repeat(" ", max(0, g.Opts.CalWidth-printLen))
				g.Printer.Msg(string(runes[:cutIdx])+padding, cur.color)

				rest := strings.TrimSpace(string(runes[cutIdx:]))
				if rest == "" {
					q.dequeue()
				} else {
					q.replaceHead(fragment{text: rest, color: cur.color})
				}
				done = false
				g.Printer.ArtMsg("vrt", borderColor)
			}
			g.Printer.Msg("\n", "default")
			if done {
				break
			}
		}

		if i < count-1 {
			g.Printer.Msg(weekDivider+"\n", borderColor)
		} else {
			g.Printer.Msg(weekBottom+"\n", borderColor)
		}
	}
}

// MonthWeeks returns the number of displayed weeks for the month
// starting at monthStart (the first of the month, local midnight).
func (g *Grid) MonthWeeks(monthStart time.Time) int {
	next := monthStart.AddDate(0, 1, 0)
	daysInMonth := int(next.Sub(monthStart).Hours() / 24)
	offset := int(monthStart.Weekday())
	if g.Opts.Monday {
		offset--
		if offset < 0 {
			offset = 6
		}
	}
	total := daysInMonth + offset
	weeks := total / 7
	if total%7 != 0 {
		weeks++
	}
	return weeks
}

// weekEvents buckets events into the 7 day slots of one displayed week
// and applies the now-marker policy: at most one marker effect per week,
// first match wins. A timed event in progress is recolored; otherwise a
// dash line is inserted into today's slot ahead of the first event not
// yet started.
func (g *Grid) weekEvents(weekStart, weekEnd time.Time, events []event.Event) []cellQueue {
	queues := make([]cellQueue, 7)

	showNow := !(g.Now.Before(weekStart) || g.Now.After(weekEnd))
	nowDay := g.Opts.shiftDay(int(g.Now.Weekday()))

	for _, ev := range events {
		evDay := g.Opts.shiftDay(int(ev.Start.Weekday()))

		startDate := ev.Start
		endDate := ev.EffectiveEnd()
		if ev.AllDay {
			// All-day end dates are stored exclusive (one day past the
			// last included day).
			endDate = endDate.AddDate(0, 0, -1)
		}

		startsThisWeek := !startDate.Before(weekStart) && startDate.Before(weekEnd)
		continuesThisWeek := startDate.Before(weekStart) && !endDate.Before(weekStart)

		if !startsThisWeek && !(ev.AllDay && continuesThisWeek) {
			continue
		}

		forceNowMarker := false
		if showNow {
			if !g.Now.Before(startDate) && !g.Now.After(endDate) && !ev.AllDay {
				forceNowMarker = true
				showNow = false
			} else if !g.Now.After(startDate) {
				queues[nowDay].enqueue(fragment{
					text:  "\n" + strings.Repeat("-", g.Opts.CalWidth),
					color: g.Opts.ColorNowMarker,
				})
				showNow = false
			}
		}
		color := "default"
		if forceNowMarker {
			color = g.Opts.ColorNowMarker
		}

		title := g.formatTitle(ev)
		if ev.AllDay && startDate.Before(endDate) {
			endDay := 6
			if endDate.Before(weekEnd) {
				endDay = g.Opts.shiftDay(int(endDate.Weekday()))
			}
			startDay := 0
			if !startDate.Before(weekStart) {
				startDay = evDay
			}
			// A spanning all-day event lands in every slot it covers,
			// not only the first.
			for d := startDay; d <= endDay; d++ {
				queues[d].enqueue(fragment{text: "\n" + title, color: color})
			}
		} else {
			queues[evDay].enqueue(fragment{text: "\n" + title, color: color})
		}
	}
	return queues
}

// formatTitle prepends the start time to the summary for timed events.
func (g *Grid) formatTitle(ev event.Event) string {
	title := ev.DisplayTitle()
	if ev.AllDay {
		return title
	}
	return clockString(ev.Start, g.Opts.Military) + " " + title
}

func clockString(t time.Time, military bool) string {
	if military {
		return strftime.Format("%H:%M", t)
	}
	return strings.TrimLeft(strftime.Format("%I:%M", t), "0") +
		strings.ToLower(strftime.Format("%p", t))
}

// dayNames returns the localized column labels. 2001-01-01 was a
// Monday, so names start Monday-first and rotate when the week starts
// on Sunday.
func (g *Grid) dayNames(days int) []string {
	names := make([]string, 0, days)
	for i := 0; i < days; i++ {
		names = append(names, strftime.Format("%A", time.Date(2001, time.January, i+1, 0, 0, 0, 0, time.UTC)))
	}
	if !g.Opts.Monday && len(names) == 7 {
		rotated := make([]string, 0, 7)
		rotated = append(rotated, names[6])
		rotated = append(rotated, names[:6]...)
		names = rotated
	}
	return names
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
