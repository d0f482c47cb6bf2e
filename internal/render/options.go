// Package render lays out event lists as a chronological agenda or as
// fixed-width week/month grids. It performs no I/O of its own: all text
// goes through the Printer collaborator, and each render pass works on
// an immutable snapshot with an explicit "now" owned by the caller.
package render

// Printer is the output collaborator: colored text plus the box-drawing
// art table used for grid borders.
type Printer interface {
	Msg(text, color string)
	Art(name string) string
	ArtMsg(name, color string)
}

// Outputs toggles the optional per-event fields in agenda listings.
// Width is the total output width used for description boxes.
type Outputs struct {
	Location    bool
	End         bool
	Alarms      bool
	Description bool
	FreeBusy    bool
	UID         bool
	Width       int
}

// Options is the rendering configuration surface.
type Options struct {
	CalWidth int  // printed columns per grid cell, >= 10
	Monday   bool // weeks start on Monday
	Weekend  bool // false hides Saturday and Sunday
	Military bool // 24h time

	ColorDate      string
	ColorNowMarker string
	ColorBorder    string
	ColorTitle     string

	Outputs Outputs

	IgnoreStarted bool
	// IgnoreDeclined is accepted for compatibility but has no effect:
	// participant status is not part of the event model.
	IgnoreDeclined bool
}

// DefaultOptions returns the stock rendering configuration.
func DefaultOptions() Options {
	return Options{
		CalWidth:       10,
		Weekend:        true,
		ColorDate:      "yellow",
		ColorNowMarker: "brightred",
		ColorBorder:    "white",
		ColorTitle:     "brightyellow",
		Outputs: Outputs{
			Location: true,
			End:      true,
			Alarms:   true,
			FreeBusy: true,
			Width:    80,
		},
	}
}

// days returns the number of displayed columns.
func (o Options) days() int {
	if o.Weekend {
		return 7
	}
	return 5
}

// shiftDay converts a Sunday-based weekday number to the displayed
// column ordering. Hiding the weekend implies a Monday start.
func (o Options) shiftDay(dayNum int) int {
	if o.Monday || !o.Weekend {
		dayNum--
		if dayNum < 0 {
			dayNum = 6
		}
	}
	return dayNum
}
