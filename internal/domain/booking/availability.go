package booking

import (
	"errors"
	"fmt"
	"time"
)

// Studio schedule, in minutes since midnight.
const (
	StudioOpen      = 10 * 60
	StudioClose     = 18 * 60
	SlotStep        = 30
	Buffer          = 30
	DefaultDuration = 60
)

const DateLayout = "2006-01-02"

var ErrInvalidClock = errors.New("time must be HH:MM")

// Window is a half-open interval [Start, End) in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// NewWindow covers the session itself plus the trailing buffer.
func NewWindow(start, duration int) Window {
	return Window{Start: start, End: start + duration + Buffer}
}

func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

func (w Window) WithinStudioHours() bool {
	return w.Start >= StudioOpen && w.End <= StudioClose
}

type StudioHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func Hours() StudioHours {
	return StudioHours{Start: FormatClock(StudioOpen), End: FormatClock(StudioClose)}
}

// AvailableSlots lists every 30-minute aligned start whose buffered window
// fits before closing and does not collide with any of the booked windows.
func AvailableSlots(duration int, booked []Window) []string {
	if duration <= 0 {
		duration = DefaultDuration
	}

	slots := []string{}
	for start := StudioOpen; start < StudioClose; start += SlotStep {
		candidate := NewWindow(start, duration)
		if candidate.End > StudioClose {
			continue
		}
		if conflicts(candidate, booked) {
			continue
		}
		slots = append(slots, FormatClock(start))
	}
	return slots
}

func conflicts(w Window, booked []Window) bool {
	for _, b := range booked {
		if w.Overlaps(b) {
			return true
		}
	}
	return false
}

// ParseClock turns "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a calendar day (YYYY-MM-DD) as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
