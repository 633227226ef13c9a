package motioneye

import (
	"strings"
	"sync"
	"time"
)

var strftimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
)

// layout is a MotionEye path segment pattern converted for time.Parse.
type layout struct {
	goLayout string
	hasYear  bool
	hasMonth bool
	hasDay   bool
}

// layouts memoises pattern conversion; patterns come from configuration and
// are few.
var layouts sync.Map // string -> layout

// toLayout converts a strftime segment such as "%Y-%m-%d" to a Go layout.
func toLayout(pattern string) layout {
	if cached, ok := layouts.Load(pattern); ok {
		return cached.(layout)
	}
	l := layout{
		goLayout: strftimeReplacer.Replace(pattern),
		hasYear:  strings.Contains(pattern, "%Y"),
		hasMonth: strings.Contains(pattern, "%m"),
		hasDay:   strings.Contains(pattern, "%d"),
	}
	layouts.Store(pattern, l)
	return l
}

// isDatePattern reports whether a segment contains strftime tokens. Other
// segments are literal directory names.
func isDatePattern(pattern string) bool {
	return strings.Contains(pattern, "%")
}

// parse reads value with the layout. Date fields the layout lacks are taken
// from ref; time fields the layout lacks are zero.
func (l layout) parse(value string, ref time.Time, loc *time.Location) (time.Time, bool) {
	parsed, err := time.ParseInLocation(l.goLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}

	ref = ref.In(loc)
	year, month, day := parsed.Date()
	if !l.hasYear {
		year = ref.Year()
	}
	if !l.hasMonth {
		month = ref.Month()
	}
	if !l.hasDay {
		day = ref.Day()
	}
	hour, minute, second := parsed.Clock()
	return time.Date(year, month, day, hour, minute, second, parsed.Nanosecond(), loc), true
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Millisecond), t.Location())
}

// stripExtension removes a trailing ".ext" from a file title.
func stripExtension(title string) string {
	if i := strings.LastIndexByte(title, '.'); i > 0 && i < len(title)-1 && !strings.ContainsRune(title[i:], '/') {
		return title[:i]
	}
	return title
}
