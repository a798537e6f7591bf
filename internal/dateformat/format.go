// Package dateformat formats dates with date-fns style patterns and
// relative phrases for the console's supported languages.
package dateformat

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type Options struct {
	// Format is a date-fns pattern; empty means "P".
	Format string
	// Relative formats against Now ("today at 2:07 PM", "last Friday at
	// ...") and ignores Format.
	Relative bool
	Now      time.Time
}

type Formatter struct {
	loc *locale
}

// New returns a formatter for the closest supported language (English when
// nothing matches).
func New(lang string) Formatter {
	return Formatter{loc: lookup(lang)}
}

func (f Formatter) Lang() string { return f.loc.tag.String() }

func (f Formatter) Format(t time.Time, opts Options) string {
	if opts.Relative {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		return f.pattern(t, f.loc.relative[relativeTokenFor(t, now)])
	}
	pattern := opts.Format
	if pattern == "" {
		pattern = "P"
	}
	return f.pattern(t, pattern)
}

func relativeTokenFor(t, now time.Time) relativeToken {
	switch diff := calendarDays(t, now); {
	case diff < -6:
		return other
	case diff < -1:
		return lastWeek
	case diff < 0:
		return yesterday
	case diff < 1:
		return today
	case diff < 2:
		return tomorrow
	case diff < 7:
		return nextWeek
	}
	return other
}

// calendarDays counts day boundaries from now to t in t's location.
func calendarDays(t, now time.Time) int {
	now = now.In(t.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

func (f Formatter) pattern(t time.Time, pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				b.WriteRune('\'')
				i += 2
				continue
			}
			j := i + 1
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						b.WriteRune('\'')
						j += 2
						continue
					}
					break
				}
				b.WriteRune(runes[j])
				j++
			}
			i = j + 1
			continue
		}
		if !isLetter(r) {
			b.WriteRune(r)
			i++
			continue
		}
		j := i
		for j < len(runes) && runes[j] == r {
			j++
		}
		n := j - i
		if r == 'd' && j < len(runes) && runes[j] == 'o' {
			b.WriteString(f.loc.ordinal(t.Day()))
			i = j + 1
			continue
		}
		b.WriteString(f.token(t, r, n))
		i = j
	}
	return b.String()
}

func (f Formatter) token(t time.Time, r rune, n int) string {
	switch r {
	case 'y':
		switch n {
		case 1:
			return strconv.Itoa(t.Year())
		case 2:
			return pad(t.Year()%100, 2)
		}
		return pad(t.Year(), n)
	case 'M':
		switch n {
		case 1:
			return strconv.Itoa(int(t.Month()))
		case 2:
			return pad(int(t.Month()), 2)
		case 3:
			return f.loc.monthsShort[t.Month()-1]
		}
		return f.loc.months[t.Month()-1]
	case 'd':
		return pad(t.Day(), n)
	case 'E', 'e':
		if n >= 4 {
			return f.loc.days[t.Weekday()]
		}
		if r == 'e' && n <= 2 {
			return pad(int(t.Weekday())+1, n)
		}
		return f.loc.daysShort[t.Weekday()]
	case 'H':
		return pad(t.Hour(), n)
	case 'h':
		h := t.Hour() % 12
		if h == 0 {
			h = 12
		}
		return pad(h, n)
	case 'm':
		return pad(t.Minute(), n)
	case 's':
		return pad(t.Second(), n)
	case 'a':
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case 'P', 'p':
		key := strings.Repeat(string(r), min(n, 4))
		if layout, ok := f.loc.formats[key]; ok {
			return f.pattern(t, layout)
		}
		return f.pattern(t, f.loc.formats[string(r)])
	}
	return strings.Repeat(string(r), n)
}

// Ago renders t relative to now ("3 hours ago").
func Ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func itoa(n int) string { return strconv.Itoa(n) }
