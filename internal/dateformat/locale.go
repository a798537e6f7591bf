package dateformat

import "golang.org/x/text/language"

type locale struct {
	tag         language.Tag
	months      [12]string
	monthsShort [12]string
	days        [7]string
	daysShort   [7]string
	formats     map[string]string
	relative    map[relativeToken]string
	ordinal     func(n int) string
}

type relativeToken int

const (
	lastWeek relativeToken = iota
	yesterday
	today
	tomorrow
	nextWeek
	other
)

var en = &locale{
	tag: language.English,
	months: [12]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	monthsShort: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	days:        [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	daysShort:   [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	formats: map[string]string{
		"P":    "MM/dd/yyyy",
		"PP":   "MMM d, y",
		"PPP":  "MMMM do, y",
		"PPPP": "EEEE, MMMM do, y",
		"p":    "h:mm a",
		"pp":   "h:mm:ss a",
	},
	relative: map[relativeToken]string{
		lastWeek:  "'last' eeee 'at' p",
		yesterday: "'yesterday at' p",
		today:     "'today at' p",
		tomorrow:  "'tomorrow at' p",
		nextWeek:  "eeee 'at' p",
		other:     "P",
	},
	ordinal: func(n int) string {
		if r := n % 100; r > 10 && r < 14 {
			return itoa(n) + "th"
		}
		switch n % 10 {
		case 1:
			return itoa(n) + "st"
		case 2:
			return itoa(n) + "nd"
		case 3:
			return itoa(n) + "rd"
		}
		return itoa(n) + "th"
	},
}

var fr = &locale{
	tag: language.French,
	months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	monthsShort: [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin",
		"juil.", "août", "sept.", "oct.", "nov.", "déc."},
	days:      [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
	daysShort: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
	formats: map[string]string{
		"P":    "dd/MM/y",
		"PP":   "d MMM y",
		"PPP":  "d MMMM y",
		"PPPP": "EEEE d MMMM y",
		"p":    "HH:mm",
		"pp":   "HH:mm:ss",
	},
	relative: map[relativeToken]string{
		lastWeek:  "eeee 'dernier à' p",
		yesterday: "'hier à' p",
		today:     "'aujourd’hui à' p",
		tomorrow:  "'demain à' p",
		nextWeek:  "eeee 'prochain à' p",
		other:     "P",
	},
	ordinal: func(n int) string {
		if n == 1 {
			return "1er"
		}
		return itoa(n) + "e"
	},
}

var (
	locales = []*locale{en, fr}
	matcher = language.NewMatcher([]language.Tag{language.English, language.French})
)

func lookup(lang string) *locale {
	tag, err := language.Parse(lang)
	if err != nil {
		return en
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return en
	}
	return locales[idx]
}
