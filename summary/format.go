package summary

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/model"
	"github.com/shopspring/decimal"
)

// Locale is the display vocabulary of one language and region
type Locale struct {
	Tag             string
	Currency        string
	Weekdays        [7]string // indexed by time.Weekday
	Months          [12]string
	DateNotRecorded string
	TimeToBeDefined string
}

// PeruvianSpanish is the es-PE locale with soles as currency
var PeruvianSpanish = Locale{
	Tag:      "es-PE",
	Currency: "S/.",
	Weekdays: [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
	Months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
	DateNotRecorded: "Fecha no registrada",
	TimeToBeDefined: "Hora por definir",
}

// LocaleFor returns the locale for tag with an optional currency override.
// Only es-PE is bundled; other tags fall back to it.
func LocaleFor(tag, currency string) Locale {
	loc := PeruvianSpanish
	if currency != "" {
		loc.Currency = currency
	}
	return loc
}

const emDash = "—"

// Money renders v with the currency prefix and two decimals. Anything that
// is not a finite number renders as zero.
func (l Locale) Money(v any) string {
	d, ok := ParseAmount(v)
	if !ok {
		d = decimal.Zero
	}
	return l.Currency + " " + d.StringFixed(2)
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseCalendarDate reads YYYY-MM-DD as a calendar date. The result is
// midnight UTC and only its year, month and day are meaningful.
func ParseCalendarDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !isoDate.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LongDate renders the long weekday/day/month/year form. An author-supplied
// override always wins; text that is not an ISO date is shown as is.
func (l Locale) LongDate(iso, override string) string {
	if o := strings.TrimSpace(override); o != "" && o != emDash {
		return o
	}
	iso = strings.TrimSpace(iso)
	if iso == "" || iso == emDash {
		return l.DateNotRecorded
	}
	d, ok := ParseCalendarDate(iso)
	if !ok {
		return iso
	}
	return fmt.Sprintf("%s, %d de %s de %d",
		l.Weekdays[d.Weekday()], d.Day(), l.Months[d.Month()-1], d.Year())
}

// TimeLabel renders a time slot. The undefined flag beats any text.
func (l Locale) TimeLabel(slot model.TimeSlot) string {
	if slot.Undefined {
		return l.TimeToBeDefined
	}
	t := strings.TrimSpace(slot.Text)
	if t == "" {
		return emDash
	}
	return t
}
