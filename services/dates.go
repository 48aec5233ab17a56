package services

import (
	"fmt"
	"time"
)

// dateLayouts sind die unterstützten Eingabeformate in fester Prioritätsreihenfolge.
// Das erste Layout, das fehlerfrei parst, gewinnt.
var dateLayouts = []string{
	"02/01/2006",    // day-first, z.B. "01/01/2019"
	"2006-01-02",    // ISO, z.B. "2019-01-01"
	"2 January 2006", // Langform, z.B. "1 January 2019"
}

// Date ist ein reines Kalenderdatum ohne Uhrzeit und Zeitzone.
// Die kanonische Textform ist ISO "YYYY-MM-DD".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String gibt die kanonische ISO-Form zurück.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON serialisiert das Datum als ISO-String.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON akzeptiert die kanonische ISO-Form.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return &DateFormatError{Value: s, Layouts: []string{"2006-01-02"}}
	}
	t, err := time.Parse("2006-01-02", s[1:len(s)-1])
	if err != nil {
		return &DateFormatError{Value: s[1 : len(s)-1], Layouts: []string{"2006-01-02"}}
	}
	*d = dateOf(t)
	return nil
}

// Before meldet, ob d vor other liegt.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func dateOf(t time.Time) Date {
	y, m, day := t.Date()
	return Date{Year: y, Month: m, Day: day}
}

// ParseDate normalisiert einen heterogenen Datums-String auf ein Kalenderdatum.
// Die Layouts werden in fester Reihenfolge probiert; passt keines, kommt ein
// *DateFormatError mit dem String und allen probierten Layouts zurück.
// Die Funktion ist pur (kein I/O) und damit isoliert testbar.
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return dateOf(t), nil
	}
	return Date{}, &DateFormatError{Value: s, Layouts: append([]string(nil), dateLayouts...)}
}

// FormatDate rendert ein Datum im angegebenen Layout (Gegenstück zu ParseDate,
// für Round-Trip-Tests und Export).
func FormatDate(d Date, layout string) string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(layout)
}
