package behaviour

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders durations, clock times and percentages the way they are spoken.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter returns a formatter for locale. Unparseable locales fall back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Language is the formatter's language tag.
func (f *Formatter) Language() language.Tag { return f.tag }

// Number renders n with the locale's digit grouping.
func (f *Formatter) Number(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Duration renders d in whole seconds, e.g. "1 hour 2 minutes 5 seconds".
func (f *Formatter) Duration(d time.Duration) string {
	total := int(d.Round(time.Second) / time.Second)
	if total < 0 {
		total = -total
	}
	h, m, s := total/3600, total/60%60, total%60

	var parts []string
	if h > 0 {
		parts = append(parts, f.unit(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, f.unit(m, "minute"))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, f.unit(s, "second"))
	}
	return strings.Join(parts, " ")
}

func (f *Formatter) unit(n int, name string) string {
	if n != 1 {
		name += "s"
	}
	return f.Number(n) + " " + name
}

// Clock renders the wall-clock time of t as hours and minutes.
func (f *Formatter) Clock(t time.Time) string {
	return t.Format("15:04")
}

// Percent renders part of total as a truncated whole percentage, "0%" when total is zero.
func (f *Formatter) Percent(part, total time.Duration) string {
	if total <= 0 {
		return "0%"
	}
	return f.Number(int(float64(part)/float64(total)*100)) + "%"
}
