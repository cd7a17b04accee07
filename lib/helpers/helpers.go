package helpers

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"math"
	"strings"
	"time"
)

// DateLayout mirrors the long date form chat users saw from the first bot versions.
const DateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// FormatNumber groups thousands with commas and keeps at most three fraction digits.
func FormatNumber(value float64) string {
	rounded := math.Round(value*1000) / 1000
	if rounded == 0 {
		return "0"
	}
	return humanize.Commaf(rounded)
}

// FormatInteger rounds to the nearest whole number and groups thousands with commas.
func FormatInteger(value float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", int64(math.Round(value)))
}

func FormatCount(value int64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", value)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}
