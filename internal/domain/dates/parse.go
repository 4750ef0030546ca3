package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parser turns a raw cell value into a time. ok is false for empty or
// unparsable input.
type Parser func(raw string) (t time.Time, ok bool)

// maxSheetSerial bounds spreadsheet serial day numbers (year 2173); larger
// numbers are treated as compact dates such as 20240310.
const maxSheetSerial = 100000

var (
	// sheetEpoch is day zero of spreadsheet serial dates.
	sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

	// Date(2024,2,5) or Date(2024,2,5,14,30,0); month is zero-based.
	sheetLiteral = regexp.MustCompile(`^Date\((\d{4}),\s*(\d{1,2}),\s*(\d{1,2})(?:,\s*(\d{1,2}),\s*(\d{1,2})(?:,\s*(\d{1,2}))?)?\)$`)
)

// ParseDateString returns a lenient parser for ISO-8601 and common business
// formats. Values without an offset are read in loc.
func ParseDateString(loc *time.Location) Parser {
	if loc == nil {
		loc = time.UTC
	}
	return func(raw string) (time.Time, bool) {
		s := strings.TrimSpace(raw)
		if IsBlank(s) {
			return time.Time{}, false
		}
		t, err := dateparse.ParseIn(s, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

// ParseSheetDate returns a parser for values exported from spreadsheets:
// Date(y,m,d[,h,mi,s]) literals and serial day numbers. Anything else is
// handed to ParseDateString.
func ParseSheetDate(loc *time.Location) Parser {
	if loc == nil {
		loc = time.UTC
	}
	fallback := ParseDateString(loc)
	return func(raw string) (time.Time, bool) {
		s := strings.TrimSpace(raw)
		if IsBlank(s) {
			return time.Time{}, false
		}
		if m := sheetLiteral.FindStringSubmatch(s); m != nil {
			return fromLiteral(m, loc)
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < maxSheetSerial {
			return fromSerial(serial, loc), true
		}
		return fallback(s)
	}
}

func fromLiteral(m []string, loc *time.Location) (time.Time, bool) {
	n := make([]int, 6)
	for i := range n {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		n[i] = v
	}
	if n[1] > 11 || n[2] < 1 || n[2] > 31 {
		return time.Time{}, false
	}
	return time.Date(n[0], time.Month(n[1]+1), n[2], n[3], n[4], n[5], 0, loc), true
}

func fromSerial(serial float64, loc *time.Location) time.Time {
	days := int(serial)
	frac := serial - float64(days)
	d := sheetEpoch.AddDate(0, 0, days)
	t := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return t.Add(time.Duration(frac * float64(24*time.Hour)).Round(time.Second))
}

// IsBlank reports whether a cell holds no date at all: empty, or one of the
// placeholders spreadsheets and exports write for a missing value.
func IsBlank(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "null", "undefined", "-":
		return true
	}
	return false
}

// Classifier applies InRange and IsOnTime to raw strings using Parse.
type Classifier struct {
	Parse Parser
}

// InRange is InRange over raw values; unparsable values count as absent.
func (c Classifier) InRange(a, b string, r Range) bool {
	ta, _ := c.Parse(a)
	tb, _ := c.Parse(b)
	return InRange(ta, tb, r)
}

// IsOnTime is IsOnTime over raw values; unparsable values count as absent.
func (c Classifier) IsOnTime(due, completed string) bool {
	td, _ := c.Parse(due)
	tc, _ := c.Parse(completed)
	return IsOnTime(td, tc)
}
