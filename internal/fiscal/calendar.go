// Package fiscal resolves calendar dates into fiscal quarters and fiscal years.
// Every quarter decision in the service goes through this package.
package fiscal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Quarter identifies one of the four fiscal quarters
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"

	// NoQuarter is returned for missing or unparseable dates
	NoQuarter Quarter = ""
)

// DefaultStartMonth is the month the fiscal year begins in unless configured otherwise
const DefaultStartMonth = time.April

// dateLayouts lists the closing date formats accepted from CRM exports, most specific last
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	// US month/day/year, with or without zero padding
	"1/2/2006",
}

// Quarters returns the fiscal quarters in order
func Quarters() []Quarter {
	return []Quarter{Q1, Q2, Q3, Q4}
}

// IsValid reports whether q is one of Q1..Q4
func (q Quarter) IsValid() bool {
	switch q {
	case Q1, Q2, Q3, Q4:
		return true
	}
	return false
}

// Calendar maps dates onto a fiscal year that starts in a fixed month
type Calendar struct {
	startMonth time.Month
}

// NewCalendar creates a calendar whose fiscal year begins in startMonth
func NewCalendar(startMonth time.Month) (Calendar, error) {
	if startMonth < time.January || startMonth > time.December {
		return Calendar{}, fmt.Errorf("invalid fiscal start month: %d", startMonth)
	}
	return Calendar{startMonth: startMonth}, nil
}

// DefaultCalendar returns the April-start calendar
func DefaultCalendar() Calendar {
	return Calendar{startMonth: DefaultStartMonth}
}

// StartMonth returns the first month of the fiscal year.
// A zero Calendar behaves as the default calendar.
func (c Calendar) StartMonth() time.Month {
	if c.startMonth == 0 {
		return DefaultStartMonth
	}
	return c.startMonth
}

// QuarterOf returns the fiscal quarter the given date falls in
func (c Calendar) QuarterOf(t time.Time) Quarter {
	offset := (int(t.Month()) - int(c.StartMonth()) + 12) % 12
	return Quarters()[offset/3]
}

// QuarterOfString parses a closing date and returns its quarter, or NoQuarter
func (c Calendar) QuarterOfString(s string) Quarter {
	t, ok := ParseDate(s)
	if !ok {
		return NoQuarter
	}
	return c.QuarterOf(t)
}

// ParseDate parses a date in any of the accepted layouts.
// The date keeps the offset it was written with.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FiscalYear identifies a fiscal year by the calendar year it starts in
type FiscalYear struct {
	StartYear  int
	StartMonth time.Month
}

// FiscalYearOf returns the fiscal year containing t
func (c Calendar) FiscalYearOf(t time.Time) FiscalYear {
	year := t.Year()
	if t.Month() < c.StartMonth() {
		year--
	}
	return FiscalYear{StartYear: year, StartMonth: c.StartMonth()}
}

// Label renders the fiscal year as "<startYear>-<startYear+1>"
func (fy FiscalYear) Label() string {
	return fmt.Sprintf("%d-%d", fy.StartYear, fy.StartYear+1)
}

// Bounds is the first and last calendar day of a quarter
type Bounds struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls on a day within the bounds
func (b Bounds) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(b.Start) && !day.After(b.End)
}

// MarshalJSON renders the bounds as ISO dates
func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}{
		Start: b.Start.Format("2006-01-02"),
		End:   b.End.Format("2006-01-02"),
	})
}

// QuarterBounds returns the date range of each quarter of the fiscal year containing asOf
func (c Calendar) QuarterBounds(asOf time.Time) map[Quarter]Bounds {
	fy := c.FiscalYearOf(asOf)
	first := time.Date(fy.StartYear, fy.StartMonth, 1, 0, 0, 0, 0, time.UTC)

	bounds := make(map[Quarter]Bounds, 4)
	for i, q := range Quarters() {
		start := first.AddDate(0, 3*i, 0)
		bounds[q] = Bounds{
			Start: start,
			End:   start.AddDate(0, 3, -1),
		}
	}
	return bounds
}

// ParseLabel parses a "<startYear>-<startYear+1>" label such as "2024-2025"
func ParseLabel(label string) (int, error) {
	var start, end int
	if _, err := fmt.Sscanf(label, "%4d-%4d", &start, &end); err != nil {
		return 0, fmt.Errorf("invalid fiscal year label %q", label)
	}
	if end != start+1 || len(label) != 9 {
		return 0, fmt.Errorf("invalid fiscal year label %q", label)
	}
	return start, nil
}
