package fiscal_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/fiscal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalendar_QuarterOf_DefaultAprilStart(t *testing.T) {
	cal := fiscal.DefaultCalendar()

	tests := []struct {
		month time.Month
		want  fiscal.Quarter
	}{
		{time.April, fiscal.Q1},
		{time.May, fiscal.Q1},
		{time.June, fiscal.Q1},
		{time.July, fiscal.Q2},
		{time.August, fiscal.Q2},
		{time.September, fiscal.Q2},
		{time.October, fiscal.Q3},
		{time.November, fiscal.Q3},
		{time.December, fiscal.Q3},
		{time.January, fiscal.Q4},
		{time.February, fiscal.Q4},
		{time.March, fiscal.Q4},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, cal.QuarterOf(date(2024, tt.month, 15)))
		})
	}
}

func TestCalendar_QuarterOf_CustomStart(t *testing.T) {
	cal, err := fiscal.NewCalendar(time.January)
	require.NoError(t, err)

	assert.Equal(t, fiscal.Q1, cal.QuarterOf(date(2024, time.March, 31)))
	assert.Equal(t, fiscal.Q2, cal.QuarterOf(date(2024, time.April, 1)))
	assert.Equal(t, fiscal.Q4, cal.QuarterOf(date(2024, time.December, 31)))

	cal, err = fiscal.NewCalendar(time.July)
	require.NoError(t, err)
	assert.Equal(t, fiscal.Q1, cal.QuarterOf(date(2024, time.July, 1)))
	assert.Equal(t, fiscal.Q4, cal.QuarterOf(date(2024, time.June, 30)))
}

func TestNewCalendar_InvalidMonth(t *testing.T) {
	_, err := fiscal.NewCalendar(0)
	assert.Error(t, err)

	_, err = fiscal.NewCalendar(13)
	assert.Error(t, err)
}

func TestCalendar_ZeroValueUsesDefault(t *testing.T) {
	var cal fiscal.Calendar
	assert.Equal(t, time.April, cal.StartMonth())
	assert.Equal(t, fiscal.Q1, cal.QuarterOf(date(2024, time.May, 10)))
}

func TestCalendar_QuarterOfString(t *testing.T) {
	cal := fiscal.DefaultCalendar()

	tests := []struct {
		name  string
		input string
		want  fiscal.Quarter
	}{
		{"iso date", "2024-05-10", fiscal.Q1},
		{"rfc3339", "2024-08-01T10:00:00Z", fiscal.Q2},
		{"rfc3339 with offset keeps written date", "2024-12-31T23:30:00-05:00", fiscal.Q3},
		{"datetime without zone", "2025-01-15T09:00:00", fiscal.Q4},
		{"datetime with space", "2025-02-01 12:00:00", fiscal.Q4},
		{"us date", "03/31/2025", fiscal.Q4},
		{"us date without padding", "5/10/2024", fiscal.Q1},
		{"us date with padded day only", "9/01/2024", fiscal.Q2},
		{"us date impossible month", "13/01/2024", fiscal.NoQuarter},
		{"surrounding whitespace", "  2024-04-01  ", fiscal.Q1},
		{"empty", "", fiscal.NoQuarter},
		{"garbage", "not a date", fiscal.NoQuarter},
		{"impossible day", "2024-02-30", fiscal.NoQuarter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.QuarterOfString(tt.input))
		})
	}
}

func TestCalendar_FiscalYearOf(t *testing.T) {
	cal := fiscal.DefaultCalendar()

	tests := []struct {
		name  string
		asOf  time.Time
		label string
	}{
		{"january belongs to previous start year", date(2025, time.January, 10), "2024-2025"},
		{"march is last month", date(2025, time.March, 31), "2024-2025"},
		{"april starts new year", date(2025, time.April, 1), "2025-2026"},
		{"december", date(2025, time.December, 31), "2025-2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.label, cal.FiscalYearOf(tt.asOf).Label())
		})
	}
}

func TestCalendar_QuarterBounds(t *testing.T) {
	cal := fiscal.DefaultCalendar()
	bounds := cal.QuarterBounds(date(2025, time.February, 14))

	require.Len(t, bounds, 4)
	assert.Equal(t, date(2024, time.April, 1), bounds[fiscal.Q1].Start)
	assert.Equal(t, date(2024, time.June, 30), bounds[fiscal.Q1].End)
	assert.Equal(t, date(2024, time.July, 1), bounds[fiscal.Q2].Start)
	assert.Equal(t, date(2024, time.September, 30), bounds[fiscal.Q2].End)
	assert.Equal(t, date(2024, time.October, 1), bounds[fiscal.Q3].Start)
	assert.Equal(t, date(2024, time.December, 31), bounds[fiscal.Q3].End)
	assert.Equal(t, date(2025, time.January, 1), bounds[fiscal.Q4].Start)
	assert.Equal(t, date(2025, time.March, 31), bounds[fiscal.Q4].End)
}

func TestCalendar_QuarterBoundsAgreeWithQuarterOf(t *testing.T) {
	cal := fiscal.DefaultCalendar()
	asOf := date(2024, time.September, 1)
	bounds := cal.QuarterBounds(asOf)

	for day := bounds[fiscal.Q1].Start; !day.After(bounds[fiscal.Q4].End); day = day.AddDate(0, 0, 1) {
		q := cal.QuarterOf(day)
		assert.True(t, bounds[q].Contains(day), "day %s should be inside %s", day.Format("2006-01-02"), q)
	}
}

func TestBounds_MarshalJSON(t *testing.T) {
	b := fiscal.Bounds{Start: date(2024, time.April, 1), End: date(2024, time.June, 30)}

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2024-04-01","end":"2024-06-30"}`, string(data))
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label   string
		want    int
		wantErr bool
	}{
		{"2024-2025", 2024, false},
		{"1999-2000", 1999, false},
		{"2024-2026", 0, true},
		{"2024", 0, true},
		{"24-25", 0, true},
		{"2024-2025x", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := fiscal.ParseLabel(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
