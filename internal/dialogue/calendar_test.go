package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestYearMonthRollsOverYearBoundaries(t *testing.T) {
	dec := YearMonth{Year: 2024, Month: time.December}
	require.Equal(t, YearMonth{Year: 2025, Month: time.January}, dec.Next())
	require.Equal(t, dec, dec.Next().Prev())

	jan := YearMonth{Year: 2025, Month: time.January}
	require.Equal(t, YearMonth{Year: 2024, Month: time.December}, jan.Prev())

	page := YearMonth{Year: 2025, Month: time.March}
	for i := 0; i < 24; i++ {
		require.Equal(t, page, page.Next().Prev())
		require.True(t, page.Valid())
		page = page.Next()
	}
	require.Equal(t, YearMonth{Year: 2027, Month: time.March}, page)
}

func TestYearMonthDays(t *testing.T) {
	require.Equal(t, 29, YearMonth{Year: 2024, Month: time.February}.Days())
	require.Equal(t, 28, YearMonth{Year: 2025, Month: time.February}.Days())
	require.Equal(t, 31, YearMonth{Year: 2025, Month: time.December}.Days())
	require.Equal(t, "March 2025", YearMonth{Year: 2025, Month: time.March}.String())
}

func TestCalendarKeyboardLayout(t *testing.T) {
	page := YearMonth{Year: 2025, Month: time.March}
	today := Date{Year: 2025, Month: time.March, Day: 5}

	rows := calendarKeyboard(page, today)

	require.Equal(t, "cal:nav:2025:2", rows[0][0].Token)
	require.Equal(t, "March 2025", rows[0][1].Text)
	require.Equal(t, "cal:nav:2025:4", rows[0][2].Token)
	require.Equal(t, "Mo", rows[1][0].Text)
	require.Equal(t, TokenBack, rows[len(rows)-1][0].Token)

	// 1 March 2025 is a Saturday.
	week := rows[2]
	require.Len(t, week, 7)
	require.Equal(t, TokenIgnore, week[0].Token)
	require.Equal(t, "·", week[5].Text)
	require.Equal(t, TokenIgnore, week[5].Token)

	var days []string
	for _, row := range rows[2 : len(rows)-1] {
		require.Len(t, row, 7)
		for _, b := range row {
			if b.Token != TokenIgnore {
				days = append(days, b.Token)
			}
		}
	}
	require.Equal(t, "cal:day:2025-03-05", days[0])
	require.Equal(t, "cal:day:2025-03-31", days[len(days)-1])
	require.Len(t, days, 27)
}

func TestCalendarKeyboardAtDecember(t *testing.T) {
	rows := calendarKeyboard(YearMonth{Year: 2025, Month: time.December}, Date{Year: 2025, Month: time.March, Day: 1})
	require.Equal(t, "cal:nav:2025:11", rows[0][0].Token)
	require.Equal(t, "cal:nav:2026:1", rows[0][2].Token)
}

func TestParseNavAndDay(t *testing.T) {
	ym, ok := parseNav("2026:1")
	require.True(t, ok)
	require.Equal(t, YearMonth{Year: 2026, Month: time.January}, ym)

	for _, bad := range []string{"2026", "2026:13", "2026:0", "x:1", "2026:y"} {
		_, ok := parseNav(bad)
		require.False(t, ok, bad)
	}

	day, ok := parseDay("2025-03-09")
	require.True(t, ok)
	require.Equal(t, Date{Year: 2025, Month: time.March, Day: 9}, day)

	_, ok = parseDay("2025-02-30")
	require.False(t, ok)
}

func TestDateBefore(t *testing.T) {
	a := Date{Year: 2025, Month: time.March, Day: 1}
	require.True(t, dateBefore(Date{Year: 2024, Month: time.December, Day: 31}, a))
	require.True(t, dateBefore(Date{Year: 2025, Month: time.February, Day: 28}, a))
	require.False(t, dateBefore(a, a))
	require.False(t, dateBefore(Date{Year: 2025, Month: time.March, Day: 2}, a))
}
