package dialogue

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// YearMonth identifies one calendar page.
type YearMonth struct {
	Year  int
	Month time.Month
}

// PageOf returns the page containing t.
func PageOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Next returns the following month, rolling December over to January of the next year.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Prev returns the preceding month, rolling January back to December of the previous year.
func (ym YearMonth) Prev() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Valid reports whether ym names a real month.
func (ym YearMonth) Valid() bool {
	return ym.Year > 0 && ym.Month >= time.January && ym.Month <= time.December
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return time.Date(ym.Year, ym.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%s %d", ym.Month, ym.Year)
}

var weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// calendarKeyboard renders a Monday-first month grid. Days before today are inert.
func calendarKeyboard(page YearMonth, today Date) [][]Button {
	prev, next := page.Prev(), page.Next()
	rows := [][]Button{
		{
			{Text: "◀", Token: navToken(prev)},
			{Text: page.String(), Token: TokenIgnore},
			{Text: "▶", Token: navToken(next)},
		},
	}

	header := make([]Button, 0, len(weekdays))
	for _, day := range weekdays {
		header = append(header, Button{Text: day, Token: TokenIgnore})
	}
	rows = append(rows, header)

	first := time.Date(page.Year, page.Month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7 // Monday = 0

	week := make([]Button, 0, 7)
	for i := 0; i < offset; i++ {
		week = append(week, Button{Text: " ", Token: TokenIgnore})
	}
	for day := 1; day <= page.Days(); day++ {
		date := Date{Year: page.Year, Month: page.Month, Day: day}
		if dateBefore(date, today) {
			week = append(week, Button{Text: "·", Token: TokenIgnore})
		} else {
			week = append(week, Button{Text: strconv.Itoa(day), Token: dayToken(date)})
		}
		if len(week) == 7 {
			rows = append(rows, week)
			week = make([]Button, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Button{Text: " ", Token: TokenIgnore})
		}
		rows = append(rows, week)
	}

	return append(rows, []Button{backButton()})
}

func navToken(ym YearMonth) string {
	return fmt.Sprintf("%s%d:%d", prefixCalendarNav, ym.Year, int(ym.Month))
}

func dayToken(d Date) string {
	return prefixCalendarDay + d.String()
}

// parseNav decodes "Y:M" into a page.
func parseNav(payload string) (YearMonth, bool) {
	yearPart, monthPart, ok := strings.Cut(payload, ":")
	if !ok {
		return YearMonth{}, false
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return YearMonth{}, false
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil {
		return YearMonth{}, false
	}
	ym := YearMonth{Year: year, Month: time.Month(month)}
	return ym, ym.Valid()
}

// parseDay decodes "YYYY-MM-DD" rejecting days that do not exist.
func parseDay(payload string) (Date, bool) {
	t, err := time.Parse("2006-01-02", payload)
	if err != nil {
		return Date{}, false
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, true
}

func dateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func dateBefore(a, b Date) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	return a.Day < b.Day
}
