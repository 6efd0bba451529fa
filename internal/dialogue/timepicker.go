package dialogue

import (
	"regexp"
	"strconv"
	"strings"
)

// TimePresets are offered as one-tap choices on the time picker.
var TimePresets = []string{"09:00", "12:00", "15:00", "18:00", "21:00", "23:00"}

// 24-hour H:MM or HH:MM.
var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock parses a strict 24-hour time of day.
func ParseClock(input string) (Clock, bool) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(input))
	if match == nil {
		return Clock{}, false
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	return Clock{Hour: hour, Minute: minute, Set: true}, true
}

func timeKeyboard() [][]Button {
	rows := make([][]Button, 0, len(TimePresets)/3+2)
	row := make([]Button, 0, 3)
	for _, preset := range TimePresets {
		row = append(row, Button{Text: preset, Token: prefixTime + preset})
		if len(row) == 3 {
			rows = append(rows, row)
			row = make([]Button, 0, 3)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []Button{{Text: "Other time", Token: TokenTimeCustom}})
	return append(rows, []Button{backButton()})
}
