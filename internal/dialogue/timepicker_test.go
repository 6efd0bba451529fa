package dialogue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  Clock
		ok    bool
	}{
		{"09:00", Clock{Hour: 9, Minute: 0, Set: true}, true},
		{"9:05", Clock{Hour: 9, Minute: 5, Set: true}, true},
		{" 23:59 ", Clock{Hour: 23, Minute: 59, Set: true}, true},
		{"00:00", Clock{Hour: 0, Minute: 0, Set: true}, true},
		{"24:00", Clock{}, false},
		{"12:60", Clock{}, false},
		{"1200", Clock{}, false},
		{"noon", Clock{}, false},
		{"", Clock{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseClock(tt.input)
		require.Equal(t, tt.ok, ok, tt.input)
		require.Equal(t, tt.want, got, tt.input)
	}
}

func TestTimeKeyboard(t *testing.T) {
	rows := timeKeyboard()
	require.Len(t, rows, 4)
	require.Equal(t, "time:09:00", rows[0][0].Token)
	require.Equal(t, "time:23:00", rows[1][2].Token)
	require.Equal(t, TokenTimeCustom, rows[2][0].Token)
	require.Equal(t, TokenBack, rows[3][0].Token)
}
