package gameclock

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT05M32.00S", 5*time.Minute + 32*time.Second},
		{"PT12M00.00S", 12 * time.Minute},
		{"PT32.5S", 32*time.Second + 500*time.Millisecond},
		{"PT24M", 24 * time.Minute},
		{"pt00m07.00s", 7 * time.Second},
		{"PT1H02M", 62 * time.Minute},
		{"5:32", 5*time.Minute + 32*time.Second},
		{" 0:07 ", 7 * time.Second},
		{"11:59.5", 11*time.Minute + 59*time.Second + 500*time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseClockErrors(t *testing.T) {
	for _, in := range []string{"", "PT", "Final", "5:75", "-1:00", "a:10", "PT5X"} {
		_, err := ParseClock(in)
		assert.True(t, errors.Is(err, ErrBadClock), "input %q", in)
	}
}

func TestParseMinutes(t *testing.T) {
	m, err := ParseMinutes("PT24M35.00S")
	require.NoError(t, err)
	assert.InDelta(t, 24+35.0/60, m, 1e-9)

	_, err = ParseMinutes("DNP")
	assert.Error(t, err)
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name   string
		period int
		clock  time.Duration
		want   float64
	}{
		{"pregame", 0, 0, 48},
		{"tip-off", 1, 12 * time.Minute, 48},
		{"mid second", 2, 6 * time.Minute, 30},
		{"end of third", 3, 0, 12},
		{"final buzzer", 4, 0, 0},
		{"clock over quarter length", 4, 20 * time.Minute, 12},
		{"overtime", 5, 2 * time.Minute, 2},
		{"double overtime start", 6, 5 * time.Minute, 5},
		{"negative clock", 2, -time.Minute, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Remaining(tt.period, tt.clock), 1e-9)
		})
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Pregame", Label(0, 0))
	assert.Equal(t, "Q3 5:07", Label(3, 5*time.Minute+7*time.Second))
	assert.Equal(t, "OT1 0:42", Label(5, 42*time.Second))
}
