// Package gameclock turns a basketball scoreboard clock into game minutes.
//
// Clocks arrive either as ISO-8601 durations ("PT05M32.00S", as the live
// feed reports both the period clock and player minutes) or as "m:ss".
package gameclock

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	Quarters          = 4
	QuarterMinutes    = 12.0
	OvertimeMinutes   = 5.0
	RegulationMinutes = Quarters * QuarterMinutes
)

var ErrBadClock = errors.New("unrecognized clock")

var isoClock = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?$`)

// ParseClock reads "PT05M32.00S", "PT32.5S", "5:32" or "5:32.4".
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadClock)
	}

	if m := isoClock.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		if m[1] == "" && m[2] == "" && m[3] == "" {
			return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
		}
		hours, _ := strconv.Atoi(orZero(m[1]))
		minutes, _ := strconv.Atoi(orZero(m[2]))
		seconds, _ := strconv.ParseFloat(orZero(m[3]), 64)
		return time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds*float64(time.Second)), nil
	}

	mins, secs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	minutes, err := strconv.Atoi(mins)
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	seconds, err := strconv.ParseFloat(secs, 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return time.Duration(minutes)*time.Minute + time.Duration(seconds*float64(time.Second)), nil
}

// ParseMinutes reads a player's minutes played in either clock format.
func ParseMinutes(s string) (float64, error) {
	d, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return d.Minutes(), nil
}

// Remaining returns game minutes left given the period (1-4 regulation,
// 5+ overtime) and the time left on its clock. Period 0 is pregame.
func Remaining(period int, clock time.Duration) float64 {
	left := math.Max(0, clock.Minutes())
	switch {
	case period <= 0:
		return RegulationMinutes
	case period <= Quarters:
		left = math.Min(left, QuarterMinutes)
		return left + float64(Quarters-period)*QuarterMinutes
	default:
		return math.Min(left, OvertimeMinutes)
	}
}

// Label formats the period and clock the way the scoreboard shows them:
// "Q3 5:07", "OT1 0:42".
func Label(period int, clock time.Duration) string {
	total := int(clock.Seconds())
	if total < 0 {
		total = 0
	}
	c := fmt.Sprintf("%d:%02d", total/60, total%60)
	switch {
	case period <= 0:
		return "Pregame"
	case period <= Quarters:
		return fmt.Sprintf("Q%d %s", period, c)
	default:
		return fmt.Sprintf("OT%d %s", period-Quarters, c)
	}
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
