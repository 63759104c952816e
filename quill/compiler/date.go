package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Cumulative non-leap days before each month.
var daysBeforeMonth = [12]int64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// DateSeconds converts a YYYY-MM-DD calendar date to seconds since
// 1970-01-01 via a Gregorian day count: 365 days per elapsed year plus
// the leap corrections (y-1969)/4 - (y-1901)/100 + (y-1601)/400, plus the
// days before the target month and day-1. 1970-01-01 maps to 0 and the
// result is monotonic in the calendar date.
func DateSeconds(value string) (int64, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid date %q: want YYYY-MM-DD", value)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: bad year", value)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid date %q: bad month", value)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return 0, fmt.Errorf("invalid date %q: bad day", value)
	}

	y := int64(year)
	days := (y-1970)*365 +
		(y-1969)/4 -
		(y-1901)/100 +
		(y-1601)/400 +
		daysBeforeMonth[month-1] +
		int64(day) - 1

	return days * 86400, nil
}
