// Package calendar provides pure month-key arithmetic shared by the
// reconciliation service and its repositories. A month key is a "YYYY-MM"
// string; all functions here are side-effect free.
package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// InvalidMonthIndex is returned by MonthKeyToIndex for malformed input.
// Callers must check before doing arithmetic with the result.
const InvalidMonthIndex = -1

var monthKeyPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// MonthKeyToIndex converts a "YYYY-MM" month key into a linear month ordinal
// (year*12 + month-1). Returns InvalidMonthIndex for malformed keys.
func MonthKeyToIndex(key string) int {
	m := monthKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return InvalidMonthIndex
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return InvalidMonthIndex
	}
	return year*12 + (month - 1)
}

// IndexToMonthKey is the inverse of MonthKeyToIndex.
func IndexToMonthKey(index int) string {
	year := index / 12
	month := (index % 12) + 1
	return fmt.Sprintf("%04d-%02d", year, month)
}

// IsValidMonthKey reports whether key parses to a real calendar month.
func IsValidMonthKey(key string) bool {
	return MonthKeyToIndex(key) != InvalidMonthIndex
}

// MonthKeysBetween returns the inclusive ascending list of month keys from
// start to end. The result is empty when start is chronologically after end
// or when either key is malformed.
func MonthKeysBetween(start, end string) []string {
	startIdx := MonthKeyToIndex(start)
	endIdx := MonthKeyToIndex(end)
	if startIdx == InvalidMonthIndex || endIdx == InvalidMonthIndex || startIdx > endIdx {
		return []string{}
	}
	keys := make([]string, 0, endIdx-startIdx+1)
	for i := startIdx; i <= endIdx; i++ {
		keys = append(keys, IndexToMonthKey(i))
	}
	return keys
}

// MonthKeyOf returns the month key of the given instant in UTC.
func MonthKeyOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// DaysIn returns the number of days in the calendar month of the given key.
func DaysIn(monthKey string) (int, error) {
	idx := MonthKeyToIndex(monthKey)
	if idx == InvalidMonthIndex {
		return 0, fmt.Errorf("invalid month key %q", monthKey)
	}
	year := idx / 12
	month := time.Month(idx%12 + 1)
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(), nil
}

// ComputeDueDate returns the due date for a month key and a target day of
// month, clamping the day to the length of the month (day 31 in February
// yields the 28th or 29th).
func ComputeDueDate(monthKey string, dueDayOfMonth int) (time.Time, error) {
	idx := MonthKeyToIndex(monthKey)
	if idx == InvalidMonthIndex {
		return time.Time{}, fmt.Errorf("invalid month key %q", monthKey)
	}
	lastDay, err := DaysIn(monthKey)
	if err != nil {
		return time.Time{}, err
	}
	day := dueDayOfMonth
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}
	year := idx / 12
	month := time.Month(idx%12 + 1)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// FirstOfMonth returns the first day of the month for the given key.
func FirstOfMonth(monthKey string) (time.Time, error) {
	return ComputeDueDate(monthKey, 1)
}
