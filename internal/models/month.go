package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Months is the ordinal table; index+1 is the month number.
// Month strings are ordered through this table, never lexicographically.
var Months = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var monthOrdinals = func() map[string]int {
	m := make(map[string]int, 24)
	for i, name := range Months {
		m[strings.ToLower(name)] = i + 1
		m[strings.ToLower(time.Month(i+1).String())] = i + 1
	}
	return m
}()

// MonthOrdinal returns 1..12 for a three-letter or full month name, 0 otherwise.
func MonthOrdinal(month string) int {
	return monthOrdinals[strings.ToLower(strings.TrimSpace(month))]
}

// MonthName returns the three-letter form of ordinal, "" when out of range.
func MonthName(ordinal int) string {
	if ordinal < 1 || ordinal > 12 {
		return ""
	}
	return Months[ordinal-1]
}

// ParseMonth normalizes "Jan", "january", "1" or "01" to "Jan".
func ParseMonth(value string) (string, error) {
	value = strings.TrimSpace(value)
	if ordinal := MonthOrdinal(value); ordinal > 0 {
		return Months[ordinal-1], nil
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 12 {
		return Months[n-1], nil
	}
	return "", fmt.Errorf("invalid month %q", value)
}

// Quarter returns ceil(ordinal / 3).
func Quarter(ordinal int) int {
	return (ordinal + 2) / 3
}

// YearMonth is a calendar month. Comparisons go by year, then month ordinal.
type YearMonth struct {
	Year  int
	Month int
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// ParseYearMonth accepts "Mon-YYYY" (e.g. "Mar-2024").
func ParseYearMonth(value string) (YearMonth, error) {
	month, year, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("invalid period %q: expected Mon-YYYY", value)
	}
	name, err := ParseMonth(month)
	if err != nil {
		return YearMonth{}, err
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return YearMonth{}, fmt.Errorf("invalid year %q", year)
	}
	return YearMonth{Year: y, Month: MonthOrdinal(name)}, nil
}

// Compare returns -1, 0 or 1.
func (ym YearMonth) Compare(other YearMonth) int {
	switch {
	case ym.Year < other.Year:
		return -1
	case ym.Year > other.Year:
		return 1
	case ym.Month < other.Month:
		return -1
	case ym.Month > other.Month:
		return 1
	}
	return 0
}

func (ym YearMonth) Before(other YearMonth) bool {
	return ym.Compare(other) < 0
}

// AddMonths shifts by n months, negative n goes back.
func (ym YearMonth) AddMonths(n int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

func (ym YearMonth) MonthName() string {
	return MonthName(ym.Month)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%s-%d", ym.MonthName(), ym.Year)
}
