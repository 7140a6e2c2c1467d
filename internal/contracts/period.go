package contracts

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PeriodKey identifies a vintage: a month (Month 1..12) or a year (Month 0)
type PeriodKey struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}

// MonthPeriod returns the monthly PeriodKey containing t
func MonthPeriod(t time.Time) PeriodKey {
	return PeriodKey{Year: t.Year(), Month: int(t.Month())}
}

// YearPeriod returns an annual PeriodKey
func YearPeriod(year int) PeriodKey {
	return PeriodKey{Year: year}
}

// ParsePeriodKey parses "2025" or "2025-09"
func ParsePeriodKey(s string) (PeriodKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PeriodKey{}, nil
	}

	parts := strings.Split(s, "-")
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return PeriodKey{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	if len(parts) == 1 {
		return PeriodKey{Year: year}, nil
	}

	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return PeriodKey{}, fmt.Errorf("invalid period month %q", s)
	}
	return PeriodKey{Year: year, Month: month}, nil
}

// IsZero reports an unset period
func (p PeriodKey) IsZero() bool {
	return p.Year == 0
}

// IsAnnual reports a year-granularity period
func (p PeriodKey) IsAnnual() bool {
	return p.Month == 0
}

// Prior returns the period one year earlier (12 months for monthly keys)
func (p PeriodKey) Prior() PeriodKey {
	return PeriodKey{Year: p.Year - 1, Month: p.Month}
}

// Before reports whether p is earlier than o
func (p PeriodKey) Before(o PeriodKey) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Time returns the first instant of the period in UTC
func (p PeriodKey) Time() time.Time {
	month := p.Month
	if month == 0 {
		month = 1
	}
	return time.Date(p.Year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// String renders "2025" or "2025-09"; the zero period renders ""
func (p PeriodKey) String() string {
	if p.IsZero() {
		return ""
	}
	if p.IsAnnual() {
		return strconv.Itoa(p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
