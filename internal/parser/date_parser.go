package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyRegex      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoRegex      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(hour|hours|h|day|days|d|week|weeks|w)$`)
)

// ParseDate parses task start/end dates relative to now.
// Supported formats:
// - dd/mm/yyyy (e.g., "15/12/2026") and yyyy-mm-dd
// - today, tomorrow
// - X hours, X days, X weeks (also "3days", "2w")
// Calendar dates resolve to the end of that day.
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	switch input {
	case "today":
		return endOfDay(now, 0), nil
	case "tomorrow":
		return endOfDay(now, 1), nil
	case "now":
		return now, nil
	}

	if t, err := parseCalendarDate(input, now.Location()); err == nil {
		return t, nil
	} else if dmyRegex.MatchString(input) || isoRegex.MatchString(input) {
		return time.Time{}, err
	}

	if t, err := parseRelativeTime(input, now); err == nil {
		return t, nil
	} else if relativeRegex.MatchString(input) {
		return time.Time{}, err
	}

	return time.Time{}, fmt.Errorf("invalid date format. Use: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow, X hours, X days, or X weeks")
}

func parseCalendarDate(input string, loc *time.Location) (time.Time, error) {
	var day, month, year int
	if m := dmyRegex.FindStringSubmatch(input); m != nil {
		day, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
	} else if m := isoRegex.FindStringSubmatch(input); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
	} else {
		return time.Time{}, fmt.Errorf("invalid date format")
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if year < 1970 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 1970 and 2100")
	}

	t := time.Date(year, time.Month(month), day, 23, 59, 59, 0, loc)
	// time.Date normalises 31/02 into March
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid date")
	}
	return t, nil
}

func parseRelativeTime(input string, now time.Time) (time.Time, error) {
	m := relativeRegex.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid relative time format")
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number")
	}

	switch m[2] {
	case "hour", "hours", "h":
		if amount < 1 || amount > 8760 { // Max 1 year in hours
			return time.Time{}, fmt.Errorf("hours must be between 1 and 8760")
		}
		return now.Add(time.Duration(amount) * time.Hour), nil
	case "day", "days", "d":
		if amount < 1 || amount > 365 {
			return time.Time{}, fmt.Errorf("days must be between 1 and 365")
		}
		return endOfDay(now, amount), nil
	case "week", "weeks", "w":
		if amount < 1 || amount > 52 {
			return time.Time{}, fmt.Errorf("weeks must be between 1 and 52")
		}
		return endOfDay(now, amount*7), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time unit")
}

func endOfDay(now time.Time, addDays int) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, addDays).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
}

// FormatDate renders an end date for listings, relative to now.
func FormatDate(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	local := t.In(now.Location())
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())
	daysDiff := int(day.Sub(today).Hours() / 24)

	dateStr := local.Format("02/01/2006")
	switch {
	case daysDiff < 0:
		return fmt.Sprintf("overdue (%s)", dateStr)
	case daysDiff == 0:
		return fmt.Sprintf("today (%s)", dateStr)
	case daysDiff == 1:
		return fmt.Sprintf("tomorrow (%s)", dateStr)
	case daysDiff <= 7:
		return fmt.Sprintf("%s (in %d days)", dateStr, daysDiff)
	default:
		return dateStr
	}
}
