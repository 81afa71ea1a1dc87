package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParsedTask represents a task parsed from quick-add syntax
type ParsedTask struct {
	Content    string
	TagName    string
	ParentTask *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Errors     []string
}

var (
	tagRegex    = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_-]+)`)
	parentRegex = regexp.MustCompile(`(?:^|\s)\^(\d+)`)
	endRegex    = regexp.MustCompile(`(?:^|\s)(?:due|end):(\S+)`)
	startRegex  = regexp.MustCompile(`(?:^|\s)start:(\S+)`)
)

// Dates resolves the task window. Start defaults to now and the due date to
// the end of today; a due date before the start is moved up to the start.
func (p ParsedTask) Dates(now time.Time) (start, end time.Time) {
	start = now
	if p.StartDate != nil {
		start = *p.StartDate
	}
	end = endOfDay(now, 0)
	if p.EndDate != nil {
		end = *p.EndDate
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}

// ParseTaskInput extracts metadata from a task line.
// Syntax: "Write report #Work ^12 start:today due:3days"
//
//	#tag        - tag name (first one wins)
//	^id         - parent task id
//	start:date  - start date (defaults to now at creation)
//	due:date    - end date (end: is accepted too)
func ParseTaskInput(input string, now time.Time) ParsedTask {
	result := ParsedTask{Errors: []string{}}

	if m := tagRegex.FindAllStringSubmatch(input, -1); len(m) > 0 {
		result.TagName = m[0][1]
		if len(m) > 1 {
			result.Errors = append(result.Errors, "Only one tag per task; using #"+result.TagName)
		}
		input = tagRegex.ReplaceAllString(input, " ")
	}

	if m := parentRegex.FindStringSubmatch(input); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 {
			result.Errors = append(result.Errors, "Invalid parent task '^"+m[1]+"'")
		} else {
			result.ParentTask = &id
		}
		input = parentRegex.ReplaceAllString(input, " ")
	}

	if m := startRegex.FindStringSubmatch(input); m != nil {
		if t, err := ParseDate(m[1], now); err != nil {
			result.Errors = append(result.Errors, "Invalid start date '"+m[1]+"': "+err.Error())
		} else {
			result.StartDate = &t
		}
		input = startRegex.ReplaceAllString(input, " ")
	}

	if m := endRegex.FindStringSubmatch(input); m != nil {
		if t, err := ParseDate(m[1], now); err != nil {
			result.Errors = append(result.Errors, "Invalid due date '"+m[1]+"': "+err.Error())
		} else {
			result.EndDate = &t
		}
		input = endRegex.ReplaceAllString(input, " ")
	}

	result.Content = strings.Join(strings.Fields(input), " ")
	if result.StartDate != nil && result.EndDate != nil && result.EndDate.Before(*result.StartDate) {
		result.Errors = append(result.Errors, "Due date is before start date")
	}
	return result
}
