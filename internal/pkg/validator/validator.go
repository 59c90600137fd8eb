package validator

import (
	"regexp"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.
var uuidv7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// UUIDv7 validation
func IsValidUUID(uuid string) bool {
	return uuidv7Regex.MatchString(strings.ToLower(uuid))
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// Layouts accepted from clients. Everything is local wall-clock time.
const (
	PunchTimestampLayout = "02/01/2006 15:04"
	DMYDateLayout        = "02/01/2006"
	ClockLayout          = "15:04"
)

var (
	punchTimestampRegex = regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}$`)
	dmyDateRegex        = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	clockRegex          = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// IsValidPunchTimestamp checks for "dd/mm/yyyy hh:mm" with real calendar values.
func IsValidPunchTimestamp(s string) bool {
	_, err := ParsePunchTimestamp(s, time.UTC)
	return err == nil
}

// ParsePunchTimestamp parses "dd/mm/yyyy hh:mm" in loc.
func ParsePunchTimestamp(s string, loc *time.Location) (time.Time, error) {
	if !punchTimestampRegex.MatchString(s) {
		return time.Time{}, &time.ParseError{Layout: PunchTimestampLayout, Value: s, Message: ": expected dd/mm/yyyy hh:mm"}
	}
	return time.ParseInLocation(PunchTimestampLayout, s, loc)
}

// IsValidDMYDate checks for "dd/mm/yyyy".
func IsValidDMYDate(s string) bool {
	_, err := ParseDMYDate(s, time.UTC)
	return err == nil
}

// ParseDMYDate parses "dd/mm/yyyy" as local midnight in loc.
func ParseDMYDate(s string, loc *time.Location) (time.Time, error) {
	if !dmyDateRegex.MatchString(s) {
		return time.Time{}, &time.ParseError{Layout: DMYDateLayout, Value: s, Message: ": expected dd/mm/yyyy"}
	}
	return time.ParseInLocation(DMYDateLayout, s, loc)
}

// IsValidClock checks for a 24-hour "HH:mm".
func IsValidClock(s string) bool {
	_, _, ok := ParseClock(s)
	return ok
}

// ParseClock splits a 24-hour "HH:mm" into hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
	if !clockRegex.MatchString(s) {
		return 0, 0, false
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// CombineDateClock returns the instant at hour:minute on the calendar day of date.
func CombineDateClock(date time.Time, hour, minute int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, date.Location())
}
