// Package datatypes defines shared types for lifecycle events.
package datatypes

import (
	"errors"
	"fmt"
)

// ErrInvalidEventKind is returned when an event kind string is not recognized.
var ErrInvalidEventKind = errors.New("invalid event kind")

// EventKind represents a platform lifecycle transition as an enum.
// Use String() to get the string representation for API/logs.
type EventKind uint8

// Event kind constants; string form is given in eventKindMap.
const (
	AccountCreated EventKind = iota
	AccountUpdated
	AccountDeletePending
	ProfileSaved
	CourseCreated
	CategoryLinkDeletePending
	EnrollmentSaved
)

// eventKindMap maps string representations to EventKind enums.
// This is the single source of truth for valid event kind strings.
var eventKindMap = map[string]EventKind{
	"account.created":              AccountCreated,
	"account.updated":              AccountUpdated,
	"account.delete_pending":       AccountDeletePending,
	"profile.saved":                ProfileSaved,
	"course.created":               CourseCreated,
	"category_link.delete_pending": CategoryLinkDeletePending,
	"enrollment.saved":             EnrollmentSaved,
}

// reverseEventKindMap maps EventKind enums to string representations.
// Built at init time from eventKindMap for O(1) lookups.
var reverseEventKindMap map[EventKind]string

func init() {
	reverseEventKindMap = make(map[EventKind]string, len(eventKindMap))
	for str, kind := range eventKindMap {
		reverseEventKindMap[kind] = str
	}
}

// String returns the string representation of an EventKind.
// Returns empty string for invalid kinds.
func (k EventKind) String() string {
	str, ok := reverseEventKindMap[k]
	if !ok {
		return ""
	}

	return str
}

// ParseEventKind converts a string to an EventKind enum.
func ParseEventKind(s string) (EventKind, error) {
	kind, ok := eventKindMap[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidEventKind, s)
	}

	return kind, nil
}

// IsValidEventKind checks if an event kind string is valid.
func IsValidEventKind(s string) bool {
	_, ok := eventKindMap[s]

	return ok
}

// AllEventKinds returns all valid event kind strings (for validation and metrics).
// The order is not guaranteed (map iteration order).
func AllEventKinds() []string {
	kinds := make([]string, 0, len(eventKindMap))
	for k := range eventKindMap {
		kinds = append(kinds, k)
	}

	return kinds
}
